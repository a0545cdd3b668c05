// Command dpscalc loads attack scenarios, computes their exact damage
// distributions and prints them ranked by damage per second.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dpscalc/internal/config"
	"github.com/cory-johannsen/dpscalc/internal/engine"
	"github.com/cory-johannsen/dpscalc/internal/game/hitsplat"
	"github.com/cory-johannsen/dpscalc/internal/game/special"
	"github.com/cory-johannsen/dpscalc/internal/game/tracked"
	"github.com/cory-johannsen/dpscalc/internal/observability"
	"github.com/cory-johannsen/dpscalc/internal/scenario"
	"github.com/cory-johannsen/dpscalc/internal/scripting"
	"github.com/cory-johannsen/dpscalc/internal/sweep"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/default.yaml", "path to configuration file")
	scenariosDir := flag.String("scenarios", "content/scenarios", "path to scenario YAML files directory")
	scriptsDir := flag.String("scripts", "content/scripts", "path to Lua modifier scripts directory")
	detail := flag.Bool("detail", false, "print each hitsplat distribution")
	simulate := flag.Int("simulate", 0, "draw this many sampled attacks per scenario and report the sampled mean")
	seed := flag.Uint64("seed", 0, "seed for -simulate; 0 uses crypto/rand")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	tracked.EnableProvenance(cfg.Engine.Provenance)

	evaluator := scripting.NewEvaluator(cfg.Scripting.InstructionLimit, logger)
	if _, err := os.Stat(*scriptsDir); err == nil {
		names, err := evaluator.CompileDir(*scriptsDir)
		if err != nil {
			logger.Fatal("compiling modifier scripts", zap.Error(err))
		}
		logger.Info("modifier scripts compiled", zap.Int("count", len(names)))
	}

	scenarios, err := scenario.LoadDirectory(*scenariosDir)
	if err != nil {
		logger.Fatal("loading scenarios", zap.Error(err))
	}
	inputs := make([]engine.Input, 0, len(scenarios))
	for _, s := range scenarios {
		in, err := s.ToInput(evaluator)
		if err != nil {
			logger.Fatal("preparing scenario", zap.String("scenario", s.Name), zap.Error(err))
		}
		inputs = append(inputs, in)
	}

	rates := hitsplat.Rates{TickSeconds: cfg.Rates.TickSeconds}
	calc := engine.NewCalculator(special.NewRegistry(), rates, cfg.Engine.MaxTargets, logger)
	runner := sweep.NewRunner(calc, cfg.Sweep.Workers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcomes, runID, err := runner.Run(ctx, inputs)
	if err != nil {
		logger.Fatal("running sweep", zap.Error(err))
	}

	var src hitsplat.Source
	if *simulate > 0 {
		src = hitsplat.NewCryptoSource()
		if *seed != 0 {
			src = hitsplat.NewSeededSource(*seed)
		}
	}

	rep := report{rates: rates, detail: *detail, samples: *simulate, source: src}
	if err := rep.write(os.Stdout, outcomes); err != nil {
		logger.Fatal("writing report", zap.Error(err))
	}

	logger.Info("done",
		zap.String("run_id", runID),
		zap.Int("scenarios", len(outcomes)),
		zap.Duration("elapsed", time.Since(start)),
	)
}
