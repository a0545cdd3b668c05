// Package sweep evaluates many scenarios concurrently and ranks the results.
package sweep

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/dpscalc/internal/engine"
	"github.com/cory-johannsen/dpscalc/internal/observability"
)

// Outcome is the result of one scenario. Err is set when the scenario failed;
// Result is then zero.
type Outcome struct {
	Index  int
	Name   string
	Result engine.Result
	Err    error
}

// Runner fans scenarios out across a bounded worker pool.
type Runner struct {
	calc    *engine.Calculator
	workers int
	logger  *zap.Logger
}

// NewRunner creates a Runner.
//
// Precondition: calc and logger must be non-nil; workers >= 1.
func NewRunner(calc *engine.Calculator, workers int, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{calc: calc, workers: workers, logger: logger}
}

// Run computes every input and returns outcomes in input order. A failing
// scenario is reported in its Outcome and does not stop the others.
//
// Postcondition: Returns len(inputs) outcomes and the run identifier, or
// ctx.Err() if cancelled first.
func (r *Runner) Run(ctx context.Context, inputs []engine.Input) ([]Outcome, string, error) {
	logger, runID := observability.RunLogger(r.logger)
	logger.Info("sweep started", zap.Int("scenarios", len(inputs)), zap.Int("workers", r.workers))

	out := make([]Outcome, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.calc.Calculate(in)
			out[i] = Outcome{Index: i, Name: in.Name, Result: res, Err: err}
			if err != nil {
				logger.Warn("scenario failed", zap.String("scenario", in.Name), zap.Error(err))
				return nil
			}
			logger.Info("scenario computed",
				zap.String("scenario", in.Name),
				zap.String("mechanic", string(res.Mechanic)),
				zap.Int("max_hit", res.MaxHit),
				zap.Float64("accuracy", res.Accuracy),
				zap.Float64("dps", res.PerSecond),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, runID, fmt.Errorf("sweep %s: %w", runID, err)
	}

	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	logger.Info("sweep finished", zap.Int("scenarios", len(inputs)), zap.Int("failed", failed))
	return out, runID, nil
}

// Rank returns the successful outcomes ordered by damage per second, highest
// first. Ties keep input order.
func Rank(outcomes []Outcome) []Outcome {
	ranked := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err == nil {
			ranked = append(ranked, o)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Result.PerSecond > ranked[j].Result.PerSecond
	})
	return ranked
}
