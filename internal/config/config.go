// Package config provides Viper-based configuration loading for the damage calculator.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// RatesConfig holds the game clock constants used to turn per-tick damage
// into wall-clock rates.
type RatesConfig struct {
	// TickSeconds is the length of one game tick.
	TickSeconds float64 `mapstructure:"tick_seconds"`
}

// EngineConfig holds damage engine limits.
type EngineConfig struct {
	// MaxTargets caps the number of targets an AoE attack can hit.
	MaxTargets int `mapstructure:"max_targets"`
	// Provenance records a derivation comment on every tracked value.
	Provenance bool `mapstructure:"provenance"`
}

// ScriptingConfig holds Lua modifier-script settings.
type ScriptingConfig struct {
	// InstructionLimit bounds each script evaluation; 0 uses the package default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// SweepConfig holds scenario sweep settings.
type SweepConfig struct {
	// Workers is the number of scenarios evaluated concurrently.
	Workers int `mapstructure:"workers"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Rates     RatesConfig     `mapstructure:"rates"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Sweep     SweepConfig     `mapstructure:"sweep"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Rates.TickSeconds <= 0 {
		errs = append(errs, fmt.Sprintf("rates.tick_seconds must be > 0, got %v", c.Rates.TickSeconds))
	}
	if c.Engine.MaxTargets < 1 {
		errs = append(errs, fmt.Sprintf("engine.max_targets must be >= 1, got %d", c.Engine.MaxTargets))
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}
	if c.Sweep.Workers < 1 {
		errs = append(errs, fmt.Sprintf("sweep.workers must be >= 1, got %d", c.Sweep.Workers))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// newViper returns a Viper instance with defaults and DPS_ environment overrides.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("rates.tick_seconds", 0.6)

	v.SetDefault("engine.max_targets", 9)
	v.SetDefault("engine.provenance", false)

	v.SetDefault("scripting.instruction_limit", 100_000)

	v.SetDefault("sweep.workers", 4)
}
