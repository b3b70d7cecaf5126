// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and ROTA_* env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
	"time"

	"github.com/demoworks/rota/internal/engine"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DatabasePath is the SQLite file backing runs and proposals.
	DatabasePath string `koanf:"database_path"`

	// TimeLimitSeconds bounds one solve.
	TimeLimitSeconds int `koanf:"time_limit_seconds"`

	// Workers sets the number of parallel solver workers.
	Workers int `koanf:"workers"`

	// Seed fixes the solver seed; 0 means time-based.
	Seed int64 `koanf:"seed"`

	// LeadDays is the gap between now and the earliest schedulable day.
	LeadDays int `koanf:"lead_days"`

	// HorizonWeeks is the scheduling horizon length.
	HorizonWeeks int `koanf:"horizon_weeks"`

	// WeeklyCoreCeiling caps demo assignments per employee per week.
	WeeklyCoreCeiling int `koanf:"weekly_core_ceiling"`

	// JuicerWeeklySoftCap is the soft limit on weekly production visits.
	JuicerWeeklySoftCap int `koanf:"juicer_weekly_soft_cap"`

	// Weights tunes the objective terms.
	Weights engine.Weights `koanf:"weights"`
}

// New creates a Config with defaults.
func New() *Config {
	rules := engine.DefaultRules()
	return &Config{
		LogLevel:            "info",
		DatabasePath:        "rota.db",
		TimeLimitSeconds:    60,
		Workers:             runtime.NumCPU(),
		LeadDays:            2,
		HorizonWeeks:        3,
		WeeklyCoreCeiling:   rules.WeeklyCoreCeiling,
		JuicerWeeklySoftCap: rules.JuicerWeeklySoftCap,
		Weights:             engine.DefaultWeights(),
	}
}

// TimeLimit returns the solve bound as a duration.
func (c *Config) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds) * time.Second
}

// Rules materializes the rule set with configured ceilings applied.
func (c *Config) Rules() engine.Rules {
	rules := engine.DefaultRules()
	rules.WeeklyCoreCeiling = c.WeeklyCoreCeiling
	rules.JuicerWeeklySoftCap = c.JuicerWeeklySoftCap
	return rules
}
