package engine

import (
	"time"

	"github.com/demoworks/rota/internal/snapshot"
	"github.com/demoworks/rota/internal/solve"
	"github.com/demoworks/rota/pkg/logger"
)

// Option configures the Engine.
type Option func(*Engine)

// WithSource sets the data source the snapshot is loaded from. Required.
func WithSource(src snapshot.Source) Option {
	return func(e *Engine) {
		e.src = src
	}
}

// WithRecorder sets the run and proposal sink. Required.
func WithRecorder(rec Recorder) Option {
	return func(e *Engine) {
		e.rec = rec
	}
}

// WithRules overrides the scheduling rules.
func WithRules(rules Rules) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithWeights overrides the objective weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithSolver injects a configured solver; defaults to solve.New.
func WithSolver(s *solve.Solver) Option {
	return func(e *Engine) {
		e.solver = s
	}
}

// WithLogger overrides the engine logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithNow pins the snapshot reference time; mainly for tests.
func WithNow(now time.Time) Option {
	return func(e *Engine) {
		e.snapOpts = append(e.snapOpts, snapshot.WithNow(now))
	}
}

// WithLeadDays sets the lead time before the earliest schedulable day.
func WithLeadDays(days int) Option {
	return func(e *Engine) {
		e.snapOpts = append(e.snapOpts, snapshot.WithLeadDays(days))
	}
}

// WithHorizonWeeks sets the scheduling horizon length.
func WithHorizonWeeks(weeks int) Option {
	return func(e *Engine) {
		e.snapOpts = append(e.snapOpts, snapshot.WithHorizonWeeks(weeks))
	}
}
