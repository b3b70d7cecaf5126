package solve

import (
	"runtime"
	"time"

	"github.com/demoworks/rota/pkg/logger"
)

// Default solver configuration constants.
const (
	defaultTimeLimit = 60 * time.Second
	defaultEjections = 2
	repairRounds     = 40
	jitterRange      = 16
	// stallLimit is how many fully-placed, non-improving candidates a
	// worker produces before retiring ahead of the deadline.
	stallLimit = 20
)

func defaultWorkers() int {
	return runtime.NumCPU()
}

// Option applies a configuration option to the Solver.
type Option func(*Solver)

// WithTimeLimit bounds the search wall-clock time.
func WithTimeLimit(limit time.Duration) Option {
	return func(s *Solver) {
		if limit > 0 {
			s.timeLimit = limit
		}
	}
}

// WithWorkers sets the number of parallel search workers.
func WithWorkers(workers int) Option {
	return func(s *Solver) {
		if workers > 0 {
			s.workers = workers
		}
	}
}

// WithSeed pins the base random seed for reproducible searches.
func WithSeed(seed int64) Option {
	return func(s *Solver) {
		s.seed = seed
	}
}

// WithEjections sets how many placements a repair round may eject.
func WithEjections(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.ejections = n
		}
	}
}

// WithLogger sets a custom logger for the solver.
func WithLogger(log logger.Logger) Option {
	return func(s *Solver) {
		if log != nil {
			s.log = log
		}
	}
}
