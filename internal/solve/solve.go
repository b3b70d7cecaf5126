// Package solve runs a bounded-time search over a cpmodel. The search is
// randomized construction plus ejection repair, fanned out across worker
// goroutines with distinct seeds; the best feasible assignment found before
// the deadline wins. Optimality is never proven: the result is feasible,
// infeasible, or no-solution.
package solve

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/demoworks/rota/internal/cpmodel"
	"github.com/demoworks/rota/pkg/logger"
	"github.com/demoworks/rota/pkg/metrics"
)

// Status is the solver outcome.
type Status string

const (
	// StatusFeasible means a constraint-respecting assignment was found.
	// It may or may not be optimal; callers treat both the same.
	StatusFeasible Status = "feasible"
	// StatusInfeasible means no assignment can satisfy the model, not
	// even the empty schedule.
	StatusInfeasible Status = "infeasible"
	// StatusNoSolution means the deadline expired before any assignment
	// was completed.
	StatusNoSolution Status = "no_solution"
)

// Decision is one schedulable unit: an indicator plus one option group per
// dimension (day, employee, shift block). When the indicator is set, the
// solver picks exactly one option from every group.
type Decision struct {
	ID        string
	Indicator cpmodel.Var
	Groups    [][]cpmodel.Var
	// Phase orders construction: lower phases are placed first (base
	// categories before support categories that depend on them).
	Phase int
	// Priority breaks ties inside a phase; higher is placed earlier.
	Priority int64
}

// Objective scores assignments. VarWeight carries the linear terms;
// Score evaluates the full objective including aggregate penalties.
type Objective interface {
	VarWeight(v cpmodel.Var) int64
	Score(assign []bool) int64
}

// Result is the solver outcome plus the winning assignment.
type Result struct {
	Status     Status
	Assignment []bool
	Score      int64
	Reason     string // label of the infeasible constraint, if any
	Iterations int64  // completed construction passes across all workers
}

// Solver configures and runs the search.
type Solver struct {
	timeLimit time.Duration
	workers   int
	seed      int64
	ejections int
	log       logger.Logger
}

// New creates a Solver with default configuration.
func New(opts ...Option) *Solver {
	s := &Solver{
		timeLimit: defaultTimeLimit,
		workers:   defaultWorkers(),
		seed:      time.Now().UnixNano(),
		ejections: defaultEjections,
		log:       logger.Get().Named("solve"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve searches the model under the configured time limit and returns the
// best assignment found. The context bounds the search in addition to the
// time limit; there is no other cancellation path.
func (s *Solver) Solve(ctx context.Context, m *cpmodel.Model, decisions []Decision, obj Objective) Result {
	started := time.Now()
	defer func() {
		metrics.RecordSolveDuration(time.Since(started).Seconds())
	}()

	if label := m.InfeasibleAtMost(); label != "" {
		s.log.Warn(ctx, "model infeasible before search", logger.String("constraint", label))
		return Result{Status: StatusInfeasible, Reason: label}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeLimit)
	defer cancel()

	shared := newSharedIndex(m, decisions)

	var (
		mu         sync.Mutex
		best       []bool
		bestScore  int64
		found      bool
		iterations int64
		panicked   any
	)
	// publish reports whether the candidate improved the shared best.
	publish := func(assign []bool, score int64, iters int64) bool {
		mu.Lock()
		defer mu.Unlock()
		iterations += iters
		if assign != nil && (!found || score > bestScore) {
			best = assign
			bestScore = score
			found = true
			return true
		}
		return false
	}

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					if panicked == nil {
						panicked = r
					}
					mu.Unlock()
					cancel()
				}
			}()
			s.runWorker(ctx, shared, obj, seed, publish)
		}(s.seed + int64(w))
	}
	wg.Wait()

	// Re-raise a worker panic on the caller's goroutine so the run
	// is accounted for as crashed rather than killing the process.
	if panicked != nil {
		panic(panicked)
	}

	metrics.RecordSolveIterations(iterations)
	if !found {
		return Result{Status: StatusNoSolution, Iterations: iterations}
	}
	s.log.Info(ctx, "solve finished",
		logger.Int("workers", s.workers),
		logger.Int("iterations", int(iterations)),
		logger.Float64("score", float64(bestScore)))
	return Result{Status: StatusFeasible, Assignment: best, Score: bestScore, Iterations: iterations}
}

// runWorker loops randomized construction and ejection repair until the
// deadline, publishing each completed candidate. A worker retires early
// once every decision is placed and restarts stop improving the best.
func (s *Solver) runWorker(ctx context.Context, shared *sharedIndex, obj Objective, seed int64, publish func([]bool, int64, int64) bool) {
	rng := rand.New(rand.NewSource(seed))
	var iters int64
	stall := 0

	for ctx.Err() == nil {
		st := newState(shared)
		placed := s.construct(ctx, st, obj, rng, nil)
		if ctx.Err() != nil && len(placed) == 0 {
			break
		}
		iters++

		s.repair(ctx, st, obj, rng)

		assign := st.snapshotAssign()
		shared.model.Propagate(assign)
		if v := shared.model.Violations(assign); len(v) > 0 {
			// A repaired candidate must never reach here.
			s.log.Error(ctx, "discarding inconsistent candidate", logger.String("violation", v[0]))
			continue
		}
		improved := publish(assign, obj.Score(assign), iters)
		iters = 0

		// With nothing left unplaced, further restarts only chase
		// aggregate penalties; stop after a run of non-improving
		// candidates instead of spinning out the deadline.
		if len(st.unplacedDecisions()) == 0 && !improved {
			stall++
			if stall >= stallLimit {
				return
			}
		} else {
			stall = 0
		}
	}
	if iters > 0 {
		publish(nil, 0, iters) // count the partial passes, no candidate
	}
}

// construct greedily places decisions phase by phase. Within a phase the
// order is priority with random jitter; for each decision the feasible
// combo with the highest linear gain wins. Returns the decisions placed.
// When only is non-nil, construction is restricted to those decisions.
func (s *Solver) construct(ctx context.Context, st *state, obj Objective, rng *rand.Rand, only map[int]bool) []int {
	order := make([]int, 0, len(st.shared.decisions))
	for i := range st.shared.decisions {
		if only != nil && !only[i] {
			continue
		}
		if !st.placed[i] {
			order = append(order, i)
		}
	}
	jitter := make(map[int]int64, len(order))
	for _, i := range order {
		jitter[i] = rng.Int63n(jitterRange)
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := st.shared.decisions[order[a]], st.shared.decisions[order[b]]
		if da.Phase != db.Phase {
			return da.Phase < db.Phase
		}
		return da.Priority+jitter[order[a]] > db.Priority+jitter[order[b]]
	})

	var placed []int
	for _, di := range order {
		if ctx.Err() != nil {
			break
		}
		if st.placeBest(di, obj, rng) {
			placed = append(placed, di)
		}
	}
	return placed
}

// repair tries to place still-unscheduled decisions by ejecting a few
// random placed ones and reconstructing, keeping strictly improving moves.
func (s *Solver) repair(ctx context.Context, st *state, obj Objective, rng *rand.Rand) {
	current := st.snapshotAssign()
	st.shared.model.Propagate(current)
	currentScore := obj.Score(current)

	for round := 0; round < repairRounds && ctx.Err() == nil; round++ {
		unplaced := st.unplacedDecisions()
		if len(unplaced) == 0 {
			return
		}
		saved := st.clone()

		ejected := st.ejectRandom(rng, s.ejections)
		retry := make(map[int]bool, len(unplaced)+len(ejected))
		for _, di := range unplaced {
			retry[di] = true
		}
		for _, di := range ejected {
			retry[di] = true
		}
		s.construct(ctx, st, obj, rng, retry)

		assign := st.snapshotAssign()
		st.shared.model.Propagate(assign)
		score := obj.Score(assign)
		if score > currentScore {
			currentScore = score
		} else {
			st.restore(saved)
		}
	}
}
