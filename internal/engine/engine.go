// Package engine orchestrates one scheduling run: snapshot, model build,
// solve, extraction, post-solve validation, and run recording.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/demoworks/rota/internal/domain/model"
	"github.com/demoworks/rota/internal/domain/types"
	"github.com/demoworks/rota/internal/snapshot"
	"github.com/demoworks/rota/internal/solve"
	"github.com/demoworks/rota/pkg/logger"
	"github.com/demoworks/rota/pkg/metrics"
)

// Recorder persists runs and their proposals. Implementations must allow
// FinishRun to be called exactly once per run.
type Recorder interface {
	CreateRun(ctx context.Context, run model.Run) error
	FinishRun(ctx context.Context, run model.Run) error
	SaveProposals(ctx context.Context, proposals []model.Proposal) error
}

// Engine wires the pipeline stages behind a single Run entry point.
type Engine struct {
	src     snapshot.Source
	rec     Recorder
	rules   Rules
	weights Weights
	solver  *solve.Solver
	log     logger.Logger

	snapOpts []snapshot.Option
}

// New creates an Engine. A Source and a Recorder are required.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		rules:   DefaultRules(),
		weights: DefaultWeights(),
		log:     logger.Get().Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.src == nil {
		return nil, fmt.Errorf("%w: source is required", ErrConfig)
	}
	if e.rec == nil {
		return nil, fmt.Errorf("%w: recorder is required", ErrConfig)
	}
	if e.solver == nil {
		e.solver = solve.New(solve.WithLogger(e.log.Named("solve")))
	}
	return e, nil
}

// Run executes one full scheduling pass and records the outcome. The
// returned Run mirrors what the Recorder was given. A panic anywhere in
// the pipeline is recorded as a crashed run and re-raised as an error.
func (e *Engine) Run(ctx context.Context, runType string) (run model.Run, err error) {
	run = model.Run{
		ID:        uuid.New(),
		Type:      runType,
		Status:    types.RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := e.rec.CreateRun(ctx, run); err != nil {
		return run, fmt.Errorf("create run: %w", err)
	}
	metrics.RecordRunStarted()
	e.log.Info(ctx, "run started",
		logger.String("run_id", run.ID.String()),
		logger.String("type", runType))

	defer func() {
		if r := recover(); r != nil {
			run.Status = types.RunStatusCrashed
			run.Error = fmt.Sprint(r)
			err = fmt.Errorf("%w: %v", ErrCrashed, r)
			e.finish(ctx, &run)
		}
	}()

	snapStart := time.Now()
	snap, err := snapshot.Build(ctx, e.src, e.snapOpts...)
	metrics.RecordSnapshotDuration(time.Since(snapStart).Seconds())
	if err != nil {
		run.Status = types.RunStatusFailed
		run.Error = err.Error()
		e.finish(ctx, &run)
		return run, fmt.Errorf("build snapshot: %w", err)
	}

	if len(snap.Events) == 0 && len(snap.Unschedulable) == 0 {
		run.Status = types.RunStatusCompleted
		e.finish(ctx, &run)
		return run, nil
	}

	p := buildModel(snap, e.rules, e.weights)
	e.log.Info(ctx, "model built",
		logger.Int("events", len(p.events)),
		logger.Int("vars", p.m.NumVars()),
		logger.Int("constraints", p.m.NumConstraints()))

	res := e.solver.Solve(ctx, p.m, p.decisions, p.eval)

	var proposals []model.Proposal
	switch res.Status {
	case solve.StatusFeasible:
		proposals = extract(p, res.Assignment, run.ID)
		validate(snap, e.rules, proposals)
	case solve.StatusInfeasible:
		run.Error = res.Reason
		err = fmt.Errorf("%w: %s", ErrInfeasible, res.Reason)
		proposals = failAll(snap, run.ID, ReasonRunInfeasible)
	case solve.StatusNoSolution:
		run.Error = "time limit reached without a solution"
		err = ErrNoSolution
		proposals = failAll(snap, run.ID, ReasonRunTimeout)
	}

	run.Processed = len(proposals)
	for _, prop := range proposals {
		switch {
		case prop.Scheduled():
			run.Scheduled++
			metrics.RecordProposalScheduled()
			if prop.Swap {
				run.Swaps++
				metrics.RecordProposalSwapped()
			}
		default:
			run.Failed++
			metrics.RecordProposalFailed()
		}
	}

	if serr := e.rec.SaveProposals(ctx, proposals); serr != nil {
		run.Status = types.RunStatusFailed
		run.Error = serr.Error()
		e.finish(ctx, &run)
		return run, fmt.Errorf("save proposals: %w", serr)
	}

	if err != nil {
		run.Status = types.RunStatusFailed
	} else {
		run.Status = types.RunStatusCompleted
	}
	e.finish(ctx, &run)
	return run, err
}

// finish stamps the completion time, persists the terminal run state, and
// records the outcome metric. Recorder failures at this point are logged
// rather than returned; the run result itself is already decided.
func (e *Engine) finish(ctx context.Context, run *model.Run) {
	now := time.Now()
	run.CompletedAt = &now
	if err := e.rec.FinishRun(ctx, *run); err != nil {
		e.log.Error(ctx, "finish run failed",
			logger.String("run_id", run.ID.String()),
			logger.Error(err))
	}
	metrics.RecordRunFinished(string(run.Status))
	e.log.Info(ctx, "run finished",
		logger.String("run_id", run.ID.String()),
		logger.String("status", string(run.Status)),
		logger.Int("processed", run.Processed),
		logger.Int("scheduled", run.Scheduled),
		logger.Int("failed", run.Failed),
		logger.Int("swaps", run.Swaps))
}

// failAll produces a uniform failure row per primary and companion event
// when the solve itself produced nothing usable. Events the loader already
// ruled out keep their specific reasons.
func failAll(snap *snapshot.Snapshot, runID uuid.UUID, reason string) []model.Proposal {
	out := make([]model.Proposal, 0, len(snap.Events)+len(snap.Unschedulable))
	for _, ev := range snap.Events {
		out = append(out, model.Proposal{RunID: runID, EventRef: ev.Ref, FailureReason: reason})
		if comp, ok := snap.Companions[ev.Ref]; ok {
			out = append(out, model.Proposal{RunID: runID, EventRef: comp.Ref, FailureReason: reason})
		}
	}
	for _, u := range snap.Unschedulable {
		out = append(out, model.Proposal{RunID: runID, EventRef: u.Event.Ref, FailureReason: u.Reason})
	}
	return out
}
