package engine

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrConfig     = errors.New("invalid engine configuration")
	ErrInfeasible = errors.New("no feasible schedule exists for the model")
	ErrNoSolution = errors.New("no schedule found within the time limit")
	ErrCrashed    = errors.New("scheduling run crashed")
)

// Failure reasons recorded on proposals. The strings are stable: the
// approval UI keys on them.
const (
	// ReasonNotPlaced marks events the solver left unscheduled even
	// though they had feasible variables.
	ReasonNotPlaced = "solver could not place the event within the constraint set"

	// ReasonRunInfeasible is the uniform reason applied to every event
	// when the whole model has no satisfying assignment.
	ReasonRunInfeasible = "no feasible schedule exists for the run"

	// ReasonRunTimeout is the uniform reason when the solver found
	// nothing before the time limit.
	ReasonRunTimeout = "no schedule found within the time limit"

	// ReasonExtraction marks an inconsistency between the solver
	// assignment and the model (a defect, never expected in practice).
	ReasonExtraction = "inconsistent solver assignment for the event"

	// ReasonCompanionNoResolver marks a companion whose primary was
	// scheduled but for which no supervisor or lead was available.
	ReasonCompanionNoResolver = "no available supervisor or lead for the companion visit"

	// ReasonPostSolveDaily and ReasonPostSolveWeekly name the post-solve
	// validator so its removals are distinguishable from solver failures.
	ReasonPostSolveDaily  = "post-solve validator: daily demo limit exceeded"
	ReasonPostSolveWeekly = "post-solve validator: weekly demo ceiling exceeded"
)
