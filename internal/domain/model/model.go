// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/demoworks/rota/internal/domain/types"
)

// Employee is a staff member eligible for scheduling. Snapshot semantics:
// immutable for the duration of one run.
type Employee struct {
	ID           string
	Name         string
	Role         types.Role
	Active       bool
	TerminatedAt *time.Time // nil while employed
}

// Terminated reports whether the employee is terminated on or before day.
func (e Employee) Terminated(day time.Time) bool {
	return e.TerminatedAt != nil && !e.TerminatedAt.After(day)
}

// Event is one visit to be scheduled. The window is [Start, Due).
type Event struct {
	Ref              string // reference number, unique per event
	Name             string // display name; carries the pairing number and brand token
	Category         types.Category
	CategoryOverride types.Category // optional; non-empty wins over Category
	Start            time.Time      // earliest schedulable day (date-only)
	Due              time.Time      // exclusive due day (date-only)
	DurationMinutes  int
	Excluded         bool // cancelled/expired/opted out upstream
}

// Effective returns the category after applying the per-event override.
func (ev Event) Effective() types.Category {
	if ev.CategoryOverride != "" {
		return ev.CategoryOverride
	}
	return ev.Category
}

// Commitment is an already-posted assignment. It is fixed capacity
// consumption, never a decision variable.
type Commitment struct {
	EventRef   string
	EmployeeID string
	Day        time.Time // date-only
	ShiftBlock int       // 0 when not applicable
}

// WeeklyPattern is the default availability layer: one flag per weekday.
type WeeklyPattern struct {
	EmployeeID string
	Days       [7]bool // indexed by time.Weekday (Sunday = 0)
}

// DateOverride re-enables or disables one weekday inside a date range.
// Highest-priority availability layer.
type DateOverride struct {
	EmployeeID string
	From, To   time.Time // inclusive date range
	Weekday    time.Weekday
	Available  bool
}

// Matches reports whether the override applies to day.
func (o DateOverride) Matches(day time.Time) bool {
	return day.Weekday() == o.Weekday && !day.Before(o.From) && !day.After(o.To)
}

// TimeOff is an explicit unavailable date range (inclusive).
type TimeOff struct {
	EmployeeID string
	From, To   time.Time
}

// Covers reports whether day falls inside the range.
func (t TimeOff) Covers(day time.Time) bool {
	return !day.Before(t.From) && !day.After(t.To)
}

// Rotation maps a weekday and rotation category to the preferred employee
// and an optional backup.
type Rotation struct {
	Weekday    time.Weekday
	Category   types.RotationCategory
	EmployeeID string
	BackupID   string
}

// RotationException overrides the weekly rotation for one concrete date.
type RotationException struct {
	Day        time.Time
	Category   types.RotationCategory
	EmployeeID string
}

// Proposal is the engine's output unit: one candidate assignment awaiting
// approval, or a recorded failure. One row per processed event plus one per
// resolved companion.
type Proposal struct {
	RunID         uuid.UUID
	EventRef      string
	EmployeeID    string     // empty on failure
	ScheduledAt   *time.Time // concrete date+clock time; nil on failure
	ShiftBlock    int        // 0 unless a Core-category block applies
	Swap          bool       // displaces an existing commitment
	BumpedRef     string     // event ref of the displaced commitment, if Swap
	FailureReason string     // empty on success
}

// Scheduled reports whether the proposal carries a concrete assignment.
func (p Proposal) Scheduled() bool {
	return p.FailureReason == "" && p.ScheduledAt != nil && p.EmployeeID != ""
}

// Run summarizes one engine invocation. Created at start, updated exactly
// once at the end, never mutated by any other run.
type Run struct {
	ID          uuid.UUID
	Type        string // caller-supplied tag
	Status      types.RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Processed   int
	Scheduled   int
	Failed      int
	Swaps       int
	Error       string
}
