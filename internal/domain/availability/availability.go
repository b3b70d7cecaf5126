// Package availability resolves whether an employee can work a given day.
//
// Three layers are merged, highest priority first:
//  1. per-date overrides (may re-enable or disable a weekday in a range)
//  2. explicit time-off ranges
//  3. the default weekly pattern
package availability

import (
	"time"

	"github.com/demoworks/rota/internal/domain/model"
)

// Resolver answers per-(employee, day) availability questions for one
// frozen set of records. Build once per run; reads are lock-free.
type Resolver struct {
	patterns  map[string][7]bool
	overrides map[string][]model.DateOverride
	timeOff   map[string][]model.TimeOff
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithPatterns seeds the default weekly patterns.
func WithPatterns(patterns []model.WeeklyPattern) Option {
	return func(r *Resolver) {
		for _, p := range patterns {
			r.patterns[p.EmployeeID] = p.Days
		}
	}
}

// WithOverrides seeds the per-date overrides.
func WithOverrides(overrides []model.DateOverride) Option {
	return func(r *Resolver) {
		for _, o := range overrides {
			r.overrides[o.EmployeeID] = append(r.overrides[o.EmployeeID], o)
		}
	}
}

// WithTimeOff seeds the explicit time-off ranges.
func WithTimeOff(ranges []model.TimeOff) Option {
	return func(r *Resolver) {
		for _, t := range ranges {
			r.timeOff[t.EmployeeID] = append(r.timeOff[t.EmployeeID], t)
		}
	}
}

// New builds a Resolver from the given record sets.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		patterns:  make(map[string][7]bool),
		overrides: make(map[string][]model.DateOverride),
		timeOff:   make(map[string][]model.TimeOff),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether the employee can work on day. Day must be a
// date-only value (midnight). An employee without a weekly pattern defaults
// to unavailable on every day an override does not re-enable.
func (r *Resolver) Available(employeeID string, day time.Time) bool {
	// Layer 1: per-date overrides win outright.
	for _, o := range r.overrides[employeeID] {
		if o.Matches(day) {
			return o.Available
		}
	}

	// Layer 2: time off blocks the day.
	for _, t := range r.timeOff[employeeID] {
		if t.Covers(day) {
			return false
		}
	}

	// Layer 3: default weekly pattern.
	pattern, ok := r.patterns[employeeID]
	if !ok {
		return false
	}
	return pattern[int(day.Weekday())]
}
