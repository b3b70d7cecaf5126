// Package snapshot builds the immutable, pre-indexed view of the store
// that one scheduling run works from. It is the only stage that reads the
// persistent store; every later stage consumes the Snapshot and nothing
// else, so a run's view of availability and commitments is frozen.
package snapshot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/demoworks/rota/internal/domain/availability"
	"github.com/demoworks/rota/internal/domain/model"
	"github.com/demoworks/rota/internal/domain/pairing"
	"github.com/demoworks/rota/internal/domain/types"
)

// Failure reasons recorded for events that never reach the solver.
const (
	ReasonNoValidDays     = "no schedulable day inside the event window"
	ReasonNoEligible      = "no eligible employee for the event category"
	ReasonNoPairing       = "no feasible day/employee pairing"
	ReasonOrphanCompanion = "companion event has no matching primary"
)

// Source is the read-only boundary to the persistent store. Implementations
// must return consistent data for the duration of one Build call.
type Source interface {
	Employees(ctx context.Context) ([]model.Employee, error)
	Events(ctx context.Context) ([]model.Event, error)
	Commitments(ctx context.Context) ([]model.Commitment, error)
	WeeklyPatterns(ctx context.Context) ([]model.WeeklyPattern, error)
	DateOverrides(ctx context.Context) ([]model.DateOverride, error)
	TimeOff(ctx context.Context) ([]model.TimeOff, error)
	Holidays(ctx context.Context) ([]time.Time, error)
	LockedDays(ctx context.Context) ([]time.Time, error)
	Rotations(ctx context.Context) ([]model.Rotation, error)
	RotationExceptions(ctx context.Context) ([]model.RotationException, error)
}

// DayKey identifies an (employee, day) capacity bucket.
type DayKey struct {
	EmployeeID string
	Day        int64 // unix of the date-only day
}

// WeekKey identifies an (employee, Sunday-to-Saturday week) capacity bucket.
type WeekKey struct {
	EmployeeID string
	WeekStart  int64 // unix of the week's Sunday
}

// Unschedulable is an event excluded before variable creation, with the
// reason recorded so the run can report it instead of dropping it.
type Unschedulable struct {
	Event  model.Event
	Reason string
}

// Snapshot is the fully pre-indexed input to the model builder.
type Snapshot struct {
	Now   time.Time
	First time.Time // earliest schedulable day (today + lead days)
	Last  time.Time // latest schedulable day (inclusive)

	Days     []time.Time   // schedulable days, holidays and locked days removed
	DayIndex map[int64]int // day unix -> index into Days
	WeekOf   []int         // day index -> week index
	Weeks    int           // number of Sunday-to-Saturday weeks touching the horizon

	Employees []model.Employee
	EmpIndex  map[string]int

	Events        []model.Event            // primary schedulable set
	Effective     map[string]types.Category // event ref -> effective category
	Companions    map[string]model.Event   // primary ref -> derived companion
	Unschedulable []Unschedulable

	Available [][]bool         // [employee index][day index]
	Eligible  map[string][]int // event ref -> eligible employee indexes
	ValidDays map[string][]int // event ref -> day indexes inside the window

	CommittedDaily  map[DayKey]int  // Core-category commitments per (employee, day)
	CommittedWeekly map[WeekKey]int // Core-category commitments per (employee, week)
	CommitmentByRef map[string]model.Commitment

	Brands map[string][]string // brand token -> Core event refs sharing it

	rotations  map[rotKey]model.Rotation
	exceptions map[excKey]string
}

type rotKey struct {
	weekday  time.Weekday
	category types.RotationCategory
}

type excKey struct {
	day      int64
	category types.RotationCategory
}

// Builder options.
type buildConfig struct {
	now          time.Time
	leadDays     int
	horizonWeeks int
}

// Option applies a configuration option to Build.
type Option func(*buildConfig)

// WithNow pins the reference time; defaults to time.Now.
func WithNow(now time.Time) Option {
	return func(c *buildConfig) { c.now = now }
}

// WithLeadDays sets the fixed lead time before the earliest schedulable day.
func WithLeadDays(days int) Option {
	return func(c *buildConfig) {
		if days >= 0 {
			c.leadDays = days
		}
	}
}

// WithHorizonWeeks sets how many weeks ahead the horizon extends.
func WithHorizonWeeks(weeks int) Option {
	return func(c *buildConfig) {
		if weeks > 0 {
			c.horizonWeeks = weeks
		}
	}
}

// Build takes one consistent read-only snapshot of all inputs and
// pre-computes every index the model builder needs.
func Build(ctx context.Context, src Source, opts ...Option) (*Snapshot, error) {
	cfg := &buildConfig{
		now:          time.Now(),
		leadDays:     2,
		horizonWeeks: 3,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	employees, err := src.Employees(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: employees: %w", ErrLoad, err)
	}
	events, err := src.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: events: %w", ErrLoad, err)
	}
	commitments, err := src.Commitments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: commitments: %w", ErrLoad, err)
	}
	patterns, err := src.WeeklyPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: weekly patterns: %w", ErrLoad, err)
	}
	overrides, err := src.DateOverrides(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: date overrides: %w", ErrLoad, err)
	}
	timeOff, err := src.TimeOff(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: time off: %w", ErrLoad, err)
	}
	holidays, err := src.Holidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: holidays: %w", ErrLoad, err)
	}
	locked, err := src.LockedDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: locked days: %w", ErrLoad, err)
	}
	rotations, err := src.Rotations(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: rotations: %w", ErrLoad, err)
	}
	exceptions, err := src.RotationExceptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: rotation exceptions: %w", ErrLoad, err)
	}

	s := &Snapshot{
		Now:             cfg.now,
		Effective:       make(map[string]types.Category),
		Companions:      make(map[string]model.Event),
		DayIndex:        make(map[int64]int),
		EmpIndex:        make(map[string]int),
		Eligible:        make(map[string][]int),
		ValidDays:       make(map[string][]int),
		CommittedDaily:  make(map[DayKey]int),
		CommittedWeekly: make(map[WeekKey]int),
		CommitmentByRef: make(map[string]model.Commitment),
		Brands:          make(map[string][]string),
		rotations:       make(map[rotKey]model.Rotation),
		exceptions:      make(map[excKey]string),
	}

	s.buildHorizon(cfg, holidays, locked)
	s.buildEmployees(employees)
	s.buildAvailability(patterns, overrides, timeOff)
	allByRef := s.buildEvents(events)
	s.markUnschedulable()
	s.buildCapacity(commitments, allByRef)
	s.buildBrands()
	s.buildRotation(rotations, exceptions)

	return s, nil
}

// Midnight normalizes t to midnight UTC of its calendar date. Every date
// key in the snapshot goes through here, so horizon days derived from the
// process clock land on the same instants as dates parsed from the store.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Sunday beginning the week containing day.
func WeekStart(day time.Time) time.Time {
	d := Midnight(day)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func (s *Snapshot) buildHorizon(cfg *buildConfig, holidays, locked []time.Time) {
	today := Midnight(cfg.now)
	s.First = today.AddDate(0, 0, cfg.leadDays)
	s.Last = today.AddDate(0, 0, cfg.horizonWeeks*7)

	skip := make(map[int64]bool, len(holidays)+len(locked))
	for _, h := range holidays {
		skip[Midnight(h).Unix()] = true
	}
	for _, l := range locked {
		skip[Midnight(l).Unix()] = true
	}

	firstWeek := WeekStart(s.First)
	for d := s.First; !d.After(s.Last); d = d.AddDate(0, 0, 1) {
		if skip[d.Unix()] {
			continue
		}
		idx := len(s.Days)
		s.Days = append(s.Days, d)
		s.DayIndex[d.Unix()] = idx

		week := int(WeekStart(d).Sub(firstWeek).Hours() / (24 * 7))
		s.WeekOf = append(s.WeekOf, week)
		if week+1 > s.Weeks {
			s.Weeks = week + 1
		}
	}
}

func (s *Snapshot) buildEmployees(employees []model.Employee) {
	for _, e := range employees {
		if !e.Active {
			continue
		}
		if e.TerminatedAt != nil && !e.TerminatedAt.After(s.First) {
			continue
		}
		s.EmpIndex[e.ID] = len(s.Employees)
		s.Employees = append(s.Employees, e)
	}
}

func (s *Snapshot) buildAvailability(patterns []model.WeeklyPattern, overrides []model.DateOverride, timeOff []model.TimeOff) {
	resolver := availability.New(
		availability.WithPatterns(patterns),
		availability.WithOverrides(overrides),
		availability.WithTimeOff(timeOff),
	)
	s.Available = make([][]bool, len(s.Employees))
	for ei, emp := range s.Employees {
		row := make([]bool, len(s.Days))
		for di, day := range s.Days {
			if emp.Terminated(day) {
				continue
			}
			row[di] = resolver.Available(emp.ID, day)
		}
		s.Available[ei] = row
	}
}

// buildEvents applies overrides, filters to the horizon, and splits the
// primary set from pairing-derived companions. Returns all loaded events
// keyed by ref for capacity classification.
func (s *Snapshot) buildEvents(events []model.Event) map[string]model.Event {
	allByRef := make(map[string]model.Event, len(events))
	for _, ev := range events {
		allByRef[ev.Ref] = ev
		s.Effective[ev.Ref] = ev.Effective()
	}

	var inWindow []model.Event
	for _, ev := range events {
		if ev.Excluded || !ev.Effective().Valid() {
			continue
		}
		if !ev.Due.After(s.First) {
			continue
		}
		if ev.Start.After(s.Last) {
			continue
		}
		inWindow = append(inWindow, ev)
	}

	// Match companions by pairing number: demo <> supervisor visit,
	// juicer production <> juicer survey.
	primaryByNumber := make(map[string]string) // number -> primary ref
	for _, ev := range inWindow {
		cat := s.Effective[ev.Ref]
		if cat != types.CategoryDemo && cat != types.CategoryJuicerProd {
			continue
		}
		if num := pairing.Number(ev.Name); num != "" {
			primaryByNumber[num] = ev.Ref
		}
	}

	for _, ev := range inWindow {
		cat := s.Effective[ev.Ref]
		if !cat.IsCompanion() {
			s.Events = append(s.Events, ev)
			continue
		}
		num := pairing.Number(ev.Name)
		primary, ok := primaryByNumber[num]
		if num == "" || !ok {
			s.Unschedulable = append(s.Unschedulable, Unschedulable{Event: ev, Reason: ReasonOrphanCompanion})
			continue
		}
		want := types.CategorySupervisorVisit
		if s.Effective[primary] == types.CategoryJuicerProd {
			want = types.CategoryJuicerSurvey
		}
		if cat != want {
			s.Unschedulable = append(s.Unschedulable, Unschedulable{Event: ev, Reason: ReasonOrphanCompanion})
			continue
		}
		s.Companions[primary] = ev
	}

	sort.Slice(s.Events, func(i, j int) bool { return s.Events[i].Ref < s.Events[j].Ref })

	for _, ev := range s.Events {
		s.ValidDays[ev.Ref] = s.validDays(ev)
		s.Eligible[ev.Ref] = s.eligible(s.Effective[ev.Ref])
	}
	return allByRef
}

func (s *Snapshot) validDays(ev model.Event) []int {
	var days []int
	for di, day := range s.Days {
		if day.Before(ev.Start) || !day.Before(ev.Due) {
			continue
		}
		days = append(days, di)
	}
	return days
}

// eligible returns the employee indexes qualified for a category. Juicer
// categories are role-gated; the rest are open to every active employee.
func (s *Snapshot) eligible(cat types.Category) []int {
	var emps []int
	for ei, emp := range s.Employees {
		if cat.IsJuicer() && !emp.Role.JuicerQualified() {
			continue
		}
		emps = append(emps, ei)
	}
	return emps
}

// buildCapacity scans existing commitments once into read-only
// (employee, day) and (employee, week) Core counts. These seed every
// capacity constraint so new variables are bounded by remaining capacity.
// Commitments for events in this run's own primary or companion set are
// recorded for swap detection but excluded from the counts, since those
// events are being re-decided and would otherwise double-book themselves.
func (s *Snapshot) buildCapacity(commitments []model.Commitment, allByRef map[string]model.Event) {
	inRun := make(map[string]bool, len(s.Events)+len(s.Companions))
	for _, ev := range s.Events {
		inRun[ev.Ref] = true
	}
	for ref := range s.Companions {
		inRun[s.Companions[ref].Ref] = true
	}

	for _, c := range commitments {
		s.CommitmentByRef[c.EventRef] = c

		if inRun[c.EventRef] {
			continue
		}
		ev, ok := allByRef[c.EventRef]
		if !ok || ev.Effective() != types.CategoryDemo {
			continue
		}
		day := Midnight(c.Day)
		s.CommittedDaily[DayKey{EmployeeID: c.EmployeeID, Day: day.Unix()}]++
		s.CommittedWeekly[WeekKey{EmployeeID: c.EmployeeID, WeekStart: WeekStart(day).Unix()}]++
	}
}

func (s *Snapshot) buildBrands() {
	for _, ev := range s.Events {
		if s.Effective[ev.Ref] != types.CategoryDemo {
			continue
		}
		if brand := pairing.Brand(ev.Name); brand != "" {
			s.Brands[brand] = append(s.Brands[brand], ev.Ref)
		}
	}
}

func (s *Snapshot) buildRotation(rotations []model.Rotation, exceptions []model.RotationException) {
	for _, r := range rotations {
		s.rotations[rotKey{weekday: r.Weekday, category: r.Category}] = r
	}
	for _, e := range exceptions {
		s.exceptions[excKey{day: Midnight(e.Day).Unix(), category: e.Category}] = e.EmployeeID
	}
}

// markUnschedulable moves events with no valid day or no eligible employee
// (or no available pairing of the two) out of the primary set. A removed
// primary takes its companion with it so the run still reports both.
func (s *Snapshot) markUnschedulable() {
	kept := s.Events[:0]
	for _, ev := range s.Events {
		days := s.ValidDays[ev.Ref]
		emps := s.Eligible[ev.Ref]
		reason := ""
		switch {
		case len(days) == 0:
			reason = ReasonNoValidDays
		case len(emps) == 0:
			reason = ReasonNoEligible
		case !s.anyPairing(days, emps):
			reason = ReasonNoPairing
		default:
			kept = append(kept, ev)
			continue
		}
		s.Unschedulable = append(s.Unschedulable, Unschedulable{Event: ev, Reason: reason})
		if comp, ok := s.Companions[ev.Ref]; ok {
			s.Unschedulable = append(s.Unschedulable, Unschedulable{Event: comp, Reason: reason})
			delete(s.Companions, ev.Ref)
		}
	}
	s.Events = kept
}

func (s *Snapshot) anyPairing(days, emps []int) bool {
	for _, di := range days {
		for _, ei := range emps {
			if s.Available[ei][di] {
				return true
			}
		}
	}
	return false
}

// RotationFor returns the designated employee for the rotation category on
// a concrete day, with per-date exceptions taking precedence over the
// weekly table. Empty when no rotation applies.
func (s *Snapshot) RotationFor(day time.Time, cat types.RotationCategory) string {
	d := Midnight(day)
	if id, ok := s.exceptions[excKey{day: d.Unix(), category: cat}]; ok {
		return id
	}
	return s.rotations[rotKey{weekday: d.Weekday(), category: cat}].EmployeeID
}

// RotationBackupFor returns the backup employee from the weekly table.
func (s *Snapshot) RotationBackupFor(day time.Time, cat types.RotationCategory) string {
	return s.rotations[rotKey{weekday: Midnight(day).Weekday(), category: cat}].BackupID
}

// WeekOfDay returns the week index for a day index.
func (s *Snapshot) WeekOfDay(di int) int {
	return s.WeekOf[di]
}

// CommittedOn returns the existing Core count for an (employee, day).
func (s *Snapshot) CommittedOn(employeeID string, di int) int {
	return s.CommittedDaily[DayKey{EmployeeID: employeeID, Day: s.Days[di].Unix()}]
}

// CommittedInWeek returns the existing Core count for an (employee, week).
func (s *Snapshot) CommittedInWeek(employeeID string, week int) int {
	firstWeek := WeekStart(s.First)
	ws := firstWeek.AddDate(0, 0, week*7)
	return s.CommittedWeekly[WeekKey{EmployeeID: employeeID, WeekStart: ws.Unix()}]
}
