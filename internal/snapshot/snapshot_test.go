package snapshot_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/demoworks/rota/internal/domain/model"
	"github.com/demoworks/rota/internal/domain/types"
	"github.com/demoworks/rota/internal/snapshot"
)

type fakeSource struct {
	employees   []model.Employee
	events      []model.Event
	commitments []model.Commitment
	patterns    []model.WeeklyPattern
	overrides   []model.DateOverride
	timeOff     []model.TimeOff
	holidays    []time.Time
	locked      []time.Time
	rotations   []model.Rotation
	exceptions  []model.RotationException
}

func (f *fakeSource) Employees(context.Context) ([]model.Employee, error) { return f.employees, nil }
func (f *fakeSource) Events(context.Context) ([]model.Event, error)       { return f.events, nil }
func (f *fakeSource) Commitments(context.Context) ([]model.Commitment, error) {
	return f.commitments, nil
}
func (f *fakeSource) WeeklyPatterns(context.Context) ([]model.WeeklyPattern, error) {
	return f.patterns, nil
}
func (f *fakeSource) DateOverrides(context.Context) ([]model.DateOverride, error) {
	return f.overrides, nil
}
func (f *fakeSource) TimeOff(context.Context) ([]model.TimeOff, error) { return f.timeOff, nil }
func (f *fakeSource) Holidays(context.Context) ([]time.Time, error)    { return f.holidays, nil }
func (f *fakeSource) LockedDays(context.Context) ([]time.Time, error)  { return f.locked, nil }
func (f *fakeSource) Rotations(context.Context) ([]model.Rotation, error) {
	return f.rotations, nil
}
func (f *fakeSource) RotationExceptions(context.Context) ([]model.RotationException, error) {
	return f.exceptions, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// now is a Monday; with two lead days the horizon starts on Wednesday
// March 4th 2026.
var now = day(2026, time.March, 2)

func allWeek(employeeID string) model.WeeklyPattern {
	return model.WeeklyPattern{
		EmployeeID: employeeID,
		Days:       [7]bool{true, true, true, true, true, true, true},
	}
}

func TestBuildHorizon(t *testing.T) {
	convey.Convey("Given a source with a holiday and a locked day", t, func() {
		src := &fakeSource{
			holidays: []time.Time{day(2026, time.March, 5)},
			locked:   []time.Time{day(2026, time.March, 6)},
		}

		snap, err := snapshot.Build(context.Background(), src,
			snapshot.WithNow(now), snapshot.WithLeadDays(2), snapshot.WithHorizonWeeks(2))

		convey.Convey("Then the horizon starts after the lead time", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(snap.First, convey.ShouldResemble, day(2026, time.March, 4))
			convey.So(snap.Last, convey.ShouldResemble, day(2026, time.March, 16))
		})

		convey.Convey("Then excluded days are absent from the day list", func() {
			_, hasHoliday := snap.DayIndex[day(2026, time.March, 5).Unix()]
			_, hasLocked := snap.DayIndex[day(2026, time.March, 6).Unix()]
			convey.So(hasHoliday, convey.ShouldBeFalse)
			convey.So(hasLocked, convey.ShouldBeFalse)
			convey.So(len(snap.Days), convey.ShouldEqual, 11)
		})

		convey.Convey("Then weeks break on Sundays", func() {
			sat := snap.DayIndex[day(2026, time.March, 7).Unix()]
			sun := snap.DayIndex[day(2026, time.March, 8).Unix()]
			convey.So(snap.WeekOfDay(sat), convey.ShouldEqual, 0)
			convey.So(snap.WeekOfDay(sun), convey.ShouldEqual, 1)
		})
	})
}

func TestBuildLocalClock(t *testing.T) {
	convey.Convey("Given a process clock in a non-UTC location", t, func() {
		est := time.FixedZone("EST", -5*60*60)
		localNow := time.Date(2026, time.March, 2, 15, 30, 0, 0, est)
		src := &fakeSource{
			employees: []model.Employee{{ID: "emp-1", Role: types.RoleSpecialist, Active: true}},
			patterns:  []model.WeeklyPattern{allWeek("emp-1")},
			commitments: []model.Commitment{
				{EventRef: "settled", EmployeeID: "emp-1", Day: day(2026, time.March, 6)},
			},
		}

		snap, err := snapshot.Build(context.Background(), src,
			snapshot.WithNow(localNow), snapshot.WithLeadDays(2), snapshot.WithHorizonWeeks(2))

		convey.Convey("Then horizon days key identically to store dates", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(snap.First, convey.ShouldResemble, day(2026, time.March, 4))
			di, ok := snap.DayIndex[day(2026, time.March, 6).Unix()]
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(snap.CommittedOn("emp-1", di), convey.ShouldEqual, 1)
			convey.So(snap.CommittedInWeek("emp-1", snap.WeekOfDay(di)), convey.ShouldEqual, 1)
		})

		convey.Convey("Then week grouping stays on calendar Sundays", func() {
			sat := snap.DayIndex[day(2026, time.March, 7).Unix()]
			sun := snap.DayIndex[day(2026, time.March, 15).Unix()]
			convey.So(snap.WeekOfDay(sat), convey.ShouldEqual, 0)
			convey.So(snap.WeekOfDay(sun), convey.ShouldEqual, 2)
		})
	})
}

func TestBuildEmployees(t *testing.T) {
	convey.Convey("Given active, inactive, and terminated employees", t, func() {
		gone := day(2026, time.February, 1)
		later := day(2026, time.April, 1)
		src := &fakeSource{
			employees: []model.Employee{
				{ID: "active", Role: types.RoleSpecialist, Active: true},
				{ID: "inactive", Role: types.RoleSpecialist, Active: false},
				{ID: "terminated", Role: types.RoleSpecialist, Active: true, TerminatedAt: &gone},
				{ID: "leaving", Role: types.RoleSpecialist, Active: true, TerminatedAt: &later},
			},
		}

		snap, err := snapshot.Build(context.Background(), src, snapshot.WithNow(now))

		convey.Convey("Then only present and future-terminated employees remain", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(snap.Employees), convey.ShouldEqual, 2)
			_, hasActive := snap.EmpIndex["active"]
			_, hasLeaving := snap.EmpIndex["leaving"]
			convey.So(hasActive, convey.ShouldBeTrue)
			convey.So(hasLeaving, convey.ShouldBeTrue)
		})
	})
}

func TestBuildEvents(t *testing.T) {
	convey.Convey("Given events inside and outside the window", t, func() {
		src := &fakeSource{
			employees: []model.Employee{{ID: "emp-1", Role: types.RoleSpecialist, Active: true}},
			patterns:  []model.WeeklyPattern{allWeek("emp-1")},
			events: []model.Event{
				{Ref: "e1", Name: "SunnySip Demo #100", Category: types.CategoryDemo,
					Start: day(2026, time.March, 1), Due: day(2026, time.March, 20)},
				{Ref: "e2", Name: "Expired Demo", Category: types.CategoryDemo,
					Start: day(2026, time.February, 1), Due: day(2026, time.March, 1)},
				{Ref: "e3", Name: "Cancelled Demo", Category: types.CategoryDemo, Excluded: true,
					Start: day(2026, time.March, 1), Due: day(2026, time.March, 20)},
				{Ref: "e4", Name: "Overridden Demo", Category: types.CategoryDemo,
					CategoryOverride: types.CategoryKiosk,
					Start:            day(2026, time.March, 1), Due: day(2026, time.March, 20)},
				{Ref: "e5", Name: "Supervisor Visit #100", Category: types.CategorySupervisorVisit,
					Start: day(2026, time.March, 1), Due: day(2026, time.March, 20)},
				{Ref: "e6", Name: "Supervisor Visit #999", Category: types.CategorySupervisorVisit,
					Start: day(2026, time.March, 1), Due: day(2026, time.March, 20)},
			},
		}

		snap, err := snapshot.Build(context.Background(), src, snapshot.WithNow(now))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then expired and excluded events are dropped entirely", func() {
			refs := make(map[string]bool)
			for _, ev := range snap.Events {
				refs[ev.Ref] = true
			}
			convey.So(refs["e2"], convey.ShouldBeFalse)
			convey.So(refs["e3"], convey.ShouldBeFalse)
		})

		convey.Convey("Then overrides define the effective category", func() {
			convey.So(snap.Effective["e4"], convey.ShouldEqual, types.CategoryKiosk)
		})

		convey.Convey("Then the matching companion is paired, not primary", func() {
			convey.So(snap.Companions["e1"].Ref, convey.ShouldEqual, "e5")
			for _, ev := range snap.Events {
				convey.So(ev.Ref, convey.ShouldNotEqual, "e5")
			}
		})

		convey.Convey("Then the orphan companion is unschedulable", func() {
			found := false
			for _, u := range snap.Unschedulable {
				if u.Event.Ref == "e6" {
					found = true
					convey.So(u.Reason, convey.ShouldEqual, snapshot.ReasonOrphanCompanion)
				}
			}
			convey.So(found, convey.ShouldBeTrue)
		})

		convey.Convey("Then the demo brand grouping uses the normalized token", func() {
			convey.So(snap.Brands["sunnysip"], convey.ShouldResemble, []string{"e1"})
		})
	})
}

func TestEligibilityAndUnschedulable(t *testing.T) {
	convey.Convey("Given role-gated events and a blocked employee", t, func() {
		src := &fakeSource{
			employees: []model.Employee{
				{ID: "spec", Role: types.RoleSpecialist, Active: true},
				{ID: "barista", Role: types.RoleJuicerBarista, Active: true},
			},
			patterns: []model.WeeklyPattern{allWeek("spec")},
			events: []model.Event{
				{Ref: "juice", Name: "Juicer Production 500", Category: types.CategoryJuicerProd,
					Start: day(2026, time.March, 1), Due: day(2026, time.March, 20)},
				{Ref: "open", Name: "Acme Demo", Category: types.CategoryDemo,
					Start: day(2026, time.March, 1), Due: day(2026, time.March, 20)},
			},
		}

		snap, err := snapshot.Build(context.Background(), src, snapshot.WithNow(now))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then juicer events only admit juicer-qualified employees", func() {
			elig := snap.Eligible["juice"]
			convey.So(len(elig), convey.ShouldEqual, 1)
			convey.So(snap.Employees[elig[0]].ID, convey.ShouldEqual, "barista")
		})

		convey.Convey("Then the juicer event fails for lack of an available pairing", func() {
			// The barista has no weekly pattern, so no available day exists.
			found := false
			for _, u := range snap.Unschedulable {
				if u.Event.Ref == "juice" {
					found = true
					convey.So(u.Reason, convey.ShouldEqual, snapshot.ReasonNoPairing)
				}
			}
			convey.So(found, convey.ShouldBeTrue)
		})

		convey.Convey("Then the open event stays schedulable", func() {
			convey.So(len(snap.Events), convey.ShouldEqual, 1)
			convey.So(snap.Events[0].Ref, convey.ShouldEqual, "open")
		})
	})
}

func TestBuildCapacity(t *testing.T) {
	convey.Convey("Given commitments for in-run and settled events", t, func() {
		src := &fakeSource{
			employees: []model.Employee{{ID: "emp-1", Role: types.RoleSpecialist, Active: true}},
			patterns:  []model.WeeklyPattern{allWeek("emp-1")},
			events: []model.Event{
				{Ref: "open", Name: "Acme Demo", Category: types.CategoryDemo,
					Start: day(2026, time.March, 1), Due: day(2026, time.March, 20)},
				{Ref: "settled", Name: "Beacon Demo", Category: types.CategoryDemo,
					Start: day(2026, time.February, 1), Due: day(2026, time.March, 1)},
			},
			commitments: []model.Commitment{
				{EventRef: "open", EmployeeID: "emp-1", Day: day(2026, time.March, 5)},
				{EventRef: "settled", EmployeeID: "emp-1", Day: day(2026, time.March, 6)},
			},
		}

		snap, err := snapshot.Build(context.Background(), src, snapshot.WithNow(now))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then both commitments are recorded for swap detection", func() {
			convey.So(len(snap.CommitmentByRef), convey.ShouldEqual, 2)
		})

		convey.Convey("Then only the settled event consumes capacity", func() {
			di5 := snap.DayIndex[day(2026, time.March, 5).Unix()]
			di6 := snap.DayIndex[day(2026, time.March, 6).Unix()]
			convey.So(snap.CommittedOn("emp-1", di5), convey.ShouldEqual, 0)
			convey.So(snap.CommittedOn("emp-1", di6), convey.ShouldEqual, 1)
			convey.So(snap.CommittedInWeek("emp-1", snap.WeekOfDay(di6)), convey.ShouldEqual, 1)
		})
	})
}

func TestRotationLookup(t *testing.T) {
	convey.Convey("Given a weekly rotation with a dated exception", t, func() {
		src := &fakeSource{
			rotations: []model.Rotation{{
				Weekday:    time.Thursday,
				Category:   types.RotationLead,
				EmployeeID: "lead-1",
				BackupID:   "lead-2",
			}},
			exceptions: []model.RotationException{{
				Day:        day(2026, time.March, 12),
				Category:   types.RotationLead,
				EmployeeID: "sub-1",
			}},
		}

		snap, err := snapshot.Build(context.Background(), src, snapshot.WithNow(now))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the weekly table answers plain Thursdays", func() {
			convey.So(snap.RotationFor(day(2026, time.March, 5), types.RotationLead), convey.ShouldEqual, "lead-1")
			convey.So(snap.RotationBackupFor(day(2026, time.March, 5), types.RotationLead), convey.ShouldEqual, "lead-2")
		})

		convey.Convey("Then the exception wins on its concrete date", func() {
			convey.So(snap.RotationFor(day(2026, time.March, 12), types.RotationLead), convey.ShouldEqual, "sub-1")
		})

		convey.Convey("Then other categories have no designated employee", func() {
			convey.So(snap.RotationFor(day(2026, time.March, 5), types.RotationJuicer), convey.ShouldEqual, "")
		})
	})
}
