package availability_test

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/demoworks/rota/internal/domain/availability"
	"github.com/demoworks/rota/internal/domain/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolver(t *testing.T) {
	convey.Convey("Given an employee with a Mon-Fri weekly pattern", t, func() {
		pattern := model.WeeklyPattern{
			EmployeeID: "emp-1",
			Days:       [7]bool{false, true, true, true, true, true, false},
		}
		monday := day(2026, time.March, 2)
		sunday := day(2026, time.March, 1)

		convey.Convey("When only the pattern is present", func() {
			r := availability.New(availability.WithPatterns([]model.WeeklyPattern{pattern}))

			convey.Convey("Then weekdays are available and Sunday is not", func() {
				convey.So(r.Available("emp-1", monday), convey.ShouldBeTrue)
				convey.So(r.Available("emp-1", sunday), convey.ShouldBeFalse)
			})

			convey.Convey("Then an unknown employee is never available", func() {
				convey.So(r.Available("ghost", monday), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When time off covers the day", func() {
			r := availability.New(
				availability.WithPatterns([]model.WeeklyPattern{pattern}),
				availability.WithTimeOff([]model.TimeOff{{
					EmployeeID: "emp-1",
					From:       day(2026, time.March, 2),
					To:         day(2026, time.March, 6),
				}}),
			)

			convey.Convey("Then the pattern is overruled", func() {
				convey.So(r.Available("emp-1", monday), convey.ShouldBeFalse)
				convey.So(r.Available("emp-1", day(2026, time.March, 9)), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a date override re-enables a day inside time off", func() {
			r := availability.New(
				availability.WithPatterns([]model.WeeklyPattern{pattern}),
				availability.WithTimeOff([]model.TimeOff{{
					EmployeeID: "emp-1",
					From:       day(2026, time.March, 1),
					To:         day(2026, time.March, 7),
				}}),
				availability.WithOverrides([]model.DateOverride{{
					EmployeeID: "emp-1",
					From:       day(2026, time.March, 1),
					To:         day(2026, time.March, 7),
					Weekday:    time.Monday,
					Available:  true,
				}}),
			)

			convey.Convey("Then the override wins over both lower layers", func() {
				convey.So(r.Available("emp-1", monday), convey.ShouldBeTrue)
				convey.So(r.Available("emp-1", day(2026, time.March, 3)), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a date override disables a pattern day", func() {
			r := availability.New(
				availability.WithPatterns([]model.WeeklyPattern{pattern}),
				availability.WithOverrides([]model.DateOverride{{
					EmployeeID: "emp-1",
					From:       day(2026, time.March, 1),
					To:         day(2026, time.March, 31),
					Weekday:    time.Friday,
					Available:  false,
				}}),
			)

			convey.Convey("Then Fridays in the range are blocked", func() {
				convey.So(r.Available("emp-1", day(2026, time.March, 6)), convey.ShouldBeFalse)
				convey.So(r.Available("emp-1", day(2026, time.March, 5)), convey.ShouldBeTrue)
			})
		})
	})
}
