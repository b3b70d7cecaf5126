package engine

import "github.com/demoworks/rota/internal/domain/types"

// Rules are the fixed business parameters the hard constraints and the
// extractor work from. Defaults match the production deployment; override
// per environment through config.
type Rules struct {
	// WeeklyCoreCeiling caps demo assignments (existing + new) per
	// employee per Sunday-to-Saturday week.
	WeeklyCoreCeiling int

	// FullDayMinutes is the duration at which an event blocks every
	// other base-category event for the employee that day.
	FullDayMinutes int

	// ShiftBlocks is the number of daily slots demo events pick from.
	ShiftBlocks int

	// BlockArrival maps a shift block to its arrival clock time ("HH:MM").
	BlockArrival map[int]string

	// CategoryTimes maps non-demo categories to their default clock time.
	CategoryTimes map[types.Category]string

	// JuicerWeeklySoftCap is the preferred (not hard) weekly limit of
	// juicer production assignments per employee.
	JuicerWeeklySoftCap int
}

// DefaultRules returns the production defaults.
func DefaultRules() Rules {
	return Rules{
		WeeklyCoreCeiling: 6,
		FullDayMinutes:    360,
		ShiftBlocks:       3,
		BlockArrival: map[int]string{
			1: "09:00",
			2: "11:30",
			3: "14:00",
		},
		CategoryTimes: map[types.Category]string{
			types.CategoryJuicerProd:      "08:00",
			types.CategoryJuicerDeepClean: "07:00",
			types.CategoryJuicerSurvey:    "10:00",
			types.CategorySupervisorVisit: "10:00",
			types.CategoryKiosk:           "09:30",
			types.CategoryDigitalSetup:    "08:30",
			types.CategoryDigitalRefresh:  "08:30",
			types.CategoryDigitalTeardown: "16:00",
		},
		JuicerWeeklySoftCap: 4,
	}
}

// arrivalOrDefault returns the clock time for a category and block.
func (r Rules) arrivalOrDefault(cat types.Category, block int) string {
	if cat == types.CategoryDemo {
		if t, ok := r.BlockArrival[block]; ok {
			return t
		}
	}
	if t, ok := r.CategoryTimes[cat]; ok {
		return t
	}
	return "09:00"
}
