// Package types contains common enumerations used across the application.
package types

// Category is the effective event category handled by the scheduler.
type Category string

// Fixed category enumeration. Demo is the Core category: highest volume,
// one per employee per day, weekly ceiling per employee.
const (
	CategoryDemo            Category = "demo"
	CategoryJuicerProd      Category = "juicer_production"
	CategoryJuicerDeepClean Category = "juicer_deep_clean"
	CategoryJuicerSurvey    Category = "juicer_survey"
	CategorySupervisorVisit Category = "supervisor_visit"
	CategoryKiosk           Category = "kiosk"
	CategoryDigitalSetup    Category = "digital_setup"
	CategoryDigitalRefresh  Category = "digital_refresh"
	CategoryDigitalTeardown Category = "digital_teardown"
)

// IsBase reports whether the category anchors support-category work
// (demo or juicer production).
func (c Category) IsBase() bool {
	return c == CategoryDemo || c == CategoryJuicerProd
}

// IsSupport reports whether the category requires a base-category anchor
// for the same employee on the same day.
func (c Category) IsSupport() bool {
	switch c {
	case CategoryKiosk, CategoryDigitalSetup, CategoryDigitalRefresh, CategoryDigitalTeardown:
		return true
	default:
		return false
	}
}

// IsJuicer reports whether the category requires a juicer-qualified employee.
func (c Category) IsJuicer() bool {
	switch c {
	case CategoryJuicerProd, CategoryJuicerDeepClean, CategoryJuicerSurvey:
		return true
	default:
		return false
	}
}

// IsCompanion reports whether events of this category are never solved
// independently and instead derive their assignment from a paired primary.
func (c Category) IsCompanion() bool {
	return c == CategorySupervisorVisit || c == CategoryJuicerSurvey
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryDemo, CategoryJuicerProd, CategoryJuicerDeepClean,
		CategoryJuicerSurvey, CategorySupervisorVisit, CategoryKiosk,
		CategoryDigitalSetup, CategoryDigitalRefresh, CategoryDigitalTeardown:
		return true
	default:
		return false
	}
}

// Role is an employee's job title, the source of qualifications.
type Role string

const (
	RoleSpecialist    Role = "specialist"
	RoleLead          Role = "lead"
	RoleJuicerBarista Role = "juicer_barista"
	RoleSupervisor    Role = "supervisor"
)

// LeadQualified reports whether the role can take lead-gated work.
func (r Role) LeadQualified() bool {
	return r == RoleLead || r == RoleSupervisor
}

// JuicerQualified reports whether the role can take juicer-category events.
func (r Role) JuicerQualified() bool {
	return r == RoleJuicerBarista || r == RoleSupervisor
}

// Privileged reports whether the role is exempt from the daily Core cap
// and from the support-anchor rule.
func (r Role) Privileged() bool {
	return r == RoleSupervisor
}

// RunStatus is the lifecycle state of a scheduling run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCrashed   RunStatus = "crashed"
)

// RotationCategory keys the weekly rotation table.
type RotationCategory string

const (
	RotationLead   RotationCategory = "lead"
	RotationJuicer RotationCategory = "juicer"
)
