package engine

import (
	"github.com/demoworks/rota/internal/cpmodel"
	"github.com/demoworks/rota/internal/domain/types"
)

// Weights is the objective configuration: one weighted sum to maximize.
// The relative magnitudes are the contract. Coverage dominates, keeping
// posted work is expensive to undo, and the remaining terms shade the
// search. Absolute values are tunable per deployment.
type Weights struct {
	// Scheduled is the reward per event actually scheduled. Dominant.
	Scheduled int64 `koanf:"scheduled"`

	// UrgencyPerDay escalates the reward for every day an event's due
	// date sits short of the horizon end.
	UrgencyPerDay int64 `koanf:"urgency_per_day"`

	// CategoryPriority ranks categories when capacity is tight.
	CategoryPriority map[types.Category]int64 `koanf:"category_priority"`

	// RotationMatch rewards assigning the day's rotation employee.
	RotationMatch int64 `koanf:"rotation_match"`

	// SupervisorMisuse penalizes using the supervisor role for a
	// category that does not prefer it.
	SupervisorMisuse int64 `koanf:"supervisor_misuse"`

	// LeadOnBlockOne rewards the rotation lead landing on shift block 1.
	LeadOnBlockOne int64 `koanf:"lead_on_block_one"`

	// FairnessSpread penalizes, per unit, the max minus min spread of
	// demo load across employees.
	FairnessSpread int64 `koanf:"fairness_spread"`

	// JuicerSoftCapExcess penalizes, per assignment, juicer production
	// beyond the weekly soft cap.
	JuicerSoftCapExcess int64 `koanf:"juicer_soft_cap_excess"`

	// BrandDuplicate penalizes each same-brand demo on a day beyond the
	// first.
	BrandDuplicate int64 `koanf:"brand_duplicate"`

	// KeepCommitment rewards keeping an existing commitment's
	// (employee, day) pairing intact; bumping is allowed but costly.
	KeepCommitment int64 `koanf:"keep_commitment"`
}

// DefaultWeights returns the documented default table.
func DefaultWeights() Weights {
	return Weights{
		Scheduled:     10_000,
		UrgencyPerDay: 40,
		CategoryPriority: map[types.Category]int64{
			types.CategoryJuicerProd:      400,
			types.CategoryDemo:            300,
			types.CategoryJuicerDeepClean: 250,
			types.CategoryKiosk:           150,
			types.CategoryDigitalSetup:    100,
			types.CategoryDigitalRefresh:  100,
			types.CategoryDigitalTeardown: 100,
		},
		RotationMatch:       500,
		SupervisorMisuse:    600,
		LeadOnBlockOne:      200,
		FairnessSpread:      150,
		JuicerSoftCapExcess: 250,
		BrandDuplicate:      350,
		KeepCommitment:      2_000,
	}
}

// aggregate is an objective term that cannot be expressed as a per-variable
// weight (spreads, soft caps, duplicate counts).
type aggregate interface {
	penalty(assign []bool) int64
}

// evaluator implements solve.Objective: linear weights per variable plus
// aggregate penalty terms evaluated on the full assignment.
type evaluator struct {
	weights    []int64
	weighted   []cpmodel.Var
	aggregates []aggregate
}

func newEvaluator() *evaluator {
	return &evaluator{}
}

// addWeight accumulates a linear term onto a variable.
func (e *evaluator) addWeight(v cpmodel.Var, w int64) {
	if w == 0 {
		return
	}
	for int(v) >= len(e.weights) {
		e.weights = append(e.weights, 0)
	}
	if e.weights[v] == 0 {
		e.weighted = append(e.weighted, v)
	}
	e.weights[v] += w
}

// VarWeight returns the linear weight of a variable.
func (e *evaluator) VarWeight(v cpmodel.Var) int64 {
	if int(v) >= len(e.weights) {
		return 0
	}
	return e.weights[v]
}

// Score evaluates the full objective for an assignment with derived
// variables already propagated.
func (e *evaluator) Score(assign []bool) int64 {
	var total int64
	for _, v := range e.weighted {
		if assign[v] {
			total += e.weights[v]
		}
	}
	for _, agg := range e.aggregates {
		total -= agg.penalty(assign)
	}
	return total
}

// fairnessTerm penalizes the spread (max minus min) of demo load, existing
// commitments included, across employees.
type fairnessTerm struct {
	weight    int64
	loads     [][]cpmodel.Var // per employee: the demo cells that add load
	committed []int           // per employee: existing demo load in horizon
}

func (t fairnessTerm) penalty(assign []bool) int64 {
	if t.weight == 0 || len(t.loads) == 0 {
		return 0
	}
	minLoad, maxLoad := -1, 0
	for ei, cells := range t.loads {
		load := t.committed[ei]
		for _, v := range cells {
			if assign[v] {
				load++
			}
		}
		if minLoad < 0 || load < minLoad {
			minLoad = load
		}
		if load > maxLoad {
			maxLoad = load
		}
	}
	return t.weight * int64(maxLoad-minLoad)
}

// softCapTerm penalizes per-bucket counts beyond a soft cap.
type softCapTerm struct {
	weight  int64
	buckets [][]cpmodel.Var
	cap     int
}

func (t softCapTerm) penalty(assign []bool) int64 {
	if t.weight == 0 {
		return 0
	}
	var total int64
	for _, bucket := range t.buckets {
		n := 0
		for _, v := range bucket {
			if assign[v] {
				n++
			}
		}
		if n > t.cap {
			total += int64(n-t.cap) * t.weight
		}
	}
	return total
}

// duplicateTerm penalizes every true variable in a group beyond the first
// (same-brand demos sharing a day).
type duplicateTerm struct {
	weight int64
	groups [][]cpmodel.Var
}

func (t duplicateTerm) penalty(assign []bool) int64 {
	if t.weight == 0 {
		return 0
	}
	var total int64
	for _, group := range t.groups {
		n := 0
		for _, v := range group {
			if assign[v] {
				n++
			}
		}
		if n > 1 {
			total += int64(n-1) * t.weight
		}
	}
	return total
}
