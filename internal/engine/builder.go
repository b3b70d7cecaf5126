package engine

import (
	"fmt"

	"github.com/demoworks/rota/internal/cpmodel"
	"github.com/demoworks/rota/internal/domain/model"
	"github.com/demoworks/rota/internal/domain/types"
	"github.com/demoworks/rota/internal/snapshot"
	"github.com/demoworks/rota/internal/solve"
	"github.com/demoworks/rota/pkg/metrics"
)

// Construction phases: base categories are placed before the support
// categories that anchor on them.
const (
	phaseBase    = 0
	phaseSupport = 1
)

type dayOption struct {
	v  cpmodel.Var
	di int
}

type empOption struct {
	v  cpmodel.Var
	ei int
}

type blockOption struct {
	v     cpmodel.Var
	block int
}

type cellKey struct {
	ei, di int
}

// eventPlan holds one event's decision variables and the handles the
// extractor reads back after the solve.
type eventPlan struct {
	ev      model.Event
	cat     types.Category
	fullDay bool
	ind     cpmodel.Var
	days    []dayOption
	emps    []empOption
	blocks  []blockOption
	cells   map[cellKey]cpmodel.Var // (employee, day) conjunctions, available pairs only
}

type ownedCell struct {
	v   cpmodel.Var
	ref string
}

// plan is the built model plus everything later stages need to interpret
// a solver assignment.
type plan struct {
	m         *cpmodel.Model
	snap      *snapshot.Snapshot
	rules     Rules
	events    []*eventPlan
	byRef     map[string]*eventPlan
	decisions []solve.Decision
	eval      *evaluator
}

// buildModel turns the snapshot into decision variables and hard
// constraints, then attaches the weighted objective. Committed capacity
// enters as read-only offsets; nothing here mutates the snapshot.
func buildModel(snap *snapshot.Snapshot, rules Rules, w Weights) *plan {
	p := &plan{
		m:     cpmodel.New(),
		snap:  snap,
		rules: rules,
		byRef: make(map[string]*eventPlan),
		eval:  newEvaluator(),
	}

	for _, ev := range snap.Events {
		p.addEventVars(ev, w)
	}
	p.addCapacityConstraints(w)
	p.addExclusionConstraints()
	p.addSupportAnchors()
	p.addFullDayConstraints()
	p.addBlockUniqueness()
	p.attachObjective(w)

	metrics.UpdateModelSize(p.m.NumVars(), p.m.NumConstraints())
	return p
}

// addEventVars creates the per-event indicator, day, employee, block, and
// cell variables, with the selection constraints tying them together.
func (p *plan) addEventVars(ev model.Event, w Weights) {
	snap, m := p.snap, p.m
	cat := snap.Effective[ev.Ref]
	ep := &eventPlan{
		ev:      ev,
		cat:     cat,
		fullDay: cat.IsBase() && ev.DurationMinutes >= p.rules.FullDayMinutes,
		cells:   make(map[cellKey]cpmodel.Var),
	}

	// Prune days with no available eligible employee and employees with
	// no available valid day; the loader guarantees at least one pair.
	for _, di := range snap.ValidDays[ev.Ref] {
		for _, ei := range snap.Eligible[ev.Ref] {
			if snap.Available[ei][di] {
				ep.days = append(ep.days, dayOption{di: di})
				break
			}
		}
	}
	for _, ei := range snap.Eligible[ev.Ref] {
		for _, d := range ep.days {
			if snap.Available[ei][d.di] {
				ep.emps = append(ep.emps, empOption{ei: ei})
				break
			}
		}
	}
	if len(ep.days) == 0 || len(ep.emps) == 0 {
		return
	}

	ep.ind = m.NewBool("sched/" + ev.Ref)
	dayVars := make([]cpmodel.Var, len(ep.days))
	for i := range ep.days {
		ep.days[i].v = m.NewBool(fmt.Sprintf("day/%s/%s", ev.Ref, snap.Days[ep.days[i].di].Format("2006-01-02")))
		dayVars[i] = ep.days[i].v
	}
	empVars := make([]cpmodel.Var, len(ep.emps))
	for i := range ep.emps {
		ep.emps[i].v = m.NewBool(fmt.Sprintf("emp/%s/%s", ev.Ref, snap.Employees[ep.emps[i].ei].ID))
		empVars[i] = ep.emps[i].v
	}
	m.AddSelection(ep.ind, dayVars)
	m.AddSelection(ep.ind, empVars)

	if cat == types.CategoryDemo {
		blockVars := make([]cpmodel.Var, p.rules.ShiftBlocks)
		for b := 1; b <= p.rules.ShiftBlocks; b++ {
			v := m.NewBool(fmt.Sprintf("block/%s/%d", ev.Ref, b))
			ep.blocks = append(ep.blocks, blockOption{v: v, block: b})
			blockVars[b-1] = v
		}
		m.AddSelection(ep.ind, blockVars)
	}

	// Unavailable (employee, day) pairs are excluded outright; available
	// pairs get a conjunction cell the cross-event constraints index.
	for _, d := range ep.days {
		for _, e := range ep.emps {
			if snap.Available[e.ei][d.di] {
				ep.cells[cellKey{ei: e.ei, di: d.di}] = m.And(d.v, e.v)
			} else {
				m.AddForbidPair(d.v, e.v)
			}
		}
	}

	p.events = append(p.events, ep)
	p.byRef[ev.Ref] = ep

	groups := [][]cpmodel.Var{dayVars, empVars}
	if len(ep.blocks) > 0 {
		blockVars := make([]cpmodel.Var, len(ep.blocks))
		for i, b := range ep.blocks {
			blockVars[i] = b.v
		}
		groups = append(groups, blockVars)
	}
	phase := phaseSupport
	if cat.IsBase() {
		phase = phaseBase
	}
	p.decisions = append(p.decisions, solve.Decision{
		ID:        ev.Ref,
		Indicator: ep.ind,
		Groups:    groups,
		Phase:     phase,
		Priority:  p.scheduledReward(ep, w),
	})
}

// cellsByKey gathers, per (employee, day), the cells of events matching
// the filter.
func (p *plan) cellsByKey(filter func(*eventPlan) bool) map[cellKey][]ownedCell {
	out := make(map[cellKey][]ownedCell)
	for _, ep := range p.events {
		if !filter(ep) {
			continue
		}
		for key, cell := range ep.cells {
			out[key] = append(out[key], ownedCell{v: cell, ref: ep.ev.Ref})
		}
	}
	return out
}

func vars(cells []ownedCell) []cpmodel.Var {
	out := make([]cpmodel.Var, len(cells))
	for i, c := range cells {
		out[i] = c.v
	}
	return out
}

// addCapacityConstraints encodes the daily cap and the weekly ceiling on
// demo assignments, seeded with committed capacity. The supervisor role is
// exempt from the daily cap only.
func (p *plan) addCapacityConstraints(w Weights) {
	snap := p.snap
	demo := p.cellsByKey(func(ep *eventPlan) bool { return ep.cat == types.CategoryDemo })

	type weekKey struct{ ei, week int }
	weekly := make(map[weekKey][]cpmodel.Var)
	for key, cells := range demo {
		emp := snap.Employees[key.ei]
		committed := snap.CommittedOn(emp.ID, key.di)
		if !emp.Role.Privileged() {
			p.m.AddAtMost(vars(cells), committed, 1,
				fmt.Sprintf("daily demo cap %s on %s", emp.ID, snap.Days[key.di].Format("2006-01-02")))
		}
		wk := weekKey{ei: key.ei, week: snap.WeekOfDay(key.di)}
		weekly[wk] = append(weekly[wk], vars(cells)...)
	}
	for wk, cells := range weekly {
		emp := snap.Employees[wk.ei]
		p.m.AddAtMost(cells, snap.CommittedInWeek(emp.ID, wk.week), p.rules.WeeklyCoreCeiling,
			fmt.Sprintf("weekly demo ceiling %s week %d", emp.ID, wk.week))
	}

	// An employee whose committed week already exceeds the ceiling must
	// surface as infeasible even when no new variable touches that week.
	for key, committed := range snap.CommittedWeekly {
		if committed > p.rules.WeeklyCoreCeiling {
			p.m.AddAtMost(nil, committed, p.rules.WeeklyCoreCeiling,
				fmt.Sprintf("weekly demo ceiling %s (committed)", key.EmployeeID))
		}
	}
}

// addExclusionConstraints encodes the juicer/demo employee-day exclusion
// and the global deep-clean/production day exclusion.
func (p *plan) addExclusionConstraints() {
	demo := p.cellsByKey(func(ep *eventPlan) bool { return ep.cat == types.CategoryDemo })
	juicer := p.cellsByKey(func(ep *eventPlan) bool { return ep.cat == types.CategoryJuicerProd })
	for key, jcells := range juicer {
		for _, jc := range jcells {
			for _, dc := range demo[key] {
				p.m.AddForbidPair(jc.v, dc.v)
			}
		}
	}

	deepByDay := make(map[int][]cpmodel.Var)
	prodByDay := make(map[int][]cpmodel.Var)
	for _, ep := range p.events {
		var target map[int][]cpmodel.Var
		switch ep.cat {
		case types.CategoryJuicerDeepClean:
			target = deepByDay
		case types.CategoryJuicerProd:
			target = prodByDay
		default:
			continue
		}
		for _, d := range ep.days {
			target[d.di] = append(target[d.di], d.v)
		}
	}
	for di, deeps := range deepByDay {
		for _, dv := range deeps {
			for _, pv := range prodByDay[di] {
				p.m.AddForbidPair(dv, pv)
			}
		}
	}
}

// addSupportAnchors encodes the support-category rule: a support cell for
// a non-exempt employee implies some base-category cell on the same
// (employee, day); where no base cell exists at all the support cell is
// forced false.
func (p *plan) addSupportAnchors() {
	base := p.cellsByKey(func(ep *eventPlan) bool { return ep.cat.IsBase() })
	anchors := make(map[cellKey]cpmodel.Var)

	for _, ep := range p.events {
		if !ep.cat.IsSupport() {
			continue
		}
		for key, cell := range ep.cells {
			if p.snap.Employees[key.ei].Role.Privileged() {
				continue
			}
			bases := base[key]
			if len(bases) == 0 {
				p.m.Forbid(cell)
				continue
			}
			anchor, ok := anchors[key]
			if !ok {
				anchor = p.m.Or(fmt.Sprintf("baseany/%s/%s",
					p.snap.Employees[key.ei].ID, p.snap.Days[key.di].Format("2006-01-02")), vars(bases))
				anchors[key] = anchor
			}
			p.m.AddImplies(cell, anchor)
		}
	}
}

// addFullDayConstraints encodes rule: a full-day event excludes every
// other base-category event for the employee that day, and at most one
// full-day event per (employee, day).
func (p *plan) addFullDayConstraints() {
	full := p.cellsByKey(func(ep *eventPlan) bool { return ep.fullDay })
	base := p.cellsByKey(func(ep *eventPlan) bool { return ep.cat.IsBase() })
	for key, fcells := range full {
		p.m.AddAtMost(vars(fcells), 0, 1,
			fmt.Sprintf("full-day cap %s on %s", p.snap.Employees[key.ei].ID, p.snap.Days[key.di].Format("2006-01-02")))
		for _, fc := range fcells {
			for _, bc := range base[key] {
				if bc.ref == fc.ref {
					continue
				}
				p.m.AddForbidPair(fc.v, bc.v)
			}
		}
	}
}

// addBlockUniqueness encodes global shift-block uniqueness: per day, per
// block, at most one demo event.
func (p *plan) addBlockUniqueness() {
	type dayBlock struct{ di, block int }
	occupied := make(map[dayBlock][]cpmodel.Var)
	for _, ep := range p.events {
		if ep.cat != types.CategoryDemo {
			continue
		}
		for _, d := range ep.days {
			for _, b := range ep.blocks {
				occupied[dayBlock{di: d.di, block: b.block}] = append(
					occupied[dayBlock{di: d.di, block: b.block}], p.m.And(d.v, b.v))
			}
		}
	}
	for db, cells := range occupied {
		p.m.AddAtMost(cells, 0, 1,
			fmt.Sprintf("block %d uniqueness on %s", db.block, p.snap.Days[db.di].Format("2006-01-02")))
	}
}

// scheduledReward is the linear reward for scheduling an event at all:
// coverage, urgency, and category priority.
func (p *plan) scheduledReward(ep *eventPlan, w Weights) int64 {
	reward := w.Scheduled + w.CategoryPriority[ep.cat]
	horizonDays := int64(p.snap.Last.Sub(p.snap.First).Hours()/24) + 1
	dueOffset := int64(ep.ev.Due.Sub(p.snap.First).Hours() / 24)
	if slack := horizonDays - dueOffset; slack > 0 {
		reward += slack * w.UrgencyPerDay
	}
	return reward
}

// attachObjective wires every soft term onto the built variables.
func (p *plan) attachObjective(w Weights) {
	snap := p.snap

	for _, ep := range p.events {
		p.eval.addWeight(ep.ind, p.scheduledReward(ep, w))

		// Supervisor misuse: no primary category prefers the role.
		for _, e := range ep.emps {
			if snap.Employees[e.ei].Role.Privileged() {
				p.eval.addWeight(e.v, -w.SupervisorMisuse)
			}
		}

		rotCat, hasRotation := rotationCategoryFor(ep.cat)
		for key, cell := range ep.cells {
			day := snap.Days[key.di]
			emp := snap.Employees[key.ei]
			if hasRotation && snap.RotationFor(day, rotCat) == emp.ID {
				p.eval.addWeight(cell, w.RotationMatch)
			}
		}

		// Keeping a posted (employee, day) pairing intact is rewarded;
		// any other placement implicitly bumps it.
		if c, ok := snap.CommitmentByRef[ep.ev.Ref]; ok {
			if ei, ok := snap.EmpIndex[c.EmployeeID]; ok {
				if di, ok := snap.DayIndex[snapshot.Midnight(c.Day).Unix()]; ok {
					if cell, ok := ep.cells[cellKey{ei: ei, di: di}]; ok {
						p.eval.addWeight(cell, w.KeepCommitment)
					}
				}
			}
		}

		// Rotation lead on shift block 1.
		if ep.cat == types.CategoryDemo && len(ep.blocks) > 0 {
			for _, d := range ep.days {
				leadID := snap.RotationFor(snap.Days[d.di], types.RotationLead)
				ei, ok := snap.EmpIndex[leadID]
				if !ok {
					continue
				}
				if cell, ok := ep.cells[cellKey{ei: ei, di: d.di}]; ok {
					p.eval.addWeight(p.m.And(cell, ep.blocks[0].v), w.LeadOnBlockOne)
				}
			}
		}
	}

	p.attachFairness(w)
	p.attachJuicerSoftCap(w)
	p.attachBrandDuplicates(w)
}

func (p *plan) attachFairness(w Weights) {
	snap := p.snap
	loads := make([][]cpmodel.Var, len(snap.Employees))
	committed := make([]int, len(snap.Employees))
	for ei, emp := range snap.Employees {
		for di := range snap.Days {
			committed[ei] += snap.CommittedOn(emp.ID, di)
		}
	}
	for _, ep := range p.events {
		if ep.cat != types.CategoryDemo {
			continue
		}
		for key, cell := range ep.cells {
			loads[key.ei] = append(loads[key.ei], cell)
		}
	}
	p.eval.aggregates = append(p.eval.aggregates, fairnessTerm{
		weight:    w.FairnessSpread,
		loads:     loads,
		committed: committed,
	})
}

func (p *plan) attachJuicerSoftCap(w Weights) {
	type weekKey struct{ ei, week int }
	byWeek := make(map[weekKey][]cpmodel.Var)
	for _, ep := range p.events {
		if ep.cat != types.CategoryJuicerProd {
			continue
		}
		for key, cell := range ep.cells {
			wk := weekKey{ei: key.ei, week: p.snap.WeekOfDay(key.di)}
			byWeek[wk] = append(byWeek[wk], cell)
		}
	}
	buckets := make([][]cpmodel.Var, 0, len(byWeek))
	for _, cells := range byWeek {
		buckets = append(buckets, cells)
	}
	p.eval.aggregates = append(p.eval.aggregates, softCapTerm{
		weight:  w.JuicerSoftCapExcess,
		buckets: buckets,
		cap:     p.rules.JuicerWeeklySoftCap,
	})
}

func (p *plan) attachBrandDuplicates(w Weights) {
	var groups [][]cpmodel.Var
	for _, refs := range p.snap.Brands {
		if len(refs) < 2 {
			continue
		}
		byDay := make(map[int][]cpmodel.Var)
		for _, ref := range refs {
			ep, ok := p.byRef[ref]
			if !ok {
				continue
			}
			for _, d := range ep.days {
				byDay[d.di] = append(byDay[d.di], d.v)
			}
		}
		for _, dayVars := range byDay {
			if len(dayVars) > 1 {
				groups = append(groups, dayVars)
			}
		}
	}
	p.eval.aggregates = append(p.eval.aggregates, duplicateTerm{
		weight: w.BrandDuplicate,
		groups: groups,
	})
}

// rotationCategoryFor maps an event category to the rotation table that
// designates its preferred employee.
func rotationCategoryFor(cat types.Category) (types.RotationCategory, bool) {
	switch cat {
	case types.CategoryDemo:
		return types.RotationLead, true
	case types.CategoryJuicerProd, types.CategoryJuicerDeepClean:
		return types.RotationJuicer, true
	default:
		return "", false
	}
}
