package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/demoworks/rota/internal/domain/model"
	"github.com/demoworks/rota/internal/domain/types"
	"github.com/demoworks/rota/internal/snapshot"
)

type slotKey struct {
	employeeID string
	day        int64
}

// extract reads the solver assignment back into proposals: one row per
// primary event, companion rows for resolved pairings, and failure rows
// for everything the loader already ruled out.
func extract(p *plan, assign []bool, runID uuid.UUID) []model.Proposal {
	snap := p.snap
	out := make([]model.Proposal, 0, len(p.events)+len(snap.Unschedulable))

	// Prior demo slots held by events this run re-decides, for bump
	// attribution when another event lands on the slot.
	priorSlot := make(map[slotKey]string)
	for ref, c := range snap.CommitmentByRef {
		if _, inRun := p.byRef[ref]; !inRun {
			continue
		}
		if snap.Effective[ref] != types.CategoryDemo {
			continue
		}
		priorSlot[slotKey{employeeID: c.EmployeeID, day: snapshot.Midnight(c.Day).Unix()}] = ref
	}

	for _, ep := range p.events {
		prop := model.Proposal{RunID: runID, EventRef: ep.ev.Ref}

		if !assign[ep.ind] {
			prop.FailureReason = ReasonNotPlaced
			out = append(out, prop)
			continue
		}

		di, ei, block, ok := chosen(ep, assign)
		if !ok {
			prop.FailureReason = ReasonExtraction
			out = append(out, prop)
			continue
		}
		day := snap.Days[di]
		emp := snap.Employees[ei]

		at := arrivalOn(day, p.rules.arrivalOrDefault(ep.cat, block))
		prop.EmployeeID = emp.ID
		prop.ScheduledAt = &at
		prop.ShiftBlock = block

		if c, had := snap.CommitmentByRef[ep.ev.Ref]; had {
			moved := c.EmployeeID != emp.ID || !snapshot.Midnight(c.Day).Equal(day)
			prop.Swap = moved
		}
		if prior, taken := priorSlot[slotKey{employeeID: emp.ID, day: day.Unix()}]; taken && prior != ep.ev.Ref {
			prop.BumpedRef = prior
		}
		out = append(out, prop)

		if comp, paired := snap.Companions[ep.ev.Ref]; paired {
			out = append(out, companionProposal(p, comp, day, emp, runID))
		}
	}

	// Companions of primaries the solver left unplaced fail alongside them.
	for _, ep := range p.events {
		if assign[ep.ind] {
			continue
		}
		if comp, paired := snap.Companions[ep.ev.Ref]; paired {
			out = append(out, model.Proposal{RunID: runID, EventRef: comp.Ref, FailureReason: ReasonNotPlaced})
		}
	}

	for _, u := range snap.Unschedulable {
		out = append(out, model.Proposal{RunID: runID, EventRef: u.Event.Ref, FailureReason: u.Reason})
	}
	return out
}

// chosen decodes the selected day, employee, and block of a scheduled
// event, verifying exactly one option per group is set.
func chosen(ep *eventPlan, assign []bool) (di, ei, block int, ok bool) {
	di, ei = -1, -1
	for _, d := range ep.days {
		if assign[d.v] {
			if di >= 0 {
				return 0, 0, 0, false
			}
			di = d.di
		}
	}
	for _, e := range ep.emps {
		if assign[e.v] {
			if ei >= 0 {
				return 0, 0, 0, false
			}
			ei = e.ei
		}
	}
	for _, b := range ep.blocks {
		if assign[b.v] {
			if block != 0 {
				return 0, 0, 0, false
			}
			block = b.block
		}
	}
	if di < 0 || ei < 0 || (len(ep.blocks) > 0 && block == 0) {
		return 0, 0, 0, false
	}
	return di, ei, block, true
}

// companionProposal places a paired companion on the primary's day. A
// survey visit inherits the primary's employee; a supervisor visit needs a
// supervisor or lead-qualified resolver available that day.
func companionProposal(p *plan, comp model.Event, day time.Time, primary model.Employee, runID uuid.UUID) model.Proposal {
	cat := comp.Effective()
	prop := model.Proposal{RunID: runID, EventRef: comp.Ref}

	empID := primary.ID
	if cat == types.CategorySupervisorVisit {
		var ok bool
		empID, ok = resolveSupervisor(p.snap, day)
		if !ok {
			prop.FailureReason = ReasonCompanionNoResolver
			return prop
		}
	}

	at := arrivalOn(day, p.rules.arrivalOrDefault(cat, 0))
	prop.EmployeeID = empID
	prop.ScheduledAt = &at
	return prop
}

// resolveSupervisor picks the companion resolver for day: a supervisor
// first, then the day's rotation lead, then any lead-qualified employee,
// each gated on availability. Candidates are scanned in employee ID order
// so the choice is stable across runs.
func resolveSupervisor(snap *snapshot.Snapshot, day time.Time) (string, bool) {
	di, ok := snap.DayIndex[snapshot.Midnight(day).Unix()]
	if !ok {
		return "", false
	}

	ids := make([]int, len(snap.Employees))
	for i := range ids {
		ids[i] = i
	}
	sort.Slice(ids, func(a, b int) bool { return snap.Employees[ids[a]].ID < snap.Employees[ids[b]].ID })

	for _, ei := range ids {
		if snap.Employees[ei].Role.Privileged() && snap.Available[ei][di] {
			return snap.Employees[ei].ID, true
		}
	}
	if leadID := snap.RotationFor(day, types.RotationLead); leadID != "" {
		if ei, ok := snap.EmpIndex[leadID]; ok && snap.Available[ei][di] {
			return leadID, true
		}
	}
	for _, ei := range ids {
		if snap.Employees[ei].Role.LeadQualified() && snap.Available[ei][di] {
			return snap.Employees[ei].ID, true
		}
	}
	return "", false
}

// arrivalOn combines a horizon date with an "HH:MM" clock time.
func arrivalOn(day time.Time, clock string) time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		t = time.Date(0, 1, 1, 9, 0, 0, 0, time.UTC)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
}
