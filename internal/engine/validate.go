package engine

import (
	"sort"

	"github.com/demoworks/rota/internal/domain/model"
	"github.com/demoworks/rota/internal/domain/types"
	"github.com/demoworks/rota/internal/snapshot"
)

// validate re-checks the daily and weekly demo ceilings over the final
// proposal set, independent of the model that produced it. Proposals are
// admitted in event-ref order so a violation always strips the same row;
// a stripped row keeps its run entry with a failure reason. The supervisor
// role is exempt from the daily cap only.
func validate(snap *snapshot.Snapshot, rules Rules, proposals []model.Proposal) {
	order := make([]int, 0, len(proposals))
	for i := range proposals {
		if proposals[i].Scheduled() && snap.Effective[proposals[i].EventRef] == types.CategoryDemo {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(a, b int) bool {
		return proposals[order[a]].EventRef < proposals[order[b]].EventRef
	})

	daily := make(map[snapshot.DayKey]int, len(snap.CommittedDaily))
	for k, n := range snap.CommittedDaily {
		daily[k] = n
	}
	weekly := make(map[snapshot.WeekKey]int, len(snap.CommittedWeekly))
	for k, n := range snap.CommittedWeekly {
		weekly[k] = n
	}

	for _, i := range order {
		p := &proposals[i]
		day := snapshot.Midnight(*p.ScheduledAt)
		dk := snapshot.DayKey{EmployeeID: p.EmployeeID, Day: day.Unix()}
		wk := snapshot.WeekKey{EmployeeID: p.EmployeeID, WeekStart: snapshot.WeekStart(day).Unix()}

		privileged := false
		if ei, ok := snap.EmpIndex[p.EmployeeID]; ok {
			privileged = snap.Employees[ei].Role.Privileged()
		}

		if !privileged && daily[dk]+1 > 1 {
			strip(p, ReasonPostSolveDaily)
			continue
		}
		if weekly[wk]+1 > rules.WeeklyCoreCeiling {
			strip(p, ReasonPostSolveWeekly)
			continue
		}
		daily[dk]++
		weekly[wk]++
	}
}

func strip(p *model.Proposal, reason string) {
	p.EmployeeID = ""
	p.ScheduledAt = nil
	p.ShiftBlock = 0
	p.Swap = false
	p.BumpedRef = ""
	p.FailureReason = reason
}
