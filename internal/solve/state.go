package solve

import (
	"math/rand"

	"github.com/demoworks/rota/internal/cpmodel"
)

// sharedIndex holds the read-only per-variable indexes every worker shares:
// which constraints and derived definitions a variable participates in, and
// which decision owns it. Built once per solve.
type sharedIndex struct {
	model     *cpmodel.Model
	decisions []Decision

	varAtMost  [][]int          // var -> capacity constraint indexes
	varForbids [][]cpmodel.Var  // var -> exclusion partners
	varImplies [][]cpmodel.Var  // var -> required variables when true
	varDefs    [][]int          // var -> derived definitions it feeds
	owner      []int            // var -> owning decision index, -1 if none
}

func newSharedIndex(m *cpmodel.Model, decisions []Decision) *sharedIndex {
	n := m.NumVars()
	idx := &sharedIndex{
		model:      m,
		decisions:  decisions,
		varAtMost:  make([][]int, n),
		varForbids: make([][]cpmodel.Var, n),
		varImplies: make([][]cpmodel.Var, n),
		varDefs:    make([][]int, n),
		owner:      make([]int, n),
	}
	for i := range idx.owner {
		idx.owner[i] = -1
	}
	for di, dec := range decisions {
		idx.owner[dec.Indicator] = di
		for _, group := range dec.Groups {
			for _, v := range group {
				idx.owner[v] = di
			}
		}
	}
	for ci, am := range m.AtMosts() {
		for _, v := range am.Vars {
			idx.varAtMost[v] = append(idx.varAtMost[v], ci)
		}
	}
	for _, fp := range m.ForbidPairs() {
		idx.varForbids[fp.A] = append(idx.varForbids[fp.A], fp.B)
		idx.varForbids[fp.B] = append(idx.varForbids[fp.B], fp.A)
	}
	for _, im := range m.Implications() {
		idx.varImplies[im.If] = append(idx.varImplies[im.If], im.Then)
	}
	for defIdx, def := range m.Defs() {
		for _, v := range def.Inputs {
			idx.varDefs[v] = append(idx.varDefs[v], defIdx)
		}
		// A derived variable belongs to the decision of its inputs; the
		// first owned input wins (inputs of one definition never span
		// decisions for the constraint forms the builder emits).
		if idx.owner[def.Out] == -1 {
			for _, v := range def.Inputs {
				if idx.owner[v] != -1 {
					idx.owner[def.Out] = idx.owner[v]
					break
				}
			}
		}
	}
	return idx
}

// state is one worker's mutable search position: the assignment, the
// capacity counters, and the chosen combo per placed decision.
type state struct {
	shared *sharedIndex
	assign []bool
	counts []int // current usage per capacity constraint, committed included
	placed []bool
	combos [][]cpmodel.Var
}

func newState(shared *sharedIndex) *state {
	counts := make([]int, len(shared.model.AtMosts()))
	for i, am := range shared.model.AtMosts() {
		counts[i] = am.Committed
	}
	return &state{
		shared: shared,
		assign: make([]bool, shared.model.NumVars()),
		counts: counts,
		placed: make([]bool, len(shared.decisions)),
		combos: make([][]cpmodel.Var, len(shared.decisions)),
	}
}

// placeBest tries every combo of the decision's option groups and commits
// the feasible one with the highest linear gain. Group option order is
// shuffled so equal-gain combos vary across workers and passes.
func (st *state) placeBest(di int, obj Objective, rng *rand.Rand) bool {
	dec := st.shared.decisions[di]
	groups := make([][]cpmodel.Var, len(dec.Groups))
	for gi, g := range dec.Groups {
		if len(g) == 0 {
			return false
		}
		shuffled := make([]cpmodel.Var, len(g))
		copy(shuffled, g)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		groups[gi] = shuffled
	}

	combo := make([]cpmodel.Var, len(groups))
	best := make([]cpmodel.Var, 0, len(groups))
	var bestGain int64
	found := false

	var walk func(gi int)
	walk = func(gi int) {
		if gi == len(groups) {
			gain, journal, ok := st.try(dec.Indicator, combo, obj)
			st.revert(journal)
			if ok && (!found || gain > bestGain) {
				found = true
				bestGain = gain
				best = append(best[:0], combo...)
			}
			return
		}
		for _, v := range groups[gi] {
			combo[gi] = v
			walk(gi + 1)
		}
	}
	walk(0)

	if !found {
		return false
	}
	// Re-apply the winning combo; this time the journal is kept.
	if _, journal, ok := st.try(dec.Indicator, best, obj); !ok {
		st.revert(journal)
		return false
	}
	st.placed[di] = true
	st.combos[di] = append([]cpmodel.Var(nil), best...)
	return true
}

// try tentatively sets the indicator and combo variables true, cascading
// derived variables and capacity counters. On any violation it reports
// ok=false. The changes stay applied either way; reverting the returned
// journal undoes the trial.
func (st *state) try(indicator cpmodel.Var, combo []cpmodel.Var, obj Objective) (int64, []cpmodel.Var, bool) {
	var journal []cpmodel.Var

	set := func(v cpmodel.Var) bool {
		if st.assign[v] {
			return true
		}
		if st.shared.model.Forbidden(v) {
			return false
		}
		for _, partner := range st.shared.varForbids[v] {
			if st.assign[partner] {
				return false
			}
		}
		st.assign[v] = true
		journal = append(journal, v)
		ok := true
		for _, ci := range st.shared.varAtMost[v] {
			st.counts[ci]++
			if st.counts[ci] > st.shared.model.AtMosts()[ci].Cap {
				ok = false
			}
		}
		return ok
	}

	ok := set(indicator)
	for _, v := range combo {
		if !ok {
			break
		}
		ok = set(v)
	}

	// Cascade derived definitions in creation order; turning decision
	// variables on can only turn derived variables on, never off.
	if ok {
		heap := newIntHeap()
		for _, v := range journal {
			for _, defIdx := range st.shared.varDefs[v] {
				heap.push(defIdx)
			}
		}
		defs := st.shared.model.Defs()
		for ok && heap.len() > 0 {
			defIdx := heap.pop()
			def := defs[defIdx]
			if st.assign[def.Out] || !def.Eval(st.assign) {
				continue
			}
			if !set(def.Out) {
				ok = false
				break
			}
			for _, next := range st.shared.varDefs[def.Out] {
				heap.push(next)
			}
		}
	}

	// Implications of everything that turned on.
	if ok {
		for _, v := range journal {
			for _, then := range st.shared.varImplies[v] {
				if !st.assign[then] {
					ok = false
					break
				}
			}
			if !ok {
				break
			}
		}
	}

	if !ok {
		return 0, journal, false
	}
	var gain int64
	for _, v := range journal {
		gain += obj.VarWeight(v)
	}
	return gain, journal, true
}

// revert undoes a failed trial's journal.
func (st *state) revert(journal []cpmodel.Var) {
	for i := len(journal) - 1; i >= 0; i-- {
		v := journal[i]
		st.assign[v] = false
		for _, ci := range st.shared.varAtMost[v] {
			st.counts[ci]--
		}
	}
}

// eject clears a placed decision and every derived variable that depended
// on it, then cascades to decisions whose implications the removal broke
// (a support placement loses its base anchor). Returns every decision
// index ejected, the argument included.
func (st *state) eject(di int) []int {
	if !st.placed[di] {
		return nil
	}
	dec := st.shared.decisions[di]
	st.clear(dec.Indicator)
	for _, v := range st.combos[di] {
		st.clear(v)
	}
	st.placed[di] = false
	st.combos[di] = nil
	ejected := []int{di}

	// Removal can only break implications whose anchor went false.
	for _, im := range st.shared.model.Implications() {
		if st.assign[im.If] && !st.assign[im.Then] {
			if owner := st.shared.owner[im.If]; owner >= 0 && st.placed[owner] {
				ejected = append(ejected, st.eject(owner)...)
			}
		}
	}
	return ejected
}

// clear sets a variable false and cascades derived variables off.
func (st *state) clear(v cpmodel.Var) {
	if !st.assign[v] {
		return
	}
	st.assign[v] = false
	for _, ci := range st.shared.varAtMost[v] {
		st.counts[ci]--
	}
	defs := st.shared.model.Defs()
	heap := newIntHeap()
	for _, defIdx := range st.shared.varDefs[v] {
		heap.push(defIdx)
	}
	for heap.len() > 0 {
		defIdx := heap.pop()
		def := defs[defIdx]
		if !st.assign[def.Out] || def.Eval(st.assign) {
			continue
		}
		st.assign[def.Out] = false
		for _, ci := range st.shared.varAtMost[def.Out] {
			st.counts[ci]--
		}
		for _, next := range st.shared.varDefs[def.Out] {
			heap.push(next)
		}
	}
}

// ejectRandom ejects up to n random placed decisions.
func (st *state) ejectRandom(rng *rand.Rand, n int) []int {
	var candidates []int
	for di, p := range st.placed {
		if p {
			candidates = append(candidates, di)
		}
	}
	rng.Shuffle(len(candidates), func(a, b int) { candidates[a], candidates[b] = candidates[b], candidates[a] })
	if n > len(candidates) {
		n = len(candidates)
	}
	var ejected []int
	for _, di := range candidates[:n] {
		if st.placed[di] { // a cascade may already have taken it
			ejected = append(ejected, st.eject(di)...)
		}
	}
	return ejected
}

func (st *state) unplacedDecisions() []int {
	var out []int
	for di, p := range st.placed {
		if !p {
			out = append(out, di)
		}
	}
	return out
}

func (st *state) snapshotAssign() []bool {
	return append([]bool(nil), st.assign...)
}

// clone copies the mutable search position for a revertible repair move.
func (st *state) clone() *state {
	return &state{
		shared: st.shared,
		assign: append([]bool(nil), st.assign...),
		counts: append([]int(nil), st.counts...),
		placed: append([]bool(nil), st.placed...),
		combos: append([][]cpmodel.Var(nil), st.combos...),
	}
}

func (st *state) restore(saved *state) {
	st.assign = saved.assign
	st.counts = saved.counts
	st.placed = saved.placed
	st.combos = saved.combos
}

// intHeap is a tiny min-heap with duplicate suppression, used to process
// derived definitions in creation order during cascades.
type intHeap struct {
	items []int
	seen  map[int]bool
}

func newIntHeap() *intHeap {
	return &intHeap{seen: make(map[int]bool)}
}

func (h *intHeap) len() int { return len(h.items) }

func (h *intHeap) push(x int) {
	if h.seen[x] {
		return
	}
	h.seen[x] = true
	h.items = append(h.items, x)
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[parent] <= h.items[i] {
			break
		}
		h.items[parent], h.items[i] = h.items[i], h.items[parent]
		i = parent
	}
}

func (h *intHeap) pop() int {
	top := h.items[0]
	last := len(h.items) - 1
	h.items[0] = h.items[last]
	h.items = h.items[:last]
	delete(h.seen, top)
	i := 0
	for {
		l, r := 2*i+1, 2*i+2
		small := i
		if l < len(h.items) && h.items[l] < h.items[small] {
			small = l
		}
		if r < len(h.items) && h.items[r] < h.items[small] {
			small = r
		}
		if small == i {
			break
		}
		h.items[i], h.items[small] = h.items[small], h.items[i]
		i = small
	}
	return top
}
