// Package cpmodel holds the boolean decision model the scheduler solves:
// variables, hard-constraint forms, and derived (conjunction/disjunction)
// variables. The model is built once per run and is immutable during the
// solve; solvers operate on assignments ([]bool indexed by Var).
//
// Conventions:
//   - Decision variables are created with NewBool and set by the solver.
//   - Derived variables (And/Or) are pure functions of earlier variables;
//     Propagate recomputes them in creation order, so a derived variable
//     must only reference variables created before it.
//   - Hard constraints are checks, never relaxed; Violations reports every
//     broken constraint for an assignment.
package cpmodel

import "fmt"

// Var indexes a boolean variable in the model.
type Var int

// None marks the absence of a variable.
const None Var = -1

// Selection ties an indicator to a group of options: when the indicator is
// true exactly one option must be true, when false none may be.
type Selection struct {
	Indicator Var
	Options   []Var
}

// AtMost bounds the number of true variables in a set. Committed is the
// read-only capacity already consumed by existing commitments; the check is
// committed + true(vars) <= Cap.
type AtMost struct {
	Vars      []Var
	Committed int
	Cap       int
	Label     string
}

// Implication requires If -> Then.
type Implication struct {
	If, Then Var
}

// ForbidPair requires that A and B are never both true.
type ForbidPair struct {
	A, B Var
}

// Def defines a derived variable as a pure function of earlier variables:
// the conjunction (All) or disjunction of its inputs.
type Def struct {
	Out    Var
	Inputs []Var
	All    bool // true: AND of inputs; false: OR of inputs
}

// Eval computes the derived value under an assignment.
func (d Def) Eval(assign []bool) bool {
	if d.All {
		for _, v := range d.Inputs {
			if !assign[v] {
				return false
			}
		}
		return true
	}
	for _, v := range d.Inputs {
		if assign[v] {
			return true
		}
	}
	return false
}

// Model is the full set of variables and hard constraints.
type Model struct {
	names      []string
	fixedFalse []bool

	selections []Selection
	atMosts    []AtMost
	implies    []Implication
	forbids    []ForbidPair

	// Derived-variable definitions, propagated in creation order.
	defs []Def

	conjIndex map[[2]Var]Var
}

// New creates an empty model.
func New() *Model {
	return &Model{conjIndex: make(map[[2]Var]Var)}
}

// NewBool allocates a decision variable. The name is kept for diagnostics.
func (m *Model) NewBool(name string) Var {
	v := Var(len(m.names))
	m.names = append(m.names, name)
	m.fixedFalse = append(m.fixedFalse, false)
	return v
}

// NumVars returns the number of variables, decision and derived.
func (m *Model) NumVars() int { return len(m.names) }

// Name returns the diagnostic name of a variable.
func (m *Model) Name(v Var) string { return m.names[v] }

// NumConstraints returns the number of hard constraints.
func (m *Model) NumConstraints() int {
	return len(m.selections) + len(m.atMosts) + len(m.implies) + len(m.forbids)
}

// Forbid fixes a variable to false in every accepted solution.
func (m *Model) Forbid(v Var) { m.fixedFalse[v] = true }

// Forbidden reports whether the variable is fixed false.
func (m *Model) Forbidden(v Var) bool { return m.fixedFalse[v] }

// AddSelection adds an exactly-one-if-indicator constraint.
func (m *Model) AddSelection(indicator Var, options []Var) {
	m.selections = append(m.selections, Selection{Indicator: indicator, Options: options})
}

// AddAtMost adds a capacity constraint over vars with pre-committed usage.
func (m *Model) AddAtMost(vars []Var, committed, capacity int, label string) {
	m.atMosts = append(m.atMosts, AtMost{Vars: vars, Committed: committed, Cap: capacity, Label: label})
}

// AddImplies requires then to hold whenever cond holds.
func (m *Model) AddImplies(cond, then Var) {
	m.implies = append(m.implies, Implication{If: cond, Then: then})
}

// AddForbidPair requires that a and b never hold together.
func (m *Model) AddForbidPair(a, b Var) {
	m.forbids = append(m.forbids, ForbidPair{A: a, B: b})
}

// And returns a derived variable meaning "a and b are both true". The
// auxiliary variable and its implications are allocated once per (a, b)
// pair; repeated calls return the same variable.
func (m *Model) And(a, b Var) Var {
	if b < a {
		a, b = b, a
	}
	if out, ok := m.conjIndex[[2]Var{a, b}]; ok {
		return out
	}
	out := m.NewBool(fmt.Sprintf("and(%s,%s)", m.names[a], m.names[b]))
	m.defs = append(m.defs, Def{Out: out, Inputs: []Var{a, b}, All: true})
	m.conjIndex[[2]Var{a, b}] = out
	return out
}

// Or returns a derived variable meaning "at least one of vars is true".
func (m *Model) Or(name string, vars []Var) Var {
	out := m.NewBool(name)
	m.defs = append(m.defs, Def{Out: out, Inputs: vars})
	return out
}

// Defs exposes the derived-variable definitions in creation order.
func (m *Model) Defs() []Def { return m.defs }

// Selections exposes the selection constraints.
func (m *Model) Selections() []Selection { return m.selections }

// AtMosts exposes the capacity constraints.
func (m *Model) AtMosts() []AtMost { return m.atMosts }

// Implications exposes the implication constraints.
func (m *Model) Implications() []Implication { return m.implies }

// ForbidPairs exposes the pairwise exclusion constraints.
func (m *Model) ForbidPairs() []ForbidPair { return m.forbids }

// InfeasibleAtMost returns the label of a capacity constraint whose
// committed usage alone already exceeds its cap, or "" when none does.
// Such a model has no satisfying assignment, not even the empty schedule.
func (m *Model) InfeasibleAtMost() string {
	for _, am := range m.atMosts {
		if am.Committed > am.Cap {
			return am.Label
		}
	}
	return ""
}

// Propagate recomputes every derived variable from the decision variables,
// in creation order. The assignment must have NumVars entries.
func (m *Model) Propagate(assign []bool) {
	for _, def := range m.defs {
		assign[def.Out] = def.Eval(assign)
	}
}

// Violations returns a description of every hard constraint the assignment
// breaks. Derived variables must already be propagated. An empty result
// means the assignment is acceptable.
func (m *Model) Violations(assign []bool) []string {
	var out []string
	for v, fixed := range m.fixedFalse {
		if fixed && assign[v] {
			out = append(out, fmt.Sprintf("forbidden variable set: %s", m.names[v]))
		}
	}
	for _, sel := range m.selections {
		n := 0
		for _, v := range sel.Options {
			if assign[v] {
				n++
			}
		}
		want := 0
		if assign[sel.Indicator] {
			want = 1
		}
		if n != want {
			out = append(out, fmt.Sprintf("selection for %s: %d options set, want %d", m.names[sel.Indicator], n, want))
		}
	}
	for _, am := range m.atMosts {
		n := am.Committed
		for _, v := range am.Vars {
			if assign[v] {
				n++
			}
		}
		if n > am.Cap {
			out = append(out, fmt.Sprintf("capacity %s: %d > %d", am.Label, n, am.Cap))
		}
	}
	for _, im := range m.implies {
		if assign[im.If] && !assign[im.Then] {
			out = append(out, fmt.Sprintf("implication broken: %s -> %s", m.names[im.If], m.names[im.Then]))
		}
	}
	for _, fp := range m.forbids {
		if assign[fp.A] && assign[fp.B] {
			out = append(out, fmt.Sprintf("exclusion broken: %s with %s", m.names[fp.A], m.names[fp.B]))
		}
	}
	return out
}
