package analyser

import (
	"slices"
	"sync"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/core"
	"github.com/leapstack-labs/cellgen/pkg/model"
	"github.com/leapstack-labs/cellgen/pkg/units"
)

// Variable is an analysed variable: one per equivalence class.
type Variable struct {
	Type VariableType
	// Index is the position in the states, variables or externals array.
	Index int
	// Variable is the primary variable of the class, the one an equation computes.
	Variable *model.Variable
	// Initialising is the class member whose initial value is used, if any.
	Initialising *model.Variable

	id        int
	equations []int
}

// ID returns the arena index of the variable within its model.
func (v *Variable) ID() int { return v.id }

// String renders the primary variable as component.name.
func (v *Variable) String() string { return v.Variable.String() }

// Equation is an analysed equation.
type Equation struct {
	Type EquationType
	// Ast is the scaled and normalised tree: the computed variable is on the
	// left, NLA equations are residuals. External equations have no tree.
	Ast       ast.Node
	Component *model.Component
	// NlaSystemIndex identifies the NLA system, -1 when the equation is not NLA.
	NlaSystemIndex int
	// StateRateBased is true when a dependency, possibly transitive, is an ODE.
	StateRateBased bool

	id           int
	dependencies []int
	nlaSiblings  []int
	variables    []int
	inputs       []int
}

// ID returns the arena index of the equation within its model.
func (e *Equation) ID() int { return e.id }

// Model is the immutable result of Analyse.
type Model struct {
	Type ModelType

	source    *model.Model
	registry  *units.Registry
	issues    core.Issues
	voi       *Variable
	arena     []*Variable
	states    []*Variable
	variables []*Variable
	externals []*Variable
	equations []*Equation

	classOf  map[*model.Variable]int
	docIndex map[*model.Variable]int
	needs    needs

	mu         sync.Mutex
	equivalent map[[2]int]bool
}

// Source returns the analysed document model.
func (m *Model) Source() *model.Model { return m.source }

// IsValid reports whether code can be generated from the model.
func (m *Model) IsValid() bool {
	switch m.Type {
	case ModelAlgebraic, ModelODE, ModelNLA, ModelDAE:
		return true
	default:
		return false
	}
}

// Issues returns the issues found while analysing, in order.
func (m *Model) Issues() core.Issues { return slices.Clone(m.issues) }

// Voi returns the variable of integration, or nil.
func (m *Model) Voi() *Variable { return m.voi }

// States returns the state variables ordered by index.
func (m *Model) States() []*Variable { return m.states }

// Variables returns the constants, computed constants and algebraic
// variables ordered by index. They share one array in generated code.
func (m *Model) Variables() []*Variable { return m.variables }

// Externals returns the external variables ordered by index.
func (m *Model) Externals() []*Variable { return m.externals }

// Constants returns the variables of type constant.
func (m *Model) Constants() []*Variable { return m.ofType(VariableConstant) }

// ComputedConstants returns the variables of type computed constant.
func (m *Model) ComputedConstants() []*Variable { return m.ofType(VariableComputedConstant) }

// Algebraic returns the variables of type algebraic.
func (m *Model) Algebraic() []*Variable { return m.ofType(VariableAlgebraic) }

func (m *Model) ofType(t VariableType) []*Variable {
	var out []*Variable
	for _, v := range m.variables {
		if v.Type == t {
			out = append(out, v)
		}
	}
	return out
}

// AllVariables returns every analysed variable in arena order, the variable
// of integration included.
func (m *Model) AllVariables() []*Variable { return m.arena }

// Equations returns the equations in arena order.
func (m *Model) Equations() []*Equation { return m.equations }

// Variable returns the variable with the given arena index.
func (m *Model) Variable(id int) *Variable {
	if id < 0 || id >= len(m.arena) {
		return nil
	}
	return m.arena[id]
}

// Equation returns the equation with the given arena index.
func (m *Model) Equation(id int) *Equation {
	if id < 0 || id >= len(m.equations) {
		return nil
	}
	return m.equations[id]
}

// VariableOf returns the analysed variable of the class v belongs to.
func (m *Model) VariableOf(v *model.Variable) *Variable {
	id, ok := m.classOf[v]
	if !ok {
		return nil
	}
	return m.arena[id]
}

// Dependencies returns the equations e depends on.
func (m *Model) Dependencies(e *Equation) []*Equation { return m.resolveEquations(e.dependencies) }

// NlaSiblings returns the other equations of e's NLA system.
func (m *Model) NlaSiblings(e *Equation) []*Equation { return m.resolveEquations(e.nlaSiblings) }

// ComputedVariables returns the variables computed by e.
func (m *Model) ComputedVariables(e *Equation) []*Variable {
	out := make([]*Variable, 0, len(e.variables))
	for _, id := range e.variables {
		out = append(out, m.arena[id])
	}
	return out
}

// ComputedVariablesOfType returns the variables of the given type computed by e.
func (m *Model) ComputedVariablesOfType(e *Equation, t VariableType) []*Variable {
	var out []*Variable
	for _, v := range m.ComputedVariables(e) {
		if v.Type == t {
			out = append(out, v)
		}
	}
	return out
}

// Inputs returns the variables the equation reads, in first-use order. For
// external equations these are the declared dependencies of the external
// variables.
func (m *Model) Inputs(e *Equation) []*Variable {
	out := make([]*Variable, 0, len(e.inputs))
	for _, id := range e.inputs {
		out = append(out, m.arena[id])
	}
	return out
}

// EquationsOf returns the equations computing v.
func (m *Model) EquationsOf(v *Variable) []*Equation { return m.resolveEquations(v.equations) }

func (m *Model) resolveEquations(ids []int) []*Equation {
	out := make([]*Equation, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.equations[id])
	}
	return out
}

// NlaSystems returns the NLA equations grouped by system index.
func (m *Model) NlaSystems() [][]*Equation {
	var systems [][]*Equation
	for _, e := range m.equations {
		if e.Type != EquationNLA || e.NlaSystemIndex < 0 {
			continue
		}
		for len(systems) <= e.NlaSystemIndex {
			systems = append(systems, nil)
		}
		systems[e.NlaSystemIndex] = append(systems[e.NlaSystemIndex], e)
	}
	return systems
}

// HasExternalVariables reports whether any variable is external.
func (m *Model) HasExternalVariables() bool { return len(m.externals) > 0 }

// AreEquivalentVariables reports whether a and b belong to the same
// equivalence class. Results are memoised under the canonical pair of the
// variables' traversal indices; the cache is safe for concurrent readers.
func (m *Model) AreEquivalentVariables(a, b *model.Variable) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	ia, okA := m.docIndex[a]
	ib, okB := m.docIndex[b]
	if !okA || !okB {
		return slices.Contains(a.EquivalenceClass(), b)
	}
	key := [2]int{min(ia, ib), max(ia, ib)}

	m.mu.Lock()
	defer m.mu.Unlock()
	if eq, ok := m.equivalent[key]; ok {
		return eq
	}
	eq := slices.Contains(a.EquivalenceClass(), b)
	m.equivalent[key] = eq
	return eq
}

// ScalingFactor returns the factor converting the value held by the primary
// variable of v's class into v's own units. It is 1 when the units match or
// cannot be compared.
func (m *Model) ScalingFactor(v *model.Variable) float64 {
	av := m.VariableOf(v)
	if av == nil || m.registry == nil || av.Variable.Units == v.Units {
		return 1
	}
	// the registry caches resolutions
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.registry.ScalingFactor(av.Variable.Units, v.Units)
	if !ok {
		return 1
	}
	return f
}

// NeedsOperator reports whether a surviving equation uses op.
func (m *Model) NeedsOperator(op ast.BinaryOp) bool { return m.needs.binary[op] }

// NeedsFunction reports whether a surviving equation uses fn.
func (m *Model) NeedsFunction(fn ast.Function) bool { return m.needs.function[fn] }

// NeedsNot reports whether a surviving equation uses logical negation.
func (m *Model) NeedsNot() bool { return m.needs.not }

type needs struct {
	binary   map[ast.BinaryOp]bool
	function map[ast.Function]bool
	not      bool
}

func newModel(src *model.Model) *Model {
	m := &Model{
		Type:       ModelUnknown,
		source:     src,
		classOf:    map[*model.Variable]int{},
		docIndex:   map[*model.Variable]int{},
		equivalent: map[[2]int]bool{},
		needs:      needs{binary: map[ast.BinaryOp]bool{}, function: map[ast.Function]bool{}},
	}
	if src != nil {
		for i, v := range src.AllVariables() {
			m.docIndex[v] = i
		}
	}
	return m
}
