package analyser

import (
	"cmp"
	"math"
	"slices"
	"strconv"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/model"
)

// assemble freezes the working graph into the result arena.
func (a *analyser) assemble() {
	// dummy equations let literal constants be marked as external
	for _, v := range a.variables {
		if v.typ == varConstant {
			a.equations = append(a.equations, newDummyEquation(v))
		}
	}

	m := a.result
	byInternal := map[*internalVariable]*Variable{}

	if a.voi != nil {
		voi := &Variable{Type: VariableVoi, Variable: a.voi, id: len(m.arena)}
		m.arena = append(m.arena, voi)
		m.voi = voi
		byInternal[a.internalVariableOf(a.voi)] = voi
	}

	var states, others, externals []*internalVariable
	for _, iv := range a.variables {
		t, ok := publicVariableType(iv)
		if !ok {
			continue
		}
		v := &Variable{Type: t, Variable: iv.variable, id: len(m.arena)}
		if t != VariableExternal {
			v.Initialising = iv.initialising
		}
		m.arena = append(m.arena, v)
		byInternal[iv] = v

		switch t {
		case VariableState:
			states = append(states, iv)
		case VariableExternal:
			externals = append(externals, iv)
		default:
			others = append(others, iv)
		}
	}
	m.states = a.index(states, byInternal)
	m.variables = a.index(others, byInternal)
	m.externals = a.index(externals, byInternal)

	for doc, iv := range a.classes {
		if v, ok := byInternal[iv]; ok {
			m.classOf[doc] = v.id
		}
	}

	// equations first, so that dependencies can be resolved to them
	kept := map[*internalEquation]*Equation{}
	var order []*internalEquation
	for _, ie := range a.equations {
		t, ok := a.publicEquationType(ie, byInternal)
		if !ok {
			continue
		}
		e := &Equation{
			Type:           t,
			Component:      ie.component,
			NlaSystemIndex: -1,
			id:             len(m.equations),
		}
		if t == EquationNLA {
			e.NlaSystemIndex = ie.nlaIndex
		}
		if t != EquationExternal {
			e.Ast = a.equationAst(ie, t)
		}
		for _, u := range ie.unknowns {
			if v, ok := byInternal[u]; ok {
				e.variables = append(e.variables, v.id)
				v.equations = append(v.equations, e.id)
			}
		}
		m.equations = append(m.equations, e)
		kept[ie] = e
		order = append(order, ie)
	}

	for _, ie := range order {
		e := kept[ie]

		deps := ie.dependencies
		if e.Type == EquationExternal {
			deps = nil
			for _, u := range ie.unknowns {
				deps = append(deps, u.dependencies...)
			}
		}
		for _, dep := range deps {
			v, ok := byInternal[dep]
			if !ok {
				continue
			}
			if !slices.Contains(e.inputs, v.id) {
				e.inputs = append(e.inputs, v.id)
			}
			for _, id := range v.equations {
				if id != e.id && !slices.Contains(e.dependencies, id) {
					e.dependencies = append(e.dependencies, id)
				}
			}
		}

		for _, sibling := range ie.siblings {
			if s, ok := kept[sibling]; ok {
				e.nlaSiblings = append(e.nlaSiblings, s.id)
			}
		}
	}

	for _, e := range m.equations {
		e.StateRateBased = m.isStateRateBased(e, map[int]bool{})
		if e.Ast != nil {
			m.needs.record(e.Ast)
		}
	}
}

// index numbers vs densely in first-classification order.
func (a *analyser) index(vs []*internalVariable, byInternal map[*internalVariable]*Variable) []*Variable {
	slices.SortStableFunc(vs, func(x, y *internalVariable) int {
		return cmp.Or(cmp.Compare(x.index, y.index), cmp.Compare(x.order, y.order))
	})
	out := make([]*Variable, len(vs))
	for i, iv := range vs {
		v := byInternal[iv]
		v.Index = i
		out[i] = v
	}
	return out
}

func publicVariableType(iv *internalVariable) (VariableType, bool) {
	if iv.external {
		return VariableExternal, true
	}
	switch iv.typ {
	case varState:
		return VariableState, true
	case varConstant:
		return VariableConstant, true
	case varComputedTrueConstant, varComputedVariableBasedConstant:
		return VariableComputedConstant, true
	case varAlgebraic, varInitialisedAlgebraic:
		return VariableAlgebraic, true
	default:
		return 0, false
	}
}

func (a *analyser) publicEquationType(ie *internalEquation, byInternal map[*internalVariable]*Variable) (EquationType, bool) {
	if len(ie.unknowns) == 0 {
		return 0, false
	}
	external := true
	for _, u := range ie.unknowns {
		if v, ok := byInternal[u]; !ok || v.Type != VariableExternal {
			external = false
		}
	}
	if external {
		return EquationExternal, true
	}

	switch ie.typ {
	case eqTrueConstant:
		return EquationTrueConstant, true
	case eqVariableBasedConstant:
		return EquationVariableBasedConstant, true
	case eqODE:
		return EquationODE, true
	case eqNLA:
		return EquationNLA, true
	case eqAlgebraic:
		return EquationAlgebraic, true
	default:
		// a literal constant that was not marked as external
		return 0, false
	}
}

// equationAst returns the scaled copy of ie's tree, with the computed
// variable on the left or, for NLA equations, as a residual lhs-rhs.
func (a *analyser) equationAst(ie *internalEquation, t EquationType) ast.Node {
	assign, ok := ast.Clone(ie.ast).(*ast.Assign)
	if !ok {
		return nil
	}
	s := &scaler{a: a, component: ie.component}

	if t == EquationNLA {
		return &ast.Binary{
			Op:    ast.OpMinus,
			Left:  ast.Accept[ast.Node](assign.Left, s),
			Right: ast.Accept[ast.Node](assign.Right, s),
		}
	}

	if a.onRhs(ie, ie.unknowns[0]) && !a.isSide(ie, assign.Left, ie.unknowns[0]) {
		assign.Left, assign.Right = assign.Right, assign.Left
	}

	right := ast.Accept[ast.Node](assign.Right, s)
	switch left := assign.Left.(type) {
	case *ast.Ref:
		right = scaled(1/s.factor(left), right)
	case *ast.Diff:
		right = scaled(s.factor(left.BVar)/s.factor(left.Var), right)
	default:
		assign.Left = ast.Accept[ast.Node](assign.Left, s)
	}
	assign.Right = right
	return assign
}

// scaler rewrites references to variables whose units differ from those of
// their primary variable. The primary variable holds the stored value, so a
// local reference x becomes factor*x.
type scaler struct {
	a         *analyser
	component *model.Component
}

func (s *scaler) factor(ref *ast.Ref) float64 {
	if ref == nil {
		return 1
	}
	local, ok := s.component.Variable(ref.Name)
	if !ok {
		return 1
	}
	primary := s.a.internalVariableOf(local).variable
	if primary == local || primary.Units == local.Units {
		return 1
	}
	f, ok := s.a.registry.ScalingFactor(primary.Units, local.Units)
	if !ok {
		return 1
	}
	return f
}

func (s *scaler) rateFactor(d *ast.Diff) float64 {
	return s.factor(d.Var) / s.factor(d.BVar)
}

func scaled(f float64, n ast.Node) ast.Node {
	if math.Abs(f-1) < 1e-12 {
		return n
	}
	return &ast.Binary{
		Op:    ast.OpTimes,
		Left:  &ast.Number{Value: strconv.FormatFloat(f, 'g', -1, 64)},
		Right: n,
	}
}

func (s *scaler) VisitAssign(n *ast.Assign) ast.Node {
	n.Left = ast.Accept[ast.Node](n.Left, s)
	n.Right = ast.Accept[ast.Node](n.Right, s)
	return n
}

func (s *scaler) VisitBinary(n *ast.Binary) ast.Node {
	n.Left = ast.Accept[ast.Node](n.Left, s)
	n.Right = ast.Accept[ast.Node](n.Right, s)
	return n
}

func (s *scaler) VisitUnary(n *ast.Unary) ast.Node {
	n.Operand = ast.Accept[ast.Node](n.Operand, s)
	return n
}

func (s *scaler) VisitFunc(n *ast.Func) ast.Node {
	n.Arg = ast.Accept[ast.Node](n.Arg, s)
	return n
}

func (s *scaler) VisitRoot(n *ast.Root) ast.Node {
	n.Radicand = ast.Accept[ast.Node](n.Radicand, s)
	if n.Degree != nil {
		n.Degree = ast.Accept[ast.Node](n.Degree, s)
	}
	return n
}

func (s *scaler) VisitLog(n *ast.Log) ast.Node {
	n.Arg = ast.Accept[ast.Node](n.Arg, s)
	if n.Base != nil {
		n.Base = ast.Accept[ast.Node](n.Base, s)
	}
	return n
}

func (s *scaler) VisitDiff(n *ast.Diff) ast.Node {
	return scaled(s.rateFactor(n), n)
}

func (s *scaler) VisitPiecewise(n *ast.Piecewise) ast.Node {
	for i := range n.Pieces {
		n.Pieces[i].Value = ast.Accept[ast.Node](n.Pieces[i].Value, s)
		n.Pieces[i].Cond = ast.Accept[ast.Node](n.Pieces[i].Cond, s)
	}
	if n.Otherwise != nil {
		n.Otherwise = ast.Accept[ast.Node](n.Otherwise, s)
	}
	return n
}

func (s *scaler) VisitRef(n *ast.Ref) ast.Node {
	return scaled(s.factor(n), n)
}

func (s *scaler) VisitNumber(n *ast.Number) ast.Node { return n }

func (s *scaler) VisitConstant(n *ast.Constant) ast.Node { return n }

// isStateRateBased reports whether e depends, possibly transitively, on a
// rate. Rates are computed by ODE equations, or by NLA equations computing a
// single state.
func (m *Model) isStateRateBased(e *Equation, visited map[int]bool) bool {
	if visited[e.id] {
		return false
	}
	visited[e.id] = true

	for _, dep := range m.Dependencies(e) {
		if dep.Type == EquationODE {
			return true
		}
		if dep.Type == EquationNLA && len(dep.variables) == 1 && m.arena[dep.variables[0]].Type == VariableState {
			return true
		}
		if m.isStateRateBased(dep, visited) {
			return true
		}
	}
	return false
}

func (n *needs) record(tree ast.Node) {
	ast.Walk(tree, func(node ast.Node) bool {
		switch node := node.(type) {
		case *ast.Binary:
			n.binary[node.Op] = true
		case *ast.Unary:
			if node.Op == ast.OpNot {
				n.not = true
			}
		case *ast.Func:
			n.function[node.Fn] = true
		}
		return true
	})
}
