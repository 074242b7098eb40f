package analyser

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/core"
	"github.com/leapstack-labs/cellgen/pkg/model"
)

type equationType int

const (
	eqUnknown equationType = iota
	eqTrueConstant
	eqVariableBasedConstant
	eqODE
	eqNLA
	eqAlgebraic
)

// internalEquation is the working node of one equation. Dummy equations,
// created for literal constants and for external unknowns peeled off an NLA
// system, have no tree.
type internalEquation struct {
	typ       equationType
	ast       ast.Node
	component *model.Component

	variables    []*internalVariable
	odeVariables []*internalVariable
	allVariables []*internalVariable
	unknowns     []*internalVariable
	dependencies []*internalVariable

	nlaIndex int
	siblings []*internalEquation

	trueConstant     bool
	varBasedConstant bool
}

func newInternalEquation(c *model.Component, tree ast.Node) *internalEquation {
	return &internalEquation{
		ast:              tree,
		component:        c,
		nlaIndex:         -1,
		trueConstant:     true,
		varBasedConstant: true,
	}
}

// newDummyEquation returns an equation computing v without a tree.
func newDummyEquation(v *internalVariable) *internalEquation {
	e := newInternalEquation(v.variable.Component(), nil)
	e.unknowns = []*internalVariable{v}
	return e
}

func (e *internalEquation) addVariable(v *internalVariable) {
	if !slices.Contains(e.variables, v) {
		e.variables = append(e.variables, v)
		e.allVariables = append(e.allVariables, v)
	}
}

func (e *internalEquation) addOdeVariable(v *internalVariable) {
	if !slices.Contains(e.odeVariables, v) {
		e.odeVariables = append(e.odeVariables, v)
		e.allVariables = append(e.allVariables, v)
	}
}

// addEquation records eq as an equation of c and collects the variables it
// references.
func (a *analyser) addEquation(c *model.Component, eq ast.Node) {
	e := newInternalEquation(c, eq)
	a.equations = append(a.equations, e)

	if _, ok := eq.(*ast.Assign); !ok {
		a.addIssue(core.Issue{
			Severity:    core.SeverityError,
			Code:        core.CodeAnalyserEquationNotEqualityStatement,
			Description: fmt.Sprintf("Equation '%s' is not an equality statement (i.e. LHS = RHS).", ast.String(eq)),
			Item:        equationItem(c, eq),
		})
	}

	ast.Walk(eq, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Diff:
			if v := a.resolve(c, n.Var); v != nil {
				e.addOdeVariable(v)
			}
			if n.Degree != nil {
				a.collect(e, c, n.Degree)
			}
			return false
		case *ast.Ref:
			if v := a.resolve(c, n); v != nil {
				e.addVariable(v)
			}
		}
		return true
	})
}

func (a *analyser) collect(e *internalEquation, c *model.Component, n ast.Node) {
	for _, ref := range ast.Refs(n) {
		if v := a.resolve(c, ref); v != nil {
			e.addVariable(v)
		}
	}
}

// resolve returns the working node of the variable ref names in c. Dangling
// references are reported by model.Validate before extraction starts.
func (a *analyser) resolve(c *model.Component, ref *ast.Ref) *internalVariable {
	if ref == nil || c == nil {
		return nil
	}
	v, ok := c.Variable(ref.Name)
	if !ok {
		return nil
	}
	return a.internalVariableOf(v)
}

// analyseEquationAst types the variables of integration and the state
// variables of e's tree.
func (a *analyser) analyseEquationAst(e *internalEquation) {
	ast.Walk(e.ast, func(n ast.Node) bool {
		d, ok := n.(*ast.Diff)
		if !ok {
			return true
		}

		if d.BVar != nil {
			if v, ok := e.component.Variable(d.BVar.Name); ok {
				a.analyseVoi(v)
			}
		}

		if value, ok := literalValue(d.Degree); ok && value != 1 {
			name, compName := d.Var.Name, e.component.Name
			if v, ok := e.component.Variable(d.Var.Name); ok {
				name, compName = v.Name, componentName(v)
			}
			a.addIssue(core.Issue{
				Severity:    core.SeverityError,
				Code:        core.CodeAnalyserOdeNotFirstOrder,
				Description: fmt.Sprintf("The differential equation for variable '%s' in component '%s' must be of the first order.", name, compName),
				Item:        equationItem(e.component, e.ast),
			})
		}

		if v := a.resolve(e.component, d.Var); v != nil {
			v.makeState()
		}
		return true
	})
}

// analyseVoi makes v's class the variable of integration, unless another
// class already is.
func (a *analyser) analyseVoi(v *model.Variable) {
	// always retype the class, even when it clashes with an existing variable
	// of integration, so that it is not also reported as unused
	iv := a.internalVariableOf(v)
	iv.makeVoi()

	if a.voi != nil {
		if a.internalVariableOf(a.voi) != iv {
			a.addIssue(core.Issue{
				Severity: core.SeverityError,
				Code:     core.CodeAnalyserVoiSeveral,
				Description: fmt.Sprintf("Variable '%s' in component '%s' and variable '%s' in component '%s' cannot both be the variable of integration.",
					a.voi.Name, componentName(a.voi), v.Name, componentName(v)),
				Item: variableItem(v),
			})
		}
		return
	}
	if slices.Contains(a.rejectedVois, iv) {
		return
	}

	voi := a.firstOccurrence(v)
	initialised := false
	for _, member := range voi.EquivalenceClass() {
		if member.HasInitialValue() {
			a.addIssue(core.Issue{
				Severity:    core.SeverityError,
				Code:        core.CodeAnalyserVoiInitialised,
				Description: fmt.Sprintf("Variable '%s' in component '%s' cannot be both a variable of integration and initialised.", member.Name, componentName(member)),
				Item:        variableItem(member),
			})
			initialised = true
		}
	}
	if initialised {
		a.rejectedVois = append(a.rejectedVois, iv)
		return
	}
	a.voi = voi
}

// firstOccurrence returns the member of v's class met first in depth-first
// component order.
func (a *analyser) firstOccurrence(v *model.Variable) *model.Variable {
	iv := a.internalVariableOf(v)
	for _, c := range a.src.AllComponents() {
		for _, candidate := range c.Variables {
			if a.classes[candidate] == iv {
				return candidate
			}
		}
	}
	return v
}

// checkUnits reports, as warnings, the unit inconsistencies of every equation.
func (a *analyser) checkUnits() {
	for _, e := range a.equations {
		c := e.component
		unitsOf := func(name string) string {
			if v, ok := c.Variable(name); ok {
				return v.Units
			}
			return ""
		}
		for _, problem := range a.registry.CheckEquation(c.Name, e.ast, unitsOf) {
			a.addIssue(core.Issue{
				Severity:    core.SeverityWarning,
				Code:        core.CodeAnalyserUnits,
				Description: problem,
				Item:        equationItem(c, e.ast),
			})
		}
	}
}

func literalValue(n ast.Node) (float64, bool) {
	num, ok := n.(*ast.Number)
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseFloat(num.Value, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func equationItem(c *model.Component, eq ast.Node) core.Item {
	return core.Item{Kind: core.ItemEquation, Component: c.Name, Name: ast.String(eq), Ref: eq}
}
