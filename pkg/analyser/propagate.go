package analyser

import (
	"context"
	"fmt"
	"slices"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/core"
)

// propagate runs the fixpoint passes. The first pass resolves equations with
// an isolated unknown only and the second also forms NLA systems, including
// square groups of equations that share several unknowns. If unknowns remain
// and some variables are external, unknown externals are treated as
// initialised and both passes run again.
func (a *analyser) propagate(ctx context.Context) {
	hasExternals := slices.ContainsFunc(a.variables, func(v *internalVariable) bool { return v.external })

	pass := 1
	checkNla := false
	for {
		relevant := false
		for _, e := range a.equations {
			if a.check(e, checkNla) {
				relevant = true
			}
		}

		a.cfg.logger.DebugContext(ctx, "propagation pass",
			"pass", pass,
			"nla", checkNla,
			"changed", relevant)

		switch {
		case relevant:
		case pass == 1 || pass == 3:
			pass++
			relevant = true
			checkNla = true
		case a.groupUnknowns(ctx):
			relevant = true
		case pass == 2:
			for _, v := range a.variables {
				if v.external && v.typ == varUnknown {
					v.typ = varInitialised
				}
			}
			if hasExternals {
				pass++
				relevant = true
				checkNla = false
			}
		}

		if !relevant {
			return
		}
	}
}

// check tries to resolve e from what is currently known. It reports whether
// e was resolved.
func (a *analyser) check(e *internalEquation, checkNla bool) bool {
	if e.typ != eqUnknown || e.ast == nil {
		return false
	}

	e.trueConstant = e.trueConstant && !anyKnown(e.variables) && !anyKnown(e.odeVariables)
	e.varBasedConstant = e.varBasedConstant && !anyNonConstant(e.variables) && !anyNonConstant(e.odeVariables)

	for _, v := range e.variables {
		if v.isKnown() {
			e.dependencies = append(e.dependencies, v)
		}
	}

	e.variables = slices.DeleteFunc(e.variables, (*internalVariable).isKnown)
	e.odeVariables = slices.DeleteFunc(e.odeVariables, func(v *internalVariable) bool { return v.index != -1 })

	left := len(e.variables) + len(e.odeVariables)

	// With nothing left to compute, the equation is an NLA equation for the
	// initialised variables it uses, or it overconstrains its variables.
	var initialised []*internalVariable
	if checkNla && left == 0 {
		for _, v := range e.allVariables {
			if v.typ == varInitialised || v.typ == varInitialisedAlgebraic {
				initialised = append(initialised, v)
				v.typ = varInitialisedAlgebraic
			}
		}
		if len(initialised) == 0 {
			for _, v := range e.allVariables {
				v.typ = varOverconstrained
			}
			return false
		}
	}

	var unknown *internalVariable
	if left == 1 {
		if len(e.variables) == 0 {
			unknown = e.odeVariables[0]
		} else {
			unknown = e.variables[0]
		}
	}
	alone := unknown != nil && a.onLhsOrRhs(e, unknown)

	if !(unknown != nil && (checkNla || alone)) && len(initialised) == 0 {
		return false
	}

	candidates := e.variables
	if len(candidates) == 0 {
		candidates = e.odeVariables
	}
	if len(candidates) == 0 {
		candidates = initialised
	}

	for _, v := range candidates {
		if v.typ == varUnknown {
			switch {
			case e.trueConstant:
				v.typ = varComputedTrueConstant
			case e.varBasedConstant:
				v.typ = varComputedVariableBasedConstant
			default:
				v.typ = varAlgebraic
			}
		}

		switch v.typ {
		case varState:
			a.stateIndex++
			v.index = a.stateIndex
		case varComputedTrueConstant, varComputedVariableBasedConstant, varInitialisedAlgebraic, varAlgebraic:
			a.variableIndex++
			v.index = a.variableIndex
		default:
			return false
		}
		e.unknowns = append(e.unknowns, v)
	}

	// an equation computing one variable that is not isolated on either side
	// still has to be solved as an NLA equation
	if unknown == nil || !alone {
		e.typ = eqNLA
	} else {
		switch unknown.typ {
		case varState:
			e.typ = eqODE
		case varComputedTrueConstant:
			e.typ = eqTrueConstant
		case varComputedVariableBasedConstant:
			e.typ = eqVariableBasedConstant
		default:
			e.typ = eqAlgebraic
		}
	}

	// dx/dt = x+3 uses its own unknown, which is not a dependency
	e.dependencies = slices.DeleteFunc(e.dependencies, func(v *internalVariable) bool {
		return slices.Contains(e.unknowns, v)
	})

	return true
}

// groupUnknowns turns the equations left with several unknowns into NLA
// equations. Two such equations belong together when they share an unknown,
// directly or through other equations, and a group is only solved when it
// has as many equations as unknowns. Other groups are left to be reported
// as under or over constrained. It reports whether any group was solved.
func (a *analyser) groupUnknowns(ctx context.Context) bool {
	var pending []*internalEquation
	for _, e := range a.equations {
		if e.typ != eqUnknown || e.ast == nil || len(e.odeVariables) != 0 || len(e.variables) < 2 {
			continue
		}
		// externals are provided once the external pass runs
		if !slices.ContainsFunc(e.variables, func(v *internalVariable) bool { return v.external }) {
			pending = append(pending, e)
		}
	}

	// an equation with an unknown of its own computes it once the others
	// are known, so it stays out of the groups
	for {
		uses := map[*internalVariable]int{}
		for _, e := range pending {
			for _, v := range e.variables {
				uses[v]++
			}
		}
		n := len(pending)
		pending = slices.DeleteFunc(pending, func(e *internalEquation) bool {
			return slices.ContainsFunc(e.variables, func(v *internalVariable) bool { return uses[v] == 1 })
		})
		if len(pending) == n {
			break
		}
	}
	if len(pending) == 0 {
		return false
	}

	groups := newUnionFind(len(pending))
	owner := map[*internalVariable]int{}
	for i, e := range pending {
		for _, v := range e.variables {
			if j, ok := owner[v]; ok {
				groups.union(i, j)
			} else {
				owner[v] = i
			}
		}
	}

	members := map[int][]*internalEquation{}
	var roots []int
	for i, e := range pending {
		root := groups.find(i)
		if _, ok := members[root]; !ok {
			roots = append(roots, root)
		}
		members[root] = append(members[root], e)
	}

	solved := false
	for _, root := range roots {
		equations := members[root]
		var unknowns []*internalVariable
		for _, e := range equations {
			for _, v := range e.variables {
				if !slices.Contains(unknowns, v) {
					unknowns = append(unknowns, v)
				}
			}
		}
		if len(unknowns) != len(equations) {
			a.cfg.logger.DebugContext(ctx, "unsolvable equation group",
				"equations", len(equations),
				"unknowns", len(unknowns))
			continue
		}

		// no initial guess, the generated code starts from zero
		for _, v := range unknowns {
			v.typ = varAlgebraic
			a.variableIndex++
			v.index = a.variableIndex
		}
		for _, e := range equations {
			e.unknowns = append(e.unknowns, e.variables...)
			e.variables = nil
			e.typ = eqNLA
		}
		solved = true
	}
	return solved
}

// onLhsOrRhs reports whether v is on its own on one side of e.
func (a *analyser) onLhsOrRhs(e *internalEquation, v *internalVariable) bool {
	assign, ok := e.ast.(*ast.Assign)
	if !ok {
		return false
	}
	return a.isSide(e, assign.Left, v) || a.isSide(e, assign.Right, v)
}

// onRhs reports whether v is on its own on the right-hand side of e.
func (a *analyser) onRhs(e *internalEquation, v *internalVariable) bool {
	assign, ok := e.ast.(*ast.Assign)
	if !ok {
		return false
	}
	return a.isSide(e, assign.Right, v)
}

func (a *analyser) isSide(e *internalEquation, side ast.Node, v *internalVariable) bool {
	switch n := side.(type) {
	case *ast.Ref:
		return a.resolve(e.component, n) == v
	case *ast.Diff:
		return a.resolve(e.component, n.Var) == v
	default:
		return false
	}
}

// checkVariables reports the variables propagation could not classify and
// turns initialised leftovers into constants.
func (a *analyser) checkVariables() {
	for _, v := range a.variables {
		switch v.typ {
		case varUnknown:
			a.addInvalidVariableIssue(v, core.CodeAnalyserVariableUnused)
		case varShouldBeState:
			a.addInvalidVariableIssue(v, core.CodeAnalyserStateNotInitialised)
		case varInitialised:
			v.makeConstant(&a.variableIndex)
		case varOverconstrained:
			a.addInvalidVariableIssue(v, core.CodeAnalyserVariableComputedMoreThanOnce)
		}
	}

	if !a.hasErrors() {
		return
	}

	under := slices.ContainsFunc(a.variables, func(v *internalVariable) bool {
		return v.typ == varUnknown || v.typ == varShouldBeState
	})
	over := slices.ContainsFunc(a.variables, func(v *internalVariable) bool {
		return v.typ == varOverconstrained
	})
	switch {
	case under && over:
		a.result.Type = ModelUnsuitablyConstrained
	case under:
		a.result.Type = ModelUnderconstrained
	default:
		a.result.Type = ModelOverconstrained
	}
}

func (a *analyser) addInvalidVariableIssue(v *internalVariable, code core.ReferenceCode) {
	start, end := "Variable", "is computed more than once"
	switch v.typ {
	case varUnknown:
		start, end = "The type of variable", "is unknown"
	case varShouldBeState:
		end = "is used in an ODE, but it is not initialised"
	}

	a.addIssue(core.Issue{
		Severity:    core.SeverityError,
		Code:        code,
		Description: fmt.Sprintf("%s '%s' in component '%s' %s.", start, v.variable.Name, componentName(v.variable), end),
		Item:        variableItem(v.variable),
	})
}

func anyKnown(vs []*internalVariable) bool {
	return slices.ContainsFunc(vs, (*internalVariable).isKnown)
}

func anyNonConstant(vs []*internalVariable) bool {
	return slices.ContainsFunc(vs, (*internalVariable).isNonConstant)
}
