package analyser

import (
	"fmt"

	"github.com/leapstack-labs/cellgen/pkg/core"
	"github.com/leapstack-labs/cellgen/pkg/model"
)

// variableType is the working classification of a variable during propagation.
type variableType int

const (
	varUnknown variableType = iota
	varShouldBeState
	varInitialised
	varVoi
	varState
	varConstant
	varComputedTrueConstant
	varComputedVariableBasedConstant
	varInitialisedAlgebraic
	varAlgebraic
	varOverconstrained
)

// internalVariable is the working node of one equivalence class.
type internalVariable struct {
	typ   variableType
	index int
	// variable is the primary member of the class, the first one met in
	// traversal order. initialising is the member carrying the initial
	// value, which may live in other units.
	variable     *model.Variable
	initialising *model.Variable
	external     bool
	dependencies []*internalVariable
	order        int
}

// initialise records variable as the member giving the class its initial
// value: a constant, a state or an NLA initial guess, all we know for now.
func (v *internalVariable) initialise(variable *model.Variable) {
	v.typ = varInitialised
	v.initialising = variable
}

func (v *internalVariable) makeVoi() {
	v.typ = varVoi
}

func (v *internalVariable) makeState() {
	switch v.typ {
	case varUnknown:
		v.typ = varShouldBeState
	case varInitialised:
		v.typ = varState
	}
}

func (v *internalVariable) makeConstant(index *int) {
	*index++
	v.index = *index
	v.typ = varConstant
}

// isKnown reports whether the variable no longer counts as an unknown of an equation.
func (v *internalVariable) isKnown() bool {
	return v.typ != varUnknown
}

// isNonConstant reports whether the variable rules out a variable-based
// constant. Constants only appear once propagation is over, so initialised
// variables still count as constant here.
func (v *internalVariable) isNonConstant() bool {
	if v.external {
		return true
	}
	switch v.typ {
	case varUnknown, varInitialised, varComputedTrueConstant, varComputedVariableBasedConstant:
		return false
	default:
		return true
	}
}

// internalVariableOf returns the working node of v's equivalence class,
// creating it the first time any member of the class is looked up.
func (a *analyser) internalVariableOf(v *model.Variable) *internalVariable {
	if iv, ok := a.classes[v]; ok {
		return iv
	}

	iv := &internalVariable{index: -1, order: len(a.variables), variable: v}
	if v.HasInitialValue() {
		iv.initialise(v)
	}
	a.variables = append(a.variables, iv)
	for _, member := range v.EquivalenceClass() {
		a.classes[member] = iv
	}
	return iv
}

// analyseComponent extracts the equations of c and records the first
// initialised member of each class, then recurses into encapsulated
// components. The primary variable of a class never changes.
func (a *analyser) analyseComponent(c *model.Component) {
	for _, eq := range c.Equations {
		a.addEquation(c, eq)
	}

	for _, v := range c.Variables {
		iv := a.internalVariableOf(v)
		if v.HasInitialValue() && iv.initialising == nil {
			iv.initialise(v)
		}
	}

	for _, child := range c.Components {
		a.analyseComponent(child)
	}
}

// analyseComponentVariables reports classes initialised more than once and
// initialisations using a variable that is not a constant.
func (a *analyser) analyseComponentVariables(c *model.Component) {
	for _, v := range c.Variables {
		iv := a.internalVariableOf(v)

		init := iv.initialising
		switch {
		case init == nil || !v.HasInitialValue():
		case v != init:
			a.addIssue(core.Issue{
				Severity: core.SeverityError,
				Code:     core.CodeAnalyserVariableInitialisedMoreThanOnce,
				Description: fmt.Sprintf("Variable '%s' in component '%s' and variable '%s' in component '%s' are equivalent and cannot therefore both be initialised.",
					v.Name, c.Name, init.Name, componentName(init)),
				Item: variableItem(v),
			})
		default:
			if _, numeric := v.NumericInitialValue(); !numeric {
				initialiser, ok := v.InitialisingVariable()
				if !ok || a.internalVariableOf(initialiser).typ != varInitialised {
					a.addIssue(core.Issue{
						Severity: core.SeverityError,
						Code:     core.CodeAnalyserVariableNonConstantInit,
						Description: fmt.Sprintf("Variable '%s' in component '%s' is initialised using variable '%s', which is not a constant.",
							v.Name, c.Name, v.InitialValue),
						Item: variableItem(v),
					})
				}
			}
		}
	}

	for _, child := range c.Components {
		a.analyseComponentVariables(child)
	}
}

// markExternals flags the classes of the requested external variables and
// returns, per primary variable, the members that were requested.
func (a *analyser) markExternals() ([]*model.Variable, map[*model.Variable][]*model.Variable) {
	var primaries []*model.Variable
	requested := map[*model.Variable][]*model.Variable{}

	for _, ext := range a.cfg.externals {
		v := ext.Variable
		if v == nil {
			continue
		}
		if v.Model() != a.src {
			a.addIssue(core.Issue{
				Severity: core.SeverityMessage,
				Code:     core.CodeAnalyserExternalVariableDifferentModel,
				Description: fmt.Sprintf("Variable '%s' in component '%s' is marked as an external variable, but it belongs to a different model and will therefore be ignored.",
					v.Name, componentName(v)),
				Item: variableItem(v),
			})
			continue
		}

		iv := a.internalVariableOf(v)
		if _, seen := requested[iv.variable]; !seen {
			primaries = append(primaries, iv.variable)
		}
		requested[iv.variable] = append(requested[iv.variable], v)

		if !iv.external {
			iv.external = true
			for _, dep := range ext.Dependencies {
				if dep != nil && dep.Model() == a.src {
					iv.dependencies = append(iv.dependencies, a.internalVariableOf(dep))
				}
			}
		}
	}

	return primaries, requested
}

// checkExternals reports external variables that are the variable of
// integration or that are not the primary variable of their class.
func (a *analyser) checkExternals(primaries []*model.Variable, requested map[*model.Variable][]*model.Variable) {
	for _, primary := range primaries {
		members := requested[primary]
		count := len(members)
		isVoi := a.voi != nil && primary == a.voi
		hasPrimary := false
		for _, m := range members {
			if m == primary {
				hasPrimary = true
			}
		}
		if !isVoi && count == 1 && hasPrimary {
			continue
		}

		description := ""
		if count == 2 {
			description = "Both "
		}
		for i, m := range members {
			if i != 0 {
				if i != count-1 {
					description += ", "
				} else {
					description += " and "
				}
			}
			word := "variable"
			if i == 0 && count != 2 {
				word = "Variable"
			}
			description += fmt.Sprintf("%s '%s' in component '%s'", word, m.Name, componentName(m))
		}

		code := core.CodeAnalyserExternalVariableUsePrimary
		if isVoi {
			code = core.CodeAnalyserExternalVariableVoi
			if count == 1 {
				description += " is marked as an external variable, but it is"
			} else {
				description += " are marked as external variables, but they are"
			}
			if count == 1 && hasPrimary {
				description += " the"
			} else {
				description += fmt.Sprintf(" equivalent to variable '%s' in component '%s', the primary", primary.Name, componentName(primary))
			}
			description += " variable of integration which cannot be used as an external variable."
		} else {
			switch {
			case count == 1:
				description += " is marked as an external variable, but it is not a primary variable."
			case count > 2:
				description += " are marked as external variables, but they are all equivalent."
			default:
				description += " are marked as external variables, but they are equivalent."
			}
			description += fmt.Sprintf(" Variable '%s' in component '%s' is", primary.Name, componentName(primary))
			switch {
			case hasPrimary:
				description += " the"
			case count == 1:
				description += " its corresponding"
			default:
				description += " their corresponding"
			}
			description += " primary variable and will therefore be the one used as an external variable."
		}

		a.addIssue(core.Issue{
			Severity:    core.SeverityMessage,
			Code:        code,
			Description: description,
			Item:        variableItem(primary),
		})
	}
}

func componentName(v *model.Variable) string {
	if v.Component() == nil {
		return ""
	}
	return v.Component().Name
}

func variableItem(v *model.Variable) core.Item {
	return core.Item{Kind: core.ItemVariable, Component: componentName(v), Name: v.Name, Ref: v}
}
