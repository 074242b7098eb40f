package model

import (
	"fmt"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/core"
)

// Validate reports naming problems and equation references that do not
// resolve inside their component. Units references are checked by
// units.Validate.
func Validate(m *Model) core.Issues {
	var issues core.Issues
	if m == nil {
		return issues
	}

	components := map[string]bool{}
	for _, c := range m.AllComponents() {
		if components[c.Name] {
			issues = append(issues, core.Issue{
				Severity:    core.SeverityError,
				Code:        core.CodeModelDuplicateName,
				Description: fmt.Sprintf("Model '%s' contains more than one component named '%s'.", m.Name, c.Name),
				Item:        core.Item{Kind: core.ItemComponent, Component: c.Name, Ref: c},
			})
		}
		components[c.Name] = true

		variables := map[string]bool{}
		for _, v := range c.Variables {
			if variables[v.Name] {
				issues = append(issues, core.Issue{
					Severity:    core.SeverityError,
					Code:        core.CodeModelDuplicateName,
					Description: fmt.Sprintf("Component '%s' contains more than one variable named '%s'.", c.Name, v.Name),
					Item:        core.Item{Kind: core.ItemVariable, Component: c.Name, Name: v.Name, Ref: v},
				})
			}
			variables[v.Name] = true

			if v.HasInitialValue() {
				if _, ok := v.NumericInitialValue(); !ok {
					if _, found := v.InitialisingVariable(); !found {
						issues = append(issues, core.Issue{
							Severity:    core.SeverityError,
							Code:        core.CodeModelVariableUndefined,
							Description: fmt.Sprintf("Variable '%s' in component '%s' is initialised using '%s', which is neither a number nor a variable of the component.", v.Name, c.Name, v.InitialValue),
							Item:        core.Item{Kind: core.ItemVariable, Component: c.Name, Name: v.Name, Ref: v},
						})
					}
				}
			}
		}

		for _, eq := range c.Equations {
			for _, r := range ast.Refs(eq) {
				if _, ok := c.Variable(r.Name); !ok {
					issues = append(issues, core.Issue{
						Severity:    core.SeverityError,
						Code:        core.CodeModelVariableUndefined,
						Description: fmt.Sprintf("Equation '%s' in component '%s' references variable '%s', which is not defined in the component.", ast.String(eq), c.Name, r.Name),
						Item:        core.Item{Kind: core.ItemEquation, Component: c.Name, Name: ast.String(eq), Ref: eq},
					})
				}
			}
		}
	}

	return issues
}
