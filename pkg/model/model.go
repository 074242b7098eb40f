package model

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/cellgen/pkg/ast"
)

// Model is the root of a document.
type Model struct {
	Name       string
	Units      []*Units
	Components []*Component
}

// New creates an empty model.
func New(name string) *Model {
	return &Model{Name: name}
}

// AddComponent appends a top-level component.
func (m *Model) AddComponent(c *Component) *Component {
	c.model = m
	c.parent = nil
	for _, child := range c.Components {
		child.setModel(m)
	}
	m.Components = append(m.Components, c)
	return c
}

// AddUnits appends a units definition.
func (m *Model) AddUnits(u *Units) *Units {
	m.Units = append(m.Units, u)
	return u
}

// UnitsByName returns the user units definition with the given name.
func (m *Model) UnitsByName(name string) (*Units, bool) {
	for _, u := range m.Units {
		if u.Name == name {
			return u, true
		}
	}
	return nil, false
}

// AllComponents returns every component depth first in declaration order.
func (m *Model) AllComponents() []*Component {
	var out []*Component
	var visit func(cs []*Component)
	visit = func(cs []*Component) {
		for _, c := range cs {
			out = append(out, c)
			visit(c.Components)
		}
	}
	visit(m.Components)
	return out
}

// AllVariables returns every variable in traversal order.
func (m *Model) AllVariables() []*Variable {
	var out []*Variable
	for _, c := range m.AllComponents() {
		out = append(out, c.Variables...)
	}
	return out
}

// Component returns the component with the given name anywhere in the tree.
func (m *Model) Component(name string) (*Component, bool) {
	for _, c := range m.AllComponents() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Variable resolves a "component.variable" path.
func (m *Model) Variable(component, name string) (*Variable, error) {
	c, ok := m.Component(component)
	if !ok {
		return nil, fmt.Errorf("%w: component %q", ErrNotFound, component)
	}
	v, ok := c.Variable(name)
	if !ok {
		return nil, fmt.Errorf("%w: variable %q in component %q", ErrNotFound, name, component)
	}
	return v, nil
}

// Component is a named group of variables and equations. Child components
// form the encapsulation tree.
type Component struct {
	Name       string
	Variables  []*Variable
	Equations  []ast.Node
	Components []*Component

	model  *Model
	parent *Component
}

// NewComponent creates an empty component.
func NewComponent(name string) *Component {
	return &Component{Name: name}
}

// Model returns the model owning the component, or nil when detached.
func (c *Component) Model() *Model { return c.model }

// Parent returns the encapsulating component, or nil at top level.
func (c *Component) Parent() *Component { return c.parent }

// AddComponent appends an encapsulated child component.
func (c *Component) AddComponent(child *Component) *Component {
	child.parent = c
	child.setModel(c.model)
	c.Components = append(c.Components, child)
	return child
}

func (c *Component) setModel(m *Model) {
	c.model = m
	for _, child := range c.Components {
		child.setModel(m)
	}
}

// AddVariable creates a variable in the component.
func (c *Component) AddVariable(name, units, initialValue string) *Variable {
	v := &Variable{Name: name, Units: units, InitialValue: initialValue, component: c}
	c.Variables = append(c.Variables, v)
	return v
}

// AddEquation appends an equation tree.
func (c *Component) AddEquation(eq ast.Node) {
	c.Equations = append(c.Equations, eq)
}

// Variable returns the component's variable with the given name.
func (c *Component) Variable(name string) (*Variable, bool) {
	for _, v := range c.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Variable is a named quantity of a component.
type Variable struct {
	Name         string
	Units        string
	InitialValue string

	component   *Component
	equivalents []*Variable
}

// Component returns the owning component.
func (v *Variable) Component() *Component { return v.component }

// Model returns the owning model, or nil when detached.
func (v *Variable) Model() *Model {
	if v.component == nil {
		return nil
	}
	return v.component.model
}

// String renders the variable as component.name.
func (v *Variable) String() string {
	if v.component == nil {
		return v.Name
	}
	return v.component.Name + "." + v.Name
}

// HasInitialValue reports whether an initial value is declared.
func (v *Variable) HasInitialValue() bool { return v.InitialValue != "" }

// NumericInitialValue returns the initial value when it is a literal.
func (v *Variable) NumericInitialValue() (float64, bool) {
	if v.InitialValue == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.InitialValue, 64)
	return f, err == nil
}

// InitialisingVariable returns the component variable named by a
// non-literal initial value.
func (v *Variable) InitialisingVariable() (*Variable, bool) {
	if v.InitialValue == "" || v.component == nil {
		return nil, false
	}
	if _, ok := v.NumericInitialValue(); ok {
		return nil, false
	}
	return v.component.Variable(v.InitialValue)
}

// Equivalents returns the variables directly connected to v.
func (v *Variable) Equivalents() []*Variable { return v.equivalents }

// IsEquivalent reports whether o is directly connected to v.
func (v *Variable) IsEquivalent(o *Variable) bool {
	for _, e := range v.equivalents {
		if e == o {
			return true
		}
	}
	return false
}

// EquivalenceClass returns v and every variable transitively connected to
// it, breadth first from v.
func (v *Variable) EquivalenceClass() []*Variable {
	seen := map[*Variable]bool{v: true}
	class := []*Variable{v}
	for i := 0; i < len(class); i++ {
		for _, e := range class[i].equivalents {
			if !seen[e] {
				seen[e] = true
				class = append(class, e)
			}
		}
	}
	return class
}

// Connect declares a and b equivalent. Connecting a variable to itself is an error.
func Connect(a, b *Variable) error {
	if a == nil || b == nil {
		return fmt.Errorf("cannot connect a nil variable")
	}
	if a == b {
		return fmt.Errorf("cannot connect variable %s to itself", a)
	}
	if !a.IsEquivalent(b) {
		a.equivalents = append(a.equivalents, b)
		b.equivalents = append(b.equivalents, a)
	}
	return nil
}
