package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/core"
)

func TestEquivalenceClass(t *testing.T) {
	m := New("m")
	a := m.AddComponent(NewComponent("a"))
	b := m.AddComponent(NewComponent("b"))
	c := b.AddComponent(NewComponent("c"))

	x := a.AddVariable("x", "second", "")
	y := b.AddVariable("y", "second", "")
	z := c.AddVariable("z", "second", "")
	w := c.AddVariable("w", "second", "")

	require.NoError(t, Connect(x, y))
	require.NoError(t, Connect(y, z))
	require.NoError(t, Connect(y, x)) // already connected

	assert.Equal(t, []*Variable{x, y, z}, x.EquivalenceClass())
	assert.Equal(t, []*Variable{z, y, x}, z.EquivalenceClass())
	assert.Equal(t, []*Variable{w}, w.EquivalenceClass())
	assert.Len(t, x.Equivalents(), 1)

	assert.Error(t, Connect(x, x))
	assert.Error(t, Connect(nil, x))

	assert.Same(t, m, z.Model())
	assert.Same(t, b, c.Parent())
	assert.Equal(t, "c.z", z.String())
}

func TestAllComponentsOrder(t *testing.T) {
	m := New("m")
	a := NewComponent("a")
	a.AddComponent(NewComponent("a1"))
	a.AddComponent(NewComponent("a2"))
	m.AddComponent(a)
	m.AddComponent(NewComponent("b"))

	var names []string
	for _, c := range m.AllComponents() {
		names = append(names, c.Name)
		assert.Same(t, m, c.Model())
	}
	assert.Equal(t, []string{"a", "a1", "a2", "b"}, names)
}

func TestInitialValues(t *testing.T) {
	c := NewComponent("c")
	k := c.AddVariable("k", "dimensionless", "1.5e-3")
	x := c.AddVariable("x", "dimensionless", "k")
	y := c.AddVariable("y", "dimensionless", "")

	v, ok := k.NumericInitialValue()
	assert.True(t, ok)
	assert.InDelta(t, 1.5e-3, v, 1e-12)

	init, ok := x.InitialisingVariable()
	assert.True(t, ok)
	assert.Same(t, k, init)

	_, ok = y.NumericInitialValue()
	assert.False(t, ok)
	assert.False(t, y.HasInitialValue())
}

func TestVariableLookup(t *testing.T) {
	m := New("m")
	c := m.AddComponent(NewComponent("main"))
	x := c.AddVariable("x", "second", "")

	got, err := m.Variable("main", "x")
	require.NoError(t, err)
	assert.Same(t, x, got)

	_, err = m.Variable("main", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Variable("other", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate(t *testing.T) {
	m := New("m")
	c := m.AddComponent(NewComponent("main"))
	c.AddVariable("x", "second", "")
	c.AddVariable("x", "second", "")
	c.AddVariable("y", "second", "missing")
	c.AddEquation(&ast.Assign{Left: &ast.Ref{Name: "x"}, Right: &ast.Ref{Name: "q"}})

	issues := Validate(m)
	require.Len(t, issues, 3)
	assert.Equal(t, core.CodeModelDuplicateName, issues[0].Code)
	assert.Equal(t, core.CodeModelVariableUndefined, issues[1].Code)
	assert.Equal(t, core.CodeModelVariableUndefined, issues[2].Code)
	assert.Contains(t, issues[2].Description, "'q'")

	assert.Empty(t, Validate(nil))
}
