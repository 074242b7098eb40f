package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/core"
	"github.com/leapstack-labs/cellgen/pkg/model"
)

func testModel() *model.Model {
	m := model.New("units")
	m.AddUnits(&model.Units{Name: "ms", Items: []model.Unit{{Reference: "second", Prefix: "milli"}}})
	m.AddUnits(&model.Units{Name: "per_ms", Items: []model.Unit{{Reference: "ms", Exponent: -1}}})
	m.AddUnits(&model.Units{Name: "mV", Items: []model.Unit{{Reference: "volt", Prefix: "-3"}}})
	m.AddUnits(&model.Units{Name: "mV_per_ms", Items: []model.Unit{{Reference: "mV"}, {Reference: "ms", Exponent: -1}}})
	m.AddUnits(&model.Units{Name: "minute", Items: []model.Unit{{Reference: "second", Multiplier: 60}}})
	m.AddUnits(&model.Units{Name: "fish"})
	m.AddUnits(&model.Units{Name: "fish_per_litre", Items: []model.Unit{{Reference: "fish"}, {Reference: "litre", Exponent: -1}}})
	m.AddUnits(&model.Units{Name: "loop_a", Items: []model.Unit{{Reference: "loop_b"}}})
	m.AddUnits(&model.Units{Name: "loop_b", Items: []model.Unit{{Reference: "loop_a"}}})
	return m
}

func TestResolve(t *testing.T) {
	reg := NewRegistry(testModel())

	tests := []struct {
		name       string
		exponents  map[string]float64
		multiplier float64
	}{
		{"second", map[string]float64{"second": 1}, 0},
		{"ms", map[string]float64{"second": 1}, -3},
		{"per_ms", map[string]float64{"second": -1}, 3},
		{"gram", map[string]float64{"kilogram": 1}, -3},
		{"litre", map[string]float64{"metre": 3}, -3},
		{"coulomb", map[string]float64{"ampere": 1, "second": 1}, 0},
		{"mV_per_ms", map[string]float64{"ampere": -1, "kilogram": 1, "metre": 2, "second": -4}, 0},
		{"fish", map[string]float64{"fish": 1}, 0},
		{"fish_per_litre", map[string]float64{"fish": 1, "metre": -3}, 3},
		{"dimensionless", map[string]float64{}, 0},
		{"", map[string]float64{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := reg.Resolve(tt.name)
			require.NoError(t, err)
			assert.True(t, d.Equivalent(Dimension{Exponents: tt.exponents}), "got %s", d)
			assert.InDelta(t, tt.multiplier, d.Multiplier, 1e-9)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	reg := NewRegistry(testModel())

	_, err := reg.Resolve("furlong")
	assert.ErrorIs(t, err, ErrUnknownUnits)

	_, err = reg.Resolve("loop_a")
	assert.ErrorIs(t, err, ErrCircularUnits)

	bad := model.New("bad")
	bad.AddUnits(&model.Units{Name: "odd", Items: []model.Unit{{Reference: "second", Prefix: "mega-ish"}}})
	_, err = NewRegistry(bad).Resolve("odd")
	assert.ErrorIs(t, err, ErrInvalidPrefix)
}

func TestScalingFactor(t *testing.T) {
	reg := NewRegistry(testModel())

	tests := []struct {
		from, to string
		want     float64
		ok       bool
	}{
		{"second", "ms", 1000, true},
		{"ms", "second", 0.001, true},
		{"minute", "second", 60, true},
		{"litre", "metre", 0, false},
		{"second", "second", 1, true},
		{"second", "furlong", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			got, ok := reg.ScalingFactor(tt.from, tt.to)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDimensionAlgebra(t *testing.T) {
	reg := NewRegistry(nil)
	metre, _ := reg.Resolve("metre")
	second, _ := reg.Resolve("second")
	newton, _ := reg.Resolve("newton")
	kilogram, _ := reg.Resolve("kilogram")

	accel := metre.Div(second.Pow(2))
	assert.True(t, kilogram.Mul(accel).Equal(newton))
	assert.True(t, metre.Div(metre).IsDimensionless())
	assert.Equal(t, "metre.second^-2", accel.String())

	gram, _ := reg.Resolve("gram")
	assert.True(t, gram.Equivalent(kilogram))
	assert.False(t, gram.Equal(kilogram))
	assert.Equal(t, "10^-3 x kilogram", gram.String())
	assert.Equal(t, "kilogram", gram.Base())
	assert.Equal(t, gram.Base(), kilogram.Base())
}

func TestCheckEquation(t *testing.T) {
	reg := NewRegistry(testModel())
	unitsOf := map[string]string{
		"t": "ms", "v": "mV", "dv": "mV_per_ms", "x": "metre", "y": "second", "n": "dimensionless",
	}
	lookup := func(name string) string { return unitsOf[name] }
	ref := func(n string) *ast.Ref { return &ast.Ref{Name: n} }

	tests := []struct {
		name     string
		eq       ast.Node
		problems int
		contains string
	}{
		{
			name: "consistent rate",
			eq:   &ast.Assign{Left: &ast.Diff{Var: ref("v"), BVar: ref("t")}, Right: ref("dv")},
		},
		{
			name:     "sum of different dimensions",
			eq:       &ast.Assign{Left: ref("x"), Right: &ast.Binary{Op: ast.OpPlus, Left: ref("x"), Right: ref("y")}},
			problems: 1,
			contains: "are not equivalent",
		},
		{
			name:     "exp of dimensional argument",
			eq:       &ast.Assign{Left: ref("n"), Right: &ast.Func{Fn: ast.FnExp, Arg: ref("x")}},
			problems: 1,
			contains: "is not dimensionless",
		},
		{
			name: "constant power",
			eq: &ast.Assign{
				Left:  &ast.Binary{Op: ast.OpTimes, Left: ref("x"), Right: ref("x")},
				Right: &ast.Binary{Op: ast.OpPower, Left: ref("x"), Right: &ast.Number{Value: "2"}},
			},
		},
		{
			name:     "variable exponent",
			eq:       &ast.Assign{Left: ref("x"), Right: &ast.Binary{Op: ast.OpPower, Left: ref("x"), Right: ref("n")}},
			problems: 1,
			contains: "is not a constant",
		},
		{
			name: "square root",
			eq: &ast.Assign{
				Left:  ref("x"),
				Right: &ast.Root{Radicand: &ast.Binary{Op: ast.OpTimes, Left: ref("x"), Right: ref("x")}},
			},
		},
		{
			name: "piecewise with dimensional condition",
			eq: &ast.Assign{Left: ref("x"), Right: &ast.Piecewise{
				Pieces:    []ast.Piece{{Value: ref("x"), Cond: ref("y")}},
				Otherwise: &ast.Number{Value: "0", Units: "metre"},
			}},
			problems: 1,
			contains: "'y'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := reg.CheckEquation("main", tt.eq, lookup)
			assert.Len(t, problems, tt.problems, "%v", problems)
			if tt.contains != "" && len(problems) > 0 {
				assert.Contains(t, problems[0], tt.contains)
				assert.Contains(t, problems[0], "component 'main'")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	m := testModel()
	c := m.AddComponent(model.NewComponent("main"))
	c.AddVariable("x", "furlong", "")
	c.AddVariable("y", "ms", "")

	issues := NewRegistry(m).Validate(m)
	// loop_a, loop_b and x
	require.Len(t, issues, 3)
	for _, i := range issues {
		assert.Equal(t, core.CodeModelUnitsUndefined, i.Code)
	}
	assert.Equal(t, "x", issues[2].Item.Name)
}
