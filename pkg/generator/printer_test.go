package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/parser"
	"github.com/leapstack-labs/cellgen/pkg/profile"
	"github.com/leapstack-labs/cellgen/pkg/profiles/c"
	"github.com/leapstack-labs/cellgen/pkg/profiles/python"
)

func namePrinter(p *profile.Profile) *printer {
	return &printer{
		prof: p,
		ref:  func(r *ast.Ref) string { return r.Name },
		rate: func(d *ast.Diff) string { return "rate_" + d.Var.Name },
	}
}

func TestPrinter_C(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a-(b-c)", "a-(b-c)"},
		{"a-b-c", "a-b-c"},
		{"a+(b+c)", "a+b+c"},
		{"a/(b*c)", "a/(b*c)"},
		{"a*(b+c)", "a*(b+c)"},
		{"(a+b)*c", "(a+b)*c"},
		{"-(a+b)", "-(a+b)"},
		{"-a*b", "-a*b"},
		{"a - -b", "a-(-b)"},
		{"a * -b", "a*(-b)"},
		{"-2", "-2.0"},
		{"a^2", "pow(a, 2.0)"},
		{"a^0.5", "sqrt(a)"},
		{"a^b^c", "pow(a, pow(b, c))"},
		{"sqrt(a)", "sqrt(a)"},
		{"root(a, 2)", "sqrt(a)"},
		{"root(a, 3)", "pow(a, 1.0/3.0)"},
		{"root(a, b+1)", "pow(a, 1.0/(b+1.0))"},
		{"log(a)", "log10(a)"},
		{"log(a, 10)", "log10(a)"},
		{"log(a, 2)", "log(a)/log(2.0)"},
		{"ln(a)", "log(a)"},
		{"abs(a)", "fabs(a)"},
		{"ceiling(a)", "ceil(a)"},
		{"sec(a)", "sec(a)"},
		{"a > 1", "a > 1.0"},
		{"a > 1 && b < 2", "(a > 1.0) && (b < 2.0)"},
		{"a && b && c", "a && b && c"},
		{"a || b && c", "a || (b && c)"},
		{"!a", "!a"},
		{"!(a > b)", "!(a > b)"},
		{"xor(a, b)", "xor(a, b)"},
		{"rem(a, b)", "fmod(a, b)"},
		{"min(a, b, c)", "min(min(a, b), c)"},
		{"piecewise(1, a > 0, 2)", "(a > 0.0)?1.0:2.0"},
		{"piecewise(1, a > 0)", "(a > 0.0)?1.0:NAN"},
		{"piecewise(1, a > 0, 2, a < 0, 3)", "(a > 0.0)?1.0:(a < 0.0)?2.0:3.0"},
		{"piecewise(piecewise(1, a > 0, 2), b > 0, 3)", "(b > 0.0)?((a > 0.0)?1.0:2.0):3.0"},
		{"2*piecewise(1, a > 0, 2)", "2.0*((a > 0.0)?1.0:2.0)"},
		{"a+pi", "a+3.14159265358979"},
		{"true", "1.0"},
		{"inf", "INFINITY"},
		{"2e3", "2.0e3"},
		{"1.5", "1.5"},
		{"diff(x, t)", "rate_x"},
	}

	p := namePrinter(c.C)
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, p.print(parser.MustParse(tt.input)))
		})
	}
}

func TestPrinter_Python(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a > 1", "gt_func(a, 1.0)"},
		{"a > 1 && b < 2", "and_func(gt_func(a, 1.0), lt_func(b, 2.0))"},
		{"!a", "not_func(a)"},
		{"-(a > b)", "-gt_func(a, b)"},
		{"xor(a, b)", "xor_func(a, b)"},
		{"piecewise(1, a > 0, 2)", "1.0 if gt_func(a, 0.0) else 2.0"},
		{"piecewise(1, a > 0)", "1.0 if gt_func(a, 0.0) else nan"},
		{"a-(b-c)", "a-(b-c)"},
		{"a^2", "pow(a, 2.0)"},
	}

	p := namePrinter(python.Python)
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, p.print(parser.MustParse(tt.input)))
		})
	}
}

func TestPrinter_PowerOperator(t *testing.T) {
	prof, err := c.C.Apply(profile.Overrides{
		"operators": map[string]any{
			"power":              "^",
			"has_power_operator": true,
			"square":             "sq",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	p := namePrinter(prof)

	assert.Equal(t, "sq(a)", p.print(parser.MustParse("a^2")))
	assert.Equal(t, "a^b", p.print(parser.MustParse("a^b")))
	assert.Equal(t, "(a^b)^c", p.print(parser.MustParse("(a^b)^c")))
	assert.Equal(t, "(a+b)^c", p.print(parser.MustParse("(a+b)^c")))
	assert.Equal(t, "(-a)^b", p.print(parser.MustParse("(-a)^b")))
	assert.Equal(t, "a^(1.0/3.0)", p.print(parser.MustParse("root(a, 3)")))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "3.0", formatNumber("3"))
	assert.Equal(t, "3.25", formatNumber("3.25"))
	assert.Equal(t, "1.0e-3", formatNumber("1e-3"))
	assert.Equal(t, "1.5e+06", formatNumber("1.5e+06"))
	assert.Equal(t, "1000.0", formatFloat(1000))
}
