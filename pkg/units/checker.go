package units

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/cellgen/pkg/ast"
)

// CheckEquation checks the units consistency of one equation of a
// component and returns a description of every problem found. unitsOf maps a
// variable name of the component to its units name.
func (r *Registry) CheckEquation(component string, eq ast.Node, unitsOf func(name string) string) []string {
	c := &checker{reg: r, component: component, root: eq, unitsOf: unitsOf}
	ast.Accept[measure](eq, c)
	return c.problems
}

// measure is the dimension of a subexpression. Unknown dimensions stop
// further reports on the enclosing expression.
type measure struct {
	dim   Dimension
	known bool
}

func dimensionless() measure {
	return measure{dim: Dimension{Exponents: map[string]float64{}}, known: true}
}

type checker struct {
	reg       *Registry
	component string
	root      ast.Node
	unitsOf   func(string) string
	problems  []string
}

func (c *checker) where(n ast.Node) string {
	if n == c.root {
		return fmt.Sprintf("equation '%s' in component '%s'", ast.String(n), c.component)
	}
	return fmt.Sprintf("'%s' in equation '%s' in component '%s'", ast.String(n), ast.String(c.root), c.component)
}

func (c *checker) eval(n ast.Node) measure {
	return ast.Accept[measure](n, c)
}

// same reports operands whose units are not equivalent and returns the
// measure of the first known operand.
func (c *checker) same(parent ast.Node, operands ...ast.Node) measure {
	var first measure
	var firstNode ast.Node
	for _, o := range operands {
		m := c.eval(o)
		if !m.known {
			continue
		}
		if !first.known {
			first, firstNode = m, o
			continue
		}
		if !first.dim.Equivalent(m.dim) {
			c.problems = append(c.problems, fmt.Sprintf("The units in %s are not equivalent. '%s' is in '%s' while '%s' is in '%s'.",
				c.where(parent), ast.String(firstNode), first.dim, ast.String(o), m.dim))
		}
	}
	return first
}

// dimensionless reports operands that are not dimensionless.
func (c *checker) dimensionless(parent ast.Node, operands ...ast.Node) measure {
	for _, o := range operands {
		m := c.eval(o)
		if m.known && !m.dim.IsDimensionless() {
			c.problems = append(c.problems, fmt.Sprintf("The unit of '%s' in %s is not dimensionless. '%s' is in '%s'.",
				ast.String(o), c.where(parent), ast.String(o), m.dim))
		}
	}
	return dimensionless()
}

func (c *checker) VisitAssign(n *ast.Assign) measure {
	return c.same(n, n.Left, n.Right)
}

func (c *checker) VisitBinary(n *ast.Binary) measure {
	switch n.Op {
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLeq, ast.OpGt, ast.OpGeq:
		c.same(n, n.Left, n.Right)
		return dimensionless()
	case ast.OpAnd, ast.OpOr, ast.OpXor:
		return c.dimensionless(n, n.Left, n.Right)
	case ast.OpPlus, ast.OpMinus, ast.OpRem, ast.OpMin, ast.OpMax:
		return c.same(n, n.Left, n.Right)
	case ast.OpTimes, ast.OpDivide:
		l, r := c.eval(n.Left), c.eval(n.Right)
		if !l.known || !r.known {
			return measure{}
		}
		if n.Op == ast.OpTimes {
			return measure{dim: l.dim.Mul(r.dim), known: true}
		}
		return measure{dim: l.dim.Div(r.dim), known: true}
	case ast.OpPower:
		base := c.eval(n.Left)
		c.dimensionless(n, n.Right)
		return c.power(n, base, n.Right, false)
	}
	return measure{}
}

// power raises base to a constant exponent, or to its reciprocal for roots.
func (c *checker) power(parent ast.Node, base measure, exponent ast.Node, reciprocal bool) measure {
	if !base.known {
		return base
	}
	if base.dim.IsDimensionless() {
		return base
	}
	if v, ok := literal(exponent); ok {
		if reciprocal {
			v = 1 / v
		}
		return measure{dim: base.dim.Pow(v), known: true}
	}
	c.problems = append(c.problems, fmt.Sprintf("The units of %s cannot be determined because '%s' is not a constant.",
		c.where(parent), ast.String(exponent)))
	return measure{}
}

func (c *checker) VisitUnary(n *ast.Unary) measure {
	if n.Op == ast.OpNot {
		return c.dimensionless(n, n.Operand)
	}
	return c.eval(n.Operand)
}

func (c *checker) VisitFunc(n *ast.Func) measure {
	switch n.Fn {
	case ast.FnAbs, ast.FnFloor, ast.FnCeiling:
		return c.eval(n.Arg)
	default:
		return c.dimensionless(n, n.Arg)
	}
}

func (c *checker) VisitRoot(n *ast.Root) measure {
	base := c.eval(n.Radicand)
	if n.Degree == nil {
		if !base.known {
			return base
		}
		return measure{dim: base.dim.Pow(0.5), known: true}
	}
	c.dimensionless(n, n.Degree)
	return c.power(n, base, n.Degree, true)
}

func (c *checker) VisitLog(n *ast.Log) measure {
	if n.Base == nil {
		return c.dimensionless(n, n.Arg)
	}
	return c.dimensionless(n, n.Arg, n.Base)
}

func (c *checker) VisitDiff(n *ast.Diff) measure {
	v, t := c.eval(n.Var), c.eval(n.BVar)
	degree := 1.0
	if n.Degree != nil {
		c.dimensionless(n, n.Degree)
		if d, ok := literal(n.Degree); ok {
			degree = d
		}
	}
	if !v.known || !t.known {
		return measure{}
	}
	return measure{dim: v.dim.Div(t.dim.Pow(degree)), known: true}
}

func (c *checker) VisitPiecewise(n *ast.Piecewise) measure {
	values := make([]ast.Node, 0, len(n.Pieces)+1)
	for _, p := range n.Pieces {
		c.dimensionless(n, p.Cond)
		values = append(values, p.Value)
	}
	if n.Otherwise != nil {
		values = append(values, n.Otherwise)
	}
	return c.same(n, values...)
}

func (c *checker) VisitRef(n *ast.Ref) measure {
	if c.unitsOf == nil {
		return measure{}
	}
	d, err := c.reg.Resolve(c.unitsOf(n.Name))
	if err != nil {
		return measure{}
	}
	return measure{dim: d, known: true}
}

func (c *checker) VisitNumber(n *ast.Number) measure {
	d, err := c.reg.Resolve(n.Units)
	if err != nil {
		return measure{}
	}
	return measure{dim: d, known: true}
}

func (c *checker) VisitConstant(*ast.Constant) measure {
	return dimensionless()
}

// literal returns the value of a numeric literal, possibly negated.
func literal(n ast.Node) (float64, bool) {
	switch n := n.(type) {
	case *ast.Number:
		v, err := strconv.ParseFloat(n.Value, 64)
		return v, err == nil
	case *ast.Unary:
		v, ok := literal(n.Operand)
		if n.Op == ast.OpNeg {
			v = -v
		}
		return v, ok && n.Op != ast.OpNot
	}
	return 0, false
}
