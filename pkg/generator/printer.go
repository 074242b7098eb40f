package generator

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/profile"
)

// Precedence levels of generated expressions, loosest first. Operators the
// profile spells as function calls bind like primaries.
const (
	levelLowest = iota
	levelOr
	levelAnd
	levelEquality
	levelRelational
	levelSum
	levelProduct
	levelUnary
	levelPower
	levelPrimary
)

// printer renders equation trees in the target language of a profile.
// Variable access is delegated to the ref and rate callbacks.
type printer struct {
	prof *profile.Profile
	ref  func(r *ast.Ref) string
	rate func(d *ast.Diff) string
}

var _ ast.Visitor[string] = (*printer)(nil)

func (p *printer) print(n ast.Node) string {
	return ast.Accept[string](n, p)
}

func (p *printer) VisitAssign(n *ast.Assign) string {
	return p.print(n.Left) + p.prof.Operators.Assign + p.print(n.Right)
}

func (p *printer) VisitBinary(n *ast.Binary) string {
	ops := &p.prof.Operators
	switch n.Op {
	case ast.OpPlus:
		return p.infix(n, ops.Plus)
	case ast.OpMinus:
		return p.infix(n, ops.Minus)
	case ast.OpTimes:
		return p.infix(n, ops.Times)
	case ast.OpDivide:
		return p.infix(n, ops.Divide)
	case ast.OpPower:
		return p.power(n)
	case ast.OpRem:
		return p.call(ops.Rem, n.Left, n.Right)
	case ast.OpMin:
		return p.call(ops.Min, n.Left, n.Right)
	case ast.OpMax:
		return p.call(ops.Max, n.Left, n.Right)
	}

	op := p.logical(n.Op)
	if !op.Infix {
		return p.call(op.Text, n.Left, n.Right)
	}
	return p.infix(n, op.Text)
}

func (p *printer) VisitUnary(n *ast.Unary) string {
	switch n.Op {
	case ast.OpPos:
		return p.print(n.Operand)
	case ast.OpNot:
		not := p.prof.Operators.Not
		if !not.Infix {
			return p.call(not.Text, n.Operand)
		}
		return not.Text + p.wrapIf(n.Operand, p.level(n.Operand) < levelUnary)
	}

	// -(a+b), -(a<b), -(-a) and -(x?y:z) keep their parentheses
	wrap := p.level(n.Operand) <= levelSum || isNegative(n.Operand)
	return p.prof.Operators.Minus + p.wrapIf(n.Operand, wrap)
}

func (p *printer) VisitFunc(n *ast.Func) string {
	return p.call(p.prof.Function(n.Fn.String()), n.Arg)
}

func (p *printer) VisitRoot(n *ast.Root) string {
	if n.Degree == nil || numberIs(n.Degree, 2) {
		return p.call(p.prof.Operators.SquareRoot, n.Radicand)
	}
	exponent := "1.0" + p.prof.Operators.Divide + p.wrapIf(n.Degree, p.level(n.Degree) <= levelProduct)
	return p.pow(n.Radicand, exponent)
}

func (p *printer) VisitLog(n *ast.Log) string {
	ops := &p.prof.Operators
	if n.Base == nil || numberIs(n.Base, 10) {
		return p.call(ops.CommonLog, n.Arg)
	}
	return p.call(ops.NaturalLog, n.Arg) + ops.Divide + p.call(ops.NaturalLog, n.Base)
}

func (p *printer) VisitDiff(n *ast.Diff) string { return p.rate(n) }

func (p *printer) VisitPiecewise(n *ast.Piecewise) string {
	ops := &p.prof.Operators
	code := p.prof.Constants.NaN
	if n.Otherwise != nil {
		code = p.piece(n.Otherwise)
	}
	for i := len(n.Pieces) - 1; i >= 0; i-- {
		piece := n.Pieces[i]
		code = replace(ops.ConditionalIf,
			"[CONDITION]", p.print(piece.Cond),
			"[IF_STATEMENT]", p.piece(piece.Value)) +
			replace(ops.ConditionalElse, "[ELSE_STATEMENT]", code)
	}
	return code
}

func (p *printer) VisitRef(n *ast.Ref) string { return p.ref(n) }

func (p *printer) VisitNumber(n *ast.Number) string { return formatNumber(n.Value) }

func (p *printer) VisitConstant(n *ast.Constant) string {
	c := &p.prof.Constants
	switch n.Kind {
	case ast.ConstTrue:
		return c.True
	case ast.ConstFalse:
		return c.False
	case ast.ConstE:
		return c.E
	case ast.ConstPi:
		return c.Pi
	case ast.ConstInf:
		return c.Inf
	default:
		return c.NaN
	}
}

// =============================================================================
// Operators
// =============================================================================

func (p *printer) logical(op ast.BinaryOp) profile.Operator {
	ops := &p.prof.Operators
	switch op {
	case ast.OpEq:
		return ops.Eq
	case ast.OpNeq:
		return ops.Neq
	case ast.OpLt:
		return ops.Lt
	case ast.OpLeq:
		return ops.Leq
	case ast.OpGt:
		return ops.Gt
	case ast.OpGeq:
		return ops.Geq
	case ast.OpAnd:
		return ops.And
	case ast.OpOr:
		return ops.Or
	default:
		return ops.Xor
	}
}

func (p *printer) infix(n *ast.Binary, symbol string) string {
	return p.operand(n, n.Left, false) + symbol + p.operand(n, n.Right, true)
}

func (p *printer) power(n *ast.Binary) string {
	ops := &p.prof.Operators
	switch {
	case numberIs(n.Right, 0.5):
		return p.call(ops.SquareRoot, n.Left)
	case numberIs(n.Right, 2) && ops.Square != "":
		return p.call(ops.Square, n.Left)
	case ops.HasPowerOperator:
		return p.infix(n, ops.Power)
	}
	return p.call(ops.Power, n.Left, n.Right)
}

// pow raises base to an already rendered exponent.
func (p *printer) pow(base ast.Node, exponent string) string {
	ops := &p.prof.Operators
	if ops.HasPowerOperator {
		return p.wrapIf(base, p.level(base) <= levelPower) + ops.Power + "(" + exponent + ")"
	}
	return ops.Power + "(" + p.print(base) + ", " + exponent + ")"
}

func (p *printer) call(name string, args ...ast.Node) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = p.print(a)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// operand renders a child of an infix operator, parenthesised when the
// target precedence would otherwise regroup it.
func (p *printer) operand(parent *ast.Binary, child ast.Node, right bool) string {
	pl, cl := p.level(parent), p.level(child)
	wrap := false
	switch {
	case cl < pl:
		wrap = true
	case cl == pl && right && (parent.Op == ast.OpMinus || parent.Op == ast.OpDivide):
		// a-(b-c), a/(b*c)
		wrap = true
	case cl == pl && !right && parent.Op == ast.OpPower:
		wrap = true
	case right && isNegative(child):
		wrap = true
	case isLogicalOrRelational(parent.Op):
		if b, ok := child.(*ast.Binary); ok && isLogicalOrRelational(b.Op) && p.logical(b.Op).Infix {
			wrap = b.Op != parent.Op || parent.Op.IsRelational()
		}
	}
	return p.wrapIf(child, wrap)
}

func (p *printer) piece(n ast.Node) string {
	return p.wrapIf(n, p.level(n) == levelLowest)
}

func (p *printer) wrapIf(n ast.Node, wrap bool) string {
	s := p.print(n)
	if wrap {
		return "(" + s + ")"
	}
	return s
}

// level returns the binding strength of n once rendered.
func (p *printer) level(n ast.Node) int {
	switch n := n.(type) {
	case *ast.Binary:
		switch n.Op {
		case ast.OpPlus, ast.OpMinus:
			return levelSum
		case ast.OpTimes, ast.OpDivide:
			return levelProduct
		case ast.OpPower:
			if p.prof.Operators.HasPowerOperator && !numberIs(n.Right, 0.5) &&
				!(numberIs(n.Right, 2) && p.prof.Operators.Square != "") {
				return levelPower
			}
			return levelPrimary
		case ast.OpRem, ast.OpMin, ast.OpMax:
			return levelPrimary
		}
		if !p.logical(n.Op).Infix {
			return levelPrimary
		}
		switch n.Op {
		case ast.OpOr, ast.OpXor:
			return levelOr
		case ast.OpAnd:
			return levelAnd
		case ast.OpEq, ast.OpNeq:
			return levelEquality
		default:
			return levelRelational
		}
	case *ast.Unary:
		switch {
		case n.Op == ast.OpPos:
			return p.level(n.Operand)
		case n.Op == ast.OpNot && !p.prof.Operators.Not.Infix:
			return levelPrimary
		}
		return levelUnary
	case *ast.Log:
		if n.Base != nil && !numberIs(n.Base, 10) {
			return levelProduct
		}
	case *ast.Root:
		if n.Degree != nil && !numberIs(n.Degree, 2) && p.prof.Operators.HasPowerOperator {
			return levelPower
		}
	case *ast.Piecewise:
		return levelLowest
	case *ast.Number:
		if strings.HasPrefix(n.Value, "-") {
			return levelUnary
		}
	}
	return levelPrimary
}

func isLogicalOrRelational(op ast.BinaryOp) bool {
	return op.IsRelational() || op.IsLogical()
}

func isNegative(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Unary:
		return n.Op == ast.OpNeg
	case *ast.Number:
		return strings.HasPrefix(n.Value, "-")
	}
	return false
}

func numberIs(n ast.Node, v float64) bool {
	num, ok := n.(*ast.Number)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(num.Value, 64)
	return err == nil && f == v
}

// formatNumber spells a literal as a floating point number: 3 becomes 3.0
// and 1e-3 becomes 1.0e-3.
func formatNumber(s string) string {
	mantissa, exponent, hasExponent := strings.Cut(strings.ToLower(s), "e")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	if hasExponent {
		return mantissa + "e" + exponent
	}
	return mantissa
}

// replace substitutes placeholder/value pairs in a template.
func replace(template string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(template)
}
