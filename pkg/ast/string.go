package ast

import "strings"

// Precedence levels of the infix notation, loosest first.
const (
	precLowest = iota
	precOr
	precAnd
	precEquality
	precRelational
	precSum
	precProduct
	precUnary
	precPower
	precPrimary
)

var infixSymbols = map[BinaryOp]string{
	OpEq:     "==",
	OpNeq:    "!=",
	OpLt:     "<",
	OpLeq:    "<=",
	OpGt:     ">",
	OpGeq:    ">=",
	OpAnd:    "&&",
	OpOr:     "||",
	OpPlus:   "+",
	OpMinus:  "-",
	OpTimes:  "*",
	OpDivide: "/",
	OpPower:  "^",
}

// Symbol returns the infix symbol of op in the equation notation, or "" when
// op is written as a function call (xor, rem, min, max).
func (op BinaryOp) Symbol() string {
	return infixSymbols[op]
}

func precedence(n Node) int {
	switch n := n.(type) {
	case *Assign:
		return precLowest
	case *Binary:
		switch n.Op {
		case OpOr:
			return precOr
		case OpAnd:
			return precAnd
		case OpEq, OpNeq:
			return precEquality
		case OpLt, OpLeq, OpGt, OpGeq:
			return precRelational
		case OpPlus, OpMinus:
			return precSum
		case OpTimes, OpDivide:
			return precProduct
		case OpPower:
			return precPower
		}
	case *Unary:
		return precUnary
	case *Number:
		if strings.HasPrefix(n.Value, "-") {
			return precUnary
		}
	}
	return precPrimary
}

// String renders the tree in the equation notation accepted by pkg/parser.
// Parentheses are added wherever the structure would otherwise be lost, so
// parsing the result yields an Equal tree.
func String(n Node) string {
	if n == nil {
		return ""
	}
	return Accept[string](n, notation{})
}

type notation struct{}

func (p notation) operand(n Node, parent int, tight bool) string {
	s := String(n)
	prec := precedence(n)
	if prec < parent || (tight && prec == parent) {
		return "(" + s + ")"
	}
	return s
}

func (p notation) call(name string, args ...Node) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, String(a))
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func (p notation) VisitAssign(n *Assign) string {
	return String(n.Left) + " = " + String(n.Right)
}

func (p notation) VisitBinary(n *Binary) string {
	sym := n.Op.Symbol()
	if sym == "" {
		return p.call(n.Op.String(), n.Left, n.Right)
	}
	prec := precedence(n)
	if n.Op == OpPower {
		// right associative
		return p.operand(n.Left, prec, true) + sym + p.operand(n.Right, prec, false)
	}
	if n.Op == OpPlus || n.Op == OpMinus || n.Op == OpTimes || n.Op == OpDivide {
		return p.operand(n.Left, prec, false) + sym + p.operand(n.Right, prec, true)
	}
	return p.operand(n.Left, prec, false) + " " + sym + " " + p.operand(n.Right, prec, true)
}

func (p notation) VisitUnary(n *Unary) string {
	sym := map[UnaryOp]string{OpNeg: "-", OpPos: "+", OpNot: "!"}[n.Op]
	return sym + p.operand(n.Operand, precUnary, false)
}

func (p notation) VisitFunc(n *Func) string {
	return p.call(n.Fn.String(), n.Arg)
}

func (p notation) VisitRoot(n *Root) string {
	if n.Degree == nil {
		return p.call("sqrt", n.Radicand)
	}
	return p.call("root", n.Radicand, n.Degree)
}

func (p notation) VisitLog(n *Log) string {
	if n.Base == nil {
		return p.call("log", n.Arg)
	}
	return p.call("log", n.Arg, n.Base)
}

func (p notation) VisitDiff(n *Diff) string {
	if n.Degree == nil {
		return p.call("diff", n.Var, n.BVar)
	}
	return p.call("diff", n.Var, n.BVar, n.Degree)
}

func (p notation) VisitPiecewise(n *Piecewise) string {
	args := make([]Node, 0, 2*len(n.Pieces)+1)
	for _, piece := range n.Pieces {
		args = append(args, piece.Value, piece.Cond)
	}
	if n.Otherwise != nil {
		args = append(args, n.Otherwise)
	}
	return p.call("piecewise", args...)
}

func (p notation) VisitRef(n *Ref) string {
	return n.Name
}

func (p notation) VisitNumber(n *Number) string {
	if n.Units == "" {
		return n.Value
	}
	return n.Value + "{" + n.Units + "}"
}

func (p notation) VisitConstant(n *Constant) string {
	return n.Kind.String()
}
