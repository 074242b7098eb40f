package ast

import "fmt"

// Visitor handles every node kind. Implementations return a value of type T
// per node and recurse by calling Accept on children themselves.
type Visitor[T any] interface {
	VisitAssign(n *Assign) T
	VisitBinary(n *Binary) T
	VisitUnary(n *Unary) T
	VisitFunc(n *Func) T
	VisitRoot(n *Root) T
	VisitLog(n *Log) T
	VisitDiff(n *Diff) T
	VisitPiecewise(n *Piecewise) T
	VisitRef(n *Ref) T
	VisitNumber(n *Number) T
	VisitConstant(n *Constant) T
}

// Accept dispatches n to the matching Visitor method.
func Accept[T any](n Node, v Visitor[T]) T {
	switch n := n.(type) {
	case *Assign:
		return v.VisitAssign(n)
	case *Binary:
		return v.VisitBinary(n)
	case *Unary:
		return v.VisitUnary(n)
	case *Func:
		return v.VisitFunc(n)
	case *Root:
		return v.VisitRoot(n)
	case *Log:
		return v.VisitLog(n)
	case *Diff:
		return v.VisitDiff(n)
	case *Piecewise:
		return v.VisitPiecewise(n)
	case *Ref:
		return v.VisitRef(n)
	case *Number:
		return v.VisitNumber(n)
	case *Constant:
		return v.VisitConstant(n)
	default:
		panic(fmt.Sprintf("ast: unexpected node %T", n))
	}
}
