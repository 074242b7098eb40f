package ast

// Children returns the direct children of n in evaluation order.
// Nil optional children are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c != nil {
			out = append(out, c)
		}
	}
	switch n := n.(type) {
	case *Assign:
		add(n.Left)
		add(n.Right)
	case *Binary:
		add(n.Left)
		add(n.Right)
	case *Unary:
		add(n.Operand)
	case *Func:
		add(n.Arg)
	case *Root:
		add(n.Radicand)
		add(n.Degree)
	case *Log:
		add(n.Arg)
		add(n.Base)
	case *Diff:
		if n.Var != nil {
			out = append(out, n.Var)
		}
		if n.BVar != nil {
			out = append(out, n.BVar)
		}
		add(n.Degree)
	case *Piecewise:
		for _, p := range n.Pieces {
			add(p.Value)
			add(p.Cond)
		}
		add(n.Otherwise)
	}
	return out
}

// Walk traverses the tree depth first in pre-order. If fn returns false the
// children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Refs returns every variable reference of the tree in walk order, bound
// variables of derivatives included.
func Refs(n Node) []*Ref {
	var refs []*Ref
	Walk(n, func(n Node) bool {
		if r, ok := n.(*Ref); ok {
			refs = append(refs, r)
		}
		return true
	})
	return refs
}

// Equal reports whether two trees are structurally identical.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return isNil(a) && isNil(b)
	}
	switch a := a.(type) {
	case *Assign:
		b, ok := b.(*Assign)
		return ok && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	case *Binary:
		b, ok := b.(*Binary)
		return ok && a.Op == b.Op && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	case *Unary:
		b, ok := b.(*Unary)
		return ok && a.Op == b.Op && Equal(a.Operand, b.Operand)
	case *Func:
		b, ok := b.(*Func)
		return ok && a.Fn == b.Fn && Equal(a.Arg, b.Arg)
	case *Root:
		b, ok := b.(*Root)
		return ok && Equal(a.Radicand, b.Radicand) && Equal(a.Degree, b.Degree)
	case *Log:
		b, ok := b.(*Log)
		return ok && Equal(a.Arg, b.Arg) && Equal(a.Base, b.Base)
	case *Diff:
		b, ok := b.(*Diff)
		return ok && Equal(refNode(a.Var), refNode(b.Var)) &&
			Equal(refNode(a.BVar), refNode(b.BVar)) && Equal(a.Degree, b.Degree)
	case *Piecewise:
		b, ok := b.(*Piecewise)
		if !ok || len(a.Pieces) != len(b.Pieces) {
			return false
		}
		for i := range a.Pieces {
			if !Equal(a.Pieces[i].Value, b.Pieces[i].Value) || !Equal(a.Pieces[i].Cond, b.Pieces[i].Cond) {
				return false
			}
		}
		return Equal(a.Otherwise, b.Otherwise)
	case *Ref:
		b, ok := b.(*Ref)
		return ok && a.Name == b.Name
	case *Number:
		b, ok := b.(*Number)
		return ok && a.Value == b.Value && a.Units == b.Units
	case *Constant:
		b, ok := b.(*Constant)
		return ok && a.Kind == b.Kind
	}
	return false
}

// Clone returns a deep copy of the tree.
func Clone(n Node) Node {
	switch n := n.(type) {
	case nil:
		return nil
	case *Assign:
		return &Assign{Left: Clone(n.Left), Right: Clone(n.Right)}
	case *Binary:
		return &Binary{Op: n.Op, Left: Clone(n.Left), Right: Clone(n.Right)}
	case *Unary:
		return &Unary{Op: n.Op, Operand: Clone(n.Operand)}
	case *Func:
		return &Func{Fn: n.Fn, Arg: Clone(n.Arg)}
	case *Root:
		return &Root{Radicand: Clone(n.Radicand), Degree: Clone(n.Degree)}
	case *Log:
		return &Log{Arg: Clone(n.Arg), Base: Clone(n.Base)}
	case *Diff:
		return &Diff{Var: cloneRef(n.Var), BVar: cloneRef(n.BVar), Degree: Clone(n.Degree)}
	case *Piecewise:
		pieces := make([]Piece, len(n.Pieces))
		for i, p := range n.Pieces {
			pieces[i] = Piece{Value: Clone(p.Value), Cond: Clone(p.Cond)}
		}
		return &Piecewise{Pieces: pieces, Otherwise: Clone(n.Otherwise)}
	case *Ref:
		return cloneRef(n)
	case *Number:
		c := *n
		return &c
	case *Constant:
		c := *n
		return &c
	}
	return n
}

func cloneRef(r *Ref) *Ref {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// refNode avoids storing a typed nil pointer in a Node interface.
func refNode(r *Ref) Node {
	if r == nil {
		return nil
	}
	return r
}

func isNil(n Node) bool {
	if n == nil {
		return true
	}
	if r, ok := n.(*Ref); ok && r == nil {
		return true
	}
	return false
}
