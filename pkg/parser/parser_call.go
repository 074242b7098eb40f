package parser

import (
	"fmt"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/token"
)

// Function-call forms:
//
//	diff(x, t[, degree])                  derivative of x with respect to t
//	piecewise(v1, c1[, v2, c2...][, v])   first value whose condition holds
//	sqrt(x), root(x, n)
//	log(x) (base 10), log(x, b)
//	min, max, rem, xor (two or more operands, folded left)
//	abs, exp, ln, floor, ceiling and the trigonometric family (one operand)

var foldedOps = map[string]ast.BinaryOp{
	"min": ast.OpMin,
	"max": ast.OpMax,
	"rem": ast.OpRem,
	"xor": ast.OpXor,
}

// parseCall parses IDENT "(" args ")" into the matching node.
func (p *Parser) parseCall() ast.Node {
	name := p.token.Literal
	start := p.token.Pos
	p.nextToken() // name
	p.nextToken() // (

	var args []ast.Node
	if !p.check(token.RPAREN) {
		for {
			arg := p.parseExpression()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if !p.expect(token.RPAREN, `")"`) {
		return nil
	}

	argErr := func(want string) ast.Node {
		p.errors = append(p.errors, &ParseError{Pos: start, Message: fmt.Sprintf(ErrArgumentCount, name, want, len(args))})
		return nil
	}

	switch name {
	case "diff":
		if len(args) != 2 && len(args) != 3 {
			return argErr("2 or 3 arguments")
		}
		v, ok := args[0].(*ast.Ref)
		if !ok {
			p.errors = append(p.errors, &ParseError{Pos: start, Message: fmt.Sprintf(ErrBoundVariable, "the first argument")})
			return nil
		}
		bvar, ok := args[1].(*ast.Ref)
		if !ok {
			p.errors = append(p.errors, &ParseError{Pos: start, Message: fmt.Sprintf(ErrBoundVariable, "the bound variable")})
			return nil
		}
		d := &ast.Diff{Var: v, BVar: bvar}
		if len(args) == 3 {
			d.Degree = args[2]
		}
		return d

	case "piecewise":
		if len(args) < 2 {
			return argErr("at least 2 arguments")
		}
		pw := &ast.Piecewise{}
		for i := 0; i+1 < len(args); i += 2 {
			pw.Pieces = append(pw.Pieces, ast.Piece{Value: args[i], Cond: args[i+1]})
		}
		if len(args)%2 == 1 {
			pw.Otherwise = args[len(args)-1]
		}
		return pw

	case "sqrt":
		if len(args) != 1 {
			return argErr("1 argument")
		}
		return &ast.Root{Radicand: args[0]}

	case "root":
		if len(args) != 2 {
			return argErr("2 arguments")
		}
		return &ast.Root{Radicand: args[0], Degree: args[1]}

	case "log":
		switch len(args) {
		case 1:
			return &ast.Log{Arg: args[0]}
		case 2:
			return &ast.Log{Arg: args[0], Base: args[1]}
		default:
			return argErr("1 or 2 arguments")
		}
	}

	if op, ok := foldedOps[name]; ok {
		if len(args) < 2 {
			return argErr("at least 2 arguments")
		}
		n := args[0]
		for _, arg := range args[1:] {
			n = &ast.Binary{Op: op, Left: n, Right: arg}
		}
		return n
	}

	fn, ok := ast.LookupFunction(name)
	if !ok {
		p.errors = append(p.errors, &ParseError{Pos: start, Message: fmt.Sprintf(ErrUnknownFunction, name)})
		return nil
	}
	if len(args) != 1 {
		return argErr("1 argument")
	}
	return &ast.Func{Fn: fn, Arg: args[0]}
}
