package parser

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/token"
)

// Expression parsing uses a Pratt parser over these precedence levels:
//
//	precOr         = 1  (||)
//	precAnd        = 2  (&&)
//	precEquality   = 3  (==, !=)
//	precRelational = 4  (<, <=, >, >=)
//	precSum        = 5  (+, -)
//	precProduct    = 6  (*, /)
//	precUnary      = 7  (-, +, !)
//	precPower      = 8  (^, right associative)
const (
	precNone = iota
	precOr
	precAnd
	precEquality
	precRelational
	precSum
	precProduct
	precUnary
	precPower
)

var binaryOps = map[token.TokenType]ast.BinaryOp{
	token.OR:    ast.OpOr,
	token.AND:   ast.OpAnd,
	token.EQ:    ast.OpEq,
	token.NE:    ast.OpNeq,
	token.LT:    ast.OpLt,
	token.LE:    ast.OpLeq,
	token.GT:    ast.OpGt,
	token.GE:    ast.OpGeq,
	token.PLUS:  ast.OpPlus,
	token.MINUS: ast.OpMinus,
	token.STAR:  ast.OpTimes,
	token.SLASH: ast.OpDivide,
	token.CARET: ast.OpPower,
}

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() ast.Node {
	return p.parseExpressionWithPrecedence(precOr)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) ast.Node {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for {
		prec := infixPrecedence(p.token.Type)
		if prec == precNone || prec < minPrecedence {
			return left
		}

		op := binaryOps[p.token.Type]
		p.nextToken()

		next := prec + 1
		if op == ast.OpPower {
			// right associative, and the exponent may carry a sign
			next = precUnary
		}
		right := p.parseExpressionWithPrecedence(next)
		if right == nil {
			return nil
		}
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
}

func infixPrecedence(t token.TokenType) int {
	switch t {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQ, token.NE:
		return precEquality
	case token.LT, token.LE, token.GT, token.GE:
		return precRelational
	case token.PLUS, token.MINUS:
		return precSum
	case token.STAR, token.SLASH:
		return precProduct
	case token.CARET:
		return precPower
	default:
		return precNone
	}
}

// parsePrefixExpr parses unary operators and primary expressions.
func (p *Parser) parsePrefixExpr() ast.Node {
	var op ast.UnaryOp
	switch p.token.Type {
	case token.MINUS:
		op = ast.OpNeg
	case token.PLUS:
		op = ast.OpPos
	case token.NOT:
		op = ast.OpNot
	default:
		return p.parsePrimary()
	}
	p.nextToken()

	operand := p.parseExpressionWithPrecedence(precUnary)
	if operand == nil {
		return nil
	}
	return &ast.Unary{Op: op, Operand: operand}
}

// parsePrimary parses literals, references, calls and parenthesised expressions.
func (p *Parser) parsePrimary() ast.Node {
	switch p.token.Type {
	case token.NUMBER:
		return p.parseNumber()

	case token.IDENT:
		if p.peek.Type == token.LPAREN {
			return p.parseCall()
		}
		name := p.token.Literal
		p.nextToken()
		if c, ok := constants[name]; ok {
			return &ast.Constant{Kind: c}
		}
		return &ast.Ref{Name: name}

	case token.LPAREN:
		p.nextToken()
		n := p.parseExpression()
		if n == nil || !p.expect(token.RPAREN, `")"`) {
			return nil
		}
		return n

	default:
		p.unexpected("an expression")
		return nil
	}
}

var constants = map[string]ast.ConstantKind{
	"true":  ast.ConstTrue,
	"false": ast.ConstFalse,
	"e":     ast.ConstE,
	"pi":    ast.ConstPi,
	"inf":   ast.ConstInf,
	"nan":   ast.ConstNaN,
}

// parseNumber parses a numeric literal and its optional {units} annotation.
func (p *Parser) parseNumber() ast.Node {
	lit := p.token.Literal
	if _, err := strconv.ParseFloat(lit, 64); err != nil {
		p.addError(fmt.Sprintf(ErrInvalidNumber, lit))
		return nil
	}
	p.nextToken()

	n := &ast.Number{Value: lit}
	if !p.match(token.LBRACE) {
		return n
	}
	if !p.check(token.IDENT) {
		p.unexpected("a units name")
		return nil
	}
	n.Units = p.token.Literal
	p.nextToken()
	if !p.check(token.RBRACE) {
		p.addError(ErrUnterminatedUnits)
		return nil
	}
	p.nextToken()
	return n
}
