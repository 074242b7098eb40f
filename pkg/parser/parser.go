// Package parser parses the infix equation notation into pkg/ast trees.
//
// # Usage
//
//	eq, err := parser.ParseEquation("diff(v, t) = -(i_na+i_k)/cm")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
//	equation   → expr ["=" expr]
//	expr       → or
//	or         → and {"||" and}
//	and        → equality {"&&" equality}
//	equality   → relational {("==" | "!=") relational}
//	relational → sum {("<" | "<=" | ">" | ">=") sum}
//	sum        → product {("+" | "-") product}
//	product    → unary {("*" | "/") unary}
//	unary      → ("-" | "+" | "!") unary | power
//	power      → primary ["^" unary]
//	primary    → NUMBER ["{" IDENT "}"] | IDENT | call | "(" expr ")"
//	call       → IDENT "(" [expr {"," expr}] ")"
//
// ast.String renders trees in this notation, and parsing its output yields an
// equal tree.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/token"
)

// Parser parses equation text into a syntax tree.
type Parser struct {
	lexer  *Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	errors []error
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// ParseEquation parses an equation. A top-level expression without "=" is
// returned as is; the analyser reports it as not being an equality.
func ParseEquation(input string) (ast.Node, error) {
	p := NewParser(input)
	n := p.parseEquation()
	p.expect(token.EOF, "end of input")
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return n, nil
}

// ParseExpression parses an expression.
func ParseExpression(input string) (ast.Node, error) {
	p := NewParser(input)
	n := p.parseExpression()
	p.expect(token.EOF, "end of input")
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return n, nil
}

// MustParse is like ParseEquation but panics on error. It is meant for
// equations known at compile time.
func MustParse(input string) ast.Node {
	n, err := ParseEquation(input)
	if err != nil {
		panic(fmt.Sprintf("parser: %q: %v", input, err))
	}
	return n
}

func (p *Parser) parseEquation() ast.Node {
	left := p.parseExpression()
	if left == nil || !p.match(token.ASSIGN) {
		return left
	}
	right := p.parseExpression()
	if right == nil {
		return nil
	}
	return &ast.Assign{Left: left, Right: right}
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token or records an error.
func (p *Parser) expect(t token.TokenType, what string) bool {
	if p.match(t) {
		return true
	}
	p.unexpected(what)
	return false
}

func (p *Parser) unexpected(what string) {
	if p.check(token.ILLEGAL) {
		p.addError(fmt.Sprintf(ErrIllegalCharacter, p.token.Literal))
		return
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token, what))
}

// addError records an error at the current token. Only the first error is
// reported, later ones are usually consequences of it.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{Pos: p.token.Pos, Message: msg})
}
