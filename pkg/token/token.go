// Package token defines the lexical tokens of the equation notation.
//
// The notation is a small infix language: arithmetic with ^ for powers,
// C-like comparison and logical operators, function calls, and numbers with
// an optional units annotation in braces (2.5{millivolt}).
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType reads better at call sites than token.Type
type TokenType int

// Token types.
const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // x, sodium_current
	NUMBER // 1, 2.5, 1e-3

	// Operators
	PLUS   // +
	MINUS  // -
	STAR   // *
	SLASH  // /
	CARET  // ^
	ASSIGN // =
	EQ     // ==
	NE     // !=
	LT     // <
	GT     // >
	LE     // <=
	GE     // >=
	AND    // &&
	OR     // ||
	NOT    // !

	// Delimiters
	COMMA  // ,
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }
)

var tokenNames = [...]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",
	IDENT:   "IDENT",
	NUMBER:  "NUMBER",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	CARET:   "^",
	ASSIGN:  "=",
	EQ:      "==",
	NE:      "!=",
	LT:      "<",
	GT:      ">",
	LE:      "<=",
	GE:      ">=",
	AND:     "&&",
	OR:      "||",
	NOT:     "!",
	COMMA:   ",",
	LPAREN:  "(",
	RPAREN:  ")",
	LBRACE:  "{",
	RBRACE:  "}",
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TOKEN(%d)", int(t))
}

// IsOperator reports whether t is an operator token.
func (t TokenType) IsOperator() bool {
	return t >= PLUS && t <= NOT
}

// Token is a lexical token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// String renders the token for error messages.
func (t Token) String() string {
	switch t.Type {
	case IDENT, NUMBER:
		return fmt.Sprintf("%s %q", t.Type, t.Literal)
	case EOF:
		return "end of input"
	default:
		return fmt.Sprintf("%q", t.Literal)
	}
}
