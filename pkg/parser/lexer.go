package parser

import (
	"github.com/leapstack-labs/cellgen/pkg/token"
)

// Lexer tokenizes equation text.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	two := func(t token.TokenType, lit string) token.Token {
		l.readChar()
		l.readChar()
		return token.Token{Type: t, Literal: lit, Pos: pos}
	}
	one := func(t token.TokenType) token.Token {
		lit := string(l.ch)
		l.readChar()
		return token.Token{Type: t, Literal: lit, Pos: pos}
	}

	switch l.ch {
	case 0:
		return token.Token{Type: token.EOF, Pos: pos}
	case '+':
		return one(token.PLUS)
	case '-':
		return one(token.MINUS)
	case '*':
		return one(token.STAR)
	case '/':
		return one(token.SLASH)
	case '^':
		return one(token.CARET)
	case ',':
		return one(token.COMMA)
	case '(':
		return one(token.LPAREN)
	case ')':
		return one(token.RPAREN)
	case '{':
		return one(token.LBRACE)
	case '}':
		return one(token.RBRACE)
	case '=':
		if l.peekChar() == '=' {
			return two(token.EQ, "==")
		}
		return one(token.ASSIGN)
	case '!':
		if l.peekChar() == '=' {
			return two(token.NE, "!=")
		}
		return one(token.NOT)
	case '<':
		if l.peekChar() == '=' {
			return two(token.LE, "<=")
		}
		return one(token.LT)
	case '>':
		if l.peekChar() == '=' {
			return two(token.GE, ">=")
		}
		return one(token.GT)
	case '&':
		if l.peekChar() == '&' {
			return two(token.AND, "&&")
		}
		return one(token.ILLEGAL)
	case '|':
		if l.peekChar() == '|' {
			return two(token.OR, "||")
		}
		return one(token.ILLEGAL)
	}

	switch {
	case isLetter(l.ch):
		return token.Token{Type: token.IDENT, Literal: l.readIdentifier(), Pos: pos}
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return token.Token{Type: token.NUMBER, Literal: l.readNumber(), Pos: pos}
	default:
		return one(token.ILLEGAL)
	}
}

// skipWhitespaceAndComments skips blanks and # comments up to end of line.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch != '#' {
			return
		}
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads digits, an optional fraction and an optional exponent.
// An 'e' is only part of the number when digits follow it.
func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		signed := (next == '+' || next == '-') && l.readPos+1 < len(l.input) && isDigit(l.input[l.readPos+1])
		if isDigit(next) || signed {
			l.readChar()
			if signed {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[start:l.pos]
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
