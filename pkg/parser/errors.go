package parser

import (
	"fmt"

	"github.com/leapstack-labs/cellgen/pkg/token"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken   = "unexpected %s, expected %s"
	ErrIllegalCharacter  = "illegal character %q"
	ErrInvalidNumber     = "invalid number literal %q"
	ErrUnknownFunction   = "unknown function %q"
	ErrArgumentCount     = "%s expects %s, got %d"
	ErrBoundVariable     = "%s of diff must be a variable"
	ErrUnterminatedUnits = "unterminated units annotation"
)
