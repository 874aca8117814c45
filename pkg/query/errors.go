package query

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax          = errors.New("syntax error")
	ErrUnboundVariable = errors.New("unbound variable")
	ErrMissingParam    = errors.New("missing parameter")
	ErrUnknownFunction = errors.New("unknown function")
	ErrType            = errors.New("type error")
)

// SyntaxError reports where a query failed to lex or parse.
type SyntaxError struct {
	Pos    int
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

func syntaxErrorAt(tok Token, format string, args ...any) error {
	return &SyntaxError{Pos: tok.Pos, Line: tok.Line, Column: tok.Column, Msg: fmt.Sprintf(format, args...)}
}

func typeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrType, fmt.Sprintf(format, args...))
}
