package model

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrTypeConstraint   = errors.New("edge type constraint violated")
	ErrUnrecognizedType = errors.New("unrecognized type")
)

// ValidationError reports a malformed node, edge or attribute.
type ValidationError struct {
	Field  string // attribute path or struct field
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed for %s (%T): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// TypeConstraintError reports an edge whose endpoint types are not allowed
// for its label.
type TypeConstraintError struct {
	Label      Label
	SourceType NodeType
	DestType   NodeType
}

func (e *TypeConstraintError) Error() string {
	return fmt.Sprintf("%s edge cannot connect %s -> %s", e.Label, e.SourceType, e.DestType)
}

func (e *TypeConstraintError) Is(target error) bool { return target == ErrTypeConstraint }

// UnrecognizedTypeError reports an unknown node type or edge label.
type UnrecognizedTypeError struct {
	Kind  string // "node type" or "edge label"
	Value string
}

func (e *UnrecognizedTypeError) Error() string {
	return fmt.Sprintf("unrecognized %s %q", e.Kind, e.Value)
}

func (e *UnrecognizedTypeError) Is(target error) bool { return target == ErrUnrecognizedType }

func invalid(field string, value any, format string, args ...any) error {
	return &ValidationError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}
