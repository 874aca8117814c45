package graphsync

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDriverNotInitialized is returned by every call on a Driver whose
	// backend failed to open
	ErrDriverNotInitialized = errors.New("graph driver not initialized")

	// ErrStoreUnavailable matches *StoreUnavailableError
	ErrStoreUnavailable = errors.New("graph store unavailable")

	// ErrRange matches *RangeError
	ErrRange = errors.New("invalid time range")

	// ErrEndpointMissing means an edge could not be created because one of
	// its endpoint nodes is not in the store
	ErrEndpointMissing = errors.New("edge endpoint not found in store")

	// ErrNotFound means a lookup matched nothing
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is wrapped by stores when a write breaks a uniqueness
	// constraint
	ErrDuplicate = errors.New("uniqueness constraint violated")

	// ErrReadOnly is returned when a read call is given a writing query
	ErrReadOnly = errors.New("query writes to the store")
)

// StoreUnavailableError reports a backend that could not be reached
type StoreUnavailableError struct {
	Backend string
	URI     string
	Cause   error
}

func (e *StoreUnavailableError) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("%s store at %s unavailable: %v", e.Backend, e.URI, e.Cause)
	}
	return fmt.Sprintf("%s store unavailable: %v", e.Backend, e.Cause)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Cause }

func (e *StoreUnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

// StoreError wraps a failed query or transaction. It is never reported as
// an empty result.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("graphsync %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// RangeError reports a time range whose start is not before its end
type RangeError struct {
	Field string
	Start time.Time
	End   time.Time
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("time range on %s: start %s is not before end %s",
		e.Field, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }
