package storage

import (
	"errors"
	"strings"
	"testing"
)

func TestStorageErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"node", NodeNotFoundError("GetNode", 7), "GetNode node 7: node not found"},
		{"edge", EdgeNotFoundError("DeleteEdge", 3), "DeleteEdge edge 3: edge not found"},
		{"index", UniqueViolationError("CreateNode", "entity", "key", "a"), "CreateNode index (field entity.key, value a): unique constraint violated"},
		{"bare", NewError("Snapshot").Snapshot().Cause(ErrSnapshotFailed).Err(), "Snapshot snapshot: snapshot failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	err := UniqueViolationError("CreateNode", "entity", "key", "a")
	if !errors.Is(err, ErrUniqueViolation) {
		t.Error("errors.Is should reach the cause")
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "CreateNode" {
		t.Errorf("errors.As should expose the StorageError, got %v", se)
	}
	if !strings.Contains(err.Error(), "entity.key") {
		t.Errorf("message should name the index: %v", err)
	}
}
