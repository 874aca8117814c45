package graphsync

import (
	"context"
)

// Store is the persistent graph store contract. Implementations speak a
// Cypher dialect with $parameters.
type Store interface {
	// Read runs a read-only query
	Read(ctx context.Context, cypher string, params map[string]any) ([]Record, error)

	// Write runs fn inside one write transaction. The transaction is
	// rolled back when fn returns an error.
	Write(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// EnsureUniqueKey makes the store reject a second node with the same
	// property value under label
	EnsureUniqueKey(ctx context.Context, label, property string) error

	Close(ctx context.Context) error
}

// Tx runs queries inside a Store.Write transaction
type Tx interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]Record, error)
}

// Record is one result row. Values are scalars, lists, maps, NodeRecord or
// RelationshipRecord.
type Record struct {
	Keys   []string
	Values []any
}

// Get returns the value of a column
func (r Record) Get(key string) (any, bool) {
	for i, k := range r.Keys {
		if k == key {
			return r.Values[i], true
		}
	}
	return nil, false
}

// NodeRecord is a node as returned by a store
type NodeRecord struct {
	ID     string
	Labels []string
	Props  map[string]any
}

// RelationshipRecord is a relationship as returned by a store
type RelationshipRecord struct {
	ID      string
	Type    string
	StartID string
	EndID   string
	Props   map[string]any
}
