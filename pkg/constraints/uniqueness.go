package constraints

import (
	"fmt"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// UniqueScope defines the scope of uniqueness checking
type UniqueScope int

const (
	// ScopeGlobal means the property must be unique across all nodes
	ScopeGlobal UniqueScope = iota
	// ScopeLabel means the property must be unique within nodes of the same label
	ScopeLabel
)

func (s UniqueScope) String() string {
	switch s {
	case ScopeGlobal:
		return "Global"
	case ScopeLabel:
		return "Label"
	default:
		return "Unknown"
	}
}

// UniquePropertyConstraint ensures a property value is unique across nodes.
// Natural keys are unique per node type, which is ScopeLabel over "key".
type UniquePropertyConstraint struct {
	// PropertyKey is the property that must be unique
	PropertyKey string

	// NodeLabel optionally restricts the constraint to nodes with this label
	NodeLabel string

	// Scope determines whether uniqueness is global or per-label
	Scope UniqueScope
}

// Name returns a human-readable name for this constraint
func (c *UniquePropertyConstraint) Name() string {
	if c.NodeLabel != "" {
		return fmt.Sprintf("Unique(%s.%s)", c.NodeLabel, c.PropertyKey)
	}
	if c.Scope == ScopeGlobal {
		return fmt.Sprintf("UniqueGlobal(%s)", c.PropertyKey)
	}
	return fmt.Sprintf("UniquePerLabel(%s)", c.PropertyKey)
}

// Validate checks that the property is unique according to the constraint scope
func (c *UniquePropertyConstraint) Validate(graph GraphReader) ([]Violation, error) {
	if c.NodeLabel != "" {
		return c.check(graph.FindNodesByLabel(c.NodeLabel), c.NodeLabel), nil
	}
	if c.Scope == ScopeGlobal {
		return c.check(graph.AllNodes(), ""), nil
	}

	var violations []Violation
	for _, label := range graph.Labels() {
		violations = append(violations, c.check(graph.FindNodesByLabel(label), label)...)
	}
	return violations, nil
}

// check reports every node after the first that repeats a value. Nodes
// arrive ordered by ID, so the oldest node is the one kept.
func (c *UniquePropertyConstraint) check(nodes []*storage.Node, label string) []Violation {
	var violations []Violation
	first := make(map[string]uint64)

	for _, node := range nodes {
		prop, exists := node.Properties[c.PropertyKey]
		if !exists || prop == nil {
			continue
		}

		valueKey := valueString(prop)
		original, dup := first[valueKey]
		if !dup {
			first[valueKey] = node.ID
			continue
		}

		nodeID := node.ID
		details := map[string]any{
			"property":     c.PropertyKey,
			"value":        valueKey,
			"duplicate_of": original,
		}
		msg := fmt.Sprintf("Duplicate value '%s' for property '%s' (also exists on node %d)",
			valueKey, c.PropertyKey, original)
		if label != "" {
			details["label"] = label
			msg = fmt.Sprintf("Duplicate value '%s' for property '%s' within label '%s' (also exists on node %d)",
				valueKey, c.PropertyKey, label, original)
		}
		violations = append(violations, Violation{
			Type:       UniquenessViolation,
			Severity:   Error,
			NodeID:     &nodeID,
			Constraint: c.Name(),
			Message:    msg,
			Details:    details,
		})
	}

	return violations
}

// valueString renders a property so that equal values compare equal;
// integral floats match the integer with the same value.
func valueString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
