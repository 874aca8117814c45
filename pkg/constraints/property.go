package constraints

import (
	"fmt"
	"time"
)

// PropertyKind is the expected kind of a stored property value
type PropertyKind int

const (
	AnyKind PropertyKind = iota
	StringKind
	IntKind
	FloatKind
	BoolKind
	TimeKind
)

func (k PropertyKind) String() string {
	switch k {
	case StringKind:
		return "string"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case BoolKind:
		return "bool"
	case TimeKind:
		return "time"
	default:
		return "any"
	}
}

func kindOf(v any) PropertyKind {
	switch v.(type) {
	case string:
		return StringKind
	case int64:
		return IntKind
	case float64:
		return FloatKind
	case bool:
		return BoolKind
	case time.Time:
		return TimeKind
	}
	return AnyKind
}

// PropertyConstraint validates a property of every node with a label
type PropertyConstraint struct {
	NodeLabel    string       // Label to apply constraint to
	PropertyName string       // Name of the property
	Kind         PropertyKind // Expected kind (AnyKind = not checked)
	Required     bool         // Whether property must exist
	NonEmpty     bool         // Strings must not be empty
}

// Name returns the constraint name
func (pc *PropertyConstraint) Name() string {
	return fmt.Sprintf("PropertyConstraint(%s.%s)", pc.NodeLabel, pc.PropertyName)
}

// Validate checks the property constraint against all nodes with the target label
func (pc *PropertyConstraint) Validate(graph GraphReader) ([]Violation, error) {
	violations := make([]Violation, 0)

	for _, node := range graph.FindNodesByLabel(pc.NodeLabel) {
		nodeID := node.ID
		value, exists := node.GetProperty(pc.PropertyName)

		if !exists {
			if pc.Required {
				violations = append(violations, Violation{
					Type:       MissingProperty,
					Severity:   Error,
					NodeID:     &nodeID,
					Constraint: pc.Name(),
					Message:    fmt.Sprintf("Node %d missing required property '%s'", node.ID, pc.PropertyName),
					Details: map[string]any{
						"label":    pc.NodeLabel,
						"property": pc.PropertyName,
					},
				})
			}
			continue
		}

		if actual := kindOf(value); pc.Kind != AnyKind && actual != pc.Kind {
			violations = append(violations, Violation{
				Type:       InvalidType,
				Severity:   Error,
				NodeID:     &nodeID,
				Constraint: pc.Name(),
				Message: fmt.Sprintf("Node %d property '%s' is %s, expected %s",
					node.ID, pc.PropertyName, actual, pc.Kind),
				Details: map[string]any{
					"label":         pc.NodeLabel,
					"property":      pc.PropertyName,
					"actual_type":   actual.String(),
					"expected_type": pc.Kind.String(),
				},
			})
			continue
		}

		if s, ok := value.(string); ok && pc.NonEmpty && s == "" {
			violations = append(violations, Violation{
				Type:       MissingProperty,
				Severity:   Warning,
				NodeID:     &nodeID,
				Constraint: pc.Name(),
				Message:    fmt.Sprintf("Node %d property '%s' is empty", node.ID, pc.PropertyName),
				Details: map[string]any{
					"label":    pc.NodeLabel,
					"property": pc.PropertyName,
				},
			})
		}
	}

	return violations, nil
}
