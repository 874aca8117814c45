package constraints

import (
	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// GraphReader defines the read-only operations needed for constraint validation.
// *storage.GraphStorage satisfies it.
type GraphReader interface {
	GetNode(nodeID uint64) (*storage.Node, error)
	AllNodes() []*storage.Node
	FindNodesByLabel(label string) []*storage.Node
	Labels() []string

	AllEdges() []*storage.Edge
	FindEdgesByType(edgeType string) []*storage.Edge
	GetOutgoingEdges(nodeID uint64) ([]*storage.Edge, error)
	GetIncomingEdges(nodeID uint64) ([]*storage.Edge, error)
}

// Severity indicates the importance of a violation
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ViolationType categorizes the type of constraint violation
type ViolationType int

const (
	MissingProperty ViolationType = iota
	InvalidType
	CardinalityViolation
	ForbiddenEdge
	InvalidStructure
	UniquenessViolation
)

func (vt ViolationType) String() string {
	switch vt {
	case MissingProperty:
		return "MissingProperty"
	case InvalidType:
		return "InvalidType"
	case CardinalityViolation:
		return "CardinalityViolation"
	case ForbiddenEdge:
		return "ForbiddenEdge"
	case InvalidStructure:
		return "InvalidStructure"
	case UniquenessViolation:
		return "UniquenessViolation"
	default:
		return "Unknown"
	}
}

// Violation represents a constraint violation
type Violation struct {
	Type       ViolationType
	Severity   Severity
	NodeID     *uint64
	EdgeID     *uint64
	Constraint string
	Message    string
	Details    map[string]any
}

// Constraint is the interface that all constraint types must implement.
type Constraint interface {
	// Validate checks the constraint against the graph and returns the
	// violations found (empty if valid)
	Validate(graph GraphReader) ([]Violation, error)

	// Name returns a human-readable name for the constraint
	Name() string
}
