package constraints

import (
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/model"
)

// ValidationResult contains the results of validating a graph against constraints
type ValidationResult struct {
	Valid      bool        // True if no violations found
	Violations []Violation // List of all violations
	CheckedAt  time.Time   // When validation was performed
}

// GetViolationsBySeverity returns violations filtered by severity level
func (vr *ValidationResult) GetViolationsBySeverity(severity Severity) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Severity == severity {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// GetViolationsByType returns violations filtered by type
func (vr *ValidationResult) GetViolationsByType(violationType ViolationType) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Type == violationType {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Validator manages a set of constraints and validates graphs against them
type Validator struct {
	constraints []Constraint
	logger      logging.Logger
}

// NewValidator creates a new empty validator
func NewValidator(logger logging.Logger) *Validator {
	return &Validator{
		constraints: make([]Constraint, 0),
		logger:      logging.OrNop(logger).With(logging.Component("constraints")),
	}
}

// StoryGraphConstraints returns the checks a synchronized story graph must
// pass: natural keys unique per node type, keys and titles present, typed
// edges, and at most one author per document.
func StoryGraphConstraints() []Constraint {
	list := make([]Constraint, 0, 2*len(model.NodeTypes)+2)
	for _, t := range model.NodeTypes {
		list = append(list, &UniquePropertyConstraint{PropertyKey: model.PropKey, NodeLabel: string(t), Scope: ScopeLabel})
		list = append(list, &PropertyConstraint{NodeLabel: string(t), PropertyName: model.PropKey, Kind: StringKind, Required: true, NonEmpty: true})
	}
	list = append(list,
		&EdgeTypeConstraint{},
		&CardinalityConstraint{NodeLabel: string(model.Document), EdgeType: string(model.Authored), Direction: Incoming, Max: 1},
	)
	return list
}

// AddConstraint adds a constraint to the validator
func (v *Validator) AddConstraint(constraint Constraint) {
	v.constraints = append(v.constraints, constraint)
}

// AddConstraints adds multiple constraints to the validator
func (v *Validator) AddConstraints(constraints []Constraint) {
	v.constraints = append(v.constraints, constraints...)
}

// Validate runs all constraints against the graph and returns the results
func (v *Validator) Validate(graph GraphReader) (*ValidationResult, error) {
	timer := logging.StartTimer(v.logger, "constraint validation", logging.Count(len(v.constraints)))
	result := &ValidationResult{
		Valid:      true,
		Violations: make([]Violation, 0),
		CheckedAt:  time.Now(),
	}

	for _, constraint := range v.constraints {
		violations, err := constraint.Validate(graph)
		if err != nil {
			timer.EndError(err)
			return nil, err
		}

		if len(violations) > 0 {
			v.logger.Warn("constraint violated",
				logging.String("constraint", constraint.Name()),
				logging.Count(len(violations)))
			result.Valid = false
			result.Violations = append(result.Violations, violations...)
		}
	}

	timer.End(logging.Int("violations", len(result.Violations)))
	return result, nil
}

// GetConstraints returns all constraints in the validator
func (v *Validator) GetConstraints() []Constraint {
	return v.constraints
}
