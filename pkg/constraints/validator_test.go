package constraints

import (
	"testing"
)

func TestValidatorStoryGraphConstraints(t *testing.T) {
	graph := setupTestGraph(t)

	user := mustNode(t, graph, "source", map[string]any{"key": "u", "title": "User"})
	doc := mustNode(t, graph, "document", map[string]any{"key": "d", "title": "Doc"})
	mustEdge(t, graph, user, doc, "authored")

	v := NewValidator(nil)
	v.AddConstraints(StoryGraphConstraints())

	result, err := v.Validate(graph)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected a valid graph, got %+v", result.Violations)
	}
	if result.CheckedAt.IsZero() {
		t.Error("CheckedAt should be set")
	}

	mustNode(t, graph, "source", map[string]any{"key": "u"})
	mustEdge(t, graph, doc, user, "contains")

	result, err = v.Validate(graph)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Valid {
		t.Fatal("expected violations")
	}
	if got := len(result.GetViolationsByType(UniquenessViolation)); got != 1 {
		t.Errorf("uniqueness violations = %d, want 1", got)
	}
	if got := len(result.GetViolationsByType(ForbiddenEdge)); got != 1 {
		t.Errorf("forbidden edges = %d, want 1", got)
	}
	if got := len(result.GetViolationsBySeverity(Error)); got != 2 {
		t.Errorf("error violations = %d, want 2", got)
	}
}

func TestValidatorEmpty(t *testing.T) {
	graph := setupTestGraph(t)
	v := NewValidator(nil)

	result, err := v.Validate(graph)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.Valid || len(result.Violations) != 0 {
		t.Errorf("empty validator should pass, got %+v", result)
	}
	if len(v.GetConstraints()) != 0 {
		t.Error("expected no constraints")
	}
}
