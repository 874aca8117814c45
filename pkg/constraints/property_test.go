package constraints

import (
	"testing"
	"time"
)

func TestPropertyConstraint(t *testing.T) {
	graph := setupTestGraph(t)

	mustNode(t, graph, "document", map[string]any{"key": "d1", "date_processed": time.Now()})
	mustNode(t, graph, "document", map[string]any{"title": "no key"})
	mustNode(t, graph, "document", map[string]any{"key": int64(3)})
	mustNode(t, graph, "document", map[string]any{"key": ""})

	tests := []struct {
		name       string
		constraint *PropertyConstraint
		want       map[ViolationType]int
	}{
		{
			name:       "required string key",
			constraint: &PropertyConstraint{NodeLabel: "document", PropertyName: "key", Kind: StringKind, Required: true, NonEmpty: true},
			want:       map[ViolationType]int{MissingProperty: 2, InvalidType: 1},
		},
		{
			name:       "optional time",
			constraint: &PropertyConstraint{NodeLabel: "document", PropertyName: "date_processed", Kind: TimeKind},
			want:       map[ViolationType]int{},
		},
		{
			name:       "wrong label",
			constraint: &PropertyConstraint{NodeLabel: "source", PropertyName: "key", Required: true},
			want:       map[ViolationType]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations, err := tt.constraint.Validate(graph)
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			got := make(map[ViolationType]int)
			for _, v := range violations {
				got[v.Type]++
			}
			if len(got) != len(tt.want) {
				t.Fatalf("violations by type = %v, want %v", got, tt.want)
			}
			for typ, n := range tt.want {
				if got[typ] != n {
					t.Errorf("%v: got %d, want %d", typ, got[typ], n)
				}
			}
		})
	}
}
