package validation

import (
	"strings"
	"testing"
)

type queryRequest struct {
	Label string `validate:"required,identifier"`
	Limit int    `validate:"gte=0,lte=1000"`
	Mode  string `validate:"omitempty,oneof=force hierarchical"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name        string
		req         queryRequest
		expectError bool
		errorField  string
	}{
		{"valid", queryRequest{Label: "entity", Limit: 10}, false, ""},
		{"valid with mode", queryRequest{Label: "document", Mode: "force"}, false, ""},
		{"missing label", queryRequest{Limit: 1}, true, "Label"},
		{"injected label", queryRequest{Label: "entity) DETACH DELETE (n"}, true, "Label"},
		{"negative limit", queryRequest{Label: "action", Limit: -1}, true, "Limit"},
		{"unknown mode", queryRequest{Label: "action", Mode: "radial"}, true, "Mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.req)
			if tt.expectError && err == nil {
				t.Fatal("Expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if tt.expectError && !strings.Contains(err.Error(), tt.errorField) {
				t.Errorf("error %q does not mention %s", err, tt.errorField)
			}
		})
	}
}

func TestStructNil(t *testing.T) {
	if err := Struct(nil); err == nil {
		t.Error("expected error for nil value")
	}
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"entity", "source_type", "_private", "Label2"}
	invalid := []string{"", "2label", "has space", "a-b", "x`y", strings.Repeat("a", 65)}

	for _, name := range valid {
		if err := ValidateIdentifier(name); err != nil {
			t.Errorf("ValidateIdentifier(%q) = %v", name, err)
		}
	}
	for _, name := range invalid {
		if err := ValidateIdentifier(name); err == nil {
			t.Errorf("ValidateIdentifier(%q) should fail", name)
		}
	}
}
