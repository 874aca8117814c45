package validation

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidatorCollectsAllErrors(t *testing.T) {
	cv := NewConfigValidator("StoreConfig").
		Required("URI", "").
		Positive("Concurrency", 0).
		MinDuration("QueryTimeout", time.Millisecond, time.Second).
		OneOf("Backend", "sqlite", []string{"embedded", "neo4j"})

	if !cv.HasErrors() {
		t.Fatal("expected errors")
	}
	if got := len(cv.Errors()); got != 4 {
		t.Errorf("got %d errors, want 4", got)
	}
	if cv.Validate() == nil {
		t.Error("Validate() should return a joined error")
	}
}

func TestConfigValidatorWhen(t *testing.T) {
	cv := NewConfigValidator("Output")
	cv.When(false, func(v *ConfigValidator) { v.Required("Bucket", "") })
	if cv.HasErrors() {
		t.Error("When(false) should not run validations")
	}
	cv.When(true, func(v *ConfigValidator) { v.Required("Bucket", "") })
	if !cv.HasErrors() {
		t.Error("When(true) should run validations")
	}
}

func TestConfigValidatorCustomWraps(t *testing.T) {
	sentinel := errors.New("bad")
	err := NewConfigValidator("C").Custom("F", func() error { return sentinel }).Validate()
	if !errors.Is(err, sentinel) {
		t.Errorf("Custom error should wrap the cause, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	if DefaultOr("", "embedded") != "embedded" {
		t.Error("DefaultOr should fall back on zero value")
	}
	if DefaultOr("neo4j", "embedded") != "neo4j" {
		t.Error("DefaultOr should keep non-zero value")
	}
	if DefaultOrDuration(0, time.Second) != time.Second {
		t.Error("DefaultOrDuration should fall back on zero")
	}
}
