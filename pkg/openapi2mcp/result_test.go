package openapi2mcp

import (
	"errors"
	"testing"
)

func TestResultOk(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() {
		t.Fatalf("Ok result should report IsOk")
	}
	if r.Value() != 42 {
		t.Errorf("Value = %d, want 42", r.Value())
	}
	if r.Err() != nil {
		t.Errorf("Err = %v, want nil", r.Err())
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Errorf("Unwrap = (%d, %v), want (42, nil)", v, err)
	}
}

func TestResultErr(t *testing.T) {
	sentinel := errors.New("boom")
	r := Err[string](sentinel)
	if r.IsOk() {
		t.Fatalf("Err result should not report IsOk")
	}
	if !errors.Is(r.Err(), sentinel) {
		t.Errorf("Err = %v, want sentinel", r.Err())
	}
	if r.Value() != "" {
		t.Errorf("Value of Err result should be the zero value, got %q", r.Value())
	}
}

func TestResultCarriesTypedErrors(t *testing.T) {
	r := Err[*ToolOutput](&ToolError{Kind: ToolErrorTimeout})
	var terr *ToolError
	if !errors.As(r.Err(), &terr) {
		t.Fatalf("expected errors.As to recover *ToolError")
	}
	if terr.Kind != ToolErrorTimeout {
		t.Errorf("Kind = %q, want %q", terr.Kind, ToolErrorTimeout)
	}
}
