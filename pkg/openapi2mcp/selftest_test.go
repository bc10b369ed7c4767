package openapi2mcp

import (
	"strings"
	"testing"
)

func TestSelfTestOpenAPIMCP_Pass(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(petstoreYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ops, _ := ExtractOpenAPIOperations(doc)
	if err := SelfTestOpenAPIMCP(doc, opIDs(ops)); err != nil {
		t.Fatalf("expected selftest to pass, got: %v", err)
	}
}

func TestSelfTestOpenAPIMCP_MissingTool(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(petstoreYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	err = SelfTestOpenAPIMCP(doc, []string{"listPets"})
	if err == nil {
		t.Fatalf("expected selftest failure for missing tools")
	}
	if !strings.Contains(err.Error(), "issues found") {
		t.Errorf("unexpected error: %v", err)
	}
}
