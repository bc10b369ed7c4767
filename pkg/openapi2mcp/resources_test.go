package openapi2mcp

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildSchemaResources(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(petstoreYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	resources, warnings := BuildSchemaResources(doc)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	// Whole-spec resource plus the Pet component.
	if len(resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(resources))
	}
	if resources[0].URI != SpecResourceURI {
		t.Errorf("expected spec resource first, got %q", resources[0].URI)
	}

	pet := resources[1]
	if pet.URI != "schema://Pet" || pet.MIMEType != SchemaMIMEType {
		t.Errorf("unexpected pet resource: %+v", pet)
	}
	content, err := pet.Read().Unwrap()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var schema map[string]any
	if err := json.Unmarshal([]byte(content.Text), &schema); err != nil {
		t.Fatalf("resource content is not JSON: %v", err)
	}
	if schema["type"] != "object" {
		t.Errorf("expected object schema, got %v", schema["type"])
	}
	props := schema["properties"].(map[string]any)
	if _, ok := props["name"]; !ok {
		t.Errorf("Pet schema lost its properties: %v", props)
	}
}

func TestBuildSchemaResourcesSortedAndComplete(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(petstoreYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	doc.Components.Schemas["Zebra"] = doc.Components.Schemas["Pet"]
	doc.Components.Schemas["Ant"] = doc.Components.Schemas["Pet"]

	resources, _ := BuildSchemaResources(doc)
	var uris []string
	for _, r := range resources {
		if strings.HasPrefix(r.URI, "schema://") {
			uris = append(uris, r.URI)
		}
	}
	want := []string{"schema://Ant", "schema://Pet", "schema://Zebra"}
	if len(uris) != len(want) {
		t.Fatalf("expected %v, got %v", want, uris)
	}
	for i := range want {
		if uris[i] != want[i] {
			t.Fatalf("expected sorted resources %v, got %v", want, uris)
		}
	}
}

func TestBuildSchemaResourcesSpecDocument(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(petstoreYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	resources, _ := BuildSchemaResources(doc)
	content, err := resources[0].Read().Unwrap()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.Contains(content.Text, "Petstore") {
		t.Errorf("spec resource should contain the document, got %d bytes", len(content.Text))
	}
	if content.MIMEType != "application/json" {
		t.Errorf("expected application/json, got %q", content.MIMEType)
	}
}

func TestBuildSchemaResourcesNoComponents(t *testing.T) {
	doc := minimalOpenAPIDoc()
	resources, warnings := BuildSchemaResources(doc)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(resources) != 1 || resources[0].URI != SpecResourceURI {
		t.Errorf("expected only the spec resource, got %+v", resources)
	}
}
