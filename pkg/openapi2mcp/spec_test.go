package openapi2mcp

import (
	"errors"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

const petstoreYAML = `
openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
servers:
  - url: https://api.example.com/v1
paths:
  /pets:
    get:
      operationId: listPets
      summary: List all pets
      tags: [pets]
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
            format: int32
      responses:
        '200':
          description: A paged array of pets
    post:
      operationId: createPet
      summary: Create a pet
      tags: [pets]
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        '201':
          description: Created
  /pets/{id}:
    get:
      operationId: getPet
      summary: Info for a specific pet
      tags: [pets]
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        '200':
          description: The pet
components:
  schemas:
    Pet:
      type: object
      required: [name]
      properties:
        name:
          type: string
        tag:
          type: string
`

func TestLoadOpenAPISpecFromString(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(petstoreYAML)
	if err != nil {
		t.Fatalf("expected valid spec to load, got: %v", err)
	}
	if doc.Paths.Len() != 2 {
		t.Errorf("expected 2 paths, got %d", doc.Paths.Len())
	}
	if doc.Info.Title != "Petstore" {
		t.Errorf("expected title Petstore, got %q", doc.Info.Title)
	}
}

func TestLoadOpenAPISpecMissingPaths(t *testing.T) {
	_, err := LoadOpenAPISpecFromString(`
openapi: 3.0.3
info:
  title: Empty
  version: 1.0.0
paths: {}
`)
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SpecError, got: %v", err)
	}
	if se.Kind != SpecErrorMissingPaths {
		t.Errorf("expected kind %q, got %q", SpecErrorMissingPaths, se.Kind)
	}
}

func TestLoadOpenAPISpecUnsupportedVersion(t *testing.T) {
	doc := &openapi3.T{
		OpenAPI: "2.0",
		Info:    &openapi3.Info{Title: "Old", Version: "1.0.0"},
		Paths:   openapi3.NewPaths(),
	}
	_, err := LoadOpenAPISpecFromDoc(doc)
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SpecError, got: %v", err)
	}
	if se.Kind != SpecErrorUnsupportedVersion {
		t.Errorf("expected kind %q, got %q", SpecErrorUnsupportedVersion, se.Kind)
	}
}

func TestLoadOpenAPISpecUnparseable(t *testing.T) {
	_, err := LoadOpenAPISpecFromString("{not valid yaml: [")
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SpecError, got: %v", err)
	}
	if se.Kind != SpecErrorParse {
		t.Errorf("expected kind %q, got %q", SpecErrorParse, se.Kind)
	}
}

func TestLoadOpenAPISpecUnresolvedRef(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(petstoreYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Detach a parameter ref from its value to simulate a resolution gap.
	item := doc.Paths.Value("/pets/{id}")
	item.Get.Parameters[0].Ref = "#/components/parameters/Missing"
	item.Get.Parameters[0].Value = nil

	_, err = LoadOpenAPISpecFromDoc(doc)
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SpecError, got: %v", err)
	}
	if se.Kind != SpecErrorUnresolvedRef && se.Kind != SpecErrorParse {
		t.Errorf("expected unresolved reference kind, got %q", se.Kind)
	}
}

func TestLoadOpenAPISpecCircularRef(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(petstoreYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	doc.Components.Schemas["A"] = &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"b": {Ref: "#/components/schemas/B"},
		},
	}}
	doc.Components.Schemas["B"] = &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"a": {Ref: "#/components/schemas/A"},
		},
	}}

	_, err = LoadOpenAPISpecFromDoc(doc)
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SpecError, got: %v", err)
	}
	if se.Kind != SpecErrorCircularRef {
		t.Errorf("expected kind %q, got %q", SpecErrorCircularRef, se.Kind)
	}
	if se.Ref != "A" && se.Ref != "B" {
		t.Errorf("expected cycle participant in Ref, got %q", se.Ref)
	}
}

func TestFindCircularComponentRefSelfReference(t *testing.T) {
	doc := &openapi3.T{
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Node": {Value: &openapi3.Schema{
					Type: &openapi3.Types{"object"},
					Properties: openapi3.Schemas{
						"child": {Ref: "#/components/schemas/Node"},
					},
				}},
			},
		},
	}
	if got := findCircularComponentRef(doc); got != "Node" {
		t.Errorf("expected self-reference to be reported, got %q", got)
	}
}
