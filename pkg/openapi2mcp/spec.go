// spec.go
package openapi2mcp

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// LoadOpenAPISpec loads, parses and validates an OpenAPI YAML or JSON file
// from the given path. Returns the document or a *SpecError.
// Example usage for LoadOpenAPISpec:
//
//	doc, err := openapi2mcp.LoadOpenAPISpec("petstore.yaml")
//	if err != nil { log.Fatal(err) }
//	ops, _ := openapi2mcp.ExtractOpenAPIOperations(doc)
func LoadOpenAPISpec(path string) (*openapi3.T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SpecError{Kind: SpecErrorParse, Detail: "failed to read spec file", Cause: err}
	}
	return LoadOpenAPISpecFromBytes(data)
}

// LoadOpenAPISpecFromURL fetches, parses and validates an OpenAPI spec from
// an HTTP(S) URL.
func LoadOpenAPISpecFromURL(ctx context.Context, specURL string) (*openapi3.T, error) {
	u, err := url.Parse(specURL)
	if err != nil {
		return nil, &SpecError{Kind: SpecErrorParse, Detail: "invalid spec URL", Cause: err}
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromURI(u)
	if err != nil {
		return nil, &SpecError{Kind: SpecErrorParse, Detail: "failed to fetch spec", Cause: err}
	}
	return validateLoadedSpec(ctx, doc)
}

// LoadOpenAPISpecFromString loads and validates an OpenAPI YAML or JSON spec
// from a string.
func LoadOpenAPISpecFromString(data string) (*openapi3.T, error) {
	return LoadOpenAPISpecFromBytes([]byte(data))
}

// LoadOpenAPISpecFromBytes loads and validates an OpenAPI YAML or JSON spec
// from a byte slice. YAML vs JSON is detected by content.
func LoadOpenAPISpecFromBytes(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, &SpecError{Kind: SpecErrorParse, Detail: "failed to parse OpenAPI spec", Cause: err}
	}
	return validateLoadedSpec(loader.Context, doc)
}

// LoadOpenAPISpecFromDoc validates an already-parsed OpenAPI document so that
// in-memory documents go through the same checks as file and URL sources.
func LoadOpenAPISpecFromDoc(doc *openapi3.T) (*openapi3.T, error) {
	return validateLoadedSpec(context.Background(), doc)
}

// validateLoadedSpec runs the validation stages in order: supported version,
// non-empty paths, structural validation, reference resolution, circularity.
func validateLoadedSpec(ctx context.Context, doc *openapi3.T) (*openapi3.T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if doc.OpenAPI == "" {
		return nil, &SpecError{Kind: SpecErrorUnsupportedVersion, Detail: "missing openapi version field"}
	}
	if !strings.HasPrefix(doc.OpenAPI, "3.") {
		return nil, &SpecError{Kind: SpecErrorUnsupportedVersion, Detail: fmt.Sprintf("openapi version %q is not supported (3.x required)", doc.OpenAPI)}
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, &SpecError{Kind: SpecErrorMissingPaths, Detail: "spec declares no paths"}
	}
	if ref := findCircularComponentRef(doc); ref != "" {
		return nil, &SpecError{Kind: SpecErrorCircularRef, Ref: ref}
	}
	if err := doc.Validate(ctx); err != nil {
		if ref, ok := unresolvedRefFromError(err); ok {
			return nil, &SpecError{Kind: SpecErrorUnresolvedRef, Ref: ref, Cause: err}
		}
		return nil, &SpecError{Kind: SpecErrorParse, Detail: "OpenAPI spec validation failed", Cause: err}
	}
	if ref := findUnresolvedRef(doc); ref != "" {
		return nil, &SpecError{Kind: SpecErrorUnresolvedRef, Ref: ref}
	}
	return doc, nil
}

// unresolvedRefFromError recognizes kin-openapi's resolution failures so they
// surface as unresolved_reference rather than a generic validation error.
func unresolvedRefFromError(err error) (string, bool) {
	msg := err.Error()
	for _, marker := range []string{"found unresolved ref", "invalid reference", "cannot resolve", "failed to resolve"} {
		if idx := strings.Index(msg, marker); idx != -1 {
			ref := msg[idx+len(marker):]
			ref = strings.Trim(ref, " :\"'")
			if cut := strings.IndexAny(ref, "\"'\n"); cut != -1 {
				ref = ref[:cut]
			}
			return ref, true
		}
	}
	return "", false
}

// findUnresolvedRef walks operation parameters, bodies and component schemas
// looking for a $ref the loader could not bind to a value.
func findUnresolvedRef(doc *openapi3.T) string {
	for _, item := range doc.Paths.Map() {
		for _, op := range item.Operations() {
			for _, p := range op.Parameters {
				if p == nil {
					continue
				}
				if p.Ref != "" && p.Value == nil {
					return p.Ref
				}
				if p.Value != nil && p.Value.Schema != nil && p.Value.Schema.Ref != "" && p.Value.Schema.Value == nil {
					return p.Value.Schema.Ref
				}
			}
			if rb := op.RequestBody; rb != nil && rb.Ref != "" && rb.Value == nil {
				return rb.Ref
			}
		}
	}
	if doc.Components != nil {
		for _, ref := range doc.Components.Schemas {
			if ref != nil && ref.Ref != "" && ref.Value == nil {
				return ref.Ref
			}
		}
	}
	return ""
}

// findCircularComponentRef detects reference cycles among named component
// schemas before extraction recurses into them. Returns the name of a schema
// participating in a cycle, or "".
func findCircularComponentRef(doc *openapi3.T) string {
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return ""
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(doc.Components.Schemas))
	var visit func(name string) string
	visit = func(name string) string {
		switch state[name] {
		case visiting:
			return name
		case done:
			return ""
		}
		state[name] = visiting
		if ref, ok := doc.Components.Schemas[name]; ok {
			for _, target := range schemaRefTargets(ref) {
				if cyclic := visit(target); cyclic != "" {
					return cyclic
				}
			}
		}
		state[name] = done
		return ""
	}
	for name := range doc.Components.Schemas {
		if cyclic := visit(name); cyclic != "" {
			return cyclic
		}
	}
	return ""
}

// schemaRefTargets collects the component schema names referenced by ref,
// without following resolved values of named references (that is the cycle
// detector's job). The top-level ref is the component being visited, so its
// own name is not an edge unless it is itself a bare $ref.
func schemaRefTargets(ref *openapi3.SchemaRef) []string {
	if ref == nil {
		return nil
	}
	var targets []string
	var walkRef func(r *openapi3.SchemaRef)
	walkValue := func(s *openapi3.Schema) {
		if s == nil {
			return
		}
		for _, sub := range s.Properties {
			walkRef(sub)
		}
		walkRef(s.Items)
		for _, sub := range s.AllOf {
			walkRef(sub)
		}
		for _, sub := range s.AnyOf {
			walkRef(sub)
		}
		for _, sub := range s.OneOf {
			walkRef(sub)
		}
		if s.AdditionalProperties.Schema != nil {
			walkRef(s.AdditionalProperties.Schema)
		}
	}
	walkRef = func(r *openapi3.SchemaRef) {
		if r == nil {
			return
		}
		if r.Ref != "" {
			if name, ok := strings.CutPrefix(r.Ref, "#/components/schemas/"); ok {
				targets = append(targets, name)
			}
			return
		}
		walkValue(r.Value)
	}
	if ref.Ref != "" {
		if name, ok := strings.CutPrefix(ref.Ref, "#/components/schemas/"); ok {
			targets = append(targets, name)
		}
	} else {
		walkValue(ref.Value)
	}
	return targets
}
