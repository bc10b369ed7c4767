// schema.go
package openapi2mcp

import (
	"fmt"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// maxSchemaDepth bounds recursion into nested schemas. Circular component
// references are rejected at load time, so this only guards degenerate
// hand-built documents.
const maxSchemaDepth = 32

// escapeParameterName converts parameter names with brackets to MCP-compatible
// names. For example "filter[created_at]" becomes "filter_created_at_". The
// trailing underscore distinguishes escaped names from naturally occurring ones.
func escapeParameterName(name string) string {
	if !strings.ContainsAny(name, "[]") {
		return name
	}
	escaped := strings.ReplaceAll(name, "[", "_")
	escaped = strings.ReplaceAll(escaped, "]", "_")
	if !strings.HasSuffix(escaped, "_") {
		escaped += "_"
	}
	return escaped
}

// buildParameterNameMapping creates a mapping from escaped parameter names
// back to the original names, used when looking up argument values at invoke
// time.
func buildParameterNameMapping(params openapi3.Parameters) map[string]string {
	mapping := make(map[string]string)
	for _, paramRef := range params {
		if paramRef == nil || paramRef.Value == nil {
			continue
		}
		p := paramRef.Value
		if escaped := escapeParameterName(p.Name); escaped != p.Name {
			mapping[escaped] = p.Name
		}
	}
	return mapping
}

// extractProperty recursively converts an OpenAPI SchemaRef into a
// JSON-schema-shaped map. Handles allOf, oneOf, anyOf, enum, default,
// example, object properties and array items.
func extractProperty(s *openapi3.SchemaRef) map[string]any {
	return extractPropertyDepth(s, 0)
}

func extractPropertyDepth(s *openapi3.SchemaRef, depth int) map[string]any {
	if s == nil || s.Value == nil || depth > maxSchemaDepth {
		return nil
	}
	val := s.Value
	prop := map[string]any{}

	// allOf merges all subschemas into one object.
	if len(val.AllOf) > 0 {
		for _, sub := range val.AllOf {
			for k, v := range extractPropertyDepth(sub, depth+1) {
				prop[k] = v
			}
		}
	}
	if len(val.OneOf) > 0 {
		var oneOf []any
		for _, sub := range val.OneOf {
			if p := extractPropertyDepth(sub, depth+1); p != nil {
				oneOf = append(oneOf, p)
			}
		}
		prop["oneOf"] = oneOf
	}
	if len(val.AnyOf) > 0 {
		var anyOf []any
		for _, sub := range val.AnyOf {
			if p := extractPropertyDepth(sub, depth+1); p != nil {
				anyOf = append(anyOf, p)
			}
		}
		prop["anyOf"] = anyOf
	}
	if val.Type != nil && len(*val.Type) > 0 {
		prop["type"] = (*val.Type)[0]
	}
	if val.Format != "" {
		prop["format"] = val.Format
	}
	if val.Description != "" {
		prop["description"] = val.Description
	}
	if len(val.Enum) > 0 {
		prop["enum"] = val.Enum
	}
	if val.Default != nil {
		prop["default"] = val.Default
	}
	if val.Example != nil {
		prop["example"] = val.Example
	}
	if val.Type != nil && val.Type.Is("object") && val.Properties != nil {
		objProps := map[string]any{}
		for name, sub := range val.Properties {
			objProps[name] = extractPropertyDepth(sub, depth+1)
		}
		prop["properties"] = objProps
		if len(val.Required) > 0 {
			prop["required"] = val.Required
		}
	}
	if val.Type != nil && val.Type.Is("array") && val.Items != nil {
		prop["items"] = extractPropertyDepth(val.Items, depth+1)
	}
	return prop
}

// BuildInputSchema converts OpenAPI parameters and request body schema to a
// single JSON Schema object for MCP tool input validation. Each parameter
// property is annotated with its location under "x-parameter-location", and
// the request body lives under the reserved "requestBody" key. The required
// flag of every parameter is propagated faithfully; invoke handlers enforce
// it before any outbound call.
// Example usage for BuildInputSchema:
//
//	schema := openapi2mcp.BuildInputSchema(op.Parameters, op.RequestBody)
func BuildInputSchema(params openapi3.Parameters, requestBody *openapi3.RequestBodyRef) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	properties := schema["properties"].(map[string]any)
	var required []string

	for _, paramRef := range params {
		if paramRef == nil || paramRef.Value == nil {
			continue
		}
		p := paramRef.Value
		if p.In != "query" && p.In != "path" && p.In != "header" && p.In != "cookie" {
			fmt.Fprintf(os.Stderr, "[WARN] Parameter '%s' uses unsupported location '%s'.\n", p.Name, p.In)
			continue
		}
		prop := extractProperty(p.Schema)
		if prop == nil {
			prop = map[string]any{"type": "string"}
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		prop["x-parameter-location"] = p.In
		escapedName := escapeParameterName(p.Name)
		properties[escapedName] = prop
		if p.Required {
			required = append(required, escapedName)
		}
	}

	if requestBody != nil && requestBody.Value != nil {
		if mt := jsonContent(requestBody.Value.Content); mt != nil && mt.Schema != nil {
			bodyProp := extractProperty(mt.Schema)
			if bodyProp == nil {
				bodyProp = map[string]any{"type": "object"}
			}
			bodyProp["description"] = "The JSON request body."
			properties["requestBody"] = bodyProp
			if requestBody.Value.Required {
				required = append(required, "requestBody")
			}
		}
	}

	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// jsonContent returns the JSON-ish media type of a request body, tolerating
// content-type parameters like "; charset=utf-8".
func jsonContent(content openapi3.Content) *openapi3.MediaType {
	for name, mt := range content {
		base := name
		if idx := strings.IndexByte(name, ';'); idx > 0 {
			base = strings.TrimSpace(name[:idx])
		}
		switch base {
		case "application/json", "application/vnd.api+json":
			return mt
		}
	}
	for name := range content {
		fmt.Fprintf(os.Stderr, "[WARN] Request body uses media type '%s'. Only JSON bodies are fully supported.\n", name)
	}
	return nil
}
