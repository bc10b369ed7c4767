// extract.go
package openapi2mcp

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// methodOrder fixes the extraction order of operations within one path so
// output is deterministic across runs.
var methodOrder = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS", "TRACE"}

// ExtractOpenAPIOperations extracts all operations from the OpenAPI spec,
// merging path-level and operation-level parameters. Operations are ordered
// by path, then by a fixed method precedence (GET, POST, PUT, PATCH, DELETE,
// then the rest). Deprecated operations are skipped. A malformed operation
// yields one ExtractionError and does not drop the remaining operations.
// Example usage for ExtractOpenAPIOperations:
//
//	doc, err := openapi2mcp.LoadOpenAPISpec("petstore.yaml")
//	if err != nil { log.Fatal(err) }
//	ops, issues := openapi2mcp.ExtractOpenAPIOperations(doc)
func ExtractOpenAPIOperations(doc *openapi3.T) ([]OpenAPIOperation, []ExtractionError) {
	var ops []OpenAPIOperation
	var issues []ExtractionError

	pathMap := doc.Paths.Map()
	paths := make([]string, 0, len(pathMap))
	for path := range pathMap {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		pathItem := pathMap[path]
		byMethod := pathItem.Operations()
		for _, method := range methodOrder {
			op, ok := byMethod[method]
			if !ok || op == nil {
				continue
			}
			if op.Deprecated {
				continue
			}
			extracted, err := extractOperation(doc, path, method, pathItem, op)
			if err != nil {
				issues = append(issues, *err)
				continue
			}
			ops = append(ops, extracted)
		}
	}
	return ops, issues
}

// extractOperation builds one OpenAPIOperation, reporting malformed parameter
// or body entries instead of propagating them into synthesis.
func extractOperation(doc *openapi3.T, path, method string, pathItem *openapi3.PathItem, op *openapi3.Operation) (OpenAPIOperation, *ExtractionError) {
	merged := openapi3.Parameters{}
	merged = append(merged, pathItem.Parameters...)
	merged = append(merged, op.Parameters...)
	for _, p := range merged {
		if p == nil || p.Value == nil {
			return OpenAPIOperation{}, &ExtractionError{Path: path, Method: method, Detail: "unresolvable parameter entry"}
		}
		if p.Value.Name == "" || p.Value.In == "" {
			return OpenAPIOperation{}, &ExtractionError{Path: path, Method: method, Detail: fmt.Sprintf("parameter %q has no name or location", p.Value.Name)}
		}
	}
	if op.RequestBody != nil && op.RequestBody.Value == nil {
		return OpenAPIOperation{}, &ExtractionError{Path: path, Method: method, Detail: "unresolvable request body"}
	}

	id := op.OperationID
	if id == "" {
		id = slugForOperation(method, path)
	}
	security := doc.Security
	if op.Security != nil {
		security = *op.Security
	}
	return OpenAPIOperation{
		OperationID: id,
		Summary:     op.Summary,
		Description: op.Description,
		Path:        path,
		Method:      method,
		Parameters:  merged,
		RequestBody: op.RequestBody,
		Tags:        op.Tags,
		Security:    security,
		Deprecated:  op.Deprecated,
	}, nil
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// slugForOperation derives a deterministic tool name from method and path
// template for operations without an operationId, e.g. "get_pets_id" for
// GET /pets/{id}.
func slugForOperation(method, path string) string {
	s := strings.ToLower(method + " " + path)
	s = slugCleaner.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// ExtractFilteredOpenAPIOperations returns only those operations whose
// description or summary matches includeRegex (if not nil) and does not match
// excludeRegex (if not nil).
func ExtractFilteredOpenAPIOperations(doc *openapi3.T, includeRegex, excludeRegex *regexp.Regexp) ([]OpenAPIOperation, []ExtractionError) {
	all, issues := ExtractOpenAPIOperations(doc)
	var filtered []OpenAPIOperation
	for _, op := range all {
		desc := op.Description
		if desc == "" {
			desc = op.Summary
		}
		if includeRegex != nil && !includeRegex.MatchString(desc) {
			continue
		}
		if excludeRegex != nil && excludeRegex.MatchString(desc) {
			continue
		}
		filtered = append(filtered, op)
	}
	return filtered, issues
}
