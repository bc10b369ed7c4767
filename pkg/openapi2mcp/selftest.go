// selftest.go
package openapi2mcp

import (
	"fmt"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
)

// SelfTestOpenAPIMCP checks that a generated server matches the OpenAPI
// contract: every extracted operation has a registered tool and every
// required argument appears in its schema. Returns an error listing the
// failures, if any.
func SelfTestOpenAPIMCP(doc *openapi3.T, toolNames []string) error {
	ops, issues := ExtractOpenAPIOperations(doc)
	failures := len(issues)
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", &issue)
	}
	toolMap := map[string]struct{}{}
	for _, name := range toolNames {
		toolMap[name] = struct{}{}
	}
	for _, op := range ops {
		if _, ok := toolMap[op.OperationID]; !ok {
			fmt.Fprintf(os.Stderr, "[ERROR] Tool '%s' (operationId) is missing from MCP server.\n", op.OperationID)
			failures++
		}
		inputSchema := BuildInputSchema(op.Parameters, op.RequestBody)
		props, _ := inputSchema["properties"].(map[string]any)
		if reqList, ok := inputSchema["required"].([]string); ok {
			for _, req := range reqList {
				if _, ok := props[req]; !ok {
					fmt.Fprintf(os.Stderr, "[ERROR] Tool '%s' is missing required argument '%s' in schema.\n", op.OperationID, req)
					failures++
				}
			}
		}
	}
	if failures > 0 {
		return fmt.Errorf("self-test failed: %d issues found", failures)
	}
	return nil
}
