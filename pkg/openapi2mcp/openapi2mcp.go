// Package openapi2mcp converts OpenAPI 3.x specifications into MCP (Model
// Context Protocol) servers.
//
// The conversion pipeline runs in fixed stages: load and validate the spec,
// extract its operations, synthesize one MCP tool per operation and one MCP
// resource per named component schema, then assemble everything onto a
// transport-agnostic MCP server.
//
// # Quick Start
//
//	doc, err := openapi2mcp.LoadOpenAPISpec("petstore.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	srv := openapi2mcp.NewServer("petstore", doc.Info.Version, doc, nil)
//	openapi2mcp.ServeStdio(srv) // or ServeStreamableHTTP(srv, ":8080", "/mcp")
//
// Synthesis is pure: tools and resources are data plus one handler each, and
// no network I/O happens until a handler is invoked. Handlers validate their
// arguments with a JSON-schema validator before any call is issued, perform
// the outbound HTTP call through an injectable HTTPDoer, and never retry
// automatically except for a single refresh-and-retry on a 401 when an OAuth
// provider is attached (see the auth package).
//
// Every fallible stage returns a typed error (SpecError, ExtractionError,
// ToolError, ResourceError); nothing panics across package boundaries.
package openapi2mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIOperation describes a single OpenAPI operation to be mapped to an
// MCP tool: its ID, summary, description, HTTP path/method, parameters,
// request body, tags, and effective security requirements.
type OpenAPIOperation struct {
	OperationID string
	Summary     string
	Description string
	Path        string
	Method      string
	Parameters  openapi3.Parameters
	RequestBody *openapi3.RequestBodyRef
	Tags        []string
	Security    openapi3.SecurityRequirements
	Deprecated  bool
}

// HTTPDoer is the outbound HTTP capability used by tool and resource
// handlers. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AuthProvider supplies Authorization header values for operations that carry
// a security requirement. Implementations must be safe for concurrent use;
// the auth package provides an OAuth 2.1 PKCE implementation.
type AuthProvider interface {
	// AuthHeader returns a ready-to-use Authorization header value, e.g.
	// "Bearer <token>". It may refresh an expiring token internally.
	AuthHeader(ctx context.Context) (string, error)
	// Refresh forces a token refresh, used after an upstream 401.
	Refresh(ctx context.Context) error
}

// ToolGenOptions controls tool generation and output for the conversion.
//
// NameFormat: function to format tool names (e.g. strings.ToLower)
// TagFilter: only include operations with at least one of these tags (if non-empty)
// DryRun: if true, only collect the generated tool schemas, don't register
// PrettyPrint: if true, pretty-print dry-run output
// Version: version string to embed in tool annotations
// PostProcessSchema: optional hook to modify each tool's input schema before registration
// Auth: optional provider consulted for operations with security requirements
// Client: outbound HTTP capability (defaults to http.DefaultClient)
// RequestTimeout: mandatory per-call timeout (defaults to 30s)
type ToolGenOptions struct {
	NameFormat        func(string) string
	TagFilter         []string
	DryRun            bool
	PrettyPrint       bool
	Version           string
	PostProcessSchema func(toolName string, schema map[string]any) map[string]any
	Auth              AuthProvider
	Client            HTTPDoer
	RequestTimeout    time.Duration
}
