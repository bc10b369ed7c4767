// server.go
package openapi2mcp

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server, registers all OpenAPI tools and schema
// resources, and returns the server.
// Example usage for NewServer:
//
//	doc, _ := openapi2mcp.LoadOpenAPISpec("petstore.yaml")
//	srv := openapi2mcp.NewServer("petstore", doc.Info.Version, doc, nil)
//	openapi2mcp.ServeStdio(srv)
func NewServer(name, version string, doc *openapi3.T, opts *ToolGenOptions) *mcpserver.MCPServer {
	ops, issues := ExtractOpenAPIOperations(doc)
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "[WARN] %v\n", &issue)
	}
	return NewServerWithOps(name, version, doc, ops, opts)
}

// NewServerWithOps creates a new MCP server and registers the provided
// operations plus the spec's schema resources.
func NewServerWithOps(name, version string, doc *openapi3.T, ops []OpenAPIOperation, opts *ToolGenOptions) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(name, version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(true, false),
	)
	RegisterOpenAPITools(srv, ops, doc, opts)
	for _, warning := range RegisterSchemaResources(srv, doc) {
		fmt.Fprintf(os.Stderr, "[WARN] %s\n", warning)
	}
	return srv
}

// ServeStdio starts the MCP server on stdio. Blocks until the client
// disconnects or the process is signalled.
func ServeStdio(server *mcpserver.MCPServer) error {
	return mcpserver.ServeStdio(server)
}

// ServeStreamableHTTP starts the MCP server using the streamable HTTP
// transport. addr is the listen address (e.g. ":8080"), basePath the mount
// point (defaults to "/mcp").
func ServeStreamableHTTP(server *mcpserver.MCPServer, addr, basePath string) error {
	if basePath == "" {
		basePath = "/mcp"
	}
	httpServer := mcpserver.NewStreamableHTTPServer(server,
		mcpserver.WithEndpointPath(basePath),
	)
	return httpServer.Start(addr)
}

// HandlerForStreamableHTTP returns an http.Handler serving the MCP server at
// basePath, for mounting on an existing mux (e.g. alongside an OAuth
// callback route).
func HandlerForStreamableHTTP(server *mcpserver.MCPServer, basePath string) http.Handler {
	if basePath == "" {
		basePath = "/mcp"
	}
	return mcpserver.NewStreamableHTTPServer(server,
		mcpserver.WithEndpointPath(basePath),
	)
}

// ServeSSE starts the MCP server using the HTTP SSE transport.
func ServeSSE(server *mcpserver.MCPServer, addr, basePath string) error {
	if basePath == "" {
		basePath = "/mcp"
	}
	sseServer := mcpserver.NewSSEServer(server,
		mcpserver.WithStaticBasePath(basePath),
		mcpserver.WithSSEEndpoint("/sse"),
		mcpserver.WithMessageEndpoint("/message"),
	)
	return sseServer.Start(addr)
}

// GetStreamableHTTPURL returns the URL of the streamable HTTP endpoint for a
// given listen address and base path.
func GetStreamableHTTPURL(addr, basePath string) string {
	if basePath == "" {
		basePath = "/mcp"
	}
	return "http://" + normalizeAddrToHost(addr) + basePath
}

// normalizeAddrToHost converts an addr (as used by net/http) to a host:port
// suitable for URLs. ":8080" becomes "localhost:8080".
func normalizeAddrToHost(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "localhost"
	}
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
