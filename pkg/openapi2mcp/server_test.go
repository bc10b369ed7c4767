package openapi2mcp

import (
	"testing"
)

func TestGetStreamableHTTPURL(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		basePath string
		expected string
	}{
		{
			name:     "basic addr",
			addr:     ":8080",
			basePath: "/mcp",
			expected: "http://localhost:8080/mcp",
		},
		{
			name:     "addr with host",
			addr:     "127.0.0.1:3000",
			basePath: "/api",
			expected: "http://127.0.0.1:3000/api",
		},
		{
			name:     "addr with hostname",
			addr:     "myhost:9000",
			basePath: "/foo",
			expected: "http://myhost:9000/foo",
		},
		{
			name:     "empty basePath",
			addr:     ":8080",
			basePath: "",
			expected: "http://localhost:8080/mcp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetStreamableHTTPURL(tt.addr, tt.basePath)
			if result != tt.expected {
				t.Errorf("GetStreamableHTTPURL(%q, %q) = %q, want %q", tt.addr, tt.basePath, result, tt.expected)
			}
		})
	}
}

func TestNewServerWithOps(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(petstoreYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ops, _ := ExtractOpenAPIOperations(doc)
	srv := NewServerWithOps("petstore", "1.0.0", doc, ops, nil)
	if srv == nil {
		t.Fatalf("expected a server")
	}
}

func TestHandlerForStreamableHTTP(t *testing.T) {
	doc, err := LoadOpenAPISpecFromString(petstoreYAML)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	srv := NewServer("petstore", "1.0.0", doc, nil)
	if h := HandlerForStreamableHTTP(srv, "/mcp"); h == nil {
		t.Fatalf("expected a handler")
	}
}
