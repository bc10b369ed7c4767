package main

import (
	"testing"

	"github.com/mcpforge/openapi-mcp/pkg/config"
)

func TestNameFormatter(t *testing.T) {
	cases := []struct {
		format, in, want string
	}{
		{"lower", "GetPets", "getpets"},
		{"upper", "getPets", "GETPETS"},
		{"snake", "get-pets-by-id", "get_pets_by_id"},
		{"camel", "get_pets_by_id", "getPetsById"},
	}
	for _, tc := range cases {
		f := nameFormatter(tc.format)
		if f == nil {
			t.Fatalf("nameFormatter(%q) = nil", tc.format)
		}
		if got := f(tc.in); got != tc.want {
			t.Errorf("nameFormatter(%q)(%q) = %q, want %q", tc.format, tc.in, got, tc.want)
		}
	}
	if nameFormatter("") != nil {
		t.Error("nameFormatter(\"\") should be nil (identity)")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Setenv("OPENAPI_SPEC", "from-env.yaml")

	flags := &cliFlags{args: []string{"from-arg.yaml"}}
	cfg, err := loadConfig(flags)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.OpenAPISpec != "from-arg.yaml" {
		t.Errorf("OpenAPISpec = %q, want positional argument to win", cfg.OpenAPISpec)
	}
	if cfg.Server.Transport != config.TransportStdio {
		t.Errorf("Transport = %q, want stdio default", cfg.Server.Transport)
	}
}

func TestLoadConfigHTTPFlagSelectsTransport(t *testing.T) {
	t.Setenv("OPENAPI_SPEC", "spec.yaml")

	flags := &cliFlags{httpAddr: ":8080"}
	cfg, err := loadConfig(flags)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Transport != config.TransportStreamableHTTP {
		t.Errorf("Transport = %q, want streamable-http when --http is set", cfg.Server.Transport)
	}
}
