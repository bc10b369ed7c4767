// server.go
package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mcpforge/openapi-mcp/pkg/auth"
	"github.com/mcpforge/openapi-mcp/pkg/config"
	"github.com/mcpforge/openapi-mcp/pkg/openapi2mcp"
)

// reportStartupError prints an actionable diagnosis for server startup
// failures.
func reportStartupError(what string, err error) {
	fmt.Fprintf(os.Stderr, "[ERROR] %s: %v\n", what, err)
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "address already in use"):
		fmt.Fprintln(os.Stderr, "Hint: the port is taken. Check with lsof -i, or pick another with --http=:0")
	case strings.Contains(errStr, "permission denied"):
		fmt.Fprintln(os.Stderr, "Hint: ports below 1024 need elevated privileges. Use a higher port.")
	case strings.Contains(errStr, "invalid") || strings.Contains(errStr, "parse"):
		fmt.Fprintln(os.Stderr, "Hint: address format is host:port or :port, e.g. --http=:8080")
	}
}

// toolGenOptions assembles the ToolGenOptions shared by dry-run and server
// modes.
func toolGenOptions(flags *cliFlags, cfg config.Config, provider *auth.Provider) *openapi2mcp.ToolGenOptions {
	opts := &openapi2mcp.ToolGenOptions{
		NameFormat:     nameFormatter(flags.toolNameFormat),
		TagFilter:      flags.tagFlags,
		Version:        cfg.Version,
		RequestTimeout: cfg.RequestTimeout,
	}
	if provider != nil {
		opts.Auth = provider
	}
	if cfg.BaseURL != "" {
		os.Setenv("OPENAPI_BASE_URL", cfg.BaseURL)
	}
	return opts
}

// buildAuthProvider creates the OAuth provider from the auth config and
// prints the authorization URL the user must visit.
func buildAuthProvider(cfg config.Config) *auth.Provider {
	if !cfg.OAuthEnabled() {
		return nil
	}
	provider := auth.NewProvider(auth.Config{
		ClientID:         cfg.Auth.ClientID,
		ClientSecret:     cfg.Auth.ClientSecret,
		AuthorizationURL: cfg.Auth.AuthorizationURL,
		TokenURL:         cfg.Auth.TokenURL,
		RedirectURI:      cfg.Auth.RedirectURI,
		Scopes:           cfg.Auth.Scopes,
	})
	authURL, _ := provider.BeginAuthorization()
	fmt.Fprintf(os.Stderr, "[INFO] OAuth enabled. Authorize at:\n  %s\n", authURL)
	return provider
}

// startCallbackListener serves the OAuth redirect URI on its own listener.
// Used for stdio mode, where there is no HTTP mux to mount the route on.
func startCallbackListener(provider *auth.Provider, redirectURI string) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		fmt.Fprintf(os.Stderr, "[ERROR] Invalid redirect_uri %q: %v\n", redirectURI, err)
		os.Exit(1)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.Handle(path, auth.CallbackHandler(provider))
	go func() {
		if err := http.ListenAndServe(u.Host, mux); err != nil {
			reportStartupError("OAuth callback listener on "+u.Host, err)
			os.Exit(1)
		}
	}()
	fmt.Fprintf(os.Stderr, "[INFO] OAuth callback listening on %s%s\n", u.Host, path)
}

// startServer starts the MCP server on the configured transport. It registers
// all OpenAPI operations as MCP tools, the component schemas as resources,
// and the OAuth callback route when oauth2 auth is configured.
func startServer(flags *cliFlags, cfg config.Config, ops []openapi2mcp.OpenAPIOperation, doc *openapi3.T) {
	provider := buildAuthProvider(cfg)
	opts := toolGenOptions(flags, cfg, provider)
	srv := openapi2mcp.NewServerWithOps(cfg.Name, cfg.Version, doc, ops, opts)
	fmt.Fprintln(os.Stderr, "Registered all OpenAPI operations as MCP tools.")

	addr := flags.httpAddr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Server.Port)
	}
	basePath := cfg.Server.BasePath
	if basePath == "" {
		basePath = "/mcp"
	}

	if provider != nil {
		startCallbackListener(provider, cfg.Auth.RedirectURI)
	}

	switch cfg.Server.Transport {
	case config.TransportStreamableHTTP:
		fmt.Fprintf(os.Stderr, "Starting MCP server (streamable HTTP) on %s%s...\n", addr, basePath)
		if err := openapi2mcp.ServeStreamableHTTP(srv, addr, basePath); err != nil {
			reportStartupError("Starting streamable HTTP server on "+addr, err)
			os.Exit(1)
		}
	case config.TransportSSE:
		fmt.Fprintf(os.Stderr, "Starting MCP server (SSE) on %s%s...\n", addr, basePath)
		if err := openapi2mcp.ServeSSE(srv, addr, basePath); err != nil {
			reportStartupError("Starting SSE server on "+addr, err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "Starting MCP server (stdio)...")
		if err := openapi2mcp.ServeStdio(srv); err != nil {
			reportStartupError("Starting stdio MCP server", err)
			os.Exit(1)
		}
	}
}
