// flags.go
package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// cliFlags holds all parsed CLI flags and arguments.
type cliFlags struct {
	showHelp       bool
	configPath     string
	baseURLFlag    string
	httpAddr       string
	httpTransport  string
	basePath       string
	includeRegex   string
	excludeRegex   string
	dryRun         bool
	pretty         bool
	summary        bool
	toolNameFormat string
	tagFlags       multiFlag
	timeout        time.Duration
	args           []string
}

// parseFlags parses all CLI flags and returns a cliFlags struct.
func parseFlags() *cliFlags {
	var flags cliFlags
	flag.BoolVar(&flags.showHelp, "h", false, "Show help")
	flag.BoolVar(&flags.showHelp, "help", false, "Show help")
	flag.StringVar(&flags.configPath, "config", "", "Path to YAML config file (flags override config values)")
	flag.StringVar(&flags.baseURLFlag, "base-url", "", "Override the base URL for HTTP calls (overrides OPENAPI_BASE_URL env)")
	flag.StringVar(&flags.httpAddr, "http", "", "If set, serve MCP over HTTP on this address (e.g., :8080) instead of stdio.")
	flag.StringVar(&flags.httpTransport, "http-transport", "", "HTTP transport: streamable-http (default) or sse")
	flag.StringVar(&flags.basePath, "base-path", "/mcp", "Base path for the HTTP endpoint")
	flag.StringVar(&flags.includeRegex, "include-desc-regex", "", "Only include operations whose description matches this regex (overrides INCLUDE_DESC_REGEX env)")
	flag.StringVar(&flags.excludeRegex, "exclude-desc-regex", "", "Exclude operations whose description matches this regex (overrides EXCLUDE_DESC_REGEX env)")
	flag.BoolVar(&flags.dryRun, "dry-run", false, "Print the generated MCP tool schemas and exit (do not start the server)")
	flag.BoolVar(&flags.pretty, "pretty", false, "Pretty-print dry-run output")
	flag.BoolVar(&flags.summary, "summary", false, "Print a summary of the generated tools (count, tags, etc)")
	flag.StringVar(&flags.toolNameFormat, "tool-name-format", "", "Format tool names: lower, upper, snake, camel")
	flag.Var(&flags.tagFlags, "tag", "Only include tools with the given OpenAPI tag (repeatable)")
	flag.DurationVar(&flags.timeout, "timeout", 0, "Per-request timeout for outbound HTTP calls (e.g., 45s)")
	flag.Parse()
	flags.args = flag.Args()
	return &flags
}

// setEnvFromFlags sets environment variables from CLI flags if provided.
func setEnvFromFlags(flags *cliFlags) {
	if flags.baseURLFlag != "" {
		os.Setenv("OPENAPI_BASE_URL", flags.baseURLFlag)
	}
	if flags.includeRegex != "" {
		os.Setenv("INCLUDE_DESC_REGEX", flags.includeRegex)
	}
	if flags.excludeRegex != "" {
		os.Setenv("EXCLUDE_DESC_REGEX", flags.excludeRegex)
	}
}

// printHelp prints the CLI help message.
func printHelp() {
	fmt.Print(`openapi-mcp: Expose OpenAPI APIs as MCP tools

Usage:
  openapi-mcp [flags] <openapi-spec-path-or-url>
  openapi-mcp validate <openapi-spec-path-or-url>

Commands:
  validate <spec>      Validate the OpenAPI spec and report actionable errors (does not start a server)

Flags:
  --config             Path to YAML config file (flags override config values)
  --base-url           Override the base URL for HTTP calls
  --http               Serve MCP over HTTP on this address instead of stdio
  --http-transport     HTTP transport: streamable-http (default) or sse
  --base-path          Base path for the HTTP endpoint (default /mcp)
  --include-desc-regex Only include operations whose description matches this regex
  --exclude-desc-regex Exclude operations whose description matches this regex
  --dry-run            Print the generated MCP tool schemas as JSON and exit
  --pretty             Pretty-print dry-run output
  --summary            Print a summary of the generated tools
  --tag                Only include tools with the given tag (repeatable)
  --tool-name-format   Format tool names: lower, upper, snake, camel
  --timeout            Per-request timeout for outbound HTTP calls
  --help, -h           Show help

OAuth 2.1 authentication is configured through the config file (auth block)
or OAUTH_* environment variables; see the docs for the full list.
`)
}

// multiFlag is a custom flag type for collecting repeated string values.
type multiFlag []string

// String returns the string representation of the multiFlag.
func (m *multiFlag) String() string {
	return fmt.Sprintf("%v", *m)
}

// Set appends a value to the multiFlag.
func (m *multiFlag) Set(val string) error {
	*m = append(*m, val)
	return nil
}
