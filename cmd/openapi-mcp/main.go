package main

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mcpforge/openapi-mcp/pkg/config"
	"github.com/mcpforge/openapi-mcp/pkg/openapi2mcp"
)

// main is the entrypoint for the openapi-mcp CLI.
// It parses flags, loads the config and OpenAPI spec, and dispatches to the
// appropriate mode (validate, dry-run, summary, server).
func main() {
	flags := parseFlags()

	if flags.showHelp {
		printHelp()
		os.Exit(0)
	}

	setEnvFromFlags(flags)

	args := flags.args

	// --- Validate subcommand ---
	if len(args) > 0 && args[0] == "validate" {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: missing required <openapi-spec-path> argument for validate.")
			os.Exit(1)
		}
		doc, err := loadSpec(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "OpenAPI spec loaded and validated successfully.")
		ops, issues := openapi2mcp.ExtractOpenAPIOperations(doc)
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "[WARN] %v\n", &issue)
		}
		var toolNames []string
		for _, op := range ops {
			toolNames = append(toolNames, op.OperationID)
		}
		if err := openapi2mcp.SelfTestOpenAPIMCP(doc, toolNames); err != nil {
			fmt.Fprintf(os.Stderr, "MCP self-test failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "MCP self-test passed: all tools and required arguments are present.")
		os.Exit(0)
	}
	// --- End validate subcommand ---

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	doc, err := loadSpec(cfg.OpenAPISpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Could not load OpenAPI spec: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "OpenAPI spec loaded and validated successfully.")

	// Compile regex filters if provided
	var includeRegex, excludeRegex *regexp.Regexp
	if val := os.Getenv("INCLUDE_DESC_REGEX"); val != "" {
		includeRegex, err = regexp.Compile(val)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Invalid INCLUDE_DESC_REGEX: %v\n", err)
			os.Exit(1)
		}
	}
	if val := os.Getenv("EXCLUDE_DESC_REGEX"); val != "" {
		excludeRegex, err = regexp.Compile(val)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Invalid EXCLUDE_DESC_REGEX: %v\n", err)
			os.Exit(1)
		}
	}

	ops, issues := openapi2mcp.ExtractFilteredOpenAPIOperations(doc, includeRegex, excludeRegex)
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "[WARN] %v\n", &issue)
	}

	if flags.summary {
		openapi2mcp.PrintToolSummary(ops)
	}
	if flags.dryRun {
		opts := toolGenOptions(flags, cfg, nil)
		opts.DryRun = true
		opts.PrettyPrint = flags.pretty
		openapi2mcp.RegisterOpenAPITools(nil, ops, doc, opts)
		return
	}

	startServer(flags, cfg, ops, doc)
}

// loadConfig builds the effective configuration from --config, the
// environment, and the positional spec argument (highest precedence).
func loadConfig(flags *cliFlags) (config.Config, error) {
	var cfg config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = config.Load(flags.configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return cfg, err
	}
	if len(flags.args) > 0 {
		cfg.OpenAPISpec = flags.args[len(flags.args)-1]
	}
	if flags.httpAddr != "" && cfg.Server.Transport == config.TransportStdio {
		cfg.Server.Transport = config.TransportStreamableHTTP
	}
	if flags.httpTransport != "" {
		cfg.Server.Transport = flags.httpTransport
	}
	if flags.basePath != "" {
		cfg.Server.BasePath = flags.basePath
	}
	if flags.timeout > 0 {
		cfg.RequestTimeout = flags.timeout
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadSpec loads an OpenAPI document from a local file or an http(s) URL.
func loadSpec(location string) (*openapi3.T, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return openapi2mcp.LoadOpenAPISpecFromURL(context.Background(), location)
	}
	return openapi2mcp.LoadOpenAPISpec(location)
}

// nameFormatter returns the tool-name formatter for --tool-name-format.
func nameFormatter(format string) func(string) string {
	switch format {
	case "lower":
		return strings.ToLower
	case "upper":
		return strings.ToUpper
	case "snake":
		return func(s string) string { return strings.ReplaceAll(strings.ToLower(s), "-", "_") }
	case "camel":
		return func(s string) string {
			parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
			for i := 1; i < len(parts); i++ {
				parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
			}
			return strings.Join(parts, "")
		}
	default:
		return nil
	}
}
