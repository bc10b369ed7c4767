// flags.go
package main

import (
	"flag"
	"fmt"
	"os"
)

// cliFlags holds all parsed CLI flags and arguments for mcp-client.
type cliFlags struct {
	showHelp bool
	raw      bool
	args     []string
}

// parseFlags parses all CLI flags and returns a cliFlags struct.
func parseFlags() *cliFlags {
	var flags cliFlags
	flag.BoolVar(&flags.showHelp, "h", false, "Show help")
	flag.BoolVar(&flags.showHelp, "help", false, "Show help")
	flag.BoolVar(&flags.raw, "raw", false, "Print raw JSON-RPC results instead of extracted text content")
	flag.Parse()
	flags.args = flag.Args()
	return &flags
}

// printHelp prints the CLI help message for mcp-client.
func printHelp() {
	fmt.Print(`mcp-client: Interactive MCP client for openapi-mcp servers

Usage:
  mcp-client [flags] <server-command> [args...]

Spawns the server command as a stdio subprocess, performs the MCP
initialize handshake, and drops into an interactive prompt.

Commands at the prompt:
  list                List available tools
  schema <tool>       Show the input schema for a tool
  call <tool> <json>  Call a tool with JSON arguments
  resources           List available resources
  read <uri>          Read a resource by URI
  help                Show the command list
  exit, quit          Exit

Flags:
  --raw                Print raw JSON-RPC results instead of extracted text
  --help, -h           Show help
`)
	os.Exit(0)
}
