// client.go
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/chzyer/readline"
)

// session is one stdio MCP connection to a spawned server subprocess.
type session struct {
	cmd    *exec.Cmd
	in     io.WriteCloser
	out    *bufio.Reader
	nextID int
	raw    bool

	toolNames    []string
	toolSchemas  map[string]map[string]any
	resourceURIs []string
}

func main() {
	flags := parseFlags()
	if flags.showHelp {
		printHelp()
	}
	if len(flags.args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mcp-client <server-command> [args...]")
		os.Exit(1)
	}

	s, err := startSession(flags.args, flags.raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		os.Exit(1)
	}
	defer s.close()

	if err := s.handshake(); err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR] MCP handshake failed:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "[INFO] Connected: %d tools, %d resources. Type 'help' for commands.\n",
		len(s.toolNames), len(s.resourceURIs))

	s.repl()
}

// startSession spawns the server subprocess with its stdin/stdout piped.
func startSession(argv []string, raw bool) (*session, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("server stdin: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("server stdout: %w", err)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start server: %w", err)
	}
	return &session{
		cmd:         cmd,
		in:          in,
		out:         bufio.NewReader(out),
		nextID:      1,
		raw:         raw,
		toolSchemas: make(map[string]map[string]any),
	}, nil
}

func (s *session) close() {
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
}

// rpc sends one request and blocks for its response, skipping any
// notifications the server interleaves.
func (s *session) rpc(method string, params any) (map[string]any, error) {
	id := s.nextID
	s.nextID++
	if err := s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}); err != nil {
		return nil, err
	}
	for {
		line, err := s.out.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("server closed: %w", err)
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		if respID, ok := obj["id"].(float64); !ok || int(respID) != id {
			continue
		}
		if errObj, ok := obj["error"]; ok {
			pretty, _ := json.Marshal(errObj)
			return nil, fmt.Errorf("%s: %s", method, pretty)
		}
		result, _ := obj["result"].(map[string]any)
		return result, nil
	}
}

func (s *session) send(msg map[string]any) error {
	return json.NewEncoder(s.in).Encode(msg)
}

// handshake runs initialize/initialized and caches the tool and resource
// listings for completion and schema lookup.
func (s *session) handshake() error {
	_, err := s.rpc("initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "mcp-client", "version": "0.1.0"},
	})
	if err != nil {
		return err
	}
	if err := s.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  "notifications/initialized",
	}); err != nil {
		return err
	}

	tools, err := s.rpc("tools/list", map[string]any{})
	if err != nil {
		return err
	}
	if arr, ok := tools["tools"].([]any); ok {
		for _, t := range arr {
			tmap, ok := t.(map[string]any)
			if !ok {
				continue
			}
			name, _ := tmap["name"].(string)
			if name == "" {
				continue
			}
			s.toolNames = append(s.toolNames, name)
			if schema, ok := tmap["inputSchema"].(map[string]any); ok {
				s.toolSchemas[name] = schema
			}
		}
	}

	// Resources are optional on the server side; a listing failure is not
	// fatal to the session.
	if resources, err := s.rpc("resources/list", map[string]any{}); err == nil {
		if arr, ok := resources["resources"].([]any); ok {
			for _, r := range arr {
				if rmap, ok := r.(map[string]any); ok {
					if uri, _ := rmap["uri"].(string); uri != "" {
						s.resourceURIs = append(s.resourceURIs, uri)
					}
				}
			}
		}
	}
	return nil
}

// completer builds tab completion over commands, tool names, and resource
// URIs.
func (s *session) completer() *readline.PrefixCompleter {
	var toolItems, uriItems []readline.PrefixCompleterInterface
	for _, name := range s.toolNames {
		toolItems = append(toolItems, readline.PcItem(name))
	}
	for _, uri := range s.resourceURIs {
		uriItems = append(uriItems, readline.PcItem(uri))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("list"),
		readline.PcItem("resources"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
		readline.PcItem("call", toolItems...),
		readline.PcItem("schema", toolItems...),
		readline.PcItem("read", uriItems...),
	)
}

// repl runs the interactive prompt until exit or EOF.
func (s *session) repl() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "mcp> ",
		HistoryFile:     os.ExpandEnv("$HOME/.mcp_client_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    s.completer(),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR] readline:", err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return
			}
			continue
		} else if err == io.EOF {
			return
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case line == "exit", line == "quit":
			return
		case line == "help":
			fmt.Print(`Available commands:

  list                List available tools
  schema <tool>       Show the input schema for a tool
  call <tool> <json>  Call a tool with JSON arguments
  resources           List available resources
  read <uri>          Read a resource by URI
  exit, quit          Exit the client
`)
		case line == "list":
			for _, name := range s.toolNames {
				fmt.Println(name)
			}
		case line == "resources":
			for _, uri := range s.resourceURIs {
				fmt.Println(uri)
			}
		case strings.HasPrefix(line, "schema "):
			s.cmdSchema(strings.TrimSpace(strings.TrimPrefix(line, "schema ")))
		case strings.HasPrefix(line, "call "):
			s.cmdCall(strings.TrimPrefix(line, "call "))
		case strings.HasPrefix(line, "read "):
			s.cmdRead(strings.TrimSpace(strings.TrimPrefix(line, "read ")))
		default:
			fmt.Fprintln(os.Stderr, "[error] Unknown command. Type 'help' for available commands.")
		}
	}
}

// cmdSchema prints a tool's input schema plus an example call built from it.
func (s *session) cmdSchema(name string) {
	schema, ok := s.toolSchemas[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "[error] No schema found for tool %q. Use 'list' for available tools.\n", name)
		return
	}
	pretty, _ := json.MarshalIndent(schema, "", "  ")
	fmt.Printf("Schema for %s:\n%s\n", name, pretty)

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return
	}
	example := make(map[string]any, len(props))
	for k, v := range props {
		vmap, _ := v.(map[string]any)
		example[k] = exampleValue(vmap)
	}
	exampleJSON, _ := json.Marshal(example)
	fmt.Printf("Example: call %s %s\n", name, exampleJSON)
}

// exampleValue produces a placeholder argument for a schema property.
func exampleValue(prop map[string]any) any {
	typeStr, _ := prop["type"].(string)
	switch typeStr {
	case "string":
		if enum, ok := prop["enum"].([]any); ok && len(enum) > 0 {
			return enum[0]
		}
		return "example"
	case "number", "integer":
		return 123
	case "boolean":
		return true
	case "array":
		return []any{"item1"}
	case "object":
		return map[string]any{"key": "value"}
	default:
		return nil
	}
}

// cmdCall parses "call <tool> <json-args>" and performs the tool call.
func (s *session) cmdCall(rest string) {
	tool, args, found := strings.Cut(strings.TrimSpace(rest), " ")
	if !found {
		fmt.Fprintln(os.Stderr, "Usage: call <tool> <json-args>")
		return
	}
	var argObj map[string]any
	if err := json.Unmarshal([]byte(args), &argObj); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid JSON for args:", err)
		if schema, ok := s.toolSchemas[tool]; ok {
			pretty, _ := json.MarshalIndent(schema, "", "  ")
			fmt.Fprintf(os.Stderr, "Expected schema for %s:\n%s\n", tool, pretty)
		}
		return
	}
	result, err := s.rpc("tools/call", map[string]any{
		"name":      tool,
		"arguments": argObj,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "[error]", err)
		return
	}
	s.printResult(result)
}

// cmdRead reads one resource by URI and prints its text contents.
func (s *session) cmdRead(uri string) {
	result, err := s.rpc("resources/read", map[string]any{"uri": uri})
	if err != nil {
		fmt.Fprintln(os.Stderr, "[error]", err)
		return
	}
	if s.raw {
		pretty, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(pretty))
		return
	}
	if contents, ok := result["contents"].([]any); ok {
		for _, c := range contents {
			if cmap, ok := c.(map[string]any); ok {
				if text, ok := cmap["text"].(string); ok {
					fmt.Println(text)
				}
			}
		}
	}
}

// printResult renders a tools/call result: raw JSON with --raw, otherwise
// the extracted text content with embedded JSON re-indented.
func (s *session) printResult(result map[string]any) {
	if s.raw {
		pretty, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(pretty))
		return
	}
	contentArr, ok := result["content"].([]any)
	if !ok {
		pretty, _ := json.MarshalIndent(result, "", "  ")
		fmt.Printf("[tool response] %s\n", pretty)
		return
	}
	for _, c := range contentArr {
		cmap, ok := c.(map[string]any)
		if !ok {
			continue
		}
		text, ok := cmap["text"].(string)
		if !ok {
			continue
		}
		trimmed := strings.TrimSpace(text)
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			var buf bytes.Buffer
			if err := json.Indent(&buf, []byte(trimmed), "", "  "); err == nil {
				fmt.Println(buf.String())
				continue
			}
		}
		fmt.Println(text)
	}
}
