// register.go
package openapi2mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/xeipuuv/gojsonschema"
	"github.com/yosida95/uritemplate/v3"
)

// DefaultRequestTimeout bounds every outbound call issued by a tool handler
// unless ToolGenOptions.RequestTimeout overrides it.
const DefaultRequestTimeout = 30 * time.Second

// ToolOutput is the success payload of a tool invocation.
type ToolOutput struct {
	Status   int
	MIMEType string
	Body     string // response body; base64-encoded when binary
	Binary   bool
	Parsed   any // decoded JSON body when the response was JSON
}

// toolRuntime holds the immutable collaborators an invoke handler closes
// over. Synthesis fills it once; handlers only read it.
type toolRuntime struct {
	baseURL string
	client  HTTPDoer
	timeout time.Duration
	auth    AuthProvider
}

// boundTool is one synthesized tool: pure data plus the operation it was
// derived from. The only side effects live in Invoke.
type boundTool struct {
	name       string
	desc       string
	schemaJSON []byte
	op         OpenAPIOperation
	pathTmpl   *uritemplate.Template
	nameMap    map[string]string // escaped -> original parameter names
	rt         *toolRuntime
}

// RegisterOpenAPITools registers each OpenAPI operation as an MCP tool with a
// real HTTP invoke handler, plus the describe/info/externalDocs meta tools.
// Tool names are unique: a collision with an earlier tool gets a
// deterministic numeric suffix in extraction order. Returns the list of tool
// names registered.
func RegisterOpenAPITools(server *mcpserver.MCPServer, ops []OpenAPIOperation, doc *openapi3.T, opts *ToolGenOptions) []string {
	if opts == nil {
		opts = &ToolGenOptions{}
	}
	rt := &toolRuntime{
		baseURL: resolveBaseURL(doc),
		client:  opts.Client,
		timeout: opts.RequestTimeout,
		auth:    opts.Auth,
	}
	if rt.client == nil {
		rt.client = http.DefaultClient
	}
	if rt.timeout <= 0 {
		rt.timeout = DefaultRequestTimeout
	}

	var toolNames []string
	var toolSummaries []map[string]any
	seen := map[string]struct{}{}

	for _, op := range ops {
		if !matchesTagFilter(op, opts.TagFilter) {
			continue
		}
		inputSchema := BuildInputSchema(op.Parameters, op.RequestBody)
		name := op.OperationID
		if opts.NameFormat != nil {
			name = opts.NameFormat(name)
		}
		name = uniqueToolName(name, seen)
		if opts.PostProcessSchema != nil {
			inputSchema = opts.PostProcessSchema(name, inputSchema)
		}
		schemaJSON, _ := json.MarshalIndent(inputSchema, "", "  ")

		desc := op.Description
		if desc == "" {
			desc = op.Summary
		}
		if desc == "" {
			desc = op.Method + " " + op.Path
		}

		tmpl, err := uritemplate.New(op.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Skipping %s %s: invalid path template: %v\n", op.Method, op.Path, err)
			continue
		}

		bt := &boundTool{
			name:       name,
			desc:       desc,
			schemaJSON: schemaJSON,
			op:         op,
			pathTmpl:   tmpl,
			nameMap:    buildParameterNameMapping(op.Parameters),
			rt:         rt,
		}

		if opts.DryRun {
			toolSummaries = append(toolSummaries, map[string]any{
				"name":        name,
				"description": desc,
				"tags":        op.Tags,
				"inputSchema": inputSchema,
			})
			toolNames = append(toolNames, name)
			continue
		}

		tool := mcp.NewToolWithRawSchema(name, desc, schemaJSON)
		tool.Annotations = toolAnnotations(op, opts)
		server.AddTool(tool, bt.handle)
		toolNames = append(toolNames, name)
	}

	if !opts.DryRun {
		toolNames = append(toolNames, registerMetaTools(server, doc, opts)...)
	} else if opts.PrettyPrint {
		out, _ := json.MarshalIndent(toolSummaries, "", "  ")
		fmt.Println(string(out))
	} else if len(toolSummaries) > 0 {
		out, _ := json.Marshal(toolSummaries)
		fmt.Println(string(out))
	}

	return toolNames
}

// uniqueToolName enforces tool-name uniqueness with a deterministic numeric
// suffix: the first collision becomes name_2, the next name_3, and so on.
func uniqueToolName(name string, seen map[string]struct{}) string {
	candidate := name
	for i := 2; ; i++ {
		if _, taken := seen[candidate]; !taken {
			break
		}
		candidate = fmt.Sprintf("%s_%d", name, i)
	}
	seen[candidate] = struct{}{}
	return candidate
}

func matchesTagFilter(op OpenAPIOperation, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, tag := range op.Tags {
		for _, want := range filter {
			if tag == want {
				return true
			}
		}
	}
	return false
}

func toolAnnotations(op OpenAPIOperation, opts *ToolGenOptions) mcp.ToolAnnotation {
	var titleParts []string
	if opts.Version != "" {
		titleParts = append(titleParts, "OpenAPI "+opts.Version)
	}
	if len(op.Tags) > 0 {
		titleParts = append(titleParts, "Tags: "+strings.Join(op.Tags, ", "))
	}
	ann := mcp.ToolAnnotation{Title: strings.Join(titleParts, " | ")}
	if op.Method == http.MethodGet {
		ann.ReadOnlyHint = mcp.ToBoolPtr(true)
	}
	return ann
}

// resolveBaseURL picks the outbound base URL: the OPENAPI_BASE_URL
// environment variable wins, then the spec's first server entry, then a
// localhost fallback.
func resolveBaseURL(doc *openapi3.T) string {
	if env := os.Getenv("OPENAPI_BASE_URL"); env != "" {
		return env
	}
	for _, s := range doc.Servers {
		if s != nil && s.URL != "" {
			return s.URL
		}
	}
	return "http://localhost:8080"
}

// handle adapts Invoke to the MCP tool handler contract. Invocation failures
// are reported as error results, never as transport-level errors, so a failed
// call cannot take the server down.
func (t *boundTool) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := t.Invoke(ctx, req.GetArguments())
	if !res.IsOk() {
		return mcp.NewToolResultError(res.Err().Error()), nil
	}
	out := res.Value()
	if out.Binary {
		payload, _ := json.MarshalIndent(map[string]any{
			"type":        "api_response",
			"http_status": out.Status,
			"mime_type":   out.MIMEType,
			"file_base64": out.Body,
		}, "", "  ")
		return mcp.NewToolResultText(string(payload)), nil
	}
	text := fmt.Sprintf("HTTP %s %s\nStatus: %d\nResponse:\n%s", t.op.Method, t.op.Path, out.Status, out.Body)
	return mcp.NewToolResultText(text), nil
}

// Invoke validates args, performs the outbound call and maps the response.
// Validation always completes before any network I/O; the single
// refresh-and-retry on 401 is the only automatic retry.
func (t *boundTool) Invoke(ctx context.Context, args map[string]any) Result[*ToolOutput] {
	if args == nil {
		args = map[string]any{}
	}
	if terr := t.validateArgs(args); terr != nil {
		return Err[*ToolOutput](terr)
	}

	authRequired := operationRequiresAuth(t.op) && t.rt.auth != nil
	header := ""
	if authRequired {
		h, err := t.rt.auth.AuthHeader(ctx)
		if err != nil {
			return Err[*ToolOutput](&ToolError{Kind: ToolErrorUnauthenticated, Cause: err})
		}
		header = h
	}

	resp, terr := t.doCall(ctx, args, header)
	if terr != nil {
		return Err[*ToolOutput](terr)
	}

	// One bounded refresh-and-retry on 401; a second 401 is surfaced as-is.
	if resp.status == http.StatusUnauthorized && authRequired {
		if err := t.rt.auth.Refresh(ctx); err != nil {
			return Err[*ToolOutput](&ToolError{Kind: ToolErrorUnauthenticated, Cause: err})
		}
		h, err := t.rt.auth.AuthHeader(ctx)
		if err != nil {
			return Err[*ToolOutput](&ToolError{Kind: ToolErrorUnauthenticated, Cause: err})
		}
		resp, terr = t.doCall(ctx, args, h)
		if terr != nil {
			return Err[*ToolOutput](terr)
		}
	}

	if resp.status < 200 || resp.status >= 300 {
		return Err[*ToolOutput](&ToolError{Kind: ToolErrorRequestFailed, Status: resp.status, Body: resp.bodyText()})
	}
	return Ok(resp.toOutput())
}

// validateArgs checks args against the tool's input schema, collecting every
// violation. No outbound call is issued when validation fails.
func (t *boundTool) validateArgs(args map[string]any) *ToolError {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return &ToolError{Kind: ToolErrorInvalidArgs, Violations: []string{"arguments are not JSON-serializable"}, Cause: err}
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(t.schemaJSON), gojsonschema.NewBytesLoader(argsJSON))
	if err != nil {
		return &ToolError{Kind: ToolErrorInvalidArgs, Violations: []string{err.Error()}, Cause: err}
	}
	if result.Valid() {
		return nil
	}
	var violations []string
	for _, verr := range result.Errors() {
		if verr.Type() == "required" {
			if missing, ok := verr.Details()["property"].(string); ok {
				violations = append(violations, fmt.Sprintf("missing required parameter %q", missing))
				continue
			}
		}
		violations = append(violations, verr.String())
	}
	return &ToolError{Kind: ToolErrorInvalidArgs, Violations: violations}
}

// callResponse is the drained upstream response.
type callResponse struct {
	status   int
	mimeType string
	body     []byte
}

func (r *callResponse) bodyText() string { return string(r.body) }

func (r *callResponse) toOutput() *ToolOutput {
	out := &ToolOutput{Status: r.status, MIMEType: r.mimeType}
	isJSON := strings.HasPrefix(r.mimeType, "application/json")
	isText := isJSON || strings.HasPrefix(r.mimeType, "text/")
	if !isText && len(r.body) > 0 && r.mimeType != "" {
		out.Binary = true
		out.Body = base64.StdEncoding.EncodeToString(r.body)
		return out
	}
	out.Body = string(r.body)
	if isJSON {
		var parsed any
		if err := json.Unmarshal(r.body, &parsed); err == nil {
			out.Parsed = parsed
		}
	}
	return out
}

// doCall builds and performs one outbound request under the configured
// timeout. The request is rebuilt from args on every attempt so a retry never
// reuses a consumed body reader.
func (t *boundTool) doCall(ctx context.Context, args map[string]any, authHeader string) (*callResponse, *ToolError) {
	callCtx, cancel := context.WithTimeout(ctx, t.rt.timeout)
	defer cancel()

	req, terr := t.buildRequest(callCtx, args)
	if terr != nil {
		return nil, terr
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := t.rt.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &ToolError{Kind: ToolErrorTimeout, Cause: err}
		}
		return nil, &ToolError{Kind: ToolErrorTransport, Cause: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ToolError{Kind: ToolErrorTransport, Cause: err}
	}
	return &callResponse{
		status:   resp.StatusCode,
		mimeType: resp.Header.Get("Content-Type"),
		body:     body,
	}, nil
}

// buildRequest substitutes path parameters (percent-encoded via RFC 6570
// expansion), appends query parameters, sets header and cookie parameters,
// and attaches the serialized JSON body.
func (t *boundTool) buildRequest(ctx context.Context, args map[string]any) (*http.Request, *ToolError) {
	lookup := func(p *openapi3.Parameter) (any, bool) {
		if v, ok := args[p.Name]; ok {
			return v, true
		}
		for escaped, original := range t.nameMap {
			if original == p.Name {
				v, ok := args[escaped]
				return v, ok
			}
		}
		return nil, false
	}

	pathValues := uritemplate.Values{}
	query := url.Values{}
	headers := map[string]string{}
	var cookiePairs []string
	for _, paramRef := range t.op.Parameters {
		if paramRef == nil || paramRef.Value == nil {
			continue
		}
		p := paramRef.Value
		val, ok := lookup(p)
		if !ok {
			continue
		}
		switch p.In {
		case "path":
			pathValues[p.Name] = uritemplate.String(fmt.Sprintf("%v", val))
		case "query":
			query.Set(p.Name, fmt.Sprintf("%v", val))
		case "header":
			headers[p.Name] = fmt.Sprintf("%v", val)
		case "cookie":
			cookiePairs = append(cookiePairs, fmt.Sprintf("%s=%v", p.Name, val))
		}
	}

	path, err := t.pathTmpl.Expand(pathValues)
	if err != nil {
		return nil, &ToolError{Kind: ToolErrorInvalidArgs, Violations: []string{"path template expansion failed: " + err.Error()}, Cause: err}
	}
	fullURL := strings.TrimSuffix(t.rt.baseURL, "/") + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body []byte
	if t.op.RequestBody != nil && t.op.RequestBody.Value != nil {
		if v, ok := args["requestBody"]; ok && v != nil {
			if body, err = json.Marshal(v); err != nil {
				return nil, &ToolError{Kind: ToolErrorInvalidArgs, Violations: []string{"request body is not JSON-serializable"}, Cause: err}
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, t.op.Method, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, &ToolError{Kind: ToolErrorTransport, Cause: err}
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if len(cookiePairs) > 0 {
		req.Header.Set("Cookie", strings.Join(cookiePairs, "; "))
	}
	return req, nil
}

// operationRequiresAuth reports whether the operation carries at least one
// non-empty security requirement. An explicit empty security list opts the
// operation out of auth.
func operationRequiresAuth(op OpenAPIOperation) bool {
	for _, req := range op.Security {
		if len(req) > 0 {
			return true
		}
	}
	return false
}

// registerMetaTools adds the info, externalDocs and describe tools so agents
// can discover what the converted API offers.
func registerMetaTools(server *mcpserver.MCPServer, doc *openapi3.T, opts *ToolGenOptions) []string {
	var names []string
	emptySchema, _ := json.Marshal(map[string]any{"type": "object", "properties": map[string]any{}})

	if doc.Info != nil {
		tool := mcp.NewToolWithRawSchema("info", "Show API metadata: title, version, description, and terms of service.", emptySchema)
		server.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var sb strings.Builder
			if doc.Info.Title != "" {
				sb.WriteString("Title: " + doc.Info.Title + "\n")
			}
			if doc.Info.Version != "" {
				sb.WriteString("Version: " + doc.Info.Version + "\n")
			}
			if doc.Info.Description != "" {
				sb.WriteString("Description: " + doc.Info.Description + "\n")
			}
			if doc.Info.TermsOfService != "" {
				sb.WriteString("Terms of Service: " + doc.Info.TermsOfService + "\n")
			}
			return mcp.NewToolResultText(strings.TrimSpace(sb.String())), nil
		})
		names = append(names, "info")
	}

	if doc.ExternalDocs != nil && doc.ExternalDocs.URL != "" {
		tool := mcp.NewToolWithRawSchema("externalDocs", "Show the OpenAPI external documentation URL and description.", emptySchema)
		server.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			info := "External documentation URL: " + doc.ExternalDocs.URL
			if doc.ExternalDocs.Description != "" {
				info += "\nDescription: " + doc.ExternalDocs.Description
			}
			return mcp.NewToolResultText(info), nil
		})
		names = append(names, "externalDocs")
	}

	ops, _ := ExtractOpenAPIOperations(doc)
	describeTool := mcp.NewToolWithRawSchema("describe", "Describe all available tools and their schemas in machine-readable form.", emptySchema)
	describeTool.Annotations = mcp.ToolAnnotation{Title: "Agent-Friendly Documentation"}
	server.AddTool(describeTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tools := make([]map[string]any, 0, len(ops))
		for _, op := range ops {
			if !matchesTagFilter(op, opts.TagFilter) {
				continue
			}
			desc := op.Description
			if desc == "" {
				desc = op.Summary
			}
			tools = append(tools, map[string]any{
				"name":        op.OperationID,
				"description": desc,
				"inputSchema": BuildInputSchema(op.Parameters, op.RequestBody),
				"tags":        op.Tags,
			})
		}
		out, _ := json.MarshalIndent(map[string]any{"type": "tool_descriptions", "tools": tools}, "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	})
	names = append(names, "describe")

	return names
}
