// errors.go
package openapi2mcp

import (
	"fmt"
	"strings"
)

// SpecErrorKind classifies spec load/validation failures.
type SpecErrorKind string

const (
	SpecErrorParse              SpecErrorKind = "parse"
	SpecErrorUnsupportedVersion SpecErrorKind = "unsupported_version"
	SpecErrorMissingPaths       SpecErrorKind = "missing_paths"
	SpecErrorUnresolvedRef      SpecErrorKind = "unresolved_reference"
	SpecErrorCircularRef        SpecErrorKind = "circular_reference"
)

// SpecError is a load/validate-time failure. It is fatal to that load attempt
// only; the caller may retry with a corrected document.
type SpecError struct {
	Kind   SpecErrorKind
	Ref    string // offending $ref for reference errors
	Detail string
	Cause  error
}

func (e *SpecError) Error() string {
	var sb strings.Builder
	sb.WriteString("openapi spec ")
	sb.WriteString(string(e.Kind))
	if e.Ref != "" {
		sb.WriteString(": " + e.Ref)
	}
	if e.Detail != "" {
		sb.WriteString(": " + e.Detail)
	}
	if e.Cause != nil {
		sb.WriteString(": " + e.Cause.Error())
	}
	return sb.String()
}

func (e *SpecError) Unwrap() error { return e.Cause }

// ExtractionError reports a single malformed operation that could not be
// extracted. It never aborts extraction of the remaining operations.
type ExtractionError struct {
	Path   string
	Method string
	Detail string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("skipping operation %s %s: %s", e.Method, e.Path, e.Detail)
}

// ToolErrorKind classifies tool invocation failures.
type ToolErrorKind string

const (
	ToolErrorInvalidArgs     ToolErrorKind = "invalid_args"
	ToolErrorRequestFailed   ToolErrorKind = "request_failed"
	ToolErrorTransport       ToolErrorKind = "transport"
	ToolErrorTimeout         ToolErrorKind = "timeout"
	ToolErrorUnauthenticated ToolErrorKind = "unauthenticated"
)

// ToolError is the error branch of a tool invocation Result.
type ToolError struct {
	Kind       ToolErrorKind
	Status     int      // HTTP status for request_failed
	Body       string   // response body for request_failed
	Violations []string // schema violations for invalid_args
	Cause      error
}

func (e *ToolError) Error() string {
	switch e.Kind {
	case ToolErrorInvalidArgs:
		return "invalid arguments: " + strings.Join(e.Violations, "; ")
	case ToolErrorRequestFailed:
		return fmt.Sprintf("request failed with HTTP %d: %s", e.Status, e.Body)
	case ToolErrorTimeout:
		return "request timed out"
	case ToolErrorUnauthenticated:
		return "not authenticated: complete the authorization flow and retry"
	default:
		if e.Cause != nil {
			return "transport error: " + e.Cause.Error()
		}
		return "transport error"
	}
}

func (e *ToolError) Unwrap() error { return e.Cause }

// ResourceError is the error branch of a resource read Result. It mirrors
// ToolError's I/O branches.
type ResourceError struct {
	Kind  ToolErrorKind
	URI   string
	Cause error
}

func (e *ResourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resource %s: %s: %v", e.URI, e.Kind, e.Cause)
	}
	return fmt.Sprintf("resource %s: %s", e.URI, e.Kind)
}

func (e *ResourceError) Unwrap() error { return e.Cause }
