// result.go
package openapi2mcp

// Result is a two-variant outcome: either a success value or an error, never
// both. It is the shape handed to the MCP transport adapter by tool and
// resource handlers; there is no implicit "falsy" success.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Ok wraps a success value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Err wraps an error outcome.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsOk reports whether the result holds a success value.
func (r Result[T]) IsOk() bool { return r.ok }

// Value returns the success value, or the zero value for an error result.
func (r Result[T]) Value() T { return r.value }

// Err returns the error, or nil for a success result.
func (r Result[T]) Err() error { return r.err }

// Unwrap returns the result in Go's native (value, error) shape.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }
