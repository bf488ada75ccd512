// Package errors defines the error kinds surfaced to MCP callers.
//
// Every failure that reaches the protocol adapter carries a Kind so it can be
// reported as a JSON-RPC error with a stable code and a descriptive message.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// InvalidResourceURI indicates a resource URI that cannot be decoded.
	InvalidResourceURI Kind = "invalid_resource_uri"
	// SchemaNotAllowed indicates a schema outside the configured allow-list.
	SchemaNotAllowed Kind = "schema_not_allowed"
	// InvalidArgument indicates missing or malformed tool arguments.
	InvalidArgument Kind = "invalid_argument"
	// UnknownTool indicates a tool name that is not registered.
	UnknownTool Kind = "unknown_tool"
	// Database indicates a failure reported by the database client.
	Database Kind = "database_error"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ToRPC converts err into a JSON-RPC error. Caller mistakes map to
// invalid params, everything else to internal error.
func ToRPC(err error) error {
	if err == nil {
		return nil
	}
	code := int64(jsonrpc.CodeInternalError)
	switch KindOf(err) {
	case InvalidResourceURI, SchemaNotAllowed, InvalidArgument, UnknownTool:
		code = jsonrpc.CodeInvalidParams
	}
	return &jsonrpc.Error{Code: code, Message: err.Error()}
}
