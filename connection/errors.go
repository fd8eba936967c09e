package connection

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	// ErrNoActiveTransaction is returned by Commit when no transaction is open.
	ErrNoActiveTransaction = errors.New("connection: no active transaction")

	// ErrNoReconnector is returned by Reconnect when no reconnector is configured.
	ErrNoReconnector = errors.New("connection: lost connection and no reconnector available")

	// ErrInvalidCypher is returned when statement validation is enabled and a
	// statement does not parse.
	ErrInvalidCypher = errors.New("connection: invalid cypher")
)

// QueryError wraps a failure reported by the client together with the
// statement and the prepared bindings that caused it.
type QueryError struct {
	Statement string
	Bindings  map[string]any
	Err       error
}

func (e *QueryError) Error() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "connection: query failed: %v (statement: %s", e.Err, e.Statement)

	if len(e.Bindings) > 0 {
		fmt.Fprintf(&sb, ", bindings: %v", e.Bindings)
	}

	sb.WriteString(")")

	return sb.String()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
