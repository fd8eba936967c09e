package connection

import (
	"context"

	"go.uber.org/zap"

	"github.com/rlch/neoql"
	"github.com/rlch/neoql/query"
)

// Reconnector re-establishes the client of c, typically with SetClient.
type Reconnector func(ctx context.Context, c *Connection) error

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger used for statements and transactions.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClient hands the connection an existing client instead of creating
// one from the registered factory on first use.
func WithClient(client neoql.Client) Option {
	return func(c *Connection) {
		c.client = client
	}
}

// WithGrammar replaces the Cypher grammar used by Table and Query.
func WithGrammar(g query.Grammar) Option {
	return func(c *Connection) {
		if g != nil {
			c.grammar = g
		}
	}
}

// WithReconnector sets the function Reconnect calls.
func WithReconnector(r Reconnector) Option {
	return func(c *Connection) {
		c.reconnector = r
	}
}

// WithValidation parses every statement before it is sent and rejects
// statements that are not valid Cypher.
func WithValidation(enabled bool) Option {
	return func(c *Connection) {
		c.validate = enabled
	}
}

// WithQueryLog enables the in-memory query log from the start.
func WithQueryLog(enabled bool) Option {
	return func(c *Connection) {
		c.logging = enabled
	}
}
