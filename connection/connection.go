// Package connection runs compiled Cypher statements against a neoql.Client.
//
// Reads go straight to the client, or to the open application transaction.
// Writes always run inside a transaction. Every execution is timed, logged
// and kept in an in-memory query log.
package connection

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rlch/neoql"
	"github.com/rlch/neoql/dialects/cypher"
	"github.com/rlch/neoql/query"
)

// Connection is the execution bridge between query builders and a client.
// It implements query.Connection.
//
// A Connection is not safe for concurrent use by unrelated logical requests;
// the mutex only protects its own bookkeeping.
type Connection struct {
	cfg         *neoql.Config
	client      neoql.Client
	grammar     query.Grammar
	logger      *zap.Logger
	reconnector Reconnector
	validate    bool

	mu sync.Mutex

	tx    neoql.Transaction
	txID  uuid.UUID
	depth int

	pretending bool
	logging    bool
	log        []LoggedQuery
}

var _ query.Connection = (*Connection)(nil)

// New creates a Connection for cfg. The client is created lazily on first
// use unless one is given with WithClient.
func New(cfg *neoql.Config, opts ...Option) *Connection {
	if cfg == nil {
		cfg = neoql.DefaultConfig()
	}

	c := &Connection{
		cfg:     cfg.WithDefaults(),
		grammar: cypher.NewGrammar(),
		logger:  zap.NewNop(),
		logging: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Table starts a query builder targeting nodes with the given labels.
func (c *Connection) Table(labels ...string) *query.Builder {
	return c.Query().From(labels...)
}

// Query starts an empty query builder on this connection.
func (c *Connection) Query() *query.Builder {
	return query.New(c, c.grammar)
}

// Grammar returns the grammar used to compile statements.
func (c *Connection) Grammar() query.Grammar {
	return c.grammar
}

// Logger returns the connection's logger.
func (c *Connection) Logger() *zap.Logger {
	return c.logger
}

// Client returns the client, creating it through the registered factory for
// the configured driver on first use.
func (c *Connection) Client() (neoql.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.clientLocked()
}

func (c *Connection) clientLocked() (neoql.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	client, err := neoql.NewClient(c.cfg)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("created client",
		zap.String("driver", client.Name()),
		zap.String("uri", c.cfg.URI()))

	c.client = client

	return client, nil
}

// SetClient replaces the client. A nil client is created again on next use.
func (c *Connection) SetClient(client neoql.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.client = client
}

// Disconnect closes the client. Any open application transaction is
// abandoned and the depth reset.
func (c *Connection) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tx, c.depth = nil, 0

	if c.client == nil {
		return nil
	}

	err := c.client.Close(ctx)
	c.client = nil

	return err
}

// Reconnect disconnects and lets the configured Reconnector establish a new
// client.
func (c *Connection) Reconnect(ctx context.Context) error {
	if c.reconnector == nil {
		return ErrNoReconnector
	}

	if err := c.Disconnect(ctx); err != nil {
		c.logger.Warn("disconnect before reconnect failed", zap.Error(err))
	}

	return c.reconnector(ctx, c)
}

// Config returns the connection configuration.
func (c *Connection) Config() *neoql.Config {
	return c.cfg
}

// Name returns the configured connection name.
func (c *Connection) Name() string {
	return c.cfg.Name
}

// DriverName returns the configured driver.
func (c *Connection) DriverName() string {
	return c.cfg.Driver
}

// Scheme returns the configured URI scheme.
func (c *Connection) Scheme() string {
	return c.cfg.Scheme
}

// Host returns the configured host.
func (c *Connection) Host() string {
	return c.cfg.Host
}

// Port returns the configured port.
func (c *Connection) Port() int {
	return c.cfg.Port
}

// Username returns the configured user.
func (c *Connection) Username() string {
	return c.cfg.Username
}

// Password returns the configured password.
func (c *Connection) Password() string {
	return c.cfg.Password
}

// Secured reports whether credentials are configured.
func (c *Connection) Secured() bool {
	return c.cfg.Secured()
}
