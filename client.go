// Package neoql holds the contracts shared between the query layer and the
// database drivers, such as Client, Result and Config.
package neoql

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Client is the capability used to talk to a graph database: run a statement
// with parameters and return the rows.
type Client interface {
	// Name returns the driver identifier (e.g., "neo4j").
	Name() string

	// Run executes a statement outside of any explicit transaction.
	Run(ctx context.Context, statement string, params map[string]any) (*Result, error)

	// BeginTransaction starts an explicit transaction.
	BeginTransaction(ctx context.Context) (Transaction, error)

	// Close releases any resources held by the client.
	Close(ctx context.Context) error
}

// Transaction represents an active database transaction.
// Statements run through a transaction are isolated until Commit or Rollback.
type Transaction interface {
	// Run executes a statement within this transaction.
	Run(ctx context.Context, statement string, params map[string]any) (*Result, error)

	// Commit commits the transaction.
	Commit(ctx context.Context) error

	// Rollback aborts the transaction.
	Rollback(ctx context.Context) error
}

// ClientFactory creates a Client from connection configuration.
type ClientFactory func(cfg *Config) (Client, error)

var (
	clientsMu sync.RWMutex
	clients   = make(map[string]ClientFactory)
)

// RegisterClient registers a client factory by driver name.
func RegisterClient(name string, factory ClientFactory) {
	clientsMu.Lock()
	defer clientsMu.Unlock()

	clients[name] = factory
}

// NewClient creates a client for cfg.Driver.
func NewClient(cfg *Config) (Client, error) {
	cfg = cfg.WithDefaults()

	clientsMu.RLock()
	factory, ok := clients[cfg.Driver]
	clientsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}

	return factory(cfg)
}

// RegisteredClients returns the names of all registered drivers, sorted.
func RegisteredClients() []string {
	clientsMu.RLock()
	defer clientsMu.RUnlock()

	names := make([]string, 0, len(clients))
	for name := range clients {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
