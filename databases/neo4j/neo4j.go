// Package neo4j provides a neoql Client implementation for Neo4j.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/rlch/neoql"
)

//nolint:gochecknoinits // Client self-registration pattern
func init() {
	neoql.RegisterClient(neoql.DriverNeo4j, func(cfg *neoql.Config) (neoql.Client, error) {
		return New(cfg)
	})
}

// Client implements neoql.Client on top of the official Neo4j driver.
// Every call outside a transaction gets its own session.
type Client struct {
	driver neo4j.DriverWithContext
	db     string
}

// New creates a Neo4j client from the given configuration and verifies that
// the server is reachable.
func New(cfg *neoql.Config) (*Client, error) {
	cfg = cfg.WithDefaults()

	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI(), auth)
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to create driver: %w", err)
	}

	ctx := context.Background()

	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		_ = driver.Close(ctx)

		return nil, fmt.Errorf("neo4j: failed to connect: %w", err)
	}

	return &Client{driver: driver, db: cfg.Database}, nil
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return neoql.DriverNeo4j
}

func (c *Client) session(ctx context.Context) neo4j.SessionWithContext {
	sessionCfg := neo4j.SessionConfig{
		AccessMode: neo4j.AccessModeWrite,
	}
	if c.db != "" {
		sessionCfg.DatabaseName = c.db
	}

	return c.driver.NewSession(ctx, sessionCfg)
}

// Run executes a statement in an auto-commit session.
func (c *Client) Run(ctx context.Context, statement string, params map[string]any) (*neoql.Result, error) {
	session := c.session(ctx)
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, statement, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j: query execution failed: %w", err)
	}

	return collect(ctx, result)
}

// BeginTransaction opens a session and starts an explicit transaction on it.
// The session is closed when the transaction ends.
func (c *Client) BeginTransaction(ctx context.Context) (neoql.Transaction, error) {
	session := c.session(ctx)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		_ = session.Close(ctx)

		return nil, fmt.Errorf("neo4j: failed to begin transaction: %w", err)
	}

	return &Transaction{session: session, tx: tx}, nil
}

// Close releases the driver.
func (c *Client) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}

	err := c.driver.Close(ctx)
	if err != nil {
		return fmt.Errorf("neo4j: failed to close driver: %w", err)
	}

	return nil
}

// Transaction wraps a Neo4j explicit transaction.
type Transaction struct {
	session neo4j.SessionWithContext
	tx      neo4j.ExplicitTransaction
}

// Run executes a statement within this transaction.
func (t *Transaction) Run(ctx context.Context, statement string, params map[string]any) (*neoql.Result, error) {
	result, err := t.tx.Run(ctx, statement, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j: query execution failed: %w", err)
	}

	return collect(ctx, result)
}

// Commit commits the transaction and closes its session.
func (t *Transaction) Commit(ctx context.Context) error {
	defer func() { _ = t.session.Close(ctx) }()

	return t.tx.Commit(ctx)
}

// Rollback aborts the transaction and closes its session.
func (t *Transaction) Rollback(ctx context.Context) error {
	defer func() { _ = t.session.Close(ctx) }()

	return t.tx.Rollback(ctx)
}

func collect(ctx context.Context, result neo4j.ResultWithContext) (*neoql.Result, error) {
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to collect results: %w", err)
	}

	out := &neoql.Result{Records: make([]*neoql.Record, len(records))}
	for i, record := range records {
		out.Records[i] = convertRecord(record.Keys, record.Values)
	}

	summary, err := result.Consume(ctx)
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to consume result: %w", err)
	}

	out.Counters = convertCounters(summary.Counters())

	return out, nil
}

func convertCounters(c neo4j.Counters) neoql.Counters {
	return neoql.Counters{
		NodesCreated:         c.NodesCreated(),
		NodesDeleted:         c.NodesDeleted(),
		RelationshipsCreated: c.RelationshipsCreated(),
		RelationshipsDeleted: c.RelationshipsDeleted(),
		PropertiesSet:        c.PropertiesSet(),
		LabelsAdded:          c.LabelsAdded(),
		LabelsRemoved:        c.LabelsRemoved(),
	}
}

// convertRecord converts a driver record into a neoql record, replacing
// driver graph types with their neoql counterparts at any depth.
func convertRecord(keys []string, values []any) *neoql.Record {
	rec := &neoql.Record{
		Keys:   append([]string(nil), keys...),
		Values: make([]any, len(values)),
	}

	for i, value := range values {
		rec.Values[i] = convertValue(value)
	}

	return rec
}

func convertValue(value any) any {
	switch v := value.(type) {
	case dbtype.Node:
		return convertNode(v)

	case dbtype.Relationship:
		return convertRelationship(v)

	case dbtype.Path:
		path := neoql.Path{
			Nodes:         make([]neoql.Node, len(v.Nodes)),
			Relationships: make([]neoql.Relationship, len(v.Relationships)),
		}
		for i, n := range v.Nodes {
			path.Nodes[i] = convertNode(n)
		}

		for i, r := range v.Relationships {
			path.Relationships[i] = convertRelationship(r)
		}

		return path

	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = convertValue(val)
		}

		return out

	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = convertValue(val)
		}

		return out

	default:
		return v
	}
}

//nolint:staticcheck // numeric ids are still the identity surfaced by id()
func convertNode(n dbtype.Node) neoql.Node {
	return neoql.Node{
		ID:        n.Id,
		ElementID: n.ElementId,
		Labels:    n.Labels,
		Props:     convertProps(n.Props),
	}
}

//nolint:staticcheck // numeric ids are still the identity surfaced by id()
func convertRelationship(r dbtype.Relationship) neoql.Relationship {
	return neoql.Relationship{
		ID:        r.Id,
		ElementID: r.ElementId,
		StartID:   r.StartId,
		EndID:     r.EndId,
		Type:      r.Type,
		Props:     convertProps(r.Props),
	}
}

func convertProps(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = convertValue(v)
	}

	return out
}

// Compile-time interface checks.
var (
	_ neoql.Client      = (*Client)(nil)
	_ neoql.Transaction = (*Transaction)(nil)
)
