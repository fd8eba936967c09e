package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rlch/neoql"
	cyphergrammar "github.com/rlch/neoql/dialects/cypher/grammar"
)

// LoggedQuery is one entry of the query log.
type LoggedQuery struct {
	Statement string
	Bindings  map[string]any
	Elapsed   time.Duration
	Err       error
}

// runner executes one prepared statement.
type runner func(ctx context.Context, statement string, params map[string]any) (*neoql.Result, error)

// Select runs a read statement and returns its rows.
func (c *Connection) Select(ctx context.Context, statement string, bindings map[string]any) (*neoql.Result, error) {
	return c.run(ctx, statement, bindings, c.read)
}

// SelectOne runs a read statement and returns its first row, or nil.
func (c *Connection) SelectOne(ctx context.Context, statement string, bindings map[string]any) (*neoql.Record, error) {
	res, err := c.Select(ctx, statement, bindings)
	if err != nil {
		return nil, err
	}

	return res.First(), nil
}

// Insert runs a creating statement.
func (c *Connection) Insert(ctx context.Context, statement string, bindings map[string]any) (*neoql.Result, error) {
	return c.StatementResult(ctx, statement, bindings)
}

// Update runs an updating statement.
func (c *Connection) Update(ctx context.Context, statement string, bindings map[string]any) (*neoql.Result, error) {
	return c.StatementResult(ctx, statement, bindings)
}

// Delete runs a deleting statement.
func (c *Connection) Delete(ctx context.Context, statement string, bindings map[string]any) (*neoql.Result, error) {
	return c.StatementResult(ctx, statement, bindings)
}

// Statement runs a write statement and reports success.
func (c *Connection) Statement(ctx context.Context, statement string, bindings map[string]any) (bool, error) {
	_, err := c.StatementResult(ctx, statement, bindings)

	return err == nil, err
}

// StatementResult runs a write statement and returns its raw result.
func (c *Connection) StatementResult(ctx context.Context, statement string, bindings map[string]any) (*neoql.Result, error) {
	return c.run(ctx, statement, bindings, c.write)
}

// AffectingStatement runs a write statement and returns the number of
// affected rows: the returned rows, or the touched nodes and relationships
// when nothing is returned.
func (c *Connection) AffectingStatement(ctx context.Context, statement string, bindings map[string]any) (int, error) {
	res, err := c.StatementResult(ctx, statement, bindings)
	if err != nil {
		return 0, err
	}

	return affected(res), nil
}

// Unprepared runs a write statement that takes no bindings.
func (c *Connection) Unprepared(ctx context.Context, statement string) (bool, error) {
	return c.Statement(ctx, statement, nil)
}

func affected(res *neoql.Result) int {
	if res == nil {
		return 0
	}

	if n := res.Len(); n > 0 {
		return n
	}

	ct := res.Counters

	return ct.NodesCreated + ct.NodesDeleted + ct.RelationshipsCreated + ct.RelationshipsDeleted
}

// read runs on the open application transaction, else on the client.
func (c *Connection) read(ctx context.Context, statement string, params map[string]any) (*neoql.Result, error) {
	if tx := c.transaction(); tx != nil {
		return tx.Run(ctx, statement, params)
	}

	client, err := c.Client()
	if err != nil {
		return nil, err
	}

	return client.Run(ctx, statement, params)
}

// write runs on the open application transaction, else inside a fresh
// transaction that is committed on success and rolled back on failure.
func (c *Connection) write(ctx context.Context, statement string, params map[string]any) (*neoql.Result, error) {
	if tx := c.transaction(); tx != nil {
		return tx.Run(ctx, statement, params)
	}

	client, err := c.Client()
	if err != nil {
		return nil, err
	}

	tx, err := client.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}

	res, err := tx.Run(ctx, statement, params)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return nil, errors.Join(err, rbErr)
		}

		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return res, nil
}

func (c *Connection) transaction() neoql.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.tx
}

// run validates, prepares, times, logs and executes statement. In pretend
// mode nothing reaches the client and an empty result is returned.
func (c *Connection) run(ctx context.Context, statement string, bindings map[string]any, fn runner) (*neoql.Result, error) {
	if c.validate {
		if err := cyphergrammar.Validate(statement); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCypher, err)
		}
	}

	params := PrepareBindings(bindings, c.grammar.DateFormat())

	if c.Pretending() {
		c.logQuery(statement, params, 0, nil)

		return &neoql.Result{}, nil
	}

	start := time.Now()
	res, err := fn(ctx, statement, params)
	elapsed := time.Since(start)

	c.logQuery(statement, params, elapsed, err)

	if err != nil {
		return nil, &QueryError{Statement: statement, Bindings: params, Err: err}
	}

	if res == nil {
		res = &neoql.Result{}
	}

	return res, nil
}

func (c *Connection) logQuery(statement string, params map[string]any, elapsed time.Duration, err error) {
	fields := []zap.Field{
		zap.String("statement", statement),
		zap.Any("bindings", params),
		zap.Duration("elapsed", elapsed),
	}

	c.mu.Lock()

	if c.tx != nil {
		fields = append(fields, zap.String("tx", c.txID.String()))
	}

	if c.pretending {
		fields = append(fields, zap.Bool("pretend", true))
	}

	if c.logging {
		c.log = append(c.log, LoggedQuery{Statement: statement, Bindings: params, Elapsed: elapsed, Err: err})
	}

	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("statement failed", append(fields, zap.Error(err))...)

		return
	}

	c.logger.Debug("statement", fields...)
}

// Pretend runs fn with pretend mode on and returns the statements it
// would have executed. Pretend mode is restored to its previous state.
func (c *Connection) Pretend(fn func(c *Connection) error) ([]LoggedQuery, error) {
	c.mu.Lock()
	prevLog, prevLogging, prevPretending := c.log, c.logging, c.pretending
	c.log, c.logging, c.pretending = nil, true, true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.log, c.logging, c.pretending = prevLog, prevLogging, prevPretending
		c.mu.Unlock()
	}()

	err := fn(c)

	return c.QueryLog(), err
}

// Pretending reports whether pretend mode is active.
func (c *Connection) Pretending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pretending
}

// QueryLog returns a copy of the query log.
func (c *Connection) QueryLog() []LoggedQuery {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]LoggedQuery(nil), c.log...)
}

// FlushQueryLog empties the query log.
func (c *Connection) FlushQueryLog() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log = nil
}

// EnableQueryLog starts recording executed statements.
func (c *Connection) EnableQueryLog() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logging = true
}

// DisableQueryLog stops recording executed statements.
func (c *Connection) DisableQueryLog() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logging = false
}

// Logging reports whether the query log is recording.
func (c *Connection) Logging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.logging
}
