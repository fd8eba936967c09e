package connection

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Begin opens an application transaction, or joins the one already open by
// incrementing its depth.
func (c *Connection) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.depth == 0 && !c.pretending {
		client, err := c.clientLocked()
		if err != nil {
			return err
		}

		tx, err := client.BeginTransaction(ctx)
		if err != nil {
			return &QueryError{Statement: "BEGIN", Err: err}
		}

		c.tx, c.txID = tx, uuid.New()
	}

	c.depth++

	c.logger.Debug("began transaction",
		zap.String("tx", c.txID.String()),
		zap.Int("depth", c.depth))

	return nil
}

// Commit leaves one level of the application transaction. Only leaving the
// outermost level commits.
func (c *Connection) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.depth == 0 {
		return ErrNoActiveTransaction
	}

	if c.depth == 1 && c.tx != nil {
		tx := c.tx
		c.tx, c.depth = nil, 0

		if err := tx.Commit(ctx); err != nil {
			return &QueryError{Statement: "COMMIT", Err: err}
		}

		c.logger.Debug("committed transaction", zap.String("tx", c.txID.String()))

		return nil
	}

	c.depth--

	return nil
}

// Rollback rolls the underlying transaction back and resets the depth to
// zero, at any depth. Nested levels are not savepoints. Without an open
// transaction it does nothing.
func (c *Connection) Rollback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.depth == 0 {
		return nil
	}

	tx := c.tx
	c.tx, c.depth = nil, 0

	c.logger.Debug("rolled back transaction", zap.String("tx", c.txID.String()))

	if tx == nil {
		return nil
	}

	if err := tx.Rollback(ctx); err != nil {
		return &QueryError{Statement: "ROLLBACK", Err: err}
	}

	return nil
}

// TransactionLevel returns the current application transaction depth.
func (c *Connection) TransactionLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.depth
}

// Transaction runs fn inside an application transaction. An error or panic
// from fn rolls back; the error is returned and the panic re-raised.
func (c *Connection) Transaction(ctx context.Context, fn func(c *Connection) error) error {
	if err := c.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			if rbErr := c.Rollback(ctx); rbErr != nil {
				c.logger.Warn("rollback after panic failed", zap.Error(rbErr))
			}

			panic(r)
		}
	}()

	if err := fn(c); err != nil {
		if rbErr := c.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}

		return err
	}

	return c.Commit(ctx)
}
