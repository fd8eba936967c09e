package connection_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rlch/neoql"
	"github.com/rlch/neoql/connection"
)

type call struct {
	statement string
	params    map[string]any
	tx        bool
}

// fakeClient records every statement and answers with respond.
type fakeClient struct {
	mu      sync.Mutex
	calls   []call
	txs     []*fakeTx
	closed  bool
	respond func(statement string) (*neoql.Result, error)
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Run(_ context.Context, statement string, params map[string]any) (*neoql.Result, error) {
	return f.record(statement, params, false)
}

func (f *fakeClient) BeginTransaction(context.Context) (neoql.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx := &fakeTx{client: f}
	f.txs = append(f.txs, tx)

	return tx, nil
}

func (f *fakeClient) Close(context.Context) error {
	f.closed = true
	return nil
}

func (f *fakeClient) record(statement string, params map[string]any, tx bool) (*neoql.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{statement: statement, params: params, tx: tx})
	f.mu.Unlock()

	if f.respond != nil {
		return f.respond(statement)
	}

	return &neoql.Result{}, nil
}

type fakeTx struct {
	client     *fakeClient
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Run(_ context.Context, statement string, params map[string]any) (*neoql.Result, error) {
	return t.client.record(statement, params, true)
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func newConn(t *testing.T, opts ...connection.Option) (*connection.Connection, *fakeClient) {
	t.Helper()

	client := &fakeClient{}

	return connection.New(nil, append([]connection.Option{connection.WithClient(client)}, opts...)...), client
}

func TestConnection_ReadRunsOnClient(t *testing.T) {
	t.Parallel()

	conn, client := newConn(t)

	_, err := conn.Select(t.Context(), "MATCH (n) RETURN n", map[string]any{"a": 1})
	require.NoError(t, err)

	require.Len(t, client.calls, 1)
	assert.False(t, client.calls[0].tx)
	assert.Empty(t, client.txs)
}

func TestConnection_WriteRunsInTransaction(t *testing.T) {
	t.Parallel()

	conn, client := newConn(t)

	ok, err := conn.Statement(t.Context(), "CREATE (n:`User`)", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, client.txs, 1)
	assert.True(t, client.txs[0].committed)
	assert.False(t, client.txs[0].rolledBack)
	assert.True(t, client.calls[0].tx)
}

func TestConnection_WriteRollsBackOnError(t *testing.T) {
	t.Parallel()

	cause := errors.New("constraint violated")
	conn, client := newConn(t)
	client.respond = func(string) (*neoql.Result, error) { return nil, cause }

	_, err := conn.Insert(t.Context(), "CREATE (n:`User` {name: $name})", map[string]any{"name": "jd"})
	require.ErrorIs(t, err, cause)

	var qe *connection.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "CREATE (n:`User` {name: $name})", qe.Statement)
	assert.Equal(t, map[string]any{"name": "jd"}, qe.Bindings)

	require.Len(t, client.txs, 1)
	assert.True(t, client.txs[0].rolledBack)
	assert.False(t, client.txs[0].committed)
}

func TestConnection_AffectingStatement(t *testing.T) {
	t.Parallel()

	conn, client := newConn(t)
	client.respond = func(string) (*neoql.Result, error) {
		return &neoql.Result{Counters: neoql.Counters{NodesDeleted: 2, RelationshipsDeleted: 1}}, nil
	}

	n, err := conn.AffectingStatement(t.Context(), "MATCH (n) DETACH DELETE n", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	client.respond = func(string) (*neoql.Result, error) {
		return &neoql.Result{Records: []*neoql.Record{{}, {}}}, nil
	}

	n, err = conn.AffectingStatement(t.Context(), "MATCH (n) SET n.a = 1 RETURN n", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestConnection_TransactionDepth(t *testing.T) {
	t.Parallel()

	t.Run("commit only at outermost level", func(t *testing.T) {
		t.Parallel()

		conn, client := newConn(t)
		ctx := t.Context()

		require.NoError(t, conn.Begin(ctx))
		require.NoError(t, conn.Begin(ctx))
		assert.Equal(t, 2, conn.TransactionLevel())
		require.Len(t, client.txs, 1)

		require.NoError(t, conn.Commit(ctx))
		assert.Equal(t, 1, conn.TransactionLevel())
		assert.False(t, client.txs[0].committed)

		require.NoError(t, conn.Commit(ctx))
		assert.Equal(t, 0, conn.TransactionLevel())
		assert.True(t, client.txs[0].committed)
	})

	t.Run("rollback at any depth closes the transaction", func(t *testing.T) {
		t.Parallel()

		conn, client := newConn(t)
		ctx := t.Context()

		require.NoError(t, conn.Begin(ctx))
		require.NoError(t, conn.Begin(ctx))
		require.NoError(t, conn.Rollback(ctx))

		assert.Equal(t, 0, conn.TransactionLevel())
		assert.True(t, client.txs[0].rolledBack)
	})

	t.Run("no active transaction", func(t *testing.T) {
		t.Parallel()

		conn, _ := newConn(t)

		require.ErrorIs(t, conn.Commit(t.Context()), connection.ErrNoActiveTransaction)
		require.NoError(t, conn.Rollback(t.Context()))
	})

	t.Run("statements join the open transaction", func(t *testing.T) {
		t.Parallel()

		conn, client := newConn(t)
		ctx := t.Context()

		require.NoError(t, conn.Begin(ctx))

		_, err := conn.Select(ctx, "MATCH (n) RETURN n", nil)
		require.NoError(t, err)
		_, err = conn.Statement(ctx, "CREATE (n:`User`)", nil)
		require.NoError(t, err)

		require.Len(t, client.txs, 1)
		assert.True(t, client.calls[0].tx)
		assert.True(t, client.calls[1].tx)
		assert.False(t, client.txs[0].committed)

		require.NoError(t, conn.Commit(ctx))
		assert.True(t, client.txs[0].committed)
	})
}

func TestConnection_Transaction(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()

		conn, client := newConn(t)

		err := conn.Transaction(t.Context(), func(c *connection.Connection) error {
			_, err := c.Statement(t.Context(), "CREATE (n:`User`)", nil)
			return err
		})
		require.NoError(t, err)
		assert.True(t, client.txs[0].committed)
	})

	t.Run("rolls back and returns the error", func(t *testing.T) {
		t.Parallel()

		conn, client := newConn(t)
		boom := errors.New("boom")

		err := conn.Transaction(t.Context(), func(c *connection.Connection) error {
			_, err := c.Statement(t.Context(), "CREATE (n:`User`)", nil)
			require.NoError(t, err)

			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.True(t, client.txs[0].rolledBack)
		assert.Equal(t, 0, conn.TransactionLevel())
	})

	t.Run("rolls back and re-raises a panic", func(t *testing.T) {
		t.Parallel()

		conn, client := newConn(t)

		assert.PanicsWithValue(t, "kaboom", func() {
			_ = conn.Transaction(t.Context(), func(*connection.Connection) error {
				panic("kaboom")
			})
		})
		assert.True(t, client.txs[0].rolledBack)
		assert.Equal(t, 0, conn.TransactionLevel())
	})
}

func TestConnection_Pretend(t *testing.T) {
	t.Parallel()

	conn, client := newConn(t)

	logged, err := conn.Pretend(func(c *connection.Connection) error {
		assert.True(t, c.Pretending())

		res, err := c.Select(t.Context(), "MATCH (n) RETURN n", map[string]any{"a": 1})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Len())

		n, err := c.AffectingStatement(t.Context(), "MATCH (n) DETACH DELETE n", nil)
		require.NoError(t, err)
		assert.Zero(t, n)

		ok, err := c.Statement(t.Context(), "CREATE (n:`User`)", nil)
		require.NoError(t, err)
		assert.True(t, ok)

		return nil
	})
	require.NoError(t, err)

	assert.False(t, conn.Pretending())
	assert.Empty(t, client.calls)
	assert.Empty(t, client.txs)

	statements := make([]string, len(logged))
	for i, q := range logged {
		statements[i] = q.Statement
	}

	want := []string{"MATCH (n) RETURN n", "MATCH (n) DETACH DELETE n", "CREATE (n:`User`)"}
	if diff := cmp.Diff(want, statements); diff != "" {
		t.Errorf("Pretend() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, map[string]any{"a": 1}, logged[0].Bindings)
	assert.Empty(t, conn.QueryLog())
}

func TestConnection_QueryLog(t *testing.T) {
	t.Parallel()

	conn, _ := newConn(t)
	ctx := t.Context()

	_, err := conn.Select(ctx, "MATCH (n) RETURN n", nil)
	require.NoError(t, err)

	log := conn.QueryLog()
	require.Len(t, log, 1)
	assert.Equal(t, "MATCH (n) RETURN n", log[0].Statement)
	assert.GreaterOrEqual(t, log[0].Elapsed, time.Duration(0))

	conn.FlushQueryLog()
	assert.Empty(t, conn.QueryLog())

	conn.DisableQueryLog()
	assert.False(t, conn.Logging())

	_, err = conn.Select(ctx, "MATCH (n) RETURN n", nil)
	require.NoError(t, err)
	assert.Empty(t, conn.QueryLog())

	conn.EnableQueryLog()
	assert.True(t, conn.Logging())
}

func TestConnection_LogsStatements(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	conn, client := newConn(t, connection.WithLogger(zap.New(core)))

	_, err := conn.Select(t.Context(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)

	client.respond = func(string) (*neoql.Result, error) { return nil, errors.New("down") }
	_, err = conn.Select(t.Context(), "MATCH (m) RETURN m", nil)
	require.Error(t, err)

	entries := logs.FilterField(zap.String("statement", "MATCH (n) RETURN n")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)

	failed := logs.FilterMessage("statement failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zap.WarnLevel, failed[0].Level)
}

func TestConnection_Validation(t *testing.T) {
	t.Parallel()

	conn, client := newConn(t, connection.WithValidation(true))

	_, err := conn.Select(t.Context(), "MATCH (n RETURN n", nil)
	require.ErrorIs(t, err, connection.ErrInvalidCypher)

	_, err = conn.Select(t.Context(), "MATCH (n) RETURN median(n.age)", nil)
	require.ErrorIs(t, err, connection.ErrInvalidCypher)

	assert.Empty(t, client.calls)

	_, err = conn.Select(t.Context(), "MATCH (n:`User`) WHERE id(n) = $idn RETURN n", nil)
	require.NoError(t, err)
	assert.Len(t, client.calls, 1)
}

func TestConnection_LazyClient(t *testing.T) {
	t.Parallel()

	var created int

	client := &fakeClient{}

	neoql.RegisterClient("fake-lazy", func(*neoql.Config) (neoql.Client, error) {
		created++
		return client, nil
	})

	conn := connection.New(&neoql.Config{Driver: "fake-lazy"})
	assert.Zero(t, created)

	_, err := conn.Select(t.Context(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)
	_, err = conn.Select(t.Context(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, created)
	assert.Len(t, client.calls, 2)

	require.NoError(t, conn.Disconnect(t.Context()))
	assert.True(t, client.closed)

	_, err = conn.Select(t.Context(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
}

func TestConnection_UnknownDriver(t *testing.T) {
	t.Parallel()

	conn := connection.New(&neoql.Config{Driver: "missing"})

	_, err := conn.Select(t.Context(), "MATCH (n) RETURN n", nil)
	require.ErrorIs(t, err, neoql.ErrUnknownDriver)
}

func TestConnection_Reconnect(t *testing.T) {
	t.Parallel()

	conn, old := newConn(t)
	require.ErrorIs(t, conn.Reconnect(t.Context()), connection.ErrNoReconnector)

	fresh := &fakeClient{}
	conn = connection.New(nil,
		connection.WithClient(old),
		connection.WithReconnector(func(_ context.Context, c *connection.Connection) error {
			c.SetClient(fresh)
			return nil
		}))

	require.NoError(t, conn.Reconnect(t.Context()))
	assert.True(t, old.closed)

	_, err := conn.Select(t.Context(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)
	assert.Len(t, fresh.calls, 1)
}

func TestConnection_ConfigAccessors(t *testing.T) {
	t.Parallel()

	conn := connection.New(&neoql.Config{Name: "default", Host: "db", Username: "neo4j", Password: "secret"})

	assert.Equal(t, "default", conn.Name())
	assert.Equal(t, neoql.DriverNeo4j, conn.DriverName())
	assert.Equal(t, "bolt", conn.Scheme())
	assert.Equal(t, "db", conn.Host())
	assert.Equal(t, 7687, conn.Port())
	assert.Equal(t, "neo4j", conn.Username())
	assert.Equal(t, "secret", conn.Password())
	assert.True(t, conn.Secured())
	assert.Equal(t, "bolt://db:7687", conn.Config().URI())
}
