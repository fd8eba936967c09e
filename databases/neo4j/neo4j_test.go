//nolint:testpackage
package neo4j

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/rlch/neoql"
)

func TestClient_Registration(t *testing.T) {
	t.Parallel()

	found := false

	for _, name := range neoql.RegisteredClients() {
		if name == neoql.DriverNeo4j {
			found = true

			break
		}
	}

	if !found {
		t.Error("neo4j client not registered")
	}
}

func TestConvertRecord_Primitives(t *testing.T) {
	t.Parallel()

	keys := []string{"name", "age", "active"}
	values := []any{"Alice", int64(30), true}

	got := convertRecord(keys, values)

	want := &neoql.Record{Keys: keys, Values: values}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("convertRecord() mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertRecord_Node(t *testing.T) {
	t.Parallel()

	node := dbtype.Node{
		Id:        7,
		ElementId: "4:abc:7",
		Labels:    []string{"User", "Admin"},
		Props:     map[string]any{"name": "Alice"},
	}

	got := convertRecord([]string{"user"}, []any{node})

	want := neoql.Node{
		ID:        7,
		ElementID: "4:abc:7",
		Labels:    []string{"User", "Admin"},
		Props:     map[string]any{"name": "Alice"},
	}
	if diff := cmp.Diff(want, got.First()); diff != "" {
		t.Errorf("node mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertRecord_Relationship(t *testing.T) {
	t.Parallel()

	rel := dbtype.Relationship{
		Id:      3,
		StartId: 1,
		EndId:   2,
		Type:    "HAS_ROLE",
		Props:   nil,
	}

	got := convertRecord([]string{"r"}, []any{rel})

	want := neoql.Relationship{
		ID:      3,
		StartID: 1,
		EndID:   2,
		Type:    "HAS_ROLE",
		Props:   map[string]any{},
	}
	if diff := cmp.Diff(want, got.First()); diff != "" {
		t.Errorf("relationship mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertRecord_Path(t *testing.T) {
	t.Parallel()

	path := dbtype.Path{
		Nodes: []dbtype.Node{
			{Id: 1, Labels: []string{"User"}},
			{Id: 2, Labels: []string{"Role"}},
		},
		Relationships: []dbtype.Relationship{
			{Id: 5, StartId: 1, EndId: 2, Type: "HAS_ROLE"},
		},
	}

	got, ok := convertValue(path).(neoql.Path)
	if !ok {
		t.Fatalf("convertValue() = %T, want neoql.Path", convertValue(path))
	}

	if len(got.Nodes) != 2 || len(got.Relationships) != 1 {
		t.Fatalf("path = %+v, want 2 nodes and 1 relationship", got)
	}

	if got.Relationships[0].Type != "HAS_ROLE" {
		t.Errorf("relationship type = %q, want HAS_ROLE", got.Relationships[0].Type)
	}
}

func TestConvertRecord_Nested(t *testing.T) {
	t.Parallel()

	value := map[string]any{
		"user":  dbtype.Node{Id: 1, Labels: []string{"User"}},
		"roles": []any{dbtype.Node{Id: 2, Labels: []string{"Role"}}, "raw"},
	}

	got, ok := convertValue(value).(map[string]any)
	if !ok {
		t.Fatalf("convertValue() = %T, want map", convertValue(value))
	}

	if _, ok := got["user"].(neoql.Node); !ok {
		t.Errorf("user = %T, want neoql.Node", got["user"])
	}

	roles, ok := got["roles"].([]any)
	if !ok || len(roles) != 2 {
		t.Fatalf("roles = %v, want two entries", got["roles"])
	}

	if _, ok := roles[0].(neoql.Node); !ok {
		t.Errorf("roles[0] = %T, want neoql.Node", roles[0])
	}

	if roles[1] != "raw" {
		t.Errorf("roles[1] = %v, want raw", roles[1])
	}
}

func TestClient_Name_Integration(t *testing.T) {
	client := setupIntegrationTest(t)
	defer func() { _ = client.Close(t.Context()) }()

	if got := client.Name(); got != neoql.DriverNeo4j {
		t.Errorf("Name() = %q, want %q", got, neoql.DriverNeo4j)
	}
}

func TestClient_Run_Integration(t *testing.T) {
	client := setupIntegrationTest(t)
	defer func() { _ = client.Close(t.Context()) }()

	ctx := t.Context()

	result, err := client.Run(ctx, "CREATE (n:NeoqlTest {name: $name})", map[string]any{"name": "test-node"})
	if err != nil {
		t.Fatalf("failed to create test node: %v", err)
	}

	if result.Counters.NodesCreated != 1 {
		t.Errorf("NodesCreated = %d, want 1", result.Counters.NodesCreated)
	}

	result, err = client.Run(ctx, "MATCH (n:NeoqlTest) RETURN n", nil)
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}

	if result.Len() != 1 {
		t.Fatalf("expected 1 result, got %d", result.Len())
	}

	node, ok := result.First().First().(neoql.Node)
	if !ok {
		t.Fatalf("n = %T, want neoql.Node", result.First().First())
	}

	if node.Props["name"] != "test-node" {
		t.Errorf("name = %v, want %v", node.Props["name"], "test-node")
	}

	_, _ = client.Run(ctx, "MATCH (n:NeoqlTest) DELETE n", nil)
}

func TestClient_Transaction_Integration(t *testing.T) {
	client := setupIntegrationTest(t)
	defer func() { _ = client.Close(t.Context()) }()

	ctx := t.Context()

	tx, err := client.BeginTransaction(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	_, err = tx.Run(ctx, "CREATE (n:NeoqlTxTest {name: 'in-tx'})", nil)
	if err != nil {
		t.Fatalf("failed to create node in tx: %v", err)
	}

	err = tx.Rollback(ctx)
	if err != nil {
		t.Fatalf("failed to rollback: %v", err)
	}

	result, err := client.Run(ctx, "MATCH (n:NeoqlTxTest) RETURN n", nil)
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}

	if result.Len() != 0 {
		t.Error("node should not exist after rollback")
	}
}

func setupIntegrationTest(t *testing.T) *Client {
	t.Helper()

	uri := os.Getenv("NEOQL_NEO4J_URI")
	if uri == "" {
		t.Skip("NEOQL_NEO4J_URI not set, skipping integration test")
	}

	cfg := &neoql.Config{
		URIOverride: uri,
		Username:    os.Getenv("NEOQL_NEO4J_USER"),
		Password:    os.Getenv("NEOQL_NEO4J_PASS"),
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	return client
}
