package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/neoql"
	"github.com/rlch/neoql/connection"
)

func TestParseParams(t *testing.T) {
	t.Parallel()

	got, err := parseParams([]string{"name=jd", "age=30", "score=1.5", "tags=[\"a\",1]", "ok=true", "raw=not json"})
	require.NoError(t, err)

	want := map[string]any{
		"name":  "jd",
		"age":   int64(30),
		"score": 1.5,
		"tags":  []any{"a", int64(1)},
		"ok":    true,
		"raw":   "not json",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseParams() mismatch (-want +got):\n%s", diff)
	}

	_, err = parseParams([]string{"missing"})
	require.ErrorIs(t, err, ErrInvalidParam)

	_, err = parseParams([]string{"=1"})
	require.ErrorIs(t, err, ErrInvalidParam)
}

func TestIsWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		statement string
		want      bool
	}{
		{"MATCH (u:User) RETURN u", false},
		{"MATCH (u:User) WHERE u.age > 3 RETURN count(u)", false},
		{"CREATE (u:User {name: $name})", true},
		{"MATCH (u:User) SET u.name = $name RETURN u", true},
		{"MATCH (u:User) DETACH DELETE u", true},
		{"MERGE (u:User {name: 'jd'}) RETURN u", true},
		{"NOT CYPHER AT ALL", true},
	}

	for _, tt := range tests {
		t.Run(tt.statement, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isWrite(tt.statement))
		})
	}
}

func TestInspect(t *testing.T) {
	t.Parallel()

	report, err := inspect("MATCH (u:User) WHERE u.name = $name RETURN count(u) AS total")
	require.NoError(t, err)

	want := &checkReport{
		Clauses:    []string{"MATCH", "WHERE", "RETURN"},
		Parameters: []string{"name"},
		Functions:  []string{"count"},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("inspect() mismatch (-want +got):\n%s", diff)
	}

	_, err = inspect("MATCH (u:User) RETURN nope(u)")
	require.Error(t, err)

	_, err = inspect("MATCH (u:User RETURN u")
	require.Error(t, err)
}

func TestPrinter_Result(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	result := &neoql.Result{
		Records: []*neoql.Record{{
			Keys: []string{"user", "total"},
			Values: []any{
				neoql.Node{ID: 1, Labels: []string{"User"}, Props: map[string]any{"name": "jd", "age": int64(30)}},
				int64(2),
			},
		}},
	}

	require.NoError(t, newPrinter(&buf, false).Result(result))

	want := "user: (:User {age: 30, name: \"jd\"})\ntotal: 2\n1 record(s)\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinter_ResultCounters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	result := &neoql.Result{Counters: neoql.Counters{NodesCreated: 2, PropertiesSet: 4}}

	require.NoError(t, newPrinter(&buf, false).Result(result))
	assert.Contains(t, buf.String(), "0 record(s), 2 node(s) created")
	assert.Contains(t, buf.String(), "4 propert(ies) set")
}

func TestPrinter_ResultJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	result := &neoql.Result{
		Records: []*neoql.Record{{Keys: []string{"name"}, Values: []any{"jd"}}},
	}

	require.NoError(t, newPrinter(&buf, true).Result(result))
	assert.Contains(t, buf.String(), `"name": "jd"`)
	assert.Contains(t, buf.String(), `"NodesCreated": 0`)
}

func TestPrinter_Path(t *testing.T) {
	t.Parallel()

	p := newPrinter(&bytes.Buffer{}, false)

	path := neoql.Path{
		Nodes: []neoql.Node{{ID: 1, Labels: []string{"User"}}, {ID: 2, Labels: []string{"Role"}}},
		Relationships: []neoql.Relationship{
			{StartID: 1, EndID: 2, Type: "HAS_ROLE"},
		},
	}
	assert.Equal(t, "(:User)-[:HAS_ROLE]->(:Role)", p.formatValue(path))

	path.Relationships[0].StartID, path.Relationships[0].EndID = 2, 1
	assert.Equal(t, "(:User)<-[:HAS_ROLE]-(:Role)", p.formatValue(path))
}

func TestPretendRun(t *testing.T) {
	t.Parallel()

	conn := connection.New(nil)

	logged, err := conn.Pretend(func(c *connection.Connection) error {
		_, err := execute(t.Context(), c, "MATCH (u:User) WHERE u.name = $name RETURN u", map[string]any{"name": "jd"})

		return err
	})
	require.NoError(t, err)
	require.Len(t, logged, 1)

	var buf bytes.Buffer

	require.NoError(t, newPrinter(&buf, false).Queries(logged))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"MATCH (u:User) WHERE u.name = $name RETURN u",
		`  $name = "jd"`,
	}, lines)
}

func TestPrinter_Report(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	report := &checkReport{
		Clauses:    []string{"MATCH", "RETURN"},
		Parameters: []string{"name"},
		Functions:  []string{"count"},
	}

	require.NoError(t, newPrinter(&buf, false).Report(report))
	assert.Equal(t, "clauses: MATCH > RETURN\nparameters: name\nfunctions: count\n", buf.String())
}
