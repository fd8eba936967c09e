package cypher_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/rlch/neoql/dialects/cypher"
	cyphergrammar "github.com/rlch/neoql/dialects/cypher/grammar"
	"github.com/rlch/neoql/query"
)

// Compiled statements must parse and keep their clauses in the order
// MATCH, WHERE, OPTIONAL MATCH, WITH, RETURN, ORDER BY, SKIP, LIMIT. Filters
// on optional identifiers move into a WITH * WHERE stage.
func TestCompiledStatementsParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		build   func() *query.Builder
		clauses []string
	}{
		{
			name:    "bare",
			build:   users,
			clauses: []string{"MATCH", "RETURN"},
		},
		{
			name: "paged",
			build: func() *query.Builder {
				return users().Where("name", "jd").OrderByDesc("name").ForPage(2, 10)
			},
			clauses: []string{"MATCH", "WHERE", "RETURN", "ORDER BY", "SKIP", "LIMIT"},
		},
		{
			name: "optional after where",
			build: func() *query.Builder {
				return users().
					Where("id", 1).
					MatchRelation(query.Labels("User"), query.Labels("Post"), "", "POSTED", "", nil, query.Out, query.Or)
			},
			clauses: []string{"MATCH", "WHERE", "OPTIONAL MATCH", "RETURN"},
		},
		{
			name: "filter on optional alias",
			build: func() *query.Builder {
				return users().
					MatchRelation(query.Labels("User"), query.Labels("Post"), "", "POSTED", "", nil, query.Out, query.Or).
					Where("post.title", "x")
			},
			clauses: []string{"MATCH", "OPTIONAL MATCH", "WITH", "WHERE", "RETURN"},
		},
		{
			name: "relation then where",
			build: func() *query.Builder {
				return users().
					MatchRelation(query.Labels("User"), query.Labels("Role"), "", "ROLE", "id", []int{1, 2}, query.In, query.And).
					WhereNull("email").
					OrWhereBetween("age", []any{18, 65})
			},
			clauses: []string{"MATCH", "MATCH", "WHERE", "RETURN"},
		},
		{
			name: "carried",
			build: func() *query.Builder {
				return users().
					MatchRelation(query.Labels("User"), query.Labels("Role"), "", "ROLE", "", nil, query.Out, query.And).
					With("user").
					WithAs("count(role)", "roles").
					Select("user", "roles")
			},
			clauses: []string{"MATCH", "MATCH", "WITH", "RETURN"},
		},
		{
			name: "subqueries",
			build: func() *query.Builder {
				return users().
					WhereExists(func(q *query.Builder) {
						q.MatchRelation(query.Labels("User"), query.Labels("Role"), "", "ROLE", "", nil, query.Out, query.And)
					}).
					WhereInSub("id", func(q *query.Builder) {
						q.From("Banned").Select("uid")
					})
			},
			clauses: []string{"MATCH", "WHERE", "RETURN"},
		},
		{
			name: "union",
			build: func() *query.Builder {
				return users().UnionAll(func(q *query.Builder) { q.From("Admin") })
			},
			clauses: []string{"MATCH", "RETURN", "UNION ALL", "MATCH", "RETURN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stmt, err := tt.build().ToStatement()
			require.NoError(t, err)

			ast, err := cyphergrammar.Parse(stmt)
			require.NoError(t, err, stmt)

			if diff := cmp.Diff(tt.clauses, ast.Clauses()); diff != "" {
				t.Errorf("Clauses() mismatch (-want +got):\n%s\n%s", diff, stmt)
			}

			require.NoError(t, cyphergrammar.Validate(stmt))
		})
	}
}

func TestCompiledWritesParse(t *testing.T) {
	t.Parallel()

	g := cypher.NewGrammar()
	node := query.CreateRecord{
		Placeholder: "user",
		Labels:      []string{"User"},
		Properties:  []query.Assignment{{Property: "name", Binding: "name"}},
	}

	stmts := map[string][]string{}

	stmt, err := g.CompileCreate(users().Spec(), []query.CreateRecord{node}, true)
	require.NoError(t, err)
	stmts[stmt] = []string{"CREATE", "RETURN"}

	stmt, err = g.CompileUpdate(users().Where("name", "jd").Spec(), []query.Assignment{{Property: "name", Binding: "name_update"}})
	require.NoError(t, err)
	stmts[stmt] = []string{"MATCH", "WHERE", "SET", "RETURN"}

	stmt, err = g.CompileDelete(users().Where("id", 3).Spec())
	require.NoError(t, err)
	stmts[stmt] = []string{"MATCH", "WHERE", "DETACH DELETE"}

	stmt, err = g.CompileUpdateLabels(users().Spec(), []string{"Admin"}, query.DropLabels)
	require.NoError(t, err)
	stmts[stmt] = []string{"MATCH", "REMOVE", "RETURN"}

	for stmt, want := range stmts {
		ast, err := cyphergrammar.Parse(stmt)
		require.NoError(t, err, stmt)

		if diff := cmp.Diff(want, ast.Clauses()); diff != "" {
			t.Errorf("Clauses() mismatch (-want +got):\n%s\n%s", diff, stmt)
		}
	}
}
