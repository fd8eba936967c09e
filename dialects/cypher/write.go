package cypher

import (
	"fmt"
	"strings"

	"github.com/rlch/neoql/query"
)

// CompileCreate compiles CREATE (user:`User` {name: $name}), (user_2:`User` {...}).
// With returning set the created nodes are returned.
func (g *Grammar) CompileCreate(s *query.Spec, records []query.CreateRecord, returning bool) (string, error) {
	if len(records) == 0 {
		return "", query.ErrNoValues
	}

	patterns := make([]string, len(records))
	names := make([]string, len(records))

	for i, r := range records {
		if len(r.Labels) == 0 {
			return "", ErrNoTarget
		}

		patterns[i] = createNode(r)
		names[i] = r.Placeholder
	}

	stmt := "CREATE " + strings.Join(patterns, ", ")
	if returning {
		stmt += " RETURN " + strings.Join(names, ", ")
	}

	return stmt, nil
}

// CompileUpdate compiles MATCH ... WHERE ... SET user.name = $name_update RETURN user.
func (g *Grammar) CompileUpdate(s *query.Spec, sets []query.Assignment) (string, error) {
	if len(sets) == 0 {
		return "", query.ErrNoValues
	}

	sc, parts, err := g.writable(s)
	if err != nil {
		return "", err
	}

	assignments := make([]string, len(sets))

	for i, a := range sets {
		expr, err := sc.column(query.ParseColumn(a.Property), true)
		if err != nil {
			return "", err
		}

		assignments[i] = expr + " = $" + a.Binding
	}

	parts = append(parts, "SET "+strings.Join(assignments, ", "), "RETURN "+sc.primary)

	return strings.Join(parts, " "), nil
}

// CompileDelete compiles MATCH ... WHERE ... DETACH DELETE user. Attached
// relationships are deleted with the node.
func (g *Grammar) CompileDelete(s *query.Spec) (string, error) {
	sc, parts, err := g.writable(s)
	if err != nil {
		return "", err
	}

	return strings.Join(append(parts, "DETACH DELETE "+sc.primary), " "), nil
}

// CompileCreateWith compiles one CREATE holding the parent node and every
// related node, each connected to the parent, and returns all of them.
// CREATE needs a direction, so Both is created outgoing.
func (g *Grammar) CompileCreateWith(s *query.Spec, node query.CreateRecord, related []query.RelatedCreate) (string, error) {
	if len(node.Labels) == 0 {
		return "", ErrNoTarget
	}

	patterns := []string{createNode(node)}
	names := []string{node.Placeholder}

	for _, r := range related {
		dir := r.Direction
		if dir == query.Both {
			dir = query.Out
		}

		patterns = append(patterns,
			"("+node.Placeholder+")"+arrow(dir, ":"+relType(r.Relationship))+createNode(r.Node))
		names = append(names, r.Node.Placeholder)
	}

	return "CREATE " + strings.Join(patterns, ", ") + " RETURN " + strings.Join(names, ", "), nil
}

// CompileUpdateLabels compiles SET user:`A` or REMOVE user:`A` over the
// matching nodes.
func (g *Grammar) CompileUpdateLabels(s *query.Spec, ls []string, op query.LabelOperation) (string, error) {
	if len(ls) == 0 {
		return "", ErrNoLabels
	}

	sc, parts, err := g.writable(s)
	if err != nil {
		return "", err
	}

	switch op {
	case query.AddLabels:
		parts = append(parts, "SET "+sc.primary+labels(ls))
	case query.DropLabels:
		parts = append(parts, "REMOVE "+sc.primary+labels(ls))
	default:
		return "", fmt.Errorf("%w: label operation %q", ErrUnsupportedClause, op)
	}

	return strings.Join(append(parts, "RETURN "+sc.primary), " "), nil
}

// writable compiles the reading section of a statement that mutates the
// primary node.
func (g *Grammar) writable(s *query.Spec) (*scope, []string, error) {
	if len(s.Labels) == 0 {
		return nil, nil, ErrNoTarget
	}

	sc := newScope(nil)

	parts, err := g.reading(s, sc)
	if err != nil {
		return nil, nil, err
	}

	return sc, parts, nil
}

func createNode(r query.CreateRecord) string {
	var sb strings.Builder

	sb.WriteString("(" + r.Placeholder + labels(r.Labels))

	if len(r.Properties) > 0 {
		props := make([]string, len(r.Properties))
		for i, p := range r.Properties {
			props[i] = propertyKey(p.Property) + ": $" + p.Binding
		}

		sb.WriteString(" {" + strings.Join(props, ", ") + "}")
	}

	sb.WriteString(")")

	return sb.String()
}
