// Package cypher compiles query specs into parameterized Cypher statements.
package cypher

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rlch/neoql"
	"github.com/rlch/neoql/query"
)

// Grammar implements query.Grammar for Cypher. It holds no state and is
// safe for concurrent use.
type Grammar struct{}

// NewGrammar creates a Cypher grammar.
func NewGrammar() *Grammar {
	return &Grammar{}
}

var _ query.Grammar = (*Grammar)(nil)

// Placeholder lowercases the labels and joins them with underscores.
// An empty label set yields "n".
func (g *Grammar) Placeholder(labels []string) string {
	var sb strings.Builder

	for i, l := range labels {
		if i > 0 {
			sb.WriteByte('_')
		}

		sb.WriteString(identifier(strings.ToLower(l)))
	}

	p := strings.Trim(sb.String(), "_")
	if p == "" {
		return "n"
	}

	if unicode.IsDigit(rune(p[0])) {
		p = "n" + p
	}

	return p
}

var identityForm = regexp.MustCompile(`^id\(\s*[A-Za-z0-9_]*\s*\)$`)

// IDReplacement rewrites identity references to id(alias):
//
//	id         -> id(alias)
//	Label.id   -> id(label)
//	id(x)      -> id(x)
func (g *Grammar) IDReplacement(column, alias string) string {
	c := strings.TrimSpace(column)

	switch {
	case identityForm.MatchString(c):
		return c
	case c == "id":
		return "id(" + alias + ")"
	case strings.HasSuffix(c, ".id") && strings.Count(c, ".") == 1:
		return "id(" + g.Placeholder([]string{strings.TrimSuffix(c, ".id")}) + ")"
	default:
		return column
	}
}

// BindingKey returns "id"+alias for identity columns and the property name
// otherwise, so user.name binds as $name.
func (g *Grammar) BindingKey(c query.Column) string {
	if c.Identity {
		return "id" + c.Alias
	}

	return c.Name
}

// DateFormat returns the layout for time values.
func (g *Grammar) DateFormat() string {
	return neoql.DateFormat
}

// labels renders a label set as :`A`:`B`.
func labels(ls []string) string {
	var sb strings.Builder

	for _, l := range ls {
		sb.WriteString(":`")
		sb.WriteString(strings.ReplaceAll(l, "`", "``"))
		sb.WriteByte('`')
	}

	return sb.String()
}

// propertyKey quotes keys that are not plain identifiers.
func propertyKey(k string) string {
	if identifier(k) == k && k != "" && !unicode.IsDigit(rune(k[0])) {
		return k
	}

	return "`" + strings.ReplaceAll(k, "`", "``") + "`"
}

func identifier(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}

		return '_'
	}, s)
}

// operator normalizes an operator for output.
func operator(op string) string {
	op = strings.ToLower(strings.TrimSpace(op))
	switch {
	case op == "!=":
		return "<>"
	case strings.HasPrefix(op, "["):
		return op
	}

	for _, r := range op {
		if unicode.IsLetter(r) {
			return strings.ToUpper(op)
		}
	}

	return op
}
