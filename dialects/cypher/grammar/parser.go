package cyphergrammar

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrUnknownFunction is returned by Validate for calls to functions that are
// neither built in nor namespaced.
var ErrUnknownFunction = errors.New("unknown function")

// Parser is the Cypher parser instance.
var Parser = participle.MustBuild[Statement](
	participle.Lexer(CypherLexer),
	participle.Elide("Whitespace", "BlockComment", "LineComment"),
	participle.Map(unescapeIdent, "EscapedIdent"),
	participle.UseLookahead(10),         // Higher lookahead for nested property access + function calls
	participle.CaseInsensitive("Ident"), // Cypher keywords are case-insensitive
)

// unescapeIdent strips the backticks from `quoted identifiers`.
func unescapeIdent(tok lexer.Token) (lexer.Token, error) {
	tok.Value = strings.ReplaceAll(tok.Value[1:len(tok.Value)-1], "``", "`")
	return tok, nil
}

// Parse parses a Cypher statement into an AST.
func Parse(stmt string) (*Statement, error) {
	return Parser.ParseString("", stmt)
}

// ParseBytes parses a Cypher statement from bytes into an AST.
func ParseBytes(stmt []byte) (*Statement, error) {
	return Parser.ParseBytes("", stmt)
}

// Validate parses stmt and checks that every non-namespaced function it
// calls is a known built-in.
func Validate(stmt string) error {
	ast, err := Parse(stmt)
	if err != nil {
		return err
	}

	for _, fn := range ast.Functions() {
		if strings.Contains(fn, ".") {
			continue
		}

		if _, ok := LookupFunction(fn); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFunction, fn)
		}
	}

	return nil
}

// Parameters returns the distinct $parameters of stmt in order of first use.
// Only the lexer runs, so fragments that do not parse are still accepted.
func Parameters(stmt string) ([]string, error) {
	lex, err := CypherLexer.LexString("", stmt)
	if err != nil {
		return nil, err
	}

	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}

	symbols := CypherLexer.Symbols()
	dollar, ident, integer := symbols["Dollar"], symbols["Ident"], symbols["Int"]

	var names []string

	seen := map[string]bool{}

	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].Type != dollar {
			continue
		}

		next := tokens[i+1]
		if next.Type != ident && next.Type != integer {
			continue
		}

		if !seen[next.Value] {
			seen[next.Value] = true
			names = append(names, next.Value)
		}
	}

	return names, nil
}

// Clauses lists the clause keywords of the statement in source order, for
// example MATCH, WHERE, OPTIONAL MATCH, RETURN, ORDER BY, LIMIT.
func (s *Statement) Clauses() []string {
	if s == nil {
		return nil
	}

	out := s.Query.clauses(nil)
	for _, u := range s.Unions {
		if u.All {
			out = append(out, "UNION ALL")
		} else {
			out = append(out, "UNION")
		}

		out = u.Query.clauses(out)
	}

	return out
}

func (q *SingleQuery) clauses(out []string) []string {
	if q == nil {
		return out
	}

	for _, c := range q.Clauses {
		switch {
		case c.Match != nil:
			if c.Match.Optional {
				out = append(out, "OPTIONAL MATCH")
			} else {
				out = append(out, "MATCH")
			}

			if c.Match.Where != nil {
				out = append(out, "WHERE")
			}
		case c.Unwind != nil:
			out = append(out, "UNWIND")
		case c.Call != nil:
			out = append(out, "CALL")
		case c.Create != nil:
			out = append(out, "CREATE")
		case c.Merge != nil:
			out = append(out, "MERGE")
		case c.Delete != nil:
			if c.Delete.Detach {
				out = append(out, "DETACH DELETE")
			} else {
				out = append(out, "DELETE")
			}
		case c.Set != nil:
			out = append(out, "SET")
		case c.Remove != nil:
			out = append(out, "REMOVE")
		case c.With != nil:
			out = c.With.Body.clauses(append(out, "WITH"))
			if c.With.Where != nil {
				out = append(out, "WHERE")
			}
		case c.Return != nil:
			out = c.Return.Body.clauses(append(out, "RETURN"))
		}
	}

	return out
}

func (b *ProjectionBody) clauses(out []string) []string {
	if b.Order != nil {
		out = append(out, "ORDER BY")
	}

	if b.Skip != nil {
		out = append(out, "SKIP")
	}

	if b.Limit != nil {
		out = append(out, "LIMIT")
	}

	return out
}

// Functions returns the names of every function called in the statement,
// subqueries included, in the order they are found. count(*) is reported as
// count.
func (s *Statement) Functions() []string {
	var names []string

	walk(reflect.ValueOf(s), func(v reflect.Value) {
		switch n := v.Interface().(type) {
		case *FunctionCall:
			names = append(names, n.Name.String())
		case *Atom:
			if n.CountAll {
				names = append(names, "count")
			}
		}
	})

	return names
}

var positionType = reflect.TypeOf(lexer.Position{})

// walk visits every non-nil pointer reachable from v.
func walk(v reflect.Value, visit func(reflect.Value)) {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return
		}

		visit(v)
		walk(v.Elem(), visit)
	case reflect.Struct:
		if v.Type() == positionType {
			return
		}

		for i := range v.NumField() {
			walk(v.Field(i), visit)
		}
	case reflect.Slice:
		for i := range v.Len() {
			walk(v.Index(i), visit)
		}
	}
}

// String returns the full name of an InvocationName (e.g., "apoc.text.join").
func (n *InvocationName) String() string {
	if n == nil {
		return ""
	}
	return strings.Join(n.Parts, ".")
}

// GetText returns the text representation of a PropertyExpr.
func (p *PropertyExpr) GetText() string {
	if p == nil {
		return ""
	}
	parts := append([]string{p.Base}, p.Props...)
	return strings.Join(parts, ".")
}

// HasOR returns true if this expression uses OR.
func (e *Expression) HasOR() bool {
	return e != nil && len(e.Right) > 0
}
