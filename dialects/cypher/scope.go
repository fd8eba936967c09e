package cypher

import (
	"fmt"
	"strconv"

	"github.com/rlch/neoql/query"
)

// scope tracks the identifiers bound while a statement is compiled.
// Sub-queries get a child scope that also sees the parent's identifiers.
type scope struct {
	parent  *scope
	primary string

	// order lists node placeholders in binding order; RETURN * uses it.
	order    []string
	bound    map[string]bool
	optional map[string]bool
	carried  map[string]bool
}

func newScope(parent *scope) *scope {
	s := &scope{
		parent:   parent,
		bound:    make(map[string]bool),
		optional: make(map[string]bool),
		carried:  make(map[string]bool),
	}

	if parent != nil {
		s.primary = parent.primary
	}

	return s
}

// bind registers a node placeholder.
func (s *scope) bind(name string, optional bool) {
	if s.has(name, true) {
		return
	}

	if optional {
		s.optional[name] = true
	} else {
		s.bound[name] = true
	}

	s.order = append(s.order, name)
}

// bindVariable registers a non-node identifier (relationship variables,
// WITH aliases) and returns a fresh name derived from base.
func (s *scope) bindVariable(base string, optional bool) string {
	name := base
	for n := 2; s.has(name, true); n++ {
		name = base + "_" + strconv.Itoa(n)
	}

	if optional {
		s.optional[name] = true
	} else {
		s.bound[name] = true
	}

	return name
}

// has reports whether name is visible. Optional identifiers are only visible
// past the OPTIONAL MATCH clauses.
func (s *scope) has(name string, withOptional bool) bool {
	for c := s; c != nil; c = c.parent {
		if c.bound[name] || c.carried[name] || (withOptional && c.optional[name]) {
			return true
		}
	}

	return false
}

// column renders a column reference checked against the scope.
func (s *scope) column(c query.Column, withOptional bool) (string, error) {
	switch {
	case c.Identity:
		if c.Alias == "" || !s.has(c.Alias, withOptional) {
			return "", fmt.Errorf("%w: %q in %s", ErrUnknownAlias, c.Alias, c)
		}

		return "id(" + c.Alias + ")", nil
	case c.Alias != "":
		if !s.has(c.Alias, withOptional) {
			return "", fmt.Errorf("%w: %q in %s", ErrUnknownAlias, c.Alias, c)
		}

		return c.Alias + "." + propertyKey(c.Name), nil
	case s.primary != "":
		return s.primary + "." + propertyKey(c.Name), nil
	default:
		return propertyKey(c.Name), nil
	}
}
