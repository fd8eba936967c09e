package query

import (
	"regexp"
	"strings"
)

// Boolean is the connective joining a clause to the one before it.
type Boolean string

// Connectives.
const (
	And Boolean = "and"
	Or  Boolean = "or"
)

// Direction is the traversal direction of a relationship pattern, seen from
// the parent node.
type Direction string

// Directions.
const (
	Out  Direction = "out"
	In   Direction = "in"
	Both Direction = "in-out"
)

// ParseDirection maps the textual forms "out", "in", "in-out", "both" and
// "any" to a Direction. Unknown values default to Out.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "incoming":
		return In
	case "in-out", "both", "any", "either":
		return Both
	default:
		return Out
	}
}

// Column is a parsed column reference.
type Column struct {
	// Alias is the owning placeholder; empty when the column is unqualified.
	Alias string

	// Name is the stored property name. Empty for identity columns.
	Name string

	// Identity marks the entity's intrinsic identity, rendered as id(alias).
	Identity bool
}

var identityForm = regexp.MustCompile(`^id\(\s*([A-Za-z0-9_]*)\s*\)$`)

// ParseColumn parses "name", "alias.name" and "id(alias)". It never rewrites
// "id"; that is the grammar's IDReplacement.
func ParseColumn(s string) Column {
	s = strings.TrimSpace(s)

	if m := identityForm.FindStringSubmatch(s); m != nil {
		return Column{Alias: m[1], Identity: true}
	}

	if i := strings.Index(s, "."); i > 0 {
		return Column{Alias: s[:i], Name: s[i+1:]}
	}

	return Column{Name: s}
}

// Property references a stored property, even one literally named "id".
func Property(alias, name string) Column {
	return Column{Alias: alias, Name: name}
}

// String returns the canonical textual form of the column.
func (c Column) String() string {
	switch {
	case c.Identity:
		return "id(" + c.Alias + ")"
	case c.Alias != "":
		return c.Alias + "." + c.Name
	default:
		return c.Name
	}
}

// Predicate is one entry of a where (or having) list.
type Predicate interface {
	// Connective returns how the predicate joins the one before it.
	Connective() Boolean
	isPredicate()
}

type connective struct {
	Boolean Boolean
}

func (c connective) Connective() Boolean { return c.Boolean }
func (connective) isPredicate()          {}

// BasicPredicate compares a column with a bound value.
type BasicPredicate struct {
	connective
	Column   Column
	Operator string
	Binding  string
	Value    any
}

// InPredicate tests membership of a column in a bound list.
type InPredicate struct {
	connective
	Column  Column
	Binding string
	Values  []any
	Not     bool
}

// BetweenPredicate tests a column against a bound two-element range.
type BetweenPredicate struct {
	connective
	Column  Column
	Binding string
	Not     bool
}

// NullPredicate tests a column for null.
type NullPredicate struct {
	connective
	Column Column
	Not    bool
}

// CarriedPredicate compares identifiers carried between clauses; nothing is bound.
type CarriedPredicate struct {
	connective
	Left     string
	Operator string
	Right    string
}

// NestedPredicate is a parenthesized group.
type NestedPredicate struct {
	connective
	Wheres []Predicate
}

// SubPredicate compares a column with the single value of a correlated sub-select.
type SubPredicate struct {
	connective
	Column   Column
	Operator string
	Query    *Spec
}

// InSubPredicate tests membership of a column in the values of a sub-select.
type InSubPredicate struct {
	connective
	Column Column
	Query  *Spec
	Not    bool
}

// ExistsPredicate tests whether a sub-query matches anything.
type ExistsPredicate struct {
	connective
	Query *Spec
	Not   bool
}

// RawPredicate is inserted verbatim.
type RawPredicate struct {
	connective
	Expression string
}

// NodeRef addresses one node of a pattern.
type NodeRef struct {
	Placeholder string
	Labels      []string
}

// Match is one relationship pattern clause.
type Match interface {
	isMatch()
}

// RelationMatch is a statically typed relationship pattern.
type RelationMatch struct {
	Optional     bool
	Parent       NodeRef
	Related      NodeRef
	Relationship string
	Direction    Direction

	// Constraint on the parent, rendered in WHERE when Binding is set.
	Property Column
	Operator string
	Binding  string
}

// MorphMatch is a polymorphic relationship pattern: the related node's labels
// and the relationship type are unknown when the statement is built.
type MorphMatch struct {
	Optional  bool
	Parent    NodeRef
	Related   string
	Direction Direction

	Property Column
	Operator string
	Binding  string
}

func (RelationMatch) isMatch() {}
func (MorphMatch) isMatch()    {}

// Aggregate describes an aggregate projection.
type Aggregate struct {
	Function   string
	Columns    []string
	Percentile string // binding name of the percentile argument
}

// Order is one ORDER BY item.
type Order struct {
	Column    Column
	Direction string
	Raw       string
}

// WithPart is one WITH projection item.
type WithPart struct {
	Expression string
	Alias      string
}

// Union is one query combined with UNION.
type Union struct {
	Query *Spec
	All   bool
}

// Assignment binds a property to a parameter name.
type Assignment struct {
	Property string
	Binding  string
}

// CreateRecord is one node of a CREATE statement.
type CreateRecord struct {
	Placeholder string
	Labels      []string
	Properties  []Assignment
}

// RelatedCreate is a node created together with its parent by CreateWith.
type RelatedCreate struct {
	Relationship string
	Direction    Direction
	Node         CreateRecord
}

// LabelOperation selects whether UpdateLabels adds or drops labels.
type LabelOperation string

// Label operations.
const (
	AddLabels  LabelOperation = "add"
	DropLabels LabelOperation = "drop"
)
