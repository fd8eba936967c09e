// Package query accumulates the intent of a graph query and hands it to a
// Grammar for compilation.
package query

import (
	"fmt"
	"sort"
	"strings"
)

// Entity describes the labels of a model taking part in a relationship match.
type Entity struct {
	Labels []string
}

// Labels builds an Entity from its label set.
func Labels(labels ...string) Entity {
	return Entity{Labels: labels}
}

// Builder accumulates the intent of one query. Methods mutate the builder
// and return it for chaining; the first construction error is kept and
// returned by every terminal operation.
//
// A Builder is single-owner and must not be used from several goroutines.
type Builder struct {
	spec    *Spec
	conn    Connection
	grammar Grammar
	err     error
}

// New creates a builder executing through conn and compiling with grammar.
// conn may be nil when the builder is only used to produce statements.
func New(conn Connection, grammar Grammar) *Builder {
	return &Builder{
		spec:    NewSpec(),
		conn:    conn,
		grammar: grammar,
	}
}

// From sets the primary labels of the query.
func (b *Builder) From(labels ...string) *Builder {
	b.spec.Labels = labels

	return b
}

// Spec exposes the accumulated query intent.
func (b *Builder) Spec() *Spec {
	return b.spec
}

// Grammar returns the grammar the builder compiles with.
func (b *Builder) Grammar() Grammar {
	return b.grammar
}

// Err returns the first construction error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Placeholder returns the pattern variable of the primary labels.
func (b *Builder) Placeholder() string {
	return b.grammar.Placeholder(b.spec.Labels)
}

// NewQuery returns an empty builder on the same connection and grammar.
func (b *Builder) NewQuery() *Builder {
	return New(b.conn, b.grammar)
}

// Clone returns an independent copy of the builder.
func (b *Builder) Clone() *Builder {
	return &Builder{
		spec:    b.spec.Clone(),
		conn:    b.conn,
		grammar: b.grammar,
		err:     b.err,
	}
}

// AddBinding stores a value in a named bucket.
func (b *Builder) AddBinding(bucket Bucket, key string, value any) *Builder {
	return b.fail(b.spec.Bindings.Add(bucket, key, value))
}

// GetBindings returns the flattened parameter set.
func (b *Builder) GetBindings() map[string]any {
	return b.spec.Bindings.All()
}

// ToStatement compiles the select statement without executing it.
func (b *Builder) ToStatement() (string, error) {
	if b.err != nil {
		return "", b.err
	}

	return b.grammar.CompileSelect(b.spec)
}

func (b *Builder) fail(err error) *Builder {
	if err != nil && b.err == nil {
		b.err = err
	}

	return b
}

// nested returns a builder for a parenthesized group over the same target.
func (b *Builder) nested() *Builder {
	return &Builder{
		spec:    &Spec{Labels: b.spec.Labels, Bindings: b.spec.Bindings},
		conn:    b.conn,
		grammar: b.grammar,
	}
}

// sub returns a builder for a sub-query. It shares the binding table so names
// stay unique across the whole statement.
func (b *Builder) sub() *Builder {
	return &Builder{
		spec:    &Spec{Bindings: b.spec.Bindings},
		conn:    b.conn,
		grammar: b.grammar,
	}
}

// column resolves a column argument, applying the identity rewrite.
func (b *Builder) column(raw any) (Column, error) {
	switch c := raw.(type) {
	case Column:
		return c, nil
	case string:
		return ParseColumn(b.grammar.IDReplacement(c, b.Placeholder())), nil
	default:
		return Column{}, fmt.Errorf("%w: %T", ErrInvalidColumn, raw)
	}
}

func (b *Builder) bind(bucket Bucket, c Column, value any) string {
	key := b.spec.Bindings.Reserve(b.grammar.BindingKey(c))
	b.fail(b.spec.Bindings.Add(bucket, key, value))

	return key
}

// Where adds a predicate joined with AND.
//
//	Where("name", "jd")             name = $name
//	Where("age", ">", 18)           age > $age
//	Where("id", 10)                 id(user) = $iduser
//	Where("email", "<>", nil)       email IS NOT NULL
//	Where(map[string]any{...})      nested AND group
//	Where(func(q *Builder) {...})   nested group
func (b *Builder) Where(column any, args ...any) *Builder {
	return b.where(And, column, args)
}

// OrWhere is Where joined with OR.
func (b *Builder) OrWhere(column any, args ...any) *Builder {
	return b.where(Or, column, args)
}

func (b *Builder) where(boolean Boolean, column any, args []any) *Builder {
	if len(args) >= 2 {
		if op, ok := args[0].(string); ok && strings.EqualFold(strings.TrimSpace(op), "in") {
			return b.whereIn(boolean, column, args[1], false)
		}
	}

	switch c := column.(type) {
	case map[string]any:
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		return b.whereNested(boolean, func(q *Builder) {
			for _, k := range keys {
				q.Where(k, "=", c[k])
			}
		})
	case func(*Builder):
		return b.whereNested(boolean, c)
	}

	var (
		op    string
		value any
	)

	switch len(args) {
	case 0:
		return b.fail(fmt.Errorf("%w: %v", ErrValueRequired, column))
	case 1:
		op, value = "=", args[0]
	default:
		s, ok := args[0].(string)
		if !ok || !IsOperator(s) {
			op, value = "=", args[0]
		} else {
			op, value = strings.ToLower(strings.TrimSpace(s)), args[1]
		}
	}

	if fn, ok := value.(func(*Builder)); ok {
		return b.whereSub(boolean, column, op, fn)
	}

	if value == nil || op == "is null" || op == "is not null" {
		if !acceptsNull(op) {
			return b.fail(fmt.Errorf("%w: %v %s", ErrValueRequired, column, op))
		}

		return b.whereNull(boolean, column, negatesNull(op))
	}

	col, err := b.column(column)
	if err != nil {
		return b.fail(err)
	}

	if col.Identity {
		if value, err = identity(value); err != nil {
			return b.fail(err)
		}
	}

	key := b.bind(BucketWhere, col, value)
	b.spec.Wheres = append(b.spec.Wheres, BasicPredicate{
		connective: connective{boolean},
		Column:     col,
		Operator:   op,
		Binding:    key,
		Value:      value,
	})

	return b
}

// WhereIn constrains column to the values of a slice.
func (b *Builder) WhereIn(column any, values any) *Builder {
	return b.whereIn(And, column, values, false)
}

// OrWhereIn is WhereIn joined with OR.
func (b *Builder) OrWhereIn(column any, values any) *Builder {
	return b.whereIn(Or, column, values, false)
}

// WhereNotIn excludes the values of a slice.
func (b *Builder) WhereNotIn(column any, values any) *Builder {
	return b.whereIn(And, column, values, true)
}

// OrWhereNotIn is WhereNotIn joined with OR.
func (b *Builder) OrWhereNotIn(column any, values any) *Builder {
	return b.whereIn(Or, column, values, true)
}

func (b *Builder) whereIn(boolean Boolean, column any, values any, not bool) *Builder {
	if fn, ok := values.(func(*Builder)); ok {
		return b.whereInSub(boolean, column, fn, not)
	}

	col, err := b.column(column)
	if err != nil {
		return b.fail(err)
	}

	list, err := toList(values)
	if err != nil {
		return b.fail(err)
	}

	if col.Identity {
		if err := identities(list); err != nil {
			return b.fail(err)
		}
	}

	key := b.bind(BucketWhere, col, list)
	b.spec.Wheres = append(b.spec.Wheres, InPredicate{
		connective: connective{boolean},
		Column:     col,
		Binding:    key,
		Values:     list,
		Not:        not,
	})

	return b
}

// WhereInSub constrains column to the values returned by a sub-query.
func (b *Builder) WhereInSub(column any, fn func(*Builder)) *Builder {
	return b.whereInSub(And, column, fn, false)
}

// WhereNotInSub excludes the values returned by a sub-query.
func (b *Builder) WhereNotInSub(column any, fn func(*Builder)) *Builder {
	return b.whereInSub(And, column, fn, true)
}

func (b *Builder) whereInSub(boolean Boolean, column any, fn func(*Builder), not bool) *Builder {
	col, err := b.column(column)
	if err != nil {
		return b.fail(err)
	}

	q := b.sub()
	fn(q)

	if q.err != nil {
		return b.fail(q.err)
	}

	b.spec.Wheres = append(b.spec.Wheres, InSubPredicate{
		connective: connective{boolean},
		Column:     col,
		Query:      q.spec,
		Not:        not,
	})

	return b
}

func (b *Builder) whereSub(boolean Boolean, column any, op string, fn func(*Builder)) *Builder {
	col, err := b.column(column)
	if err != nil {
		return b.fail(err)
	}

	q := b.sub()
	fn(q)

	if q.err != nil {
		return b.fail(q.err)
	}

	b.spec.Wheres = append(b.spec.Wheres, SubPredicate{
		connective: connective{boolean},
		Column:     col,
		Operator:   op,
		Query:      q.spec,
	})

	return b
}

// WhereBetween constrains column to an inclusive two-value range.
func (b *Builder) WhereBetween(column any, values any) *Builder {
	return b.whereBetween(And, column, values, false)
}

// OrWhereBetween is WhereBetween joined with OR.
func (b *Builder) OrWhereBetween(column any, values any) *Builder {
	return b.whereBetween(Or, column, values, false)
}

// WhereNotBetween excludes an inclusive two-value range.
func (b *Builder) WhereNotBetween(column any, values any) *Builder {
	return b.whereBetween(And, column, values, true)
}

// OrWhereNotBetween is WhereNotBetween joined with OR.
func (b *Builder) OrWhereNotBetween(column any, values any) *Builder {
	return b.whereBetween(Or, column, values, true)
}

func (b *Builder) whereBetween(boolean Boolean, column any, values any, not bool) *Builder {
	col, err := b.column(column)
	if err != nil {
		return b.fail(err)
	}

	list, err := toList(values)
	if err != nil {
		return b.fail(err)
	}

	if len(list) != 2 {
		return b.fail(fmt.Errorf("%w: got %d", ErrBetweenValues, len(list)))
	}

	if col.Identity {
		if err := identities(list); err != nil {
			return b.fail(err)
		}
	}

	key := b.bind(BucketWhere, col, list)
	b.spec.Wheres = append(b.spec.Wheres, BetweenPredicate{
		connective: connective{boolean},
		Column:     col,
		Binding:    key,
		Not:        not,
	})

	return b
}

// WhereNull constrains column to be null.
func (b *Builder) WhereNull(column any) *Builder {
	return b.whereNull(And, column, false)
}

// OrWhereNull is WhereNull joined with OR.
func (b *Builder) OrWhereNull(column any) *Builder {
	return b.whereNull(Or, column, false)
}

// WhereNotNull constrains column to be set.
func (b *Builder) WhereNotNull(column any) *Builder {
	return b.whereNull(And, column, true)
}

// OrWhereNotNull is WhereNotNull joined with OR.
func (b *Builder) OrWhereNotNull(column any) *Builder {
	return b.whereNull(Or, column, true)
}

func (b *Builder) whereNull(boolean Boolean, column any, not bool) *Builder {
	col, err := b.column(column)
	if err != nil {
		return b.fail(err)
	}

	b.spec.Wheres = append(b.spec.Wheres, NullPredicate{
		connective: connective{boolean},
		Column:     col,
		Not:        not,
	})

	return b
}

// WhereCarried compares two identifiers already bound in the statement, e.g.
// identifiers carried through a WITH clause. Nothing is bound.
func (b *Builder) WhereCarried(left, op, right string) *Builder {
	return b.whereCarried(And, left, op, right)
}

// OrWhereCarried is WhereCarried joined with OR.
func (b *Builder) OrWhereCarried(left, op, right string) *Builder {
	return b.whereCarried(Or, left, op, right)
}

func (b *Builder) whereCarried(boolean Boolean, left, op, right string) *Builder {
	if !IsOperator(op) {
		return b.fail(fmt.Errorf("%w: unknown operator %q", ErrValueRequired, op))
	}

	b.spec.Wheres = append(b.spec.Wheres, CarriedPredicate{
		connective: connective{boolean},
		Left:       left,
		Operator:   strings.ToLower(op),
		Right:      right,
	})

	return b
}

// WhereNested adds a parenthesized group built by fn.
func (b *Builder) WhereNested(fn func(*Builder)) *Builder {
	return b.whereNested(And, fn)
}

// OrWhereNested is WhereNested joined with OR.
func (b *Builder) OrWhereNested(fn func(*Builder)) *Builder {
	return b.whereNested(Or, fn)
}

func (b *Builder) whereNested(boolean Boolean, fn func(*Builder)) *Builder {
	q := b.nested()
	fn(q)

	if q.err != nil {
		return b.fail(q.err)
	}

	if len(q.spec.Wheres) == 0 {
		return b
	}

	b.spec.Wheres = append(b.spec.Wheres, NestedPredicate{
		connective: connective{boolean},
		Wheres:     q.spec.Wheres,
	})

	return b
}

// WhereExists requires the pattern built by fn to match.
func (b *Builder) WhereExists(fn func(*Builder)) *Builder {
	return b.whereExists(And, fn, false)
}

// OrWhereExists is WhereExists joined with OR.
func (b *Builder) OrWhereExists(fn func(*Builder)) *Builder {
	return b.whereExists(Or, fn, false)
}

// WhereNotExists requires the pattern built by fn not to match.
func (b *Builder) WhereNotExists(fn func(*Builder)) *Builder {
	return b.whereExists(And, fn, true)
}

func (b *Builder) whereExists(boolean Boolean, fn func(*Builder), not bool) *Builder {
	q := b.sub()
	fn(q)

	if q.err != nil {
		return b.fail(q.err)
	}

	b.spec.Wheres = append(b.spec.Wheres, ExistsPredicate{
		connective: connective{boolean},
		Query:      q.spec,
		Not:        not,
	})

	return b
}

// WhereRaw inserts expr verbatim. bindings are stored under their own names
// in the where bucket and must not collide with generated names.
func (b *Builder) WhereRaw(expr string, bindings map[string]any) *Builder {
	return b.whereRaw(And, expr, bindings)
}

// OrWhereRaw is WhereRaw joined with OR.
func (b *Builder) OrWhereRaw(expr string, bindings map[string]any) *Builder {
	return b.whereRaw(Or, expr, bindings)
}

func (b *Builder) whereRaw(boolean Boolean, expr string, bindings map[string]any) *Builder {
	b.bindRaw(BucketWhere, bindings)

	b.spec.Wheres = append(b.spec.Wheres, RawPredicate{
		connective: connective{boolean},
		Expression: expr,
	})

	return b
}

func (b *Builder) bindRaw(bucket Bucket, bindings map[string]any) {
	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		b.fail(b.spec.Bindings.Bind(bucket, k, bindings[k]))
	}
}

// MatchRelation adds a relationship pattern from parent to related. The
// related node is addressed by relatedNode, or by its labels' placeholder
// when empty. A non-nil value constrains the parent's property; a slice
// value becomes an IN constraint. An Or boolean makes the match optional.
func (b *Builder) MatchRelation(parent, related Entity, relatedNode, relationship, property string, value any, direction Direction, boolean Boolean) *Builder {
	parentNode := b.grammar.Placeholder(parent.Labels)
	if relatedNode == "" {
		relatedNode = b.grammar.Placeholder(related.Labels)
	}

	m := RelationMatch{
		Optional:     boolean == Or,
		Parent:       NodeRef{Placeholder: parentNode, Labels: parent.Labels},
		Related:      NodeRef{Placeholder: relatedNode, Labels: related.Labels},
		Relationship: relationship,
		Direction:    direction,
	}

	m.Property, m.Operator, m.Binding = b.constrain(parentNode, property, value)
	b.spec.Matches = append(b.spec.Matches, m)

	return b
}

// MatchMorphRelation adds a polymorphic relationship pattern: neither the
// related labels nor the relationship type are known here. The related type
// is resolved from the returned rows.
func (b *Builder) MatchMorphRelation(parent Entity, relatedNode, property string, value any, direction Direction) *Builder {
	parentNode := b.grammar.Placeholder(parent.Labels)

	m := MorphMatch{
		Parent:    NodeRef{Placeholder: parentNode, Labels: parent.Labels},
		Related:   relatedNode,
		Direction: direction,
	}

	m.Property, m.Operator, m.Binding = b.constrain(parentNode, property, value)
	b.spec.Matches = append(b.spec.Matches, m)

	return b
}

func (b *Builder) constrain(alias, property string, value any) (Column, string, string) {
	if property == "" || value == nil {
		return Column{}, "", ""
	}

	col := ParseColumn(b.grammar.IDReplacement(property, alias))
	if !col.Identity && col.Alias == "" {
		col.Alias = alias
	}

	if list, err := toList(value); err == nil {
		if col.Identity {
			b.fail(identities(list))
		}

		return col, "in", b.bind(BucketMatches, col, list)
	}

	if col.Identity {
		id, err := identity(value)
		b.fail(err)

		value = id
	}

	return col, "=", b.bind(BucketMatches, col, value)
}

// With stages the given expressions in a WITH clause before RETURN.
// Duplicates are ignored.
func (b *Builder) With(parts ...string) *Builder {
	for _, p := range parts {
		b.withPart(WithPart{Expression: p})
	}

	return b
}

// WithAs stages expr under alias.
func (b *Builder) WithAs(expr, alias string) *Builder {
	return b.withPart(WithPart{Expression: expr, Alias: alias})
}

func (b *Builder) withPart(part WithPart) *Builder {
	for _, w := range b.spec.Withs {
		if w == part {
			return b
		}
	}

	b.spec.Withs = append(b.spec.Withs, part)

	return b
}

// Select replaces the returned columns.
func (b *Builder) Select(columns ...string) *Builder {
	b.spec.Columns = columns

	return b
}

// AddSelect appends returned columns.
func (b *Builder) AddSelect(columns ...string) *Builder {
	b.spec.Columns = append(b.spec.Columns, columns...)

	return b
}

// SelectRaw appends a verbatim projection with its bindings.
func (b *Builder) SelectRaw(expr string, bindings map[string]any) *Builder {
	b.bindRaw(BucketSelect, bindings)
	b.spec.Raw = append(b.spec.Raw, expr)

	return b
}

// Distinct returns only distinct rows.
func (b *Builder) Distinct() *Builder {
	b.spec.Distinct = true

	return b
}

// GroupBy sets the grouping keys of an aggregate.
func (b *Builder) GroupBy(groups ...string) *Builder {
	b.spec.Groups = append(b.spec.Groups, groups...)

	return b
}

// Having filters grouped rows.
func (b *Builder) Having(column, op string, value any) *Builder {
	return b.having(And, column, op, value)
}

// OrHaving is Having joined with OR.
func (b *Builder) OrHaving(column, op string, value any) *Builder {
	return b.having(Or, column, op, value)
}

func (b *Builder) having(boolean Boolean, column, op string, value any) *Builder {
	op = strings.ToLower(strings.TrimSpace(op))
	if !IsOperator(op) {
		return b.fail(fmt.Errorf("%w: unknown operator %q", ErrValueRequired, op))
	}

	col := ParseColumn(column)

	if value == nil {
		if !acceptsNull(op) {
			return b.fail(fmt.Errorf("%w: %s %s", ErrValueRequired, column, op))
		}

		b.spec.Havings = append(b.spec.Havings, NullPredicate{
			connective: connective{boolean},
			Column:     col,
			Not:        negatesNull(op),
		})

		return b
	}

	key := b.bind(BucketHaving, col, value)
	b.spec.Havings = append(b.spec.Havings, BasicPredicate{
		connective: connective{boolean},
		Column:     col,
		Operator:   op,
		Binding:    key,
		Value:      value,
	})

	return b
}

// OrderBy orders by column; direction is "asc" or "desc".
func (b *Builder) OrderBy(column string, direction string) *Builder {
	col, err := b.column(column)
	if err != nil {
		return b.fail(err)
	}

	dir := "asc"
	if strings.EqualFold(strings.TrimSpace(direction), "desc") {
		dir = "desc"
	}

	b.spec.Orders = append(b.spec.Orders, Order{Column: col, Direction: dir})

	return b
}

// OrderByDesc orders by column descending.
func (b *Builder) OrderByDesc(column string) *Builder {
	return b.OrderBy(column, "desc")
}

// OrderByRaw appends a verbatim ordering with its bindings.
func (b *Builder) OrderByRaw(expr string, bindings map[string]any) *Builder {
	b.bindRaw(BucketOrder, bindings)
	b.spec.Orders = append(b.spec.Orders, Order{Raw: expr})

	return b
}

// Limit caps the number of returned rows. Negative values clear the limit.
func (b *Builder) Limit(n int) *Builder {
	if n < 0 {
		b.spec.Limit = nil

		return b
	}

	b.spec.Limit = &n

	return b
}

// Take is an alias of Limit.
func (b *Builder) Take(n int) *Builder {
	return b.Limit(n)
}

// Offset skips the first n rows. Negative values clear the offset.
func (b *Builder) Offset(n int) *Builder {
	if n < 0 {
		b.spec.Offset = nil

		return b
	}

	b.spec.Offset = &n

	return b
}

// Skip is an alias of Offset.
func (b *Builder) Skip(n int) *Builder {
	return b.Offset(n)
}

// ForPage sets offset and limit for a 1-based page.
func (b *Builder) ForPage(page, perPage int) *Builder {
	if page < 1 {
		page = 1
	}

	return b.Skip((page - 1) * perPage).Take(perPage)
}

// Union combines the result with the query built by fn.
func (b *Builder) Union(fn func(*Builder)) *Builder {
	return b.union(fn, false)
}

// UnionAll is Union keeping duplicate rows.
func (b *Builder) UnionAll(fn func(*Builder)) *Builder {
	return b.union(fn, true)
}

func (b *Builder) union(fn func(*Builder), all bool) *Builder {
	q := b.sub()
	fn(q)

	if q.err != nil {
		return b.fail(q.err)
	}

	b.spec.Unions = append(b.spec.Unions, Union{Query: q.spec, All: all})

	return b
}
