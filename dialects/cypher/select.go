package cypher

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rlch/neoql/query"
)

// aggregateAlias is the column aggregate projections are returned under.
const aggregateAlias = "aggregate"

// stage selects how columns are resolved while predicates are rendered.
type stage int

const (
	// stageWhere sees only identifiers bound by required patterns.
	stageWhere stage = iota
	// stageOptional also sees identifiers bound by OPTIONAL MATCH.
	stageOptional
	// stageReturn also sees optional and carried identifiers.
	stageReturn
	// stageHaving renders columns verbatim against staged names.
	stageHaving
)

// CompileSelect compiles a read statement:
// MATCH, WHERE, OPTIONAL MATCH, WITH, RETURN, ORDER BY, SKIP, LIMIT.
func (g *Grammar) CompileSelect(s *query.Spec) (string, error) {
	return g.compileSelect(s, nil)
}

func (g *Grammar) compileSelect(s *query.Spec, parent *scope) (string, error) {
	sc := newScope(parent)

	parts, err := g.reading(s, sc)
	if err != nil {
		return "", err
	}

	tail, err := g.projection(s, sc)
	if err != nil {
		return "", err
	}

	stmt := strings.Join(append(parts, tail...), " ")

	for _, u := range s.Unions {
		sub, err := g.compileSelect(u.Query, parent)
		if err != nil {
			return "", err
		}

		if u.All {
			stmt += " UNION ALL " + sub
		} else {
			stmt += " UNION " + sub
		}
	}

	return stmt, nil
}

// reading compiles the pattern and filter section shared by reads and writes.
func (g *Grammar) reading(s *query.Spec, sc *scope) ([]string, error) {
	if len(s.Labels) == 0 && len(s.Matches) == 0 {
		return nil, ErrNoTarget
	}

	var parts []string

	if len(s.Labels) > 0 {
		sc.primary = g.Placeholder(s.Labels)
		parts = append(parts, "MATCH "+g.node(query.NodeRef{Placeholder: sc.primary, Labels: s.Labels}, sc, false))
	}

	var optionals, constraints []string

	for _, m := range s.Matches {
		pattern, optional, err := g.match(m, sc)
		if err != nil {
			return nil, err
		}

		if optional {
			optionals = append(optionals, "OPTIONAL MATCH "+pattern)
		} else {
			parts = append(parts, "MATCH "+pattern)
		}
	}

	for _, m := range s.Matches {
		c, err := g.constraint(m, sc)
		if err != nil {
			return nil, err
		}

		if c != "" {
			constraints = append(constraints, c)
		}
	}

	preds, err := g.predicates(s.Wheres, sc, stageWhere)
	if err == nil {
		if where := joinWhere(constraints, preds, hasOr(s.Wheres)); where != "" {
			parts = append(parts, "WHERE "+where)
		}

		return append(parts, optionals...), nil
	}

	if len(optionals) == 0 || !errors.Is(err, ErrUnknownAlias) {
		return nil, err
	}

	// Predicates on optional identifiers filter rows after the OPTIONAL
	// MATCH clauses. A WHERE directly after them would only filter the
	// optional pattern.
	preds, err = g.predicates(s.Wheres, sc, stageOptional)
	if err != nil {
		return nil, err
	}

	if len(constraints) > 0 {
		parts = append(parts, "WHERE "+strings.Join(constraints, " AND "))
	}

	parts = append(parts, optionals...)

	return append(parts, "WITH * WHERE "+preds), nil
}

func (g *Grammar) node(ref query.NodeRef, sc *scope, optional bool) string {
	if sc.has(ref.Placeholder, true) {
		return "(" + ref.Placeholder + ")"
	}

	sc.bind(ref.Placeholder, optional)

	return "(" + ref.Placeholder + labels(ref.Labels) + ")"
}

func (g *Grammar) match(m query.Match, sc *scope) (string, bool, error) {
	switch m := m.(type) {
	case query.RelationMatch:
		parent := g.node(m.Parent, sc, m.Optional)
		inner := sc.bindVariable("rel_"+identifier(strings.ToLower(m.Relationship)), m.Optional)

		if m.Relationship != "" {
			inner += ":" + relType(m.Relationship)
		}

		related := g.node(m.Related, sc, m.Optional)

		return parent + arrow(m.Direction, inner) + related, m.Optional, nil
	case query.MorphMatch:
		parent := g.node(m.Parent, sc, m.Optional)
		related := g.node(query.NodeRef{Placeholder: m.Related}, sc, m.Optional)

		return parent + arrow(m.Direction, "") + related, m.Optional, nil
	default:
		return "", false, fmt.Errorf("%w: match %T", ErrUnsupportedClause, m)
	}
}

func (g *Grammar) constraint(m query.Match, sc *scope) (string, error) {
	var (
		col          query.Column
		op, bindName string
	)

	switch m := m.(type) {
	case query.RelationMatch:
		col, op, bindName = m.Property, m.Operator, m.Binding
	case query.MorphMatch:
		col, op, bindName = m.Property, m.Operator, m.Binding
	}

	if bindName == "" {
		return "", nil
	}

	expr, err := sc.column(col, false)
	if err != nil {
		return "", err
	}

	return expr + " " + operator(op) + " $" + bindName, nil
}

func arrow(d query.Direction, inner string) string {
	switch d {
	case query.In:
		return "<-[" + inner + "]-"
	case query.Both:
		return "-[" + inner + "]-"
	default:
		return "-[" + inner + "]->"
	}
}

func relType(t string) string {
	if identifier(t) == t {
		return t
	}

	return "`" + strings.ReplaceAll(t, "`", "``") + "`"
}

func hasOr(ps []query.Predicate) bool {
	for i, p := range ps {
		if i > 0 && p.Connective() == query.Or {
			return true
		}
	}

	return false
}

func joinWhere(constraints []string, preds string, or bool) string {
	switch {
	case len(constraints) == 0:
		return preds
	case preds == "":
		return strings.Join(constraints, " AND ")
	case or:
		return strings.Join(constraints, " AND ") + " AND (" + preds + ")"
	default:
		return strings.Join(constraints, " AND ") + " AND " + preds
	}
}

// predicates folds a predicate list into one boolean expression.
func (g *Grammar) predicates(ps []query.Predicate, sc *scope, st stage) (string, error) {
	var sb strings.Builder

	for i, p := range ps {
		text, err := g.predicate(p, sc, st)
		if err != nil {
			return "", err
		}

		if i > 0 {
			sb.WriteString(" " + strings.ToUpper(string(p.Connective())) + " ")
		}

		sb.WriteString(text)
	}

	return sb.String(), nil
}

func (g *Grammar) predicate(p query.Predicate, sc *scope, st stage) (string, error) {
	col := func(c query.Column) (string, error) {
		if st == stageHaving {
			return c.String(), nil
		}

		return sc.column(c, st != stageWhere)
	}

	switch p := p.(type) {
	case query.BasicPredicate:
		c, err := col(p.Column)
		if err != nil {
			return "", err
		}

		return c + " " + operator(p.Operator) + " $" + p.Binding, nil
	case query.InPredicate:
		c, err := col(p.Column)
		if err != nil {
			return "", err
		}

		if p.Not {
			return "NOT " + c + " IN $" + p.Binding, nil
		}

		return c + " IN $" + p.Binding, nil
	case query.BetweenPredicate:
		c, err := col(p.Column)
		if err != nil {
			return "", err
		}

		expr := "$" + p.Binding + "[0] <= " + c + " <= $" + p.Binding + "[1]"
		if p.Not {
			return "NOT (" + expr + ")", nil
		}

		return expr, nil
	case query.NullPredicate:
		c, err := col(p.Column)
		if err != nil {
			return "", err
		}

		if p.Not {
			return c + " IS NOT NULL", nil
		}

		return c + " IS NULL", nil
	case query.CarriedPredicate:
		return p.Left + " " + operator(p.Operator) + " " + p.Right, nil
	case query.NestedPredicate:
		inner, err := g.predicates(p.Wheres, sc, st)
		if err != nil {
			return "", err
		}

		return "(" + inner + ")", nil
	case query.SubPredicate:
		c, err := col(p.Column)
		if err != nil {
			return "", err
		}

		sub, err := g.compileSelect(p.Query, sc)
		if err != nil {
			return "", err
		}

		return c + " " + operator(p.Operator) + " head(COLLECT { " + sub + " })", nil
	case query.InSubPredicate:
		c, err := col(p.Column)
		if err != nil {
			return "", err
		}

		sub, err := g.compileSelect(p.Query, sc)
		if err != nil {
			return "", err
		}

		expr := c + " IN COLLECT { " + sub + " }"
		if p.Not {
			return "NOT " + expr, nil
		}

		return expr, nil
	case query.ExistsPredicate:
		parts, err := g.reading(p.Query, newScope(sc))
		if err != nil {
			return "", err
		}

		expr := "EXISTS { " + strings.Join(parts, " ") + " }"
		if p.Not {
			return "NOT " + expr, nil
		}

		return expr, nil
	case query.RawPredicate:
		return p.Expression, nil
	default:
		return "", fmt.Errorf("%w: predicate %T", ErrUnsupportedClause, p)
	}
}

// item is one projection of a WITH or RETURN clause.
type item struct {
	expr  string
	alias string
}

func (it item) String() string {
	if it.alias == "" || it.alias == it.expr {
		return it.expr
	}

	return it.expr + " AS " + it.alias
}

// name is the identifier the item is visible under after a WITH.
func (it item) name() string {
	if it.alias != "" {
		return it.alias
	}

	if identifier(it.expr) == it.expr {
		return it.expr
	}

	if i := strings.LastIndex(it.expr, "."); i >= 0 {
		return identifier(strings.Trim(it.expr[i+1:], "`"))
	}

	return identifier(it.expr)
}

func joinItems(items []item) string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.String()
	}

	return strings.Join(out, ", ")
}

// projection compiles WITH, RETURN, ORDER BY, SKIP and LIMIT.
func (g *Grammar) projection(s *query.Spec, sc *scope) ([]string, error) {
	var (
		parts []string
		withs []item
	)

	for _, w := range s.Withs {
		it := item{expr: w.Expression, alias: w.Alias}
		withs = append(withs, it)
		sc.carried[it.name()] = true
	}

	items, err := g.returnItems(s, sc)
	if err != nil {
		return nil, err
	}

	switch {
	case len(s.Havings) > 0:
		staged := append([]item(nil), withs...)
		names := make([]item, 0, len(items))

		for _, it := range items {
			name := it.name()
			staged = append(staged, item{expr: it.expr, alias: name})
			names = append(names, item{expr: name})
			sc.carried[name] = true
		}

		having, err := g.predicates(s.Havings, sc, stageHaving)
		if err != nil {
			return nil, err
		}

		parts = append(parts, "WITH "+joinItems(staged)+" WHERE "+having)
		items = names
	case len(withs) > 0:
		parts = append(parts, "WITH "+joinItems(withs))
	}

	ret := "RETURN "
	if s.Distinct {
		ret += "DISTINCT "
	}

	parts = append(parts, ret+joinItems(items))

	if len(s.Orders) > 0 {
		orders := make([]string, 0, len(s.Orders))

		for _, o := range s.Orders {
			if o.Raw != "" {
				orders = append(orders, o.Raw)

				continue
			}

			expr, err := g.projected(o.Column, sc)
			if err != nil {
				return nil, err
			}

			orders = append(orders, expr+" "+strings.ToUpper(o.Direction))
		}

		parts = append(parts, "ORDER BY "+strings.Join(orders, ", "))
	}

	if s.Offset != nil {
		parts = append(parts, "SKIP "+strconv.Itoa(*s.Offset))
	}

	if s.Limit != nil {
		parts = append(parts, "LIMIT "+strconv.Itoa(*s.Limit))
	}

	return parts, nil
}

func (g *Grammar) returnItems(s *query.Spec, sc *scope) ([]item, error) {
	var items []item

	if s.Aggregate != nil {
		for _, gr := range s.Groups {
			it, err := g.columnItem(gr, sc)
			if err != nil {
				return nil, err
			}

			items = append(items, it)
		}

		fn, err := g.aggregate(s.Aggregate, sc)
		if err != nil {
			return nil, err
		}

		return append(items, item{expr: fn, alias: aggregateAlias}), nil
	}

	columns := s.Columns
	if len(columns) == 0 && len(s.Raw) == 0 {
		columns = []string{"*"}
	}

	for _, c := range columns {
		if strings.TrimSpace(c) != "*" {
			it, err := g.columnItem(c, sc)
			if err != nil {
				return nil, err
			}

			items = append(items, it)

			continue
		}

		if len(sc.order) == 0 {
			items = append(items, item{expr: "*"})
		}

		for _, p := range sc.order {
			items = append(items, item{expr: p})
		}
	}

	for _, raw := range s.Raw {
		items = append(items, item{expr: raw})
	}

	return items, nil
}

// columnItem resolves a selected column. Bare placeholders return the whole
// node; unqualified properties are aliased to their name.
func (g *Grammar) columnItem(raw string, sc *scope) (item, error) {
	c := query.ParseColumn(g.IDReplacement(raw, sc.primary))

	expr, err := g.projected(c, sc)
	if err != nil {
		return item{}, err
	}

	switch {
	case c.Identity && c.Alias == sc.primary:
		return item{expr: expr, alias: "id"}, nil
	case c.Identity:
		return item{expr: expr, alias: c.Alias + "_id"}, nil
	case c.Alias == "" && expr != c.Name:
		return item{expr: expr, alias: identifier(c.Name)}, nil
	default:
		return item{expr: expr}, nil
	}
}

// projected renders a column after the reading section, where bare
// placeholders and carried names are valid on their own.
func (g *Grammar) projected(c query.Column, sc *scope) (string, error) {
	if !c.Identity && c.Alias == "" && sc.has(c.Name, true) {
		return c.Name, nil
	}

	return sc.column(c, true)
}

func (g *Grammar) aggregate(agg *query.Aggregate, sc *scope) (string, error) {
	column := "*"
	if len(agg.Columns) > 0 {
		column = strings.TrimSpace(agg.Columns[0])
	}

	arg := "*"

	switch {
	case column == "*" && sc.primary != "":
		arg = sc.primary
	case column != "*":
		expr, err := g.projected(query.ParseColumn(g.IDReplacement(column, sc.primary)), sc)
		if err != nil {
			return "", err
		}

		arg = expr
	}

	switch strings.ToLower(agg.Function) {
	case "count":
		return "count(" + arg + ")", nil
	case "countdistinct":
		return "count(DISTINCT " + arg + ")", nil
	case "sum", "avg", "min", "max", "collect":
		return strings.ToLower(agg.Function) + "(" + arg + ")", nil
	case "stdev":
		return "stDev(" + arg + ")", nil
	case "stdevp":
		return "stDevP(" + arg + ")", nil
	case "percentiledisc", "percentilecont":
		if agg.Percentile == "" {
			return "", fmt.Errorf("%w: %s needs a percentile", query.ErrValueRequired, agg.Function)
		}

		fn := "percentileDisc"
		if strings.EqualFold(agg.Function, "percentilecont") {
			fn = "percentileCont"
		}

		return fn + "(" + arg + ", $" + agg.Percentile + ")", nil
	default:
		return "", fmt.Errorf("%w: %s", query.ErrUnknownAggregate, agg.Function)
	}
}
