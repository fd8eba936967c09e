package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/rlch/neoql"
	"github.com/rlch/neoql/records"
)

// Related describes nodes created together with their parent by CreateWith.
type Related struct {
	Relationship string
	Direction    Direction
	Labels       []string

	// Placeholder overrides the pattern variable derived from Labels.
	Placeholder string

	Records []map[string]any
}

// Page is one page of a paginated select.
type Page struct {
	Total       int64
	PerPage     int
	CurrentPage int
	LastPage    int
	Result      *neoql.Result
}

func (b *Builder) ready() error {
	if b.err != nil {
		return b.err
	}

	if b.conn == nil {
		return ErrNoConnection
	}

	return nil
}

// Get runs the select.
func (b *Builder) Get(ctx context.Context) (*neoql.Result, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	stmt, err := b.grammar.CompileSelect(b.spec)
	if err != nil {
		return nil, err
	}

	return b.conn.Select(ctx, stmt, b.GetBindings())
}

// First runs the select limited to one row. It returns nil when nothing matches.
func (b *Builder) First(ctx context.Context) (*neoql.Record, error) {
	res, err := b.Take(1).Get(ctx)
	if err != nil {
		return nil, err
	}

	return res.First(), nil
}

// Find returns the entity with the given identity.
func (b *Builder) Find(ctx context.Context, id any) (*neoql.Record, error) {
	return b.Where("id", id).First(ctx)
}

// Exists reports whether the query matches anything.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	n, err := b.Count(ctx)

	return n > 0, err
}

// Value returns a single column of the first row.
func (b *Builder) Value(ctx context.Context, column string) (any, error) {
	prev := b.spec.Columns
	b.spec.Columns = []string{column}

	defer func() { b.spec.Columns = prev }()

	rec, err := b.First(ctx)
	if err != nil || rec == nil {
		return nil, err
	}

	return rec.First(), nil
}

// Pluck returns a single column of every row.
func (b *Builder) Pluck(ctx context.Context, column string) ([]any, error) {
	prev := b.spec.Columns
	b.spec.Columns = []string{column}

	defer func() { b.spec.Columns = prev }()

	res, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}

	return records.Scalars(res), nil
}

// Aggregate runs function over columns and returns the single value.
// percentile is only used by percentileDisc and percentileCont.
func (b *Builder) Aggregate(ctx context.Context, function string, columns []string, percentile ...float64) (any, error) {
	res, err := b.aggregate(ctx, function, columns, percentile)
	if err != nil {
		return nil, err
	}

	return records.Scalar(res), nil
}

func (b *Builder) aggregate(ctx context.Context, function string, columns []string, percentile []float64) (*neoql.Result, error) {
	if len(columns) == 0 {
		columns = []string{"*"}
	}

	agg := &Aggregate{Function: function, Columns: columns}

	prevColumns, prevAgg := b.spec.Columns, b.spec.Aggregate
	// Aggregates replace the selection, so its bindings are not sent.
	prevSelect := b.spec.Bindings.swap(BucketSelect, nil)

	defer func() {
		b.spec.Columns, b.spec.Aggregate = prevColumns, prevAgg
		b.spec.Bindings.swap(BucketSelect, prevSelect)
	}()

	if len(percentile) > 0 {
		agg.Percentile = b.spec.Bindings.Reserve("percentile")
		b.fail(b.spec.Bindings.Add(BucketSelect, agg.Percentile, percentile[0]))
	}

	b.spec.Columns = nil
	b.spec.Aggregate = agg

	return b.Get(ctx)
}

// Count returns the number of matching rows.
func (b *Builder) Count(ctx context.Context, columns ...string) (int64, error) {
	v, err := b.Aggregate(ctx, "count", columns)

	return asInt64(v), err
}

// CountDistinct returns the number of distinct values of column.
func (b *Builder) CountDistinct(ctx context.Context, column string) (int64, error) {
	v, err := b.Aggregate(ctx, "countDistinct", []string{column})

	return asInt64(v), err
}

// Sum returns the sum of column.
func (b *Builder) Sum(ctx context.Context, column string) (any, error) {
	return b.Aggregate(ctx, "sum", []string{column})
}

// Avg returns the mean of column.
func (b *Builder) Avg(ctx context.Context, column string) (float64, error) {
	v, err := b.Aggregate(ctx, "avg", []string{column})

	return asFloat64(v), err
}

// Min returns the smallest value of column.
func (b *Builder) Min(ctx context.Context, column string) (any, error) {
	return b.Aggregate(ctx, "min", []string{column})
}

// Max returns the largest value of column.
func (b *Builder) Max(ctx context.Context, column string) (any, error) {
	return b.Aggregate(ctx, "max", []string{column})
}

// Stdev returns the sample standard deviation of column.
func (b *Builder) Stdev(ctx context.Context, column string) (float64, error) {
	v, err := b.Aggregate(ctx, "stdev", []string{column})

	return asFloat64(v), err
}

// Stdevp returns the population standard deviation of column.
func (b *Builder) Stdevp(ctx context.Context, column string) (float64, error) {
	v, err := b.Aggregate(ctx, "stdevp", []string{column})

	return asFloat64(v), err
}

// PercentileDisc returns the nearest stored value at percentile (0.0 to 1.0).
func (b *Builder) PercentileDisc(ctx context.Context, column string, percentile float64) (any, error) {
	return b.Aggregate(ctx, "percentileDisc", []string{column}, percentile)
}

// PercentileCont returns the interpolated value at percentile (0.0 to 1.0).
func (b *Builder) PercentileCont(ctx context.Context, column string, percentile float64) (float64, error) {
	v, err := b.Aggregate(ctx, "percentileCont", []string{column}, percentile)

	return asFloat64(v), err
}

// Collect gathers every value of column, keeping duplicates and order.
func (b *Builder) Collect(ctx context.Context, column string) ([]any, error) {
	v, err := b.Aggregate(ctx, "collect", []string{column})
	if err != nil || v == nil {
		return nil, err
	}

	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: collect returned %T", ErrNotAList, v)
	}

	return list, nil
}

// CountForPagination counts the rows the query would return without its
// ordering, limit, offset and column selection. They are restored afterwards.
func (b *Builder) CountForPagination(ctx context.Context, columns ...string) (int64, error) {
	orders, limit, offset := b.spec.Orders, b.spec.Limit, b.spec.Offset
	prevOrder := b.spec.Bindings.swap(BucketOrder, nil)

	b.spec.Orders, b.spec.Limit, b.spec.Offset = nil, nil, nil

	defer func() {
		b.spec.Orders, b.spec.Limit, b.spec.Offset = orders, limit, offset
		b.spec.Bindings.swap(BucketOrder, prevOrder)
	}()

	res, err := b.aggregate(ctx, "count", columns, nil)
	if err != nil {
		return 0, err
	}

	if len(b.spec.Groups) > 0 {
		return int64(res.Len()), nil
	}

	return asInt64(records.Scalar(res)), nil
}

// Paginate returns one page of results together with the total count.
func (b *Builder) Paginate(ctx context.Context, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	if perPage < 1 {
		perPage = 15
	}

	total, err := b.CountForPagination(ctx)
	if err != nil {
		return nil, err
	}

	out := &Page{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    int(math.Max(1, math.Ceil(float64(total)/float64(perPage)))),
	}

	limit, offset := b.spec.Limit, b.spec.Offset

	defer func() { b.spec.Limit, b.spec.Offset = limit, offset }()

	out.Result, err = b.ForPage(page, perPage).Get(ctx)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Insert creates one node per record.
func (b *Builder) Insert(ctx context.Context, values ...map[string]any) (bool, error) {
	_, err := b.insert(ctx, values, false)

	return err == nil, err
}

// InsertGetID creates a node and returns its identity.
func (b *Builder) InsertGetID(ctx context.Context, values map[string]any) (int64, error) {
	res, err := b.insert(ctx, []map[string]any{values}, true)
	if err != nil {
		return 0, err
	}

	rec := res.First()
	if rec == nil {
		return 0, nil
	}

	return records.FromValue(rec.First()).ID, nil
}

func (b *Builder) insert(ctx context.Context, values []map[string]any, returning bool) (*neoql.Result, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	if len(values) == 0 {
		return nil, ErrNoValues
	}

	params := make(map[string]any)
	base := b.Placeholder()
	created := make([]CreateRecord, len(values))

	for i, v := range values {
		placeholder := base
		if i > 0 {
			placeholder = base + "_" + strconv.Itoa(i+1)
		}

		created[i] = CreateRecord{
			Placeholder: placeholder,
			Labels:      b.spec.Labels,
			Properties:  b.assign(v, "", params),
		}
	}

	stmt, err := b.grammar.CompileCreate(b.spec, created, returning)
	if err != nil {
		return nil, err
	}

	return b.conn.Insert(ctx, stmt, b.spec.Bindings.Merged(params))
}

// assign reserves a binding per property, in key order.
func (b *Builder) assign(values map[string]any, postfix string, params map[string]any) []Assignment {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]Assignment, 0, len(keys))

	for _, k := range keys {
		key := b.spec.Bindings.Reserve(k + postfix)
		params[key] = b.format(values[k])
		out = append(out, Assignment{Property: k, Binding: key})
	}

	return out
}

func (b *Builder) format(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(b.grammar.DateFormat())
	}

	return v
}

// Update sets properties on every matching node and returns how many were
// affected.
func (b *Builder) Update(ctx context.Context, values map[string]any) (int, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}

	for k := range values {
		if ParseColumn(b.grammar.IDReplacement(k, b.Placeholder())).Identity {
			return 0, fmt.Errorf("%w: %s", ErrImmutableIdentity, k)
		}
	}

	params := make(map[string]any)
	sets := b.assign(values, "_update", params)

	stmt, err := b.grammar.CompileUpdate(b.spec, sets)
	if err != nil {
		return 0, err
	}

	res, err := b.conn.Update(ctx, stmt, b.spec.Bindings.Merged(params))
	if err != nil {
		return 0, err
	}

	return res.Len(), nil
}

// Delete detaches and deletes every matching node, or only the node with the
// given identity. It returns the number of deleted nodes.
func (b *Builder) Delete(ctx context.Context, id ...any) (int, error) {
	if len(id) > 0 {
		b.Where("id", "=", id[0])
	}

	if err := b.ready(); err != nil {
		return 0, err
	}

	stmt, err := b.grammar.CompileDelete(b.spec)
	if err != nil {
		return 0, err
	}

	res, err := b.conn.Delete(ctx, stmt, b.GetBindings())
	if err != nil {
		return 0, err
	}

	if res == nil {
		return 0, nil
	}

	return res.Counters.NodesDeleted, nil
}

// CreateWith creates a node together with new related nodes in one
// statement and returns every created node keyed by placeholder.
func (b *Builder) CreateWith(ctx context.Context, values map[string]any, related ...Related) (*neoql.Result, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	params := make(map[string]any)
	base := b.Placeholder()
	used := map[string]bool{base: true}

	node := CreateRecord{
		Placeholder: base,
		Labels:      b.spec.Labels,
		Properties:  b.assign(values, "", params),
	}

	var out []RelatedCreate

	for _, r := range related {
		name := r.Placeholder
		if name == "" {
			name = b.grammar.Placeholder(r.Labels)
		}

		for _, rec := range r.Records {
			placeholder := name
			for n := 2; used[placeholder]; n++ {
				placeholder = name + "_" + strconv.Itoa(n)
			}

			used[placeholder] = true

			out = append(out, RelatedCreate{
				Relationship: r.Relationship,
				Direction:    r.Direction,
				Node: CreateRecord{
					Placeholder: placeholder,
					Labels:      r.Labels,
					Properties:  b.assign(rec, "", params),
				},
			})
		}
	}

	stmt, err := b.grammar.CompileCreateWith(b.spec, node, out)
	if err != nil {
		return nil, err
	}

	return b.conn.Insert(ctx, stmt, b.spec.Bindings.Merged(params))
}

// UpdateLabels adds or drops labels on every matching node.
func (b *Builder) UpdateLabels(ctx context.Context, labels []string, op LabelOperation) (bool, error) {
	if err := b.ready(); err != nil {
		return false, err
	}

	stmt, err := b.grammar.CompileUpdateLabels(b.spec, labels, op)
	if err != nil {
		return false, err
	}

	_, err = b.conn.Update(ctx, stmt, b.GetBindings())

	return err == nil, err
}
