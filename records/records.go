// Package records maps statement results back onto entities addressed by
// their placeholders.
package records

import (
	"strconv"

	"github.com/rlch/neoql"
)

// AggregateKey is the column name aggregate projections are returned under.
const AggregateKey = "aggregate"

// Entity is a reconstituted node or relationship.
type Entity struct {
	ID        int64
	ElementID string
	Labels    []string

	// Type is the relationship type; empty for nodes.
	Type string

	Attributes map[string]any
}

// Valid reports whether the entity was built from a graph value.
func (e Entity) Valid() bool {
	return e.ElementID != "" || e.Labels != nil || e.Type != "" || e.Attributes != nil
}

// Map returns the attributes with the intrinsic identity under "id" unless a
// stored property already uses that name.
func (e Entity) Map() map[string]any {
	out := make(map[string]any, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		out[k] = v
	}

	if _, ok := out["id"]; !ok {
		out["id"] = e.ID
	}

	return out
}

// FromValue builds an Entity from a node, relationship or property map.
// Any other value yields the zero Entity.
func FromValue(v any) Entity {
	switch n := v.(type) {
	case neoql.Node:
		return Entity{ID: n.ID, ElementID: n.ElementID, Labels: n.Labels, Attributes: n.Props}
	case *neoql.Node:
		if n == nil {
			return Entity{}
		}

		return FromValue(*n)
	case neoql.Relationship:
		return Entity{ID: n.ID, ElementID: n.ElementID, Type: n.Type, Attributes: n.Props}
	case *neoql.Relationship:
		if n == nil {
			return Entity{}
		}

		return FromValue(*n)
	case map[string]any:
		e := Entity{Attributes: n}
		if id, ok := n["id"]; ok {
			e.ID = toInt64(id)
		}

		return e
	default:
		return Entity{}
	}
}

// ByPlaceholders groups the values of every row by column.
func ByPlaceholders(res *neoql.Result) map[string][]any {
	out := make(map[string][]any)
	if res == nil {
		return out
	}

	for _, rec := range res.Records {
		for i, k := range rec.Keys {
			out[k] = append(out[k], rec.Values[i])
		}
	}

	return out
}

// Rows returns one attribute map per row. The node under placeholder is
// expanded into its attributes; every other column is kept under its key.
func Rows(res *neoql.Result, placeholder string) []map[string]any {
	if res == nil {
		return nil
	}

	out := make([]map[string]any, 0, len(res.Records))

	for _, rec := range res.Records {
		row := make(map[string]any, len(rec.Keys))

		for i, k := range rec.Keys {
			if k == placeholder {
				if e := FromValue(rec.Values[i]); e.Valid() {
					for ak, av := range e.Map() {
						row[ak] = av
					}

					continue
				}
			}

			row[k] = rec.Values[i]
		}

		out = append(out, row)
	}

	return out
}

// Pair is a parent and one related entity taken from the same row.
type Pair struct {
	Parent  Entity
	Related Entity
}

// Pairs extracts parent/related entities per row. Rows without a related
// value, such as unmatched optional patterns, are skipped.
func Pairs(res *neoql.Result, parent, related string) []Pair {
	if res == nil {
		return nil
	}

	var out []Pair

	for _, rec := range res.Records {
		p, _ := rec.Get(parent)
		r, _ := rec.Get(related)

		re := FromValue(r)
		if !re.Valid() {
			continue
		}

		out = append(out, Pair{Parent: FromValue(p), Related: re})
	}

	return out
}

// Match assigns related entities to the parents they were loaded for. The
// pairs are indexed by parent identity first, so the cost is linear.
func Match[P any](parents []P, pairs []Pair, key func(P) int64, assign func(P, []Entity)) {
	index := make(map[int64][]Entity, len(pairs))
	for _, p := range pairs {
		index[p.Parent.ID] = append(index[p.Parent.ID], p.Related)
	}

	for _, parent := range parents {
		assign(parent, index[key(parent)])
	}
}

// Scalar returns the single value of an aggregate or one-column result.
func Scalar(res *neoql.Result) any {
	rec := res.First()
	if rec == nil {
		return nil
	}

	if v, ok := rec.Get(AggregateKey); ok {
		return v
	}

	return rec.First()
}

// Scalars returns the first column of every row.
func Scalars(res *neoql.Result) []any {
	if res == nil {
		return nil
	}

	out := make([]any, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, rec.First())
	}

	return out
}

// Column returns the values stored under key in every row.
func Column(res *neoql.Result, key string) []any {
	if res == nil {
		return nil
	}

	out := make([]any, 0, len(res.Records))

	for _, rec := range res.Records {
		v, _ := rec.Get(key)
		out = append(out, v)
	}

	return out
}

// MorphType resolves the type of a morph-related entity: the value of the
// discriminator property when set, otherwise the entity's first label.
func MorphType(e Entity, typeProperty string) string {
	if typeProperty != "" {
		if v, ok := e.Attributes[typeProperty].(string); ok && v != "" {
			return v
		}
	}

	if len(e.Labels) > 0 {
		return e.Labels[0]
	}

	return ""
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)

		return i
	default:
		return 0
	}
}
