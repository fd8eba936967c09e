package neoql

// Node is a graph node returned by a statement.
type Node struct {
	ID        int64
	ElementID string
	Labels    []string
	Props     map[string]any
}

// Relationship is a graph relationship returned by a statement.
type Relationship struct {
	ID        int64
	ElementID string
	StartID   int64
	EndID     int64
	Type      string
	Props     map[string]any
}

// Path is an alternating sequence of nodes and relationships.
type Path struct {
	Nodes         []Node
	Relationships []Relationship
}

// Record is one row of a result. Keys are the returned column names, i.e.
// the placeholders used in the statement.
type Record struct {
	Keys   []string
	Values []any
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	for i, k := range r.Keys {
		if k == key {
			return r.Values[i], true
		}
	}

	return nil, false
}

// First returns the value of the first column, or nil for an empty record.
func (r *Record) First() any {
	if len(r.Values) == 0 {
		return nil
	}

	return r.Values[0]
}

// AsMap returns the record as a column→value map.
func (r *Record) AsMap() map[string]any {
	m := make(map[string]any, len(r.Keys))
	for i, k := range r.Keys {
		m[k] = r.Values[i]
	}

	return m
}

// Counters summarizes the side effects of a statement.
type Counters struct {
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
	LabelsAdded          int
	LabelsRemoved        int
}

// ContainsUpdates reports whether any counter is non-zero.
func (c Counters) ContainsUpdates() bool {
	return c != Counters{}
}

// Result is the row set produced by a statement.
type Result struct {
	Records  []*Record
	Counters Counters
}

// Len returns the number of records.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}

	return len(r.Records)
}

// First returns the first record or nil.
func (r *Result) First() *Record {
	if r.Len() == 0 {
		return nil
	}

	return r.Records[0]
}
