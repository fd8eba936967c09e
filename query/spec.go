package query

import (
	"context"

	"github.com/rlch/neoql"
)

// Spec is the accumulated intent of one logical query. It is consumed by a
// Grammar to produce statement text.
type Spec struct {
	Labels    []string
	Matches   []Match
	Withs     []WithPart
	Wheres    []Predicate
	Aggregate *Aggregate
	Columns   []string
	Raw       []string // raw select expressions
	Distinct  bool
	Groups    []string
	Havings   []Predicate
	Orders    []Order
	Limit     *int
	Offset    *int
	Unions    []Union
	Bindings  *Bindings
}

// NewSpec creates an empty spec with its own binding table.
func NewSpec() *Spec {
	return &Spec{Bindings: NewBindings()}
}

// Clone returns a deep enough copy for the clone to be mutated without
// affecting s.
func (s *Spec) Clone() *Spec {
	c := *s
	c.Labels = append([]string(nil), s.Labels...)
	c.Matches = append([]Match(nil), s.Matches...)
	c.Withs = append([]WithPart(nil), s.Withs...)
	c.Wheres = append([]Predicate(nil), s.Wheres...)
	c.Columns = append([]string(nil), s.Columns...)
	c.Raw = append([]string(nil), s.Raw...)
	c.Groups = append([]string(nil), s.Groups...)
	c.Havings = append([]Predicate(nil), s.Havings...)
	c.Orders = append([]Order(nil), s.Orders...)
	c.Unions = append([]Union(nil), s.Unions...)

	if s.Aggregate != nil {
		agg := *s.Aggregate
		c.Aggregate = &agg
	}

	c.Bindings = s.Bindings.clone()

	return &c
}

// Grammar compiles specs into statement text. Implementations are pure.
type Grammar interface {
	CompileSelect(s *Spec) (string, error)
	CompileCreate(s *Spec, records []CreateRecord, returning bool) (string, error)
	CompileUpdate(s *Spec, sets []Assignment) (string, error)
	CompileDelete(s *Spec) (string, error)
	CompileCreateWith(s *Spec, node CreateRecord, related []RelatedCreate) (string, error)
	CompileUpdateLabels(s *Spec, labels []string, op LabelOperation) (string, error)

	// Placeholder returns the pattern variable for a label set.
	Placeholder(labels []string) string

	// IDReplacement rewrites "id", "Label.id" and "id(x)" to the identity
	// function form using alias for the bare case. Other columns pass through.
	IDReplacement(column, alias string) string

	// BindingKey returns the base binding name for a column.
	BindingKey(c Column) string

	// DateFormat is the layout used for time values.
	DateFormat() string
}

// Connection executes compiled statements.
type Connection interface {
	Select(ctx context.Context, statement string, bindings map[string]any) (*neoql.Result, error)
	Insert(ctx context.Context, statement string, bindings map[string]any) (*neoql.Result, error)
	Update(ctx context.Context, statement string, bindings map[string]any) (*neoql.Result, error)
	Delete(ctx context.Context, statement string, bindings map[string]any) (*neoql.Result, error)
}
