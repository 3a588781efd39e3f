package querystore

// Kind identifies a condition kind in a filter.
type Kind string

const (
	KindEq          Kind = "eq"
	KindNe          Kind = "ne"
	KindContains    Kind = "contains"
	KindNotContains Kind = "not_contains"
	KindStartsWith  Kind = "starts_with"
	KindEndsWith    Kind = "ends_with"
	KindGt          Kind = "gt"
	KindGe          Kind = "ge"
	KindLt          Kind = "lt"
	KindLe          Kind = "le"
	KindBetween     Kind = "between"
	KindNotBetween  Kind = "not_between"
	KindIn          Kind = "in"
	KindNotIn       Kind = "not_in"
)

// Arity classifies a predicate's value payload for dispatch.
type Arity int

const (
	// ArityEmpty marks a predicate with no values; compilers skip it.
	ArityEmpty Arity = iota

	// ArityScalar marks a single-value predicate, including a one-element
	// In/NotIn unwrapped to equality.
	ArityScalar

	// ArityPair marks a range predicate with exactly two bounds.
	ArityPair

	// AritySet marks a membership predicate with two or more values.
	AritySet
)

// Predicate is one condition entry: a kind bound to a field and a value
// payload whose arity is kind-specific.
type Predicate struct {
	Kind   Kind
	Field  string
	Values []any
}

// Arity validates the payload against the kind's arity contract and returns
// the dispatch class. A zero-value payload is legal for every kind and
// classifies as ArityEmpty. Any other mismatch (a range without exactly two
// bounds, a comparison kind with several values, an unknown kind) is a
// validation error raised before any query executes.
func (p Predicate) Arity() (Arity, error) {
	n := len(p.Values)
	if n == 0 {
		return ArityEmpty, nil
	}

	switch p.Kind {
	case KindBetween, KindNotBetween:
		if n != 2 {
			return ArityEmpty, NewValidationErrorForField(p.Field, p.Values,
				"range condition requires exactly two bounds")
		}
		return ArityPair, nil

	case KindIn, KindNotIn:
		if n == 1 {
			return ArityScalar, nil
		}
		return AritySet, nil

	case KindEq, KindNe, KindContains, KindNotContains,
		KindStartsWith, KindEndsWith, KindGt, KindGe, KindLt, KindLe:
		if n != 1 {
			return ArityEmpty, NewValidationErrorForField(p.Field, p.Values,
				"comparison condition requires exactly one value")
		}
		return ArityScalar, nil

	default:
		return ArityEmpty, NewValidationErrorForField(p.Field, p.Values,
			"unknown condition kind "+string(p.Kind))
	}
}

// Value returns the scalar payload. Only meaningful for ArityScalar.
func (p Predicate) Value() any {
	if len(p.Values) == 0 {
		return nil
	}
	return p.Values[0]
}

// Filter groups predicates into the three boolean groups. Must composes with
// AND, MustNot with AND NOT, Should with OR. Exactly one level of boolean
// nesting: the three groups, no sub-filters.
//
// A Filter built by FilterBuilder is frozen; compilers only read it.
type Filter struct {
	Must    []Predicate
	MustNot []Predicate
	Should  []Predicate
}

// IsEmpty reports whether the filter holds no predicates at all.
func (f Filter) IsEmpty() bool {
	return len(f.Must) == 0 && len(f.MustNot) == 0 && len(f.Should) == 0
}

// Validate checks the arity contract of every predicate without compiling.
func (f Filter) Validate() error {
	for _, group := range [][]Predicate{f.Must, f.MustNot, f.Should} {
		for _, p := range group {
			if _, err := p.Arity(); err != nil {
				return err
			}
		}
	}
	return nil
}

// FilterBuilder accumulates predicates per boolean group. Construction is
// separate from compilation: Build produces a frozen Filter and later builder
// mutation does not leak into built values.
type FilterBuilder struct {
	must    []Predicate
	mustNot []Predicate
	should  []Predicate
}

// NewFilter creates an empty filter builder.
func NewFilter() *FilterBuilder {
	return &FilterBuilder{}
}

// Must returns a group builder appending to the AND group.
func (b *FilterBuilder) Must() *GroupBuilder {
	return &GroupBuilder{builder: b, group: &b.must}
}

// MustNot returns a group builder appending to the AND NOT group.
func (b *FilterBuilder) MustNot() *GroupBuilder {
	return &GroupBuilder{builder: b, group: &b.mustNot}
}

// Should returns a group builder appending to the OR group.
func (b *FilterBuilder) Should() *GroupBuilder {
	return &GroupBuilder{builder: b, group: &b.should}
}

// Build copies the accumulated groups into a frozen Filter.
func (b *FilterBuilder) Build() Filter {
	return Filter{
		Must:    append([]Predicate(nil), b.must...),
		MustNot: append([]Predicate(nil), b.mustNot...),
		Should:  append([]Predicate(nil), b.should...),
	}
}

// GroupBuilder appends predicates to one boolean group of a FilterBuilder.
// It carries one method per condition kind; each returns the group builder
// for chaining. Switching groups mid-chain goes back through Must, MustNot
// and Should.
type GroupBuilder struct {
	builder *FilterBuilder
	group   *[]Predicate
}

func (g *GroupBuilder) add(kind Kind, field string, values ...any) *GroupBuilder {
	*g.group = append(*g.group, Predicate{Kind: kind, Field: field, Values: values})
	return g
}

func (g *GroupBuilder) Eq(field string, value any) *GroupBuilder {
	return g.add(KindEq, field, value)
}

func (g *GroupBuilder) Ne(field string, value any) *GroupBuilder {
	return g.add(KindNe, field, value)
}

func (g *GroupBuilder) Contains(field string, value any) *GroupBuilder {
	return g.add(KindContains, field, value)
}

func (g *GroupBuilder) NotContains(field string, value any) *GroupBuilder {
	return g.add(KindNotContains, field, value)
}

func (g *GroupBuilder) StartsWith(field string, value any) *GroupBuilder {
	return g.add(KindStartsWith, field, value)
}

func (g *GroupBuilder) EndsWith(field string, value any) *GroupBuilder {
	return g.add(KindEndsWith, field, value)
}

func (g *GroupBuilder) Gt(field string, value any) *GroupBuilder {
	return g.add(KindGt, field, value)
}

func (g *GroupBuilder) Ge(field string, value any) *GroupBuilder {
	return g.add(KindGe, field, value)
}

func (g *GroupBuilder) Lt(field string, value any) *GroupBuilder {
	return g.add(KindLt, field, value)
}

func (g *GroupBuilder) Le(field string, value any) *GroupBuilder {
	return g.add(KindLe, field, value)
}

func (g *GroupBuilder) Between(field string, from, to any) *GroupBuilder {
	return g.add(KindBetween, field, from, to)
}

func (g *GroupBuilder) NotBetween(field string, from, to any) *GroupBuilder {
	return g.add(KindNotBetween, field, from, to)
}

func (g *GroupBuilder) In(field string, values ...any) *GroupBuilder {
	return g.add(KindIn, field, values...)
}

func (g *GroupBuilder) NotIn(field string, values ...any) *GroupBuilder {
	return g.add(KindNotIn, field, values...)
}

// Append adds prepared predicates to the group.
func (g *GroupBuilder) Append(preds ...Predicate) *GroupBuilder {
	*g.group = append(*g.group, preds...)
	return g
}

// Must switches the chain to the AND group.
func (g *GroupBuilder) Must() *GroupBuilder { return g.builder.Must() }

// MustNot switches the chain to the AND NOT group.
func (g *GroupBuilder) MustNot() *GroupBuilder { return g.builder.MustNot() }

// Should switches the chain to the OR group.
func (g *GroupBuilder) Should() *GroupBuilder { return g.builder.Should() }

// Build finishes the chain and freezes the filter.
func (g *GroupBuilder) Build() Filter { return g.builder.Build() }
