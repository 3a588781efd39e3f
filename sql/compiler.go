package sqlstore

import (
	"fmt"

	"querystore"
)

// FilterCompiler translates a querystore.Filter into WHERE predicates on a
// QueryBuilder. Groups apply in fixed order with their boolean connective:
// Must with AND, MustNot with AND NOT, Should with OR. Predicates with an
// empty payload compile to nothing; malformed payload arity aborts
// compilation before any query executes.
type FilterCompiler struct{}

// Compile appends the filter's predicates to qb.
func (FilterCompiler) Compile(qb *QueryBuilder, filter querystore.Filter) error {
	if err := compileGroup(qb, filter.Must, ConnectorAnd); err != nil {
		return err
	}
	if err := compileGroup(qb, filter.MustNot, ConnectorAndNot); err != nil {
		return err
	}
	return compileGroup(qb, filter.Should, ConnectorOr)
}

func compileGroup(qb *QueryBuilder, preds []querystore.Predicate, connector Connector) error {
	for _, p := range preds {
		arity, err := p.Arity()
		if err != nil {
			return err
		}
		switch arity {
		case querystore.ArityEmpty:
			continue

		// Multi-value dispatch is exclusive: a pair or set predicate adds
		// exactly one interval or membership condition, never an extra
		// scalar one.
		case querystore.ArityPair:
			if p.Kind == querystore.KindBetween {
				qb.WhereBetween(p.Field, p.Values[0], p.Values[1], connector)
			} else {
				qb.WhereNotBetween(p.Field, p.Values[0], p.Values[1], connector)
			}

		case querystore.AritySet:
			if p.Kind == querystore.KindIn {
				qb.WhereIn(p.Field, p.Values, connector)
			} else {
				qb.WhereNotIn(p.Field, p.Values, connector)
			}

		case querystore.ArityScalar:
			compileScalar(qb, p, connector)
		}
	}
	return nil
}

func compileScalar(qb *QueryBuilder, p querystore.Predicate, connector Connector) {
	value := p.Value()
	switch p.Kind {
	case querystore.KindEq, querystore.KindIn:
		// A one-element membership set unwraps to equality.
		qb.Where(p.Field, "=", value, connector)
	case querystore.KindNe, querystore.KindNotIn:
		qb.Where(p.Field, "!=", value, connector)
	case querystore.KindGt:
		qb.Where(p.Field, ">", value, connector)
	case querystore.KindGe:
		qb.Where(p.Field, ">=", value, connector)
	case querystore.KindLt:
		qb.Where(p.Field, "<", value, connector)
	case querystore.KindLe:
		qb.Where(p.Field, "<=", value, connector)
	case querystore.KindContains:
		qb.Where(p.Field, "LIKE", likePattern("%", value, "%"), connector)
	case querystore.KindNotContains:
		qb.Where(p.Field, "NOT LIKE", likePattern("%", value, "%"), connector)
	case querystore.KindStartsWith:
		// StartsWith carries the leading wildcard and EndsWith the trailing
		// one. Kept as-is for compatibility with existing callers; see the
		// pinned tests before changing either.
		qb.Where(p.Field, "LIKE", likePattern("%", value, ""), connector)
	case querystore.KindEndsWith:
		qb.Where(p.Field, "LIKE", likePattern("", value, "%"), connector)
	}
}

func likePattern(prefix string, value any, suffix string) string {
	return fmt.Sprintf("%s%v%s", prefix, value, suffix)
}

// SortCompiler translates a querystore.Sort into ORDER BY directives,
// preserving insertion order as precedence order.
type SortCompiler struct{}

// Compile appends one ORDER BY directive per sort entry.
func (SortCompiler) Compile(qb *QueryBuilder, sort querystore.Sort) {
	for _, o := range sort {
		qb.OrderBy(o.Field, o.Desc)
	}
}
