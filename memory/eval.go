package memstore

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"querystore"
)

// evalFilter evaluates a filter against a row with SQL operator precedence:
// OR binds looser than AND and AND NOT, so the Must and MustNot predicates
// form one conjunctive segment and each Should predicate opens an
// alternative segment. The row matches when any segment holds. This keeps
// the memory backend row-for-row consistent with the SQL text the filter
// compiler emits.
func evalFilter(f querystore.Filter, r row) (bool, error) {
	type segTerm struct {
		pred   querystore.Predicate
		arity  querystore.Arity
		negate bool
	}

	var base []segTerm
	var segments [][]segTerm

	for _, p := range f.Must {
		arity, err := p.Arity()
		if err != nil {
			return false, err
		}
		if arity == querystore.ArityEmpty {
			continue
		}
		base = append(base, segTerm{pred: p, arity: arity})
	}
	for _, p := range f.MustNot {
		arity, err := p.Arity()
		if err != nil {
			return false, err
		}
		if arity == querystore.ArityEmpty {
			continue
		}
		base = append(base, segTerm{pred: p, arity: arity, negate: true})
	}
	if len(base) > 0 {
		segments = append(segments, base)
	}
	for _, p := range f.Should {
		arity, err := p.Arity()
		if err != nil {
			return false, err
		}
		if arity == querystore.ArityEmpty {
			continue
		}
		segments = append(segments, []segTerm{{pred: p, arity: arity}})
	}

	if len(segments) == 0 {
		return true, nil
	}

	for _, seg := range segments {
		matched := true
		for _, t := range seg {
			ok := evalPredicate(t.pred, t.arity, r)
			if t.negate {
				ok = !ok
			}
			if !ok {
				matched = false
				break
			}
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// evalPredicate mirrors the SQL compiler's dispatch: exclusive interval and
// membership handling for pair and set arities, scalar comparison otherwise.
func evalPredicate(p querystore.Predicate, arity querystore.Arity, r row) bool {
	value, ok := r[p.Field]
	if !ok {
		return false
	}

	switch arity {
	case querystore.ArityPair:
		inRange := compareGE(value, p.Values[0]) && compareLE(value, p.Values[1])
		if p.Kind == querystore.KindBetween {
			return inRange
		}
		return !inRange

	case querystore.AritySet:
		member := false
		for _, candidate := range p.Values {
			if equalValues(value, candidate) {
				member = true
				break
			}
		}
		if p.Kind == querystore.KindIn {
			return member
		}
		return !member

	default:
		return evalScalar(p, value)
	}
}

func evalScalar(p querystore.Predicate, value any) bool {
	operand := p.Value()
	switch p.Kind {
	case querystore.KindEq, querystore.KindIn:
		return equalValues(value, operand)
	case querystore.KindNe, querystore.KindNotIn:
		return !equalValues(value, operand)
	case querystore.KindGt:
		c, ok := compareValues(value, operand)
		return ok && c > 0
	case querystore.KindGe:
		return compareGE(value, operand)
	case querystore.KindLt:
		c, ok := compareValues(value, operand)
		return ok && c < 0
	case querystore.KindLe:
		return compareLE(value, operand)
	case querystore.KindContains:
		return likeMatch(pattern("%", operand, "%"), value)
	case querystore.KindNotContains:
		return !likeMatch(pattern("%", operand, "%"), value)
	case querystore.KindStartsWith:
		// Leading wildcard, matching the SQL compiler's placement.
		return likeMatch(pattern("%", operand, ""), value)
	case querystore.KindEndsWith:
		return likeMatch(pattern("", operand, "%"), value)
	default:
		return false
	}
}

func pattern(prefix string, value any, suffix string) string {
	return fmt.Sprintf("%s%v%s", prefix, value, suffix)
}

// likeMatch evaluates a SQL LIKE pattern ('%' any run, '_' any one rune)
// against a value, case-sensitively.
func likeMatch(pat string, value any) bool {
	if value == nil {
		return false
	}
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pat {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(fmt.Sprintf("%v", value))
}

func compareGE(a, b any) bool {
	c, ok := compareValues(a, b)
	return ok && c >= 0
}

func compareLE(a, b any) bool {
	c, ok := compareValues(a, b)
	return ok && c <= 0
}

// equalValues reports typed equality with cross-numeric coercion.
func equalValues(a, b any) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return a == b
}

// compareValues orders two values when they are comparable: both numeric
// (with cross-type coercion), both strings, or both time.Time.
func compareValues(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}

	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		default:
			return 0, true
		}
	case bool:
		bv, ok := b.(bool)
		if !ok || av != bv {
			return 0, false
		}
		return 0, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
