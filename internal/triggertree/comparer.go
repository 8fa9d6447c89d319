package triggertree

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/roach88/triggertree/internal/expr"
	"github.com/roach88/triggertree/internal/ir"
)

// Comparer decides the relationship between two predicates on the same
// property whose expressions differ. It is consulted only for predicates
// that share a Property and neither or both of which are negated; a and b
// arrive with negation stripped.
//
// A comparer must be consistent: Relationship(b, a) is the Swap of
// Relationship(a, b). A panicking comparer is treated as Incomparable.
type Comparer interface {
	Relationship(a, b Predicate) Relationship
}

// ComparerFunc adapts a function to the Comparer interface.
type ComparerFunc func(a, b Predicate) Relationship

// Relationship implements Comparer.
func (f ComparerFunc) Relationship(a, b Predicate) Relationship {
	return f(a, b)
}

// Comparers is the registry of comparers keyed by property path.
type Comparers map[string]Comparer

// Properties returns the registered property paths in sorted order.
func (c Comparers) Properties() []string {
	props := make([]string, 0, len(c))
	for p := range c {
		props = append(props, p)
	}
	sort.Strings(props)
	return props
}

// ComparerOrdered is the registry name of Ordered.
const ComparerOrdered = "ordered"

// Ordered compares predicates over an ordered domain (numbers, or strings
// in byte order). Each comparison is read as the set of values it admits:
// `x > 3` admits (3, +inf), `x != 3` admits everything but 3. One predicate
// specializes another when its set is a strict subset. A comparison with
// any operator other than != also specializes `exists(x)`, since it cannot
// hold for a missing value.
var Ordered Comparer = ComparerFunc(orderedRelationship)

// ComparerByName resolves a comparer name used in trigger files.
func ComparerByName(name string) (Comparer, error) {
	switch name {
	case ComparerOrdered:
		return Ordered, nil
	default:
		return nil, errors.Newf("unknown comparer %q", name)
	}
}

func orderedRelationship(a, b Predicate) Relationship {
	switch {
	case a.Kind == KindCompare && b.Kind == KindCompare:
		ra, ok := toRange(a)
		if !ok {
			return Incomparable
		}
		rb, ok := toRange(b)
		if !ok || !sameDomain(a.Operand, b.Operand) {
			return Incomparable
		}
		return fromImplication(ra.within(rb), rb.within(ra))
	case a.Kind == KindCompare && b.Kind == KindExists:
		if impliesPresence(a) {
			return Specializes
		}
	case a.Kind == KindExists && b.Kind == KindCompare:
		if impliesPresence(b) {
			return Generalizes
		}
	}
	return Incomparable
}

func impliesPresence(p Predicate) bool {
	return p.Op != expr.OpNE && !ir.IsNull(p.Operand)
}

func sameDomain(a, b ir.IRValue) bool {
	_, ok := ir.Compare(a, b)
	return ok
}

// bound is one end of an interval.
type bound struct {
	value     ir.IRValue
	inclusive bool
	infinite  bool
}

// interval is a connected set of values.
type interval struct {
	lo, hi bound
}

// valueRange is a union of at most two disjoint intervals.
type valueRange []interval

var unbounded = bound{infinite: true}

func toRange(p Predicate) (valueRange, bool) {
	if _, ok := ir.Compare(p.Operand, p.Operand); !ok {
		return nil, false
	}
	v := p.Operand
	switch p.Op {
	case expr.OpEQ:
		return valueRange{{bound{value: v, inclusive: true}, bound{value: v, inclusive: true}}}, true
	case expr.OpNE:
		return valueRange{
			{unbounded, bound{value: v}},
			{bound{value: v}, unbounded},
		}, true
	case expr.OpLT:
		return valueRange{{unbounded, bound{value: v}}}, true
	case expr.OpLE:
		return valueRange{{unbounded, bound{value: v, inclusive: true}}}, true
	case expr.OpGT:
		return valueRange{{bound{value: v}, unbounded}}, true
	case expr.OpGE:
		return valueRange{{bound{value: v, inclusive: true}, unbounded}}, true
	default:
		return nil, false
	}
}

// within reports whether every value admitted by r is admitted by other.
// Each interval of r is connected, so it must fit inside a single interval
// of other.
func (r valueRange) within(other valueRange) bool {
	for _, i := range r {
		fits := false
		for _, j := range other {
			if i.within(j) {
				fits = true
				break
			}
		}
		if !fits {
			return false
		}
	}
	return true
}

func (i interval) within(j interval) bool {
	return lowerWithin(i.lo, j.lo) && upperWithin(i.hi, j.hi)
}

// lowerWithin reports whether lower bound a is at least as tight as b.
func lowerWithin(a, b bound) bool {
	if b.infinite {
		return true
	}
	if a.infinite {
		return false
	}
	c, _ := ir.Compare(a.value, b.value)
	return c > 0 || (c == 0 && (b.inclusive || !a.inclusive))
}

// upperWithin reports whether upper bound a is at least as tight as b.
func upperWithin(a, b bound) bool {
	if b.infinite {
		return true
	}
	if a.infinite {
		return false
	}
	c, _ := ir.Compare(a.value, b.value)
	return c < 0 || (c == 0 && (b.inclusive || !a.inclusive))
}
