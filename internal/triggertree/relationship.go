package triggertree

// Relationship is the partial-order verdict between two predicates,
// clauses, or triggers, read as "a <Relationship> b".
type Relationship int

const (
	// Incomparable: neither side implies the other.
	Incomparable Relationship = iota
	// Equal: each side implies the other.
	Equal
	// Specializes: a is strictly more specific than b (a implies b).
	Specializes
	// Generalizes: a is strictly more general than b (b implies a).
	Generalizes
)

func (r Relationship) String() string {
	switch r {
	case Equal:
		return "equal"
	case Specializes:
		return "specializes"
	case Generalizes:
		return "generalizes"
	default:
		return "incomparable"
	}
}

// Swap returns the verdict with the operands exchanged.
func (r Relationship) Swap() Relationship {
	switch r {
	case Specializes:
		return Generalizes
	case Generalizes:
		return Specializes
	default:
		return r
	}
}

// fromImplication combines "a implies b" and "b implies a" into a verdict.
func fromImplication(aImpliesB, bImpliesA bool) Relationship {
	switch {
	case aImpliesB && bImpliesA:
		return Equal
	case aImpliesB:
		return Specializes
	case bImpliesA:
		return Generalizes
	default:
		return Incomparable
	}
}
