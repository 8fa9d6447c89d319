package expr

// Op is a comparison operator.
type Op int

const (
	OpEQ Op = iota + 1 // ==
	OpNE               // !=
	OpLT               // <
	OpLE               // <=
	OpGT               // >
	OpGE               // >=
)

func (o Op) String() string {
	switch o {
	case OpEQ:
		return "=="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	default:
		return "?"
	}
}

// Negate returns the operator whose result is the logical negation of o.
func (o Op) Negate() Op {
	switch o {
	case OpEQ:
		return OpNE
	case OpNE:
		return OpEQ
	case OpLT:
		return OpGE
	case OpLE:
		return OpGT
	case OpGT:
		return OpLE
	case OpGE:
		return OpLT
	default:
		return o
	}
}

// Flip returns the operator that gives the same result with the operands
// swapped: `3 < x` is `x > 3`.
func (o Op) Flip() Op {
	switch o {
	case OpLT:
		return OpGT
	case OpLE:
		return OpGE
	case OpGT:
		return OpLT
	case OpGE:
		return OpLE
	default:
		return o
	}
}

// Ordering reports whether o needs ordered operands.
func (o Op) Ordering() bool {
	return o == OpLT || o == OpLE || o == OpGT || o == OpGE
}
