package triggertree

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors returned by AddTrigger and AddExpression.
var (
	ErrNilExpression     = errors.New("nil trigger expression")
	ErrInvalidQuantifier = errors.New("invalid quantifier")
)

// Violation describes the first node found breaking a tree invariant.
//
// Violations are diagnostics: the tree never returns one from a mutation,
// only from VerifyTree.
type Violation struct {
	// Code identifies the broken invariant.
	Code ViolationCode

	// Node is the node at which the violation was found.
	Node NodeID

	// Clause renders the node's representative clause.
	Clause string

	// Other renders the offending entry, child, or sibling clause.
	Other string

	// Relationship is the verdict that broke the invariant, when one applies.
	Relationship Relationship
}

// ViolationCode categorizes structural violations.
type ViolationCode string

const (
	// ViolationEntryNotEqual: a clause attached to a node is not Equal to
	// the node's representative clause.
	ViolationEntryNotEqual ViolationCode = "ENTRY_NOT_EQUAL"

	// ViolationChildNotSpecialized: a child's clause does not strictly
	// specialize its parent's clause.
	ViolationChildNotSpecialized ViolationCode = "CHILD_NOT_SPECIALIZED"

	// ViolationSiblingsComparable: two children of one node are related.
	ViolationSiblingsComparable ViolationCode = "SIBLINGS_COMPARABLE"

	// ViolationBrokenLink: parent/child links or trigger placements do not
	// agree with the arena.
	ViolationBrokenLink ViolationCode = "BROKEN_LINK"

	// ViolationOrphanNode: a non-root node has neither entries nor children.
	ViolationOrphanNode ViolationCode = "ORPHAN_NODE"
)

// Error implements the error interface so a Violation can be returned or
// wrapped by callers that treat it as a failure.
func (v *Violation) Error() string {
	if v.Other != "" {
		return fmt.Sprintf("%s at node %d [%s]: %s (%s)", v.Code, v.Node, v.Clause, v.Other, v.Relationship)
	}
	return fmt.Sprintf("%s at node %d [%s]", v.Code, v.Node, v.Clause)
}

// IsViolation reports whether err is a structural Violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}
