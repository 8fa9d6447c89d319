package triggertree

// VerifyTree checks the structural invariants and returns the first
// violation found, or nil when the tree is sound:
//   - every clause attached to a node is Equal to the node's clause
//   - every child's clause strictly specializes its parent's clause
//   - the children of a node are pairwise Incomparable
//   - parent/child links and trigger placements agree with the arena
//   - no node other than the root is left without entries and children
//
// VerifyTree is a diagnostic; it does not repair anything.
func (t *Tree) VerifyTree() *Violation {
	if v := t.verifyPlacements(); v != nil {
		return v
	}
	return t.verifyNode(RootID)
}

func (t *Tree) verifyNode(id NodeID) *Violation {
	n := t.nodes[id]

	for _, e := range n.entries {
		if rel := e.clause.Relationship(n.clause, t.comparers); rel != Equal {
			return &Violation{Code: ViolationEntryNotEqual, Node: id, Clause: n.clause.String(), Other: e.clause.String(), Relationship: rel}
		}
	}

	if id != RootID && n.empty() && len(n.children) == 0 {
		return &Violation{Code: ViolationOrphanNode, Node: id, Clause: n.clause.String()}
	}

	for i, childID := range n.children {
		child := t.node(childID)
		if child == nil || child.parent != id {
			return &Violation{Code: ViolationBrokenLink, Node: id, Clause: n.clause.String()}
		}
		if rel := child.clause.Relationship(n.clause, t.comparers); rel != Specializes {
			return &Violation{Code: ViolationChildNotSpecialized, Node: id, Clause: n.clause.String(), Other: child.clause.String(), Relationship: rel}
		}
		for _, siblingID := range n.children[i+1:] {
			sibling := t.node(siblingID)
			if sibling == nil {
				return &Violation{Code: ViolationBrokenLink, Node: id, Clause: n.clause.String()}
			}
			if rel := child.clause.Relationship(sibling.clause, t.comparers); rel != Incomparable {
				return &Violation{Code: ViolationSiblingsComparable, Node: id, Clause: child.clause.String(), Other: sibling.clause.String(), Relationship: rel}
			}
		}
	}

	for _, childID := range n.children {
		if v := t.verifyNode(childID); v != nil {
			return v
		}
	}
	return nil
}

// verifyPlacements checks that every live trigger's placements point at
// live nodes holding an entry for it.
func (t *Tree) verifyPlacements() *Violation {
	for _, tr := range t.Triggers() {
		for _, p := range tr.placements {
			n := t.node(p.node)
			if n == nil || !n.holds(tr, p.clause) {
				return &Violation{Code: ViolationBrokenLink, Node: p.node, Clause: p.clause.String(), Other: tr.String()}
			}
		}
	}
	return nil
}

func (n *node) holds(tr *Trigger, c *Clause) bool {
	for _, e := range n.entries {
		if e.trigger == tr && e.clause == c {
			return true
		}
	}
	return false
}
