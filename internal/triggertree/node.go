package triggertree

// NodeID addresses a node in the tree's arena. IDs are stable for the
// lifetime of the node; a freed slot may be reused by a later insertion.
type NodeID int

// RootID is the ID of the root node, whose clause is the empty clause
// (constant true).
const RootID NodeID = 0

// node is one position in the partial order. Every entry's clause is
// Equal to the node's representative clause, every child's clause strictly
// specializes it, and children are pairwise Incomparable.
//
// A node with no entries but with children is a placeholder left behind by
// RemoveTrigger; it keeps its representative clause so the ordering of its
// subtree is preserved.
type node struct {
	id       NodeID
	clause   *Clause
	entries  []entry
	parent   NodeID
	children []NodeID
}

// entry is one trigger clause attached to a node.
type entry struct {
	trigger *Trigger
	clause  *Clause
}

func (n *node) empty() bool {
	return len(n.entries) == 0
}

func (n *node) removeChild(id NodeID) {
	for i, c := range n.children {
		if c == id {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// removeTrigger drops every entry of t and reports how many were dropped.
func (n *node) removeTrigger(t *Trigger) int {
	kept := n.entries[:0]
	dropped := 0
	for _, e := range n.entries {
		if e.trigger == t {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	// Clear the tail so removed triggers can be collected.
	for i := len(kept); i < len(n.entries); i++ {
		n.entries[i] = entry{}
	}
	n.entries = kept
	return dropped
}

// alloc places a new node in the arena, reusing a freed slot when one
// exists.
func (t *Tree) alloc(clause *Clause, parent NodeID) *node {
	n := &node{clause: clause, parent: parent}
	if k := len(t.free); k > 0 {
		n.id = t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[n.id] = n
		return n
	}
	n.id = NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	return n
}

// release frees a node's arena slot.
func (t *Tree) release(id NodeID) {
	t.nodes[id] = nil
	t.free = append(t.free, id)
}

// node returns the live node with the given ID, or nil.
func (t *Tree) node(id NodeID) *node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// NodeCount returns the number of live nodes, the root included.
func (t *Tree) NodeCount() int {
	return len(t.nodes) - len(t.free)
}
