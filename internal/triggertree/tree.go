package triggertree

import (
	"io"
	"log/slog"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/roach88/triggertree/internal/expr"
)

// Tree indexes triggers by the partial order of their clauses so Matches
// can return only the most specific triggers that hold for a frame.
//
// Concurrency: a Tree has no internal locking. Concurrent Matches calls are
// safe with each other; AddTrigger and RemoveTrigger must not run
// concurrently with anything else.
type Tree struct {
	nodes []*node
	free  []NodeID

	handles   map[*Trigger]struct{}
	total     int
	clock     clock
	comparers Comparers

	logger *slog.Logger
	hooks  Hooks
	ids    IDGenerator
}

// Hooks are callbacks fired after tree operations. Any field may be nil.
type Hooks struct {
	OnAdd       func(*Trigger)
	OnRemove    func(*Trigger)
	OnMatch     func(frame expr.Frame, matches []Match)
	OnEvalError func(clause *Clause, err error)
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the tree's logger. Default: a logger that discards
// everything.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithHooks installs lifecycle callbacks.
func WithHooks(h Hooks) Option {
	return func(t *Tree) {
		t.hooks = h
	}
}

// WithIDGenerator sets the trigger ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(t *Tree) {
		if g != nil {
			t.ids = g
		}
	}
}

// WithComparers seeds the comparer registry. Entries are copied.
func WithComparers(c Comparers) Option {
	return func(t *Tree) {
		for prop, cmp := range c {
			t.comparers[prop] = cmp
		}
	}
}

// New creates an empty tree holding only the root node.
func New(opts ...Option) *Tree {
	t := &Tree{
		handles:   make(map[*Trigger]struct{}),
		comparers: make(Comparers),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:       UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.nodes = []*node{{id: RootID, clause: &Clause{}, parent: -1}}
	return t
}

// Comparers returns the live comparer registry keyed by property path.
// Register comparers before adding triggers that use the property: the
// tree does not reorganize itself when the registry changes.
func (t *Tree) Comparers() Comparers {
	return t.comparers
}

// TotalTriggers returns the number of live trigger handles.
func (t *Tree) TotalTriggers() int {
	return t.total
}

// Triggers returns the live triggers in insertion order.
func (t *Tree) Triggers() []*Trigger {
	out := make([]*Trigger, 0, len(t.handles))
	for h := range t.handles {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// AddTrigger parses source, expands quantifiers, and places every clause
// in the tree. On error the tree is unchanged.
func (t *Tree) AddTrigger(source string, action any, quantifiers ...Quantifier) (*Trigger, error) {
	e, err := expr.Parse(source)
	if err != nil {
		return nil, errors.Wrapf(err, "add trigger %q", source)
	}
	return t.AddExpression(e, action, quantifiers...)
}

// AddExpression places an already parsed expression in the tree.
//
// An expression that can never hold, such as `false`, yields a trigger
// with no clauses: it still counts towards TotalTriggers and can be removed,
// but never matches.
func (t *Tree) AddExpression(e expr.Expr, action any, quantifiers ...Quantifier) (*Trigger, error) {
	if e == nil {
		return nil, ErrNilExpression
	}
	for i, q := range quantifiers {
		if q.Binding == "" {
			return nil, errors.Wrapf(ErrInvalidQuantifier, "quantifier %d: empty binding", i)
		}
		if q.Kind != Any && q.Kind != All {
			return nil, errors.Wrapf(ErrInvalidQuantifier, "quantifier %d (%s): unknown kind %d", i, q.Binding, q.Kind)
		}
	}

	trigger := &Trigger{
		ID:          t.ids.Generate(),
		Expression:  e,
		Action:      action,
		Quantifiers: append([]Quantifier(nil), quantifiers...),
		seq:         t.clock.next(),
		tree:        t,
	}
	trigger.clauses = buildClauses(e, quantifiers, t.comparers)

	for _, c := range trigger.clauses {
		t.insert(RootID, trigger, c)
	}

	t.handles[trigger] = struct{}{}
	t.total++

	t.logger.Debug("trigger added",
		"trigger_id", trigger.ID,
		"expression", e.String(),
		"clauses", len(trigger.clauses),
		"placements", len(trigger.placements),
	)
	if t.hooks.OnAdd != nil {
		t.hooks.OnAdd(trigger)
	}
	return trigger, nil
}

// insert places clause c of trigger tr at or below node id. c is known to
// imply the clause of node id.
//
// At each level: attach to the node or a child with an Equal clause;
// otherwise descend into every child c specializes; otherwise create a node
// for c that adopts every child c generalizes.
func (t *Tree) insert(id NodeID, tr *Trigger, c *Clause) {
	n := t.nodes[id]
	if c.Relationship(n.clause, t.comparers) == Equal {
		t.attach(n, tr, c)
		return
	}

	var specialized, generalized []NodeID
	for _, childID := range n.children {
		child := t.nodes[childID]
		switch c.Relationship(child.clause, t.comparers) {
		case Equal:
			t.attach(child, tr, c)
			return
		case Specializes:
			specialized = append(specialized, childID)
		case Generalizes:
			generalized = append(generalized, childID)
		}
	}

	if len(specialized) > 0 {
		for _, childID := range specialized {
			t.insert(childID, tr, c)
		}
		return
	}

	m := t.alloc(c, id)
	if len(generalized) > 0 {
		adopted := make(map[NodeID]bool, len(generalized))
		for _, childID := range generalized {
			adopted[childID] = true
			t.nodes[childID].parent = m.id
		}
		m.children = generalized
		remaining := n.children[:0]
		for _, childID := range n.children {
			if !adopted[childID] {
				remaining = append(remaining, childID)
			}
		}
		n.children = remaining
	}
	n.children = append(n.children, m.id)
	t.attach(m, tr, c)

	t.logger.Debug("node created",
		"node", m.id,
		"parent", id,
		"clause", c.String(),
		"adopted", len(generalized),
	)
}

func (t *Tree) attach(n *node, tr *Trigger, c *Clause) {
	n.entries = append(n.entries, entry{trigger: tr, clause: c})
	tr.placements = append(tr.placements, placement{node: n.id, clause: c})
}

// RemoveTrigger removes every placement of tr. Nodes left without entries
// or children are detached, walking up until an ancestor still has entries
// or children; emptied nodes that still have children stay as placeholders.
// Removing an unknown or already removed trigger is a no-op returning false.
func (t *Tree) RemoveTrigger(tr *Trigger) bool {
	if tr == nil || tr.tree != t {
		return false
	}
	if _, live := t.handles[tr]; !live {
		return false
	}

	for _, p := range tr.placements {
		if n := t.node(p.node); n != nil {
			n.removeTrigger(tr)
		}
	}
	for _, p := range tr.placements {
		t.prune(p.node)
	}

	delete(t.handles, tr)
	t.total--
	tr.removed = true
	tr.placements = nil

	t.logger.Debug("trigger removed", "trigger_id", tr.ID)
	if t.hooks.OnRemove != nil {
		t.hooks.OnRemove(tr)
	}
	return true
}

// prune detaches id and then its ancestors for as long as they have
// neither entries nor children.
func (t *Tree) prune(id NodeID) {
	for id != RootID {
		n := t.node(id)
		if n == nil || !n.empty() || len(n.children) > 0 {
			return
		}
		parent := t.nodes[n.parent]
		parent.removeChild(id)
		t.release(id)
		t.logger.Debug("node detached", "node", id, "parent", parent.id)
		id = parent.id
	}
}
