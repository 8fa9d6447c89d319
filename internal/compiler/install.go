package compiler

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/triggertree"
)

// Installed maps the triggers placed by Install back to their definitions.
// Each tree trigger carries its spec ID as its action.
type Installed struct {
	Triggers []*triggertree.Trigger
	Specs    map[string]*ir.TriggerSpec
}

// Spec returns the definition behind a match, or nil if the match did not
// come from this set.
func (in *Installed) Spec(m triggertree.Match) *ir.TriggerSpec {
	id, ok := m.Action.(string)
	if !ok {
		return nil
	}
	return in.Specs[id]
}

// Lookup returns the most recently installed trigger with the given spec
// ID, live or not.
func (in *Installed) Lookup(id string) (*triggertree.Trigger, bool) {
	for i := len(in.Triggers) - 1; i >= 0; i-- {
		if tr := in.Triggers[i]; tr.Action == id {
			return tr, true
		}
	}
	return nil, false
}

// Install registers the set's comparers on tree and adds every trigger in
// declaration order. The set should have passed Validate; Install stops at
// the first trigger the tree rejects.
func Install(tree *triggertree.Tree, set *ir.TriggerSet) (*Installed, error) {
	for prop, name := range set.Comparers {
		c, err := triggertree.ComparerByName(name)
		if err != nil {
			return nil, errors.Wrapf(err, "comparer for %q", prop)
		}
		tree.Comparers()[prop] = c
	}

	in := &Installed{Specs: make(map[string]*ir.TriggerSpec, len(set.Triggers))}
	for i := range set.Triggers {
		if _, err := in.Add(tree, &set.Triggers[i]); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// Add places one more trigger on tree and records it. The spec ID must not
// belong to a trigger that is still live.
func (in *Installed) Add(tree *triggertree.Tree, spec *ir.TriggerSpec) (*triggertree.Trigger, error) {
	if tr, ok := in.Lookup(spec.ID); ok && tr.Live() {
		return nil, errors.Newf("trigger %s: already installed", spec.ID)
	}
	quantifiers, err := Quantifiers(spec.Quantifiers)
	if err != nil {
		return nil, errors.Wrapf(err, "trigger %s", spec.ID)
	}
	tr, err := tree.AddTrigger(spec.When, spec.ID, quantifiers...)
	if err != nil {
		return nil, errors.Wrapf(err, "trigger %s", spec.ID)
	}
	in.Triggers = append(in.Triggers, tr)
	if in.Specs == nil {
		in.Specs = make(map[string]*ir.TriggerSpec)
	}
	in.Specs[spec.ID] = spec
	return tr, nil
}

// Remove takes the live trigger with the given spec ID off tree. It reports
// false if no such trigger is live.
func (in *Installed) Remove(tree *triggertree.Tree, id string) bool {
	tr, ok := in.Lookup(id)
	if !ok {
		return false
	}
	return tree.RemoveTrigger(tr)
}

// Quantifiers converts quantifier definitions to tree quantifiers.
func Quantifiers(specs []ir.QuantifierSpec) ([]triggertree.Quantifier, error) {
	out := make([]triggertree.Quantifier, 0, len(specs))
	for _, q := range specs {
		kind, err := triggertree.ParseQuantifierKind(q.Kind)
		if err != nil {
			return nil, err
		}
		out = append(out, triggertree.Quantifier{
			Binding:  q.Binding,
			Kind:     kind,
			Mappings: q.Mappings,
		})
	}
	return out, nil
}
