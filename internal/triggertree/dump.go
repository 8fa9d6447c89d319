package triggertree

import (
	"fmt"
	"strings"
)

// String dumps the tree one node per line, children indented under their
// parent:
//
//	[0] true
//	  [1] exists(blah) => 1
//	    [2] exists(blah) && woof == 3 => 3
//
// Each attached trigger is listed after "=>" by its action.
func (t *Tree) String() string {
	var sb strings.Builder
	t.dump(&sb, RootID, 0)
	return sb.String()
}

func (t *Tree) dump(sb *strings.Builder, id NodeID, depth int) {
	n := t.nodes[id]
	fmt.Fprintf(sb, "%s[%d] %s", strings.Repeat("  ", depth), id, n.clause)
	if len(n.entries) > 0 {
		actions := make([]string, len(n.entries))
		for i, e := range n.entries {
			actions[i] = fmt.Sprint(e.trigger.Action)
			if e.clause != n.clause && e.clause.String() != n.clause.String() {
				actions[i] += " (" + e.clause.String() + ")"
			}
		}
		sb.WriteString(" => " + strings.Join(actions, ", "))
	}
	sb.WriteByte('\n')
	for _, childID := range n.children {
		t.dump(sb, childID, depth+1)
	}
}
