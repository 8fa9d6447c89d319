package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/triggertree/internal/expr"
	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/testutil"
	"github.com/roach88/triggertree/internal/triggertree"
)

func TestCollector_TracksTree(t *testing.T) {
	c := New(prometheus.NewRegistry())
	tree := triggertree.New(
		triggertree.WithHooks(c.Hooks()),
		triggertree.WithIDGenerator(testutil.NewSequenceIDs("t")),
	)

	big, err := tree.AddTrigger("count > 3", "big")
	require.NoError(t, err)
	_, err = tree.AddTrigger("exists(name)", "named")
	require.NoError(t, err)

	assert.Equal(t, 2.0, promtest.ToFloat64(c.TriggersAdded))
	assert.Equal(t, 2.0, promtest.ToFloat64(c.LiveTriggers))

	// count is a string, so "count > 3" fails to evaluate.
	tree.Matches(ir.IRObject{"count": ir.IRString("many"), "name": ir.IRString("n")})
	tree.Matches(ir.IRObject{})

	assert.Equal(t, 2.0, promtest.ToFloat64(c.MatchesTotal))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.EvalErrors))

	require.True(t, tree.RemoveTrigger(big))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.TriggersRemoved))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.LiveTriggers))
}

func TestCollector_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.MatchSize.Observe(3)

	n, err := promtest.GatherAndCount(reg, "triggertree_match_result_size", "triggertree_live_triggers")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A second collector on the same registry is a duplicate registration.
	assert.Panics(t, func() { New(reg) })
}

func TestCombine(t *testing.T) {
	var order []string
	first := triggertree.Hooks{
		OnMatch: func(expr.Frame, []triggertree.Match) { order = append(order, "first") },
	}
	second := triggertree.Hooks{
		OnAdd:   func(*triggertree.Trigger) { order = append(order, "add") },
		OnMatch: func(expr.Frame, []triggertree.Match) { order = append(order, "second") },
	}

	h := Combine(first, triggertree.Hooks{}, second)
	require.NotNil(t, h.OnAdd)
	require.NotNil(t, h.OnMatch)
	assert.Nil(t, h.OnRemove)
	assert.Nil(t, h.OnEvalError)

	h.OnMatch(ir.IRObject{}, nil)
	h.OnAdd(nil)
	assert.Equal(t, []string{"first", "second", "add"}, order)
}
