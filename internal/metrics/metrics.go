// Package metrics exposes trigger tree activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/triggertree/internal/expr"
	"github.com/roach88/triggertree/internal/triggertree"
)

// Collector holds Prometheus metrics for one trigger tree.
type Collector struct {
	TriggersAdded   prometheus.Counter
	TriggersRemoved prometheus.Counter
	LiveTriggers    prometheus.Gauge

	MatchesTotal prometheus.Counter
	MatchSize    prometheus.Histogram
	EvalErrors   prometheus.Counter
}

// New creates the collector and registers it with reg. Pass
// prometheus.DefaultRegisterer to publish on the default /metrics handler;
// tests pass a fresh prometheus.NewRegistry().
//
// All metrics are prefixed with "triggertree_" for namespacing.
//
// Metrics:
//   - triggertree_triggers_added_total - Count of triggers added
//   - triggertree_triggers_removed_total - Count of triggers removed
//   - triggertree_live_triggers - Current number of triggers in the tree
//   - triggertree_matches_total - Count of Matches calls
//   - triggertree_match_result_size - Histogram of triggers returned per match
//   - triggertree_eval_errors_total - Count of clauses that failed to evaluate
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		TriggersAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "triggertree_triggers_added_total",
			Help: "Total number of triggers added",
		}),
		TriggersRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "triggertree_triggers_removed_total",
			Help: "Total number of triggers removed",
		}),
		LiveTriggers: f.NewGauge(prometheus.GaugeOpts{
			Name: "triggertree_live_triggers",
			Help: "Current number of triggers in the tree",
		}),
		MatchesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "triggertree_matches_total",
			Help: "Total number of frames matched",
		}),
		MatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "triggertree_match_result_size",
			Help:    "Number of triggers returned per match",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
		EvalErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "triggertree_eval_errors_total",
			Help: "Total number of clauses that failed to evaluate during matching",
		}),
	}
}

// Hooks returns tree hooks feeding the collector. Chain with other hooks
// through Combine.
func (c *Collector) Hooks() triggertree.Hooks {
	return triggertree.Hooks{
		OnAdd: func(*triggertree.Trigger) {
			c.TriggersAdded.Inc()
			c.LiveTriggers.Inc()
		},
		OnRemove: func(*triggertree.Trigger) {
			c.TriggersRemoved.Inc()
			c.LiveTriggers.Dec()
		},
		OnMatch: func(_ expr.Frame, matches []triggertree.Match) {
			c.MatchesTotal.Inc()
			c.MatchSize.Observe(float64(len(matches)))
		},
		OnEvalError: func(*triggertree.Clause, error) {
			c.EvalErrors.Inc()
		},
	}
}

// Combine merges hook sets; each callback runs every non-nil callback of
// the inputs in order.
func Combine(hooks ...triggertree.Hooks) triggertree.Hooks {
	var out triggertree.Hooks
	for _, h := range hooks {
		if h.OnAdd != nil {
			prev, next := out.OnAdd, h.OnAdd
			out.OnAdd = func(t *triggertree.Trigger) {
				if prev != nil {
					prev(t)
				}
				next(t)
			}
		}
		if h.OnRemove != nil {
			prev, next := out.OnRemove, h.OnRemove
			out.OnRemove = func(t *triggertree.Trigger) {
				if prev != nil {
					prev(t)
				}
				next(t)
			}
		}
		if h.OnMatch != nil {
			prev, next := out.OnMatch, h.OnMatch
			out.OnMatch = func(f expr.Frame, m []triggertree.Match) {
				if prev != nil {
					prev(f, m)
				}
				next(f, m)
			}
		}
		if h.OnEvalError != nil {
			prev, next := out.OnEvalError, h.OnEvalError
			out.OnEvalError = func(c *triggertree.Clause, err error) {
				if prev != nil {
					prev(c, err)
				}
				next(c, err)
			}
		}
	}
	return out
}
