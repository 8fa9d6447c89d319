package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Kind    string // optional - filter to one event kind
	Trigger string // optional - filter to one trigger ID
	After   int64  // only events with seq > After
	Limit   int
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Timeline []ir.Event `json:"timeline"`
	Stats    TraceStats `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int   `json:"total_events"`
	Adds        int   `json:"adds"`
	Removes     int   `json:"removes"`
	Matches     int   `json:"matches"`
	Verifies    int   `json:"verifies"`
	LastSeq     int64 `json:"last_seq"`
}

var traceKinds = []ir.EventKind{ir.EventAdd, ir.EventRemove, ir.EventMatch, ir.EventVerify}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace --db <path>",
		Short: "Show the event log",
		Long: `Show the tree operations recorded in an event log, oldest first.

Events are written by match, verify, and test when --db is set.

Examples:
  triggertree trace --db ./events.db
  triggertree trace --db ./events.db --kind match --limit 20
  triggertree trace --db ./events.db --trigger greet --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter by event kind (add|remove|match|verify)")
	cmd.Flags().StringVar(&opts.Trigger, "trigger", "", "filter by trigger ID")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only show events after this seq")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events (0 for all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Database == "" {
		return formatter.fail(ExitCommandError, ErrCodeStore, "--db is required")
	}
	kind := ir.EventKind(opts.Kind)
	if kind != "" && !slices.Contains(traceKinds, kind) {
		return formatter.fail(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("invalid kind %q: must be one of %v", opts.Kind, traceKinds))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error())
	}
	defer st.Close()

	ctx := commandContext(cmd)
	events, err := st.ReadEvents(ctx, store.EventFilter{
		Kind:      kind,
		TriggerID: opts.Trigger,
		AfterSeq:  opts.After,
		Limit:     opts.Limit,
	})
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error())
	}

	result := TraceResult{Timeline: events, Stats: buildTraceStats(events)}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputTraceText(formatter.Writer, result, opts.Verbose)
}

func buildTraceStats(events []ir.Event) TraceStats {
	stats := TraceStats{TotalEvents: len(events)}
	for _, ev := range events {
		switch ev.Kind {
		case ir.EventAdd:
			stats.Adds++
		case ir.EventRemove:
			stats.Removes++
		case ir.EventMatch:
			stats.Matches++
		case ir.EventVerify:
			stats.Verifies++
		}
		stats.LastSeq = max(stats.LastSeq, ev.Seq)
	}
	return stats
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		if err := formatTimelineEvent(w, ev, verbose); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Adds:         %d\n", result.Stats.Adds)
	fmt.Fprintf(w, "  Removes:      %d\n", result.Stats.Removes)
	fmt.Fprintf(w, "  Matches:      %d\n", result.Stats.Matches)
	fmt.Fprintf(w, "  Verifies:     %d\n", result.Stats.Verifies)
	return nil
}

// formatTimelineEvent formats a single event for text output. Payloads
// are printed as canonical JSON so output is deterministic.
func formatTimelineEvent(w io.Writer, ev ir.Event, verbose bool) error {
	switch ev.Kind {
	case ir.EventAdd, ir.EventRemove:
		fmt.Fprintf(w, "  [%d] %-6s %s\n", ev.Seq, ev.Kind, ev.TriggerID)
	case ir.EventMatch:
		fmt.Fprintf(w, "  [%d] %-6s %s\n", ev.Seq, ev.Kind, formatValue(ev.Payload["matches"]))
		if verbose {
			fmt.Fprintf(w, "       Frame: %s\n", truncateID(ev.FrameHash))
		}
	default:
		fmt.Fprintf(w, "  [%d] %-6s\n", ev.Seq, ev.Kind)
	}

	if verbose && len(ev.Payload) > 0 {
		data, err := ir.MarshalCanonical(ev.Payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "       Payload: %s\n", data)
	}
	return nil
}

// formatValue renders a payload value compactly, "[]" when absent.
func formatValue(v ir.IRValue) string {
	if v == nil {
		return "[]"
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}

// truncateID shortens a hash for display.
func truncateID(id string) string {
	if len(id) > 16 {
		return id[:16] + "..."
	}
	return id
}
