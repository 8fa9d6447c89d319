package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/triggertree/internal/compiler"
	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/metrics"
	"github.com/roach88/triggertree/internal/triggertree"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
	Frame   string // frame file, "-" for stdin
	Metrics bool   // print collected metrics to stderr
}

// MatchedTrigger is one trigger returned for the frame.
type MatchedTrigger struct {
	ID     string     `json:"id"`
	Action ir.IRValue `json:"action"`
	Clause string     `json:"clause"`
}

// MatchFailure is one clause that could not be evaluated.
type MatchFailure struct {
	Clause string `json:"clause"`
	Error  string `json:"error"`
}

// MatchResult holds the match output.
type MatchResult struct {
	FrameHash  string           `json:"frame_hash"`
	Matches    []MatchedTrigger `json:"matches"`
	Candidates int              `json:"candidates"`
	Failures   []MatchFailure   `json:"failures,omitempty"`
	Seq        int64            `json:"seq,omitempty"` // event log seq when --db is set
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match <path> --frame <file>",
		Short: "Match a frame against a trigger set",
		Long: `Build a trigger tree from a CUE trigger set and match one frame.

The frame is a YAML or JSON object. Only the most specific triggers that
hold are returned, in declaration order. Clauses that fail to evaluate
count as false and are listed as failures.

With --db the match is appended to the event log.

Examples:
  triggertree match ./triggers --frame frame.yaml
  echo '{"intent": "greet"}' | triggertree match triggers.cue --frame -
  triggertree match ./triggers --frame frame.json --db ./events.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Frame, "frame", "", "frame file (YAML or JSON, - for stdin)")
	_ = cmd.MarkFlagRequired("frame")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print tree metrics to stderr")

	return cmd
}

func runMatch(opts *MatchOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadTriggerSet(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if errs := compiler.Validate(loaded.Set); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	frame, err := LoadFrame(opts.Frame, cmd.InOrStdin())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeBadFrame, err.Error())
	}

	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	tree := triggertree.New(
		triggertree.WithLogger(opts.logger()),
		triggertree.WithHooks(collector.Hooks()),
	)
	installed, err := compiler.Install(tree, loaded.Set)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeGeneric, err.Error())
	}
	formatter.VerboseLog("Installed %d trigger(s) in %d node(s)", tree.TotalTriggers(), tree.NodeCount())

	report := tree.MatchDetailed(frame)

	hash, err := ir.FrameHash(frame)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeBadFrame, err.Error())
	}

	result := MatchResult{
		FrameHash:  hash,
		Matches:    make([]MatchedTrigger, 0, len(report.Matches)),
		Candidates: report.Candidates,
	}
	for _, m := range report.Matches {
		spec := installed.Spec(m)
		if spec == nil {
			continue
		}
		result.Matches = append(result.Matches, MatchedTrigger{
			ID:     spec.ID,
			Action: spec.Action,
			Clause: m.Clause.String(),
		})
	}
	for _, f := range report.Failures {
		result.Failures = append(result.Failures, MatchFailure{
			Clause: f.Clause.String(),
			Error:  f.Err.Error(),
		})
	}

	if opts.Database != "" {
		result.Seq, err = appendEvent(commandContext(cmd), opts.Database, matchEvent(result))
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error())
		}
	}

	if opts.Metrics {
		if err := printMetrics(formatter, reg); err != nil {
			return err
		}
	}

	return outputMatch(formatter, result)
}

// matchEvent builds the event log row for a match.
func matchEvent(result MatchResult) ir.Event {
	ids := make(ir.IRArray, len(result.Matches))
	for i, m := range result.Matches {
		ids[i] = ir.IRString(m.ID)
	}
	return ir.Event{
		Kind:      ir.EventMatch,
		FrameHash: result.FrameHash,
		Payload: ir.IRObject{
			"matches":    ids,
			"candidates": ir.IRInt(result.Candidates),
			"failures":   ir.IRInt(len(result.Failures)),
		},
	}
}

func outputMatch(formatter *OutputFormatter, result MatchResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if len(result.Matches) == 0 {
		fmt.Fprintln(w, "No triggers matched.")
	} else {
		fmt.Fprintf(w, "✓ %d trigger(s) matched\n\n", len(result.Matches))
		for _, m := range result.Matches {
			action, err := ir.MarshalCanonical(m.Action)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %s -> %s\n", m.ID, action)
			fmt.Fprintf(w, "    clause: %s\n", m.Clause)
		}
	}

	if len(result.Failures) > 0 {
		fmt.Fprintf(w, "\n%d clause(s) failed to evaluate:\n", len(result.Failures))
		for _, f := range result.Failures {
			fmt.Fprintf(w, "  %s: %s\n", f.Clause, f.Error)
		}
	}

	fmt.Fprintf(w, "\nCandidates: %d\n", result.Candidates)
	fmt.Fprintf(w, "Frame: %s\n", result.FrameHash)
	if result.Seq > 0 {
		fmt.Fprintf(w, "Logged at seq %d\n", result.Seq)
	}
	return nil
}

// printMetrics writes gathered metric values to stderr, one per line.
func printMetrics(formatter *OutputFormatter, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("gather metrics: %v", err))
	}
	w := formatter.GetErrWriter()
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", mf.GetName(), m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Fprintf(w, "%s %g\n", mf.GetName(), m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s_count %d\n", mf.GetName(), h.GetSampleCount())
				fmt.Fprintf(w, "%s_sum %g\n", mf.GetName(), h.GetSampleSum())
			}
		}
	}
	return nil
}
