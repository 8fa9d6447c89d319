package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/triggertree/internal/compiler"
	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/triggertree"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Dump bool // print the tree structure
}

// VerifyResult holds the verify output.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Triggers  int    `json:"triggers"`
	Nodes     int    `json:"nodes"`
	Violation string `json:"violation,omitempty"`
	Tree      string `json:"tree,omitempty"`
	Seq       int64  `json:"seq,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <path>",
		Short: "Build a trigger tree and check its structure",
		Long: `Build the trigger tree for a CUE trigger set and check its structural
invariants: attached clauses equal their node's clause, children strictly
specialize their parent, and siblings are incomparable.

Exit codes:
  0 - Tree is sound
  1 - Invalid triggers or a structural violation
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "print the tree structure")

	return cmd
}

func runVerify(opts *VerifyOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadTriggerSet(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if errs := compiler.Validate(loaded.Set); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	tree := triggertree.New(triggertree.WithLogger(opts.logger()))
	if _, err := compiler.Install(tree, loaded.Set); err != nil {
		return formatter.fail(ExitFailure, ErrCodeGeneric, err.Error())
	}

	result := VerifyResult{
		Valid:    true,
		Triggers: tree.TotalTriggers(),
		Nodes:    tree.NodeCount(),
	}
	if v := tree.VerifyTree(); v != nil {
		result.Valid = false
		result.Violation = v.Error()
	}
	if opts.Dump {
		result.Tree = tree.String()
	}

	if opts.Database != "" {
		payload := ir.IRObject{"nodes": ir.IRInt(result.Nodes)}
		if result.Violation != "" {
			payload["violation"] = ir.IRString(result.Violation)
		}
		result.Seq, err = appendEvent(commandContext(cmd), opts.Database, ir.Event{
			Kind:    ir.EventVerify,
			Payload: payload,
		})
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error())
		}
	}

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputVerifyText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, result.Violation)
	}
	return nil
}

func outputVerifyText(formatter *OutputFormatter, result VerifyResult) {
	w := formatter.Writer
	if result.Valid {
		fmt.Fprintf(w, "✓ Tree is sound: %d trigger(s), %d node(s)\n", result.Triggers, result.Nodes)
	} else {
		fmt.Fprintf(w, "✗ Tree violation: %s\n", result.Violation)
	}
	if result.Tree != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, result.Tree)
	}
}
