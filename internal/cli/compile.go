package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/triggertree/internal/compiler"
	"github.com/roach88/triggertree/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the compiled trigger set plus its content hash.
type CompilationResult struct {
	Hash string `json:"hash"`
	*ir.TriggerSet
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "Compile a CUE trigger set to JSON",
		Long: `Compile a CUE trigger set (a .cue file or a directory holding one CUE
package) to JSON.

Triggers keep their declaration order, which is also match result order.
The output carries a content hash of the set.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadTriggerSet(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, path)
	for _, spec := range loaded.Set.Triggers {
		formatter.VerboseLog("Compiled trigger: %s", spec.ID)
	}

	// compile rejects sets the tree would reject
	if errs := compiler.Validate(loaded.Set); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	result := &CompilationResult{Hash: loaded.Hash, TriggerSet: loaded.Set}

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d trigger(s), %d comparer(s)\n\n",
		len(result.Triggers), len(result.Comparers))

	fmt.Fprintln(w, "Triggers:")
	for _, spec := range result.Triggers {
		fmt.Fprintf(w, "  %s: %s", spec.ID, spec.When)
		if n := len(spec.Quantifiers); n > 0 {
			fmt.Fprintf(w, " (%d quantifier(s))", n)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Hash: %s\n", result.Hash)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote trigger set to %s\n", outputFile)
	}

	return nil
}

// outputLoadError reports a failed load. Load failures are command-level
// errors (exit code 2).
func outputLoadError(formatter *OutputFormatter, err error) error {
	code, message := loadErrorCode(err)
	var loadErr *LoadError
	if !formatter.JSON() && errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
		fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
			loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
	}
	return formatter.fail(ExitCommandError, code, message)
}

// writeIRToFile writes the compilation result to a file.
func writeIRToFile(result *CompilationResult, filename string) error {
	// Use standard JSON with indentation for readability
	// (canonical JSON without indentation is used only for hashing)
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling trigger set")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "writing file")
	}

	return nil
}
