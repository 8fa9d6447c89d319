package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

var (
	greetingsCUE   = filepath.Join("testdata", "triggers", "greetings.cue")
	badExprCUE     = filepath.Join("testdata", "invalid", "bad_expression.cue")
	missingWhenCUE = filepath.Join("testdata", "invalid", "missing_when.cue")
	syntaxCUE      = filepath.Join("testdata", "invalid", "syntax.cue")
	greetFrame     = filepath.Join("testdata", "frames", "greet.yaml")
)

// execute runs a subcommand built by newCmd with captured output. Commands
// run this way skip the root's configuration step.
func execute(t *testing.T, newCmd func(*RootOptions) *cobra.Command, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newCmd(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
