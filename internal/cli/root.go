package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/logging"
)

// RootOptions holds global settings for all commands. Fields are filled
// from the merged configuration before any subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Database   string // event log path; empty disables logging
	ConfigFile string

	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the triggertree CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Logger: logging.NewNop()}
	v := newViper()

	cmd := &cobra.Command{
		Use:     "triggertree",
		Version: ir.Version,
		Short:   "triggertree - most specific trigger matching",
		Long: `Compile, check, and run CUE trigger sets.

A trigger pairs a boolean expression over a memory frame with an action.
Matching a frame returns only the most specific triggers that hold.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.configure(cmd, v)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.String("format", "text", "output format (json|text)")
	pf.String("db", "", "path to SQLite event log")
	pf.String("log-level", "warn", "log level (debug|info|warn|error)")
	pf.String("log-format", "text", "log format (text|json)")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (yaml, toml, or json)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// configure merges flags, env, and the config file into opts and builds
// the logger.
func (opts *RootOptions) configure(cmd *cobra.Command, v *viper.Viper) error {
	// Subcommands silence cobra's error output, so configuration errors
	// are reported here.
	fail := func(err error) error {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return WrapExitError(ExitCommandError, "configuration", err)
	}

	if err := bindFlags(v, cmd.Root().PersistentFlags()); err != nil {
		return fail(err)
	}
	cfg, err := LoadConfig(v, opts.ConfigFile)
	if err != nil {
		return fail(err)
	}

	if !isValidFormat(cfg.Format) {
		return fail(errors.Newf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fail(err)
	}
	logFormat, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return fail(err)
	}

	opts.Format = cfg.Format
	opts.Verbose = cfg.Verbose
	opts.Database = cfg.Database
	opts.Logger = logging.New(cmd.ErrOrStderr(), level, logFormat)
	return nil
}

// logger returns the configured logger. Commands run directly in tests
// skip configure, so a nil logger falls back to a discarding one.
func (opts *RootOptions) logger() *slog.Logger {
	if opts.Logger == nil {
		return logging.NewNop()
	}
	return opts.Logger
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
