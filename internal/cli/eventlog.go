package cli

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/store"
)

// appendEvent writes ev to the event log at path, stamped with the seq
// after the log's current maximum. It returns the assigned seq.
func appendEvent(ctx context.Context, path string, ev ir.Event) (int64, error) {
	st, err := store.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open event log %s", path)
	}
	defer st.Close()

	last, err := st.MaxSeq(ctx)
	if err != nil {
		return 0, err
	}
	ev.Seq = last + 1
	if _, _, err := st.WriteEvent(ctx, ev); err != nil {
		return 0, err
	}
	return ev.Seq, nil
}

// commandContext returns the command's context, or a background context
// when the command was run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
