package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/roach88/triggertree/internal/ir"
)

// WriteEvent appends an event and returns its row ID.
//
// Uses ON CONFLICT(seq) DO NOTHING for idempotency: writing an event whose
// seq is already logged returns the existing row's ID and inserted=false.
func (s *Store) WriteEvent(ctx context.Context, ev ir.Event) (id int64, inserted bool, err error) {
	if !validKind(ev.Kind) {
		return 0, false, errors.Newf("write event: unknown kind %q", ev.Kind)
	}
	payload, err := marshalPayload(ev.Payload)
	if err != nil {
		return 0, false, errors.Wrap(err, "write event")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, errors.Wrap(err, "write event: begin tx")
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO events (seq, kind, trigger_id, frame_hash, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`, ev.Seq, string(ev.Kind), ev.TriggerID, ev.FrameHash, payload)
	if err != nil {
		return 0, false, errors.Wrap(err, "write event: insert")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, errors.Wrap(err, "write event: rows affected")
	}

	if affected > 0 {
		id, err = result.LastInsertId()
		if err != nil {
			return 0, false, errors.Wrap(err, "write event: last insert id")
		}
		inserted = true
	} else {
		err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE seq = ?`, ev.Seq).Scan(&id)
		if err != nil {
			return 0, false, errors.Wrap(err, "write event: select existing")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, errors.Wrap(err, "write event: commit")
	}
	return id, inserted, nil
}

func validKind(k ir.EventKind) bool {
	switch k {
	case ir.EventAdd, ir.EventRemove, ir.EventMatch, ir.EventVerify:
		return true
	default:
		return false
	}
}
