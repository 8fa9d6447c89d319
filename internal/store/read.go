package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/triggertree/internal/ir"
)

// EventFilter narrows ReadEvents. Zero fields match everything.
type EventFilter struct {
	Kind      ir.EventKind
	TriggerID string
	AfterSeq  int64
	Limit     int
}

// ReadEvents returns logged events ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ReadEvents(ctx context.Context, f EventFilter) ([]ir.Event, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.TriggerID != "" {
		where = append(where, "trigger_id = ?")
		args = append(args, f.TriggerID)
	}
	if f.AfterSeq > 0 {
		where = append(where, "seq > ?")
		args = append(args, f.AfterSeq)
	}

	query := `SELECT id, seq, kind, trigger_id, frame_hash, payload FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC, id ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate events")
	}
	return events, nil
}

// CountEvents returns the number of logged events of the given kind, or of
// every kind when kind is empty.
func (s *Store) CountEvents(ctx context.Context, kind ir.EventKind) (int, error) {
	var (
		count int
		err   error
	)
	if kind == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE kind = ?`, string(kind)).Scan(&count)
	}
	if err != nil {
		return 0, errors.Wrap(err, "count events")
	}
	return count, nil
}

// MaxSeq returns the highest logged seq, 0 for an empty log. A writer
// resuming an existing log continues its clock from here.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`).Scan(&seq); err != nil {
		return 0, errors.Wrap(err, "max seq")
	}
	return seq.Int64, nil
}

func scanEvent(rows *sql.Rows) (ir.Event, error) {
	var (
		ev      ir.Event
		kind    string
		payload string
	)
	if err := rows.Scan(&ev.ID, &ev.Seq, &kind, &ev.TriggerID, &ev.FrameHash, &payload); err != nil {
		return ir.Event{}, errors.Wrap(err, "scan event")
	}
	ev.Kind = ir.EventKind(kind)

	obj, err := unmarshalPayload(payload)
	if err != nil {
		return ir.Event{}, errors.Wrapf(err, "event %d", ev.ID)
	}
	ev.Payload = obj
	return ev, nil
}
