package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/scopecard/internal/ir"
)

// WriteOverride upserts the override for rec.SessionID and appends a
// "set" event to the history. Both writes share one transaction.
func (s *Store) WriteOverride(ctx context.Context, rec ir.OverrideRecord) error {
	if err := checkRecord(rec); err != nil {
		return fmt.Errorf("write override: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := upsertOverride(ctx, tx, rec); err != nil {
			return err
		}
		return appendEvent(ctx, tx, ir.OverrideEvent{
			SessionID:  rec.SessionID,
			Action:     ir.EventSet,
			Status:     rec.Status,
			Reason:     rec.Reason,
			RecordedAt: rec.UpdatedAt,
		})
	})
}

// DeleteOverride removes the override for sessionID and appends a "clear"
// event. Clearing a session without an override is a no-op.
func (s *Store) DeleteOverride(ctx context.Context, sessionID string, at time.Time) error {
	if sessionID == "" {
		return fmt.Errorf("delete override: session id is required")
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		removed, err := deleteOverride(ctx, tx, sessionID)
		if err != nil || !removed {
			return err
		}
		return appendEvent(ctx, tx, ir.OverrideEvent{
			SessionID:  sessionID,
			Action:     ir.EventClear,
			RecordedAt: at,
		})
	})
}

// SyncOverrides makes the stored overrides equal to recs and the cleared
// set equal to cleared. A cleared session is one whose override is declared
// in a configuration file and has been removed; the row keeps it removed on
// the next load. Every difference is recorded as an event; unchanged rows
// produce none. Returns the number of sessions that changed.
func (s *Store) SyncOverrides(ctx context.Context, recs []ir.OverrideRecord, cleared []string, at time.Time) (int, error) {
	for _, rec := range recs {
		if err := checkRecord(rec); err != nil {
			return 0, fmt.Errorf("sync overrides: %w", err)
		}
	}

	changed := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := queryOverrides(ctx, tx)
		if err != nil {
			return err
		}
		existing := make(map[string]ir.OverrideRecord, len(current))
		for _, rec := range current {
			existing[rec.SessionID] = rec
		}

		// touched sessions already have an event in this sync.
		touched := map[string]bool{}
		wanted := make(map[string]bool, len(recs))
		for _, rec := range recs {
			wanted[rec.SessionID] = true
			if old, ok := existing[rec.SessionID]; ok && sameOverride(old, rec) {
				continue
			}
			if err := upsertOverride(ctx, tx, rec); err != nil {
				return err
			}
			if err := appendEvent(ctx, tx, ir.OverrideEvent{
				SessionID:  rec.SessionID,
				Action:     ir.EventSet,
				Status:     rec.Status,
				Reason:     rec.Reason,
				RecordedAt: at,
			}); err != nil {
				return err
			}
			touched[rec.SessionID] = true
			changed++
		}

		// current is ordered, so clear events are too.
		for _, old := range current {
			if wanted[old.SessionID] {
				continue
			}
			if _, err := deleteOverride(ctx, tx, old.SessionID); err != nil {
				return err
			}
			if err := appendEvent(ctx, tx, ir.OverrideEvent{
				SessionID:  old.SessionID,
				Action:     ir.EventClear,
				RecordedAt: at,
			}); err != nil {
				return err
			}
			touched[old.SessionID] = true
			changed++
		}

		n, err := syncCleared(ctx, tx, cleared, wanted, touched, at)
		changed += n
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// syncCleared adds a row for every newly cleared session and drops rows for
// sessions that are no longer cleared or have an override again.
func syncCleared(ctx context.Context, tx *sql.Tx, cleared []string, wanted, touched map[string]bool, at time.Time) (int, error) {
	current, err := queryCleared(ctx, tx)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(current))
	for _, id := range current {
		have[id] = true
	}

	changed := 0
	keep := make(map[string]bool, len(cleared))
	for _, id := range cleared {
		if id == "" || wanted[id] {
			continue
		}
		keep[id] = true
		if have[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cleared_overrides (session_id, cleared_at) VALUES (?, ?)`,
			id, formatTime(at),
		); err != nil {
			return 0, fmt.Errorf("record cleared override %s: %w", id, err)
		}
		if touched[id] {
			continue
		}
		if err := appendEvent(ctx, tx, ir.OverrideEvent{
			SessionID:  id,
			Action:     ir.EventClear,
			RecordedAt: at,
		}); err != nil {
			return 0, err
		}
		changed++
	}

	for _, id := range current {
		if keep[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cleared_overrides WHERE session_id = ?`, id); err != nil {
			return 0, fmt.Errorf("drop cleared override %s: %w", id, err)
		}
	}
	return changed, nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func checkRecord(rec ir.OverrideRecord) error {
	if rec.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if !ir.ValidStatuses[rec.Status] {
		return fmt.Errorf("invalid status %q for session %s", rec.Status, rec.SessionID)
	}
	return nil
}

func sameOverride(a, b ir.OverrideRecord) bool {
	return a.Status == b.Status && a.Reason == b.Reason && a.UpdatedAt.Equal(b.UpdatedAt)
}

func upsertOverride(ctx context.Context, tx *sql.Tx, rec ir.OverrideRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO overrides (session_id, status, reason, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			status = excluded.status,
			reason = excluded.reason,
			updated_at = excluded.updated_at
	`,
		rec.SessionID,
		string(rec.Status),
		rec.Reason,
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert override %s: %w", rec.SessionID, err)
	}
	return nil
}

func deleteOverride(ctx context.Context, tx *sql.Tx, sessionID string) (bool, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM overrides WHERE session_id = ?`, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete override %s: %w", sessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete override %s: %w", sessionID, err)
	}
	return n > 0, nil
}

// appendEvent assigns the next seq and a UUIDv7 id.
func appendEvent(ctx context.Context, tx *sql.Tx, ev ir.OverrideEvent) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate event id: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM override_events`).Scan(&seq); err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO override_events (id, seq, session_id, action, status, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		id.String(),
		seq,
		ev.SessionID,
		string(ev.Action),
		string(ev.Status),
		ev.Reason,
		formatTime(ev.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
