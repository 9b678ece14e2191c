package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/scopecard/internal/ir"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadOverrides returns every stored override ordered by session id.
// Returns an empty slice (not nil) when none exist.
func (s *Store) LoadOverrides(ctx context.Context) ([]ir.OverrideRecord, error) {
	return queryOverrides(ctx, s.db)
}

// LoadCleared returns the sessions whose configuration-file override has
// been cleared, ordered by session id. Returns an empty slice (not nil)
// when none exist.
func (s *Store) LoadCleared(ctx context.Context) ([]string, error) {
	return queryCleared(ctx, s.db)
}

// History returns override events in seq order. An empty sessionID
// returns the events of every session.
//
// Returns an empty slice (not nil) if no events exist.
func (s *Store) History(ctx context.Context, sessionID string) ([]ir.OverrideEvent, error) {
	query := `
		SELECT id, seq, session_id, action, status, reason, recorded_at
		FROM override_events
		WHERE (? = '' OR session_id = ?)
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	events := []ir.OverrideEvent{}
	for rows.Next() {
		var (
			ev                     ir.OverrideEvent
			action, status, atText string
		)
		if err := rows.Scan(&ev.ID, &ev.Seq, &ev.SessionID, &action, &status, &ev.Reason, &atText); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Action = ir.EventAction(action)
		ev.Status = ir.Status(status)
		if ev.RecordedAt, err = parseTime(atText); err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return events, nil
}

func queryOverrides(ctx context.Context, q queryer) ([]ir.OverrideRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT session_id, status, reason, updated_at
		FROM overrides
		ORDER BY session_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	records := []ir.OverrideRecord{}
	for rows.Next() {
		var (
			rec            ir.OverrideRecord
			status, atText string
		)
		if err := rows.Scan(&rec.SessionID, &status, &rec.Reason, &atText); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		rec.Status = ir.Status(status)
		if rec.UpdatedAt, err = parseTime(atText); err != nil {
			return nil, fmt.Errorf("override %s: %w", rec.SessionID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}
	return records, nil
}

func queryCleared(ctx context.Context, q queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT session_id
		FROM cleared_overrides
		ORDER BY session_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query cleared overrides: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cleared override: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cleared overrides: %w", err)
	}
	return ids, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
