package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/scopecard/internal/ir"
)

// createTestStore creates a new on-disk store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates an override record with a fixed timestamp.
func createTestRecord(sessionID string, status ir.Status, reason string) ir.OverrideRecord {
	return ir.OverrideRecord{
		SessionID: sessionID,
		Override: ir.Override{
			Status:    status,
			Reason:    reason,
			UpdatedAt: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		},
	}
}
