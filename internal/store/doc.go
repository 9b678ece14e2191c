// Package store provides SQLite-backed durable storage for manual session
// overrides.
//
// The store keeps three tables:
//   - overrides: the current override per session (one row per session id)
//   - override_events: append-only history of set and clear operations
//   - cleared_overrides: sessions whose configuration-file override was
//     cleared; loaders remove those overrides before attaching rows
//
// # Critical Patterns
//
// Logical Identity and Time
//   - History ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Event ids are UUIDv7; recorded_at is informational only
//
// Deterministic Query Results
//   - History queries include: ORDER BY seq ASC, id ASC COLLATE BINARY
//   - Override listings are ordered by session_id COLLATE BINARY
//
// Atomic Writes
//   - An override change and its history event commit in one transaction
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
