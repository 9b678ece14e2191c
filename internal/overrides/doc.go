// Package overrides holds the session configuration and its manual
// overrides behind an explicit, mutex-guarded handle.
//
// ARCHITECTURE:
//   - Store is the only mutable state in the classification path
//   - Rules returns a deep copy, so the engine never shares memory with it
//   - Persist writes a snapshot through a Persister chosen per environment
//
// CRITICAL PATTERNS:
//   - Set replaces the whole override record and stamps UpdatedAt
//   - Persistence outcomes are always a PersistResult, never a panic
//   - An abandoned interactive save is a non-fatal result (ErrAbandoned),
//     flagged by PersistResult.Abandoned
//   - SQLiteWriter records clears of file-declared overrides; Retract
//     applies them on load before Attach
//   - In-memory changes are never rolled back when persistence fails
package overrides
