// Package engine implements the scopecard classification engine.
//
// The engine is the heart of scopecard - it scores a proposed change,
// evaluates session applicability rules against the scope and risk, and
// joins work items with compliance references.
//
// ARCHITECTURE:
//
// Pure Evaluation:
// Score, ScopeEvaluator and Engine.Calculate are synchronous, side-effect
// free and re-entrant. They do no I/O and need no cancellation. The only
// mutable input is the RuleSource, which hands out deep copies.
//
// Evaluation Flow:
// 1. Score(scope) computes base score, additive contributions and label
// 2. Engine.Calculate walks the configured sessions in declaration order
// 3. For each session: override, always-required, first matching rule, optional
// 4. Work items are enriched from the compliance table by stable item key
//
// CRITICAL PATTERNS:
//
// Degrade, never fail:
// Unknown condition names evaluate to false, missing compliance entries
// leave empty lists, and a nil rule source yields an empty result.
//
// Deterministic Ordering:
// Sessions are emitted in configuration order, never reordered by status.
// Risk drivers are emitted in contribution order, never sorted or deduplicated.
package engine
