// Package ir provides the canonical data types for scopecard.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the data model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - scores are int64
//   - Categorical scope fields are closed string enumerations; "" means unset
//   - All JSON tags use snake_case
//   - Outputs are rebuilt wholesale on every calculation, never patched
package ir
