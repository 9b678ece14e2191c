// Package compliance joins session work items with regulatory clause tables
// and document-type hints.
//
// Tables are keyed by session id and a stable work-item key assigned when the
// configuration is authored. Positional indexes from older configuration
// files are translated to keys by the compiler before they reach this
// package, so reordering work items never misattributes references.
//
// A Table is built once and is read-only afterwards; all lookups are safe for
// concurrent use and tolerate a nil receiver.
package compliance
