// Package variables provides keyed registries of model variables.
//
// A [Table] holds an ordered set of [Record] values under two snapshots:
//
//   - [Default]: the baseline captured at load time, never mutated afterwards
//   - [Current]: the working copy that overrides, controllers and the
//     simulator write into during a run
//
// Both snapshots always share the same identifier set; only values differ.
// Identifiers are the sole lookup key. Labels and units are display metadata.
//
// Tables are usually read from CSV resources with the columns
//
//	Var,Label,Value,Min,Max,Units,State
//
// where Min, Max and Units may be left empty (unbounded / absent).
//
// # Thread Safety
//
// Table is NOT safe for concurrent mutation. Each simulation session owns
// its own tables.
package variables
