// Package hook runs pluggable per-step control logic against a model.
//
// A [Subroutine] supplies an initialization step and an ordered list of
// named [Update] operations. A [Runner] binds one Subroutine to a model
// [Target] and, once per simulation step, refreshes the [Context] from the
// model, runs every update in registration order and merges the mutated
// parameter view back into the model in a single write.
//
// Hooks shape inputs only. State values are visible in the context but
// are never written back.
package hook
