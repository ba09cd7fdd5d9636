// Package model composes variable tables into a simulatable definition.
//
// A [Definition] owns a parameter table and a manipulated-variable table and
// is bound to a [Computation], the model's right-hand side. On construction
// every manipulated-variable row flagged as state whose identifier ends in
// [InitialSuffix] (for example "X0") yields a companion state row ("X")
// that tracks the live value. The originating row stays as a plain input
// holding the initial value.
//
// Concrete models are registered in a [Registry] under a name together with
// their CSV resources and, optionally, a control-hook factory.
package model
