// Package models provides the built-in bioprocess models.
//
// Each model ships its CSV resources embedded in the binary:
//
//   - decay: first-order decay dX/dt = -X/P
//   - monod: fed-batch Monod growth with a PID substrate feed controller
//
// Use [NewRegistry] for a registry holding all of them, or [Register] to add
// them to an existing one.
package models
