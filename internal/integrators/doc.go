// Package integrators provides ODE integrators implementing [sim.Integrator].
//
// Each integrator advances a state across one simulator interval, taking as
// many internal sub-steps as it needs:
//
//   - [Euler]: explicit first order, fixed sub-steps
//   - [RK4]: classical fourth order, fixed sub-steps
//   - [RK45]: Dormand-Prince 5(4) with adaptive sub-steps
//
// Use [New] to select one by name.
package integrators
