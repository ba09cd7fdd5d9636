// Package sim runs the time-stepping loop over a model definition.
//
// The package defines the capabilities the loop is built from:
//
//   - [Integrator]: advances a state vector across one interval
//   - [Observer]: receives every recorded step
//   - [Settings]: start time, end time and step count
//   - [Simulator]: interleaves control hooks, integration and state write-back
//
// # Step convention
//
// The step count is fixed and the step size derived: dt = (End - Start) / Steps.
// Step k integrates [Start + k*dt, Start + (k+1)*dt], so the final step ends
// exactly at End. Trajectory row k is indexed by its step start time and holds
// the state at the end of that step; the first row is therefore the state at
// Start + dt, never the initial state.
//
// # Example
//
//	def, _ := registry.Load("decay")
//	s, _ := sim.New(def, integrators.NewRK4(), settings)
//	traj, err := s.Run(ctx)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. A Simulator mutates the variable
// tables of its definition; concurrent sessions need their own Definition
// and Simulator.
package sim
