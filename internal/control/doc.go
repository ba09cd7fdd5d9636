// Package control provides feedback laws for control hooks.
//
//   - [PID]: Proportional-Integral-Derivative controller with output clamping
//
// # Usage
//
//	pid := control.NewPID(0.05, 0.01, 0, 1.0) // Kp, Ki, Kd, setpoint
//	pid.SetLimits(0, 0.5)
//	feed := pid.Compute(substrate, t)
//
// PID supports live tuning through GetParams and SetParam.
package control
