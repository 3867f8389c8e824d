// Package control provides policies that drive environments during rollouts.
//
// Policies implement [Policy] and compute an action from the latest
// observation:
//
//   - [PID]: Proportional-Integral-Derivative tracking of one observation element
//   - [LQR]: Linear state feedback around a target
//   - [None]: zero action
//   - [Constant]: fixed action
//   - [Random]: uniform samples from the action space
//
// # Usage
//
//	pid := control.NewPID(1.0, 0.1, 0.01, 0.0)  // Kp, Ki, Kd, setpoint
//	u := pid.Compute(obs, env.Time())
//
// Policies implementing [dynamo.Configurable] support parameter sweeps.
package control
