// Package dynamo provides core primitives shared by every cost environment.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [Control]: action vector applied for one step
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Configurable]: named parameters that can be perturbed at runtime
//
// # Example
//
//	dyn := physics.NewOscillatorNetwork()
//	integ := integrators.NewEuler()
//	next := integ.Step(dyn, x, u, t, dt)
//
// # Thread Safety
//
// Values in this package carry no shared state. Systems that implement
// [Configurable] are owned by a single environment and are NOT thread-safe.
package dynamo
