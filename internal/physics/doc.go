// Package physics provides the dynamical systems behind the cost
// environments.
//
// Each model implements [dynamo.System], defining the differential equations
// governing the system's evolution, and [dynamo.Configurable] so its
// parameters can be perturbed at runtime:
//
//   - [OscillatorNetwork]: three-gene repressilator (mRNA and protein)
//   - [Pendulum]: undamped pendulum observed through sin(θ)
//   - [CartPole]: cart with a hinged pole
//   - [Quadrotor2D]: planar quadrotor used as a locomotion body
//
// Models carry parameters only. Noise, clipping and episode state belong to
// the environment that owns the model.
package physics
