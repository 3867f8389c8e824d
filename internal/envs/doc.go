// Package envs implements the cost environments:
//
//   - [Oscillator]: synthetic gene network tracking a sinusoidal protein
//     reference
//   - [Ex3EKF]: learning the gains of an extended Kalman style estimator for
//     a noisy pendulum with packet loss
//   - [CartPole]: cart-pole stabilisation with a quadratic cost
//   - [VelocityTracking]: forward velocity tracking for a locomotion [Body]
//
// Every environment implements [gym.Env] and [dynamo.Configurable]. Each owns
// its seeded random source; none of them are safe for concurrent use.
package envs
