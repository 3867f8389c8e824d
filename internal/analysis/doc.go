// Package analysis characterises recorded trajectories.
//
//   - [Spectrum]: one-sided amplitude spectrum of a sampled signal
//   - [DominantPeriod]: period of the strongest non-constant component
//   - [Summarize]: mean, spread and extremes of a signal
//
// # Oscillation Period
//
// The oscillator environment's open-loop protein levels oscillate; the
// period can be read off a stored run:
//
//	p1 := analysis.Column(transitions, 3)
//	period, err := analysis.DominantPeriod(p1, dt)
package analysis
