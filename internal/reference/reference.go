// Package reference generates the target signals environments track.
package reference

import (
	"fmt"
	"math"

	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/randomness"
)

// Signal is a time-indexed reference.
type Signal interface {
	Value(t float64) float64
}

// Sinusoid is target + amplitude*sin(2π·frequency·t − phase).
type Sinusoid struct {
	Target     float64
	Amplitude  float64
	Frequency  float64
	PhaseShift float64
}

func (s Sinusoid) Value(t float64) float64 {
	return s.Target + s.Amplitude*math.Sin(2*math.Pi*s.Frequency*t-s.PhaseShift)
}

func (s Sinusoid) Validate() error {
	if s.Frequency < 0 {
		return fmt.Errorf("%w: reference frequency %v must be non-negative", dynamo.ErrParameterBounds, s.Frequency)
	}
	return nil
}

// IsConstant reports whether the signal never changes over time.
func (s Sinusoid) IsConstant() bool {
	return s.Amplitude == 0 || s.Frequency == 0
}

func (s Sinusoid) GetParams() map[string]float64 {
	return map[string]float64{
		"reference_target":      s.Target,
		"reference_amplitude":   s.Amplitude,
		"reference_frequency":   s.Frequency,
		"reference_phase_shift": s.PhaseShift,
	}
}

// SetParam updates one field by its parameter name.
func (s *Sinusoid) SetParam(name string, value float64) error {
	switch name {
	case "reference_target":
		s.Target = value
	case "reference_amplitude":
		s.Amplitude = value
	case "reference_frequency":
		if value < 0 {
			return fmt.Errorf("%w: reference frequency %v must be non-negative", dynamo.ErrParameterBounds, value)
		}
		s.Frequency = value
	case "reference_phase_shift":
		s.PhaseShift = value
	default:
		return dynamo.UnknownParam(name)
	}
	return nil
}

type Constant struct {
	Target float64
}

func (c Constant) Value(float64) float64 { return c.Target }

// UniformResampler draws a fresh constant target once per episode.
type UniformResampler struct {
	Low, High float64
}

func (u UniformResampler) Validate() error {
	if u.Low > u.High {
		return fmt.Errorf("%w: resample range [%v, %v] is inverted", dynamo.ErrParameterBounds, u.Low, u.High)
	}
	return nil
}

func (u UniformResampler) Draw(rng *randomness.Source) Constant {
	return Constant{Target: rng.Uniform(u.Low, u.High)}
}
