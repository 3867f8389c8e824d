package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ClampMin replaces every element below floor with floor, in place.
func (s State) ClampMin(floor float64) State {
	for i, v := range s {
		s[i] = math.Max(v, floor)
	}
	return s
}

type Control []float64

func (c Control) Clone() Control {
	out := make(Control, len(c))
	copy(out, c)
	return out
}

// SquaredNorm returns sum(u_i^2).
func (c Control) SquaredNorm() float64 {
	sum := 0.0
	for _, v := range c {
		sum += v * v
	}
	return sum
}

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Configurable exposes named model attributes for perturbation sweeps.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// CheckDim returns ErrDimensionMismatch when len(v) != want.
func CheckDim(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s has %d elements, want %d: %w", what, got, want, ErrDimensionMismatch)
	}
	return nil
}
