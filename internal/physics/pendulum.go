package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/stablegym/internal/dynamo"
)

// Pendulum is an undamped pendulum with state [θ, ω]. The control is an
// additive angular velocity increment per unit time.
type Pendulum struct {
	Length  float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Length:  1.0,
		Gravity: 9.81,
	}
}

func (p *Pendulum) StateDim() int {
	return 2
}

func (p *Pendulum) ControlDim() int {
	return 1
}

func (p *Pendulum) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta := x[0]
	omega := x[1]

	input := 0.0
	if len(u) > 0 {
		input = u[0]
	}
	alpha := -p.Gravity*p.Length*math.Sin(theta) + input

	return dynamo.State{omega, alpha}
}

// SemiImplicitStep advances one step, updating θ first and using the new θ
// for the velocity update. input is added to ω unscaled.
func (p *Pendulum) SemiImplicitStep(x dynamo.State, dt, input float64) dynamo.State {
	theta := x[0] + dt*x[1]
	omega := x[1] - p.Gravity*p.Length*math.Sin(theta)*dt + input
	return dynamo.State{theta, omega}
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"length":  p.Length,
		"gravity": p.Gravity,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "length":
		if value <= 0 {
			return fmt.Errorf("%w: length must be positive, got %v", dynamo.ErrParameterBounds, value)
		}
		p.Length = value
	case "gravity":
		p.Gravity = value
	default:
		return dynamo.UnknownParam(name)
	}
	return nil
}
