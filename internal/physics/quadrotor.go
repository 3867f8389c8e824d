package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/san-kum/stablegym/internal/dynamo"
)

const (
	DefaultMass    = 1.0
	DefaultGravity = 9.81
)

// Quadrotor2D is a planar quadrotor with state [x, z, θ, vx, vz, ω] and
// controls [left thrust, right thrust]. It tilts to move: θ < 0 accelerates
// in +x.
type Quadrotor2D struct {
	Mass, Inertia, ArmLength float64
	Gravity, DragCoeff       float64
	AngDrag                  float64
	MaxThrust                float64

	HealthyZ     r1.Interval
	HealthyAngle r1.Interval
}

func NewQuadrotor2D() *Quadrotor2D {
	return &Quadrotor2D{
		Mass:         DefaultMass,
		Inertia:      0.1,
		ArmLength:    0.25,
		Gravity:      DefaultGravity,
		DragCoeff:    0.1,
		AngDrag:      0.05,
		MaxThrust:    10,
		HealthyZ:     r1.Interval{Min: 0.8, Max: 2.0},
		HealthyAngle: r1.Interval{Min: -1.0, Max: 1.0},
	}
}

func (d *Quadrotor2D) StateDim() int   { return 6 }
func (d *Quadrotor2D) ControlDim() int { return 2 }

func (d *Quadrotor2D) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta, vx, vz, omega := x[2], x[3], x[4], x[5]

	thrustL, thrustR := 0.0, 0.0
	if len(u) >= 2 {
		thrustL, thrustR = u[0], u[1]
	} else if len(u) >= 1 {
		thrustL, thrustR = u[0]/2, u[0]/2
	}

	thrustL = math.Max(0, thrustL)
	thrustR = math.Max(0, thrustR)

	totalThrust := thrustL + thrustR
	torque := (thrustR - thrustL) * d.ArmLength

	sin, cos := math.Sin(theta), math.Cos(theta)
	fx := -totalThrust*sin - d.DragCoeff*vx
	fz := totalThrust*cos - d.Mass*d.Gravity - d.DragCoeff*vz

	ax := fx / d.Mass
	az := fz / d.Mass
	alpha := (torque - d.AngDrag*omega) / d.Inertia

	return dynamo.State{vx, vz, omega, ax, az, alpha}
}

// HoverThrust is the per-rotor thrust that balances gravity.
func (d *Quadrotor2D) HoverThrust() float64 {
	return d.Mass * d.Gravity / 2.0
}

// InitialState is a level hover at the middle of the healthy height band.
func (d *Quadrotor2D) InitialState() dynamo.State {
	return dynamo.State{0, (d.HealthyZ.Min + d.HealthyZ.Max) / 2, 0, 0, 0, 0}
}

func (d *Quadrotor2D) ForwardVelocity(x dynamo.State) float64 { return x[3] }

func (d *Quadrotor2D) Healthy(x dynamo.State) bool {
	if !x.IsValid() {
		return false
	}
	z, theta := x[1], x[2]
	return z > d.HealthyZ.Min && z < d.HealthyZ.Max &&
		theta > d.HealthyAngle.Min && theta < d.HealthyAngle.Max
}

func (d *Quadrotor2D) ControlBounds() (low, high []float64) {
	return []float64{0, 0}, []float64{d.MaxThrust, d.MaxThrust}
}

func (d *Quadrotor2D) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":       d.Mass,
		"gravity":    d.Gravity,
		"drag":       d.DragCoeff,
		"ang_drag":   d.AngDrag,
		"arm_length": d.ArmLength,
		"inertia":    d.Inertia,
	}
}

func (d *Quadrotor2D) SetParam(name string, value float64) error {
	switch name {
	case "mass", "inertia":
		if value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", dynamo.ErrParameterBounds, name, value)
		}
		if name == "mass" {
			d.Mass = value
		} else {
			d.Inertia = value
		}
	case "gravity":
		d.Gravity = value
	case "drag":
		d.DragCoeff = value
	case "ang_drag":
		d.AngDrag = value
	case "arm_length":
		d.ArmLength = value
	default:
		return dynamo.UnknownParam(name)
	}
	return nil
}
