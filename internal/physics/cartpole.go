package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/stablegym/internal/dynamo"
)

// Kinematics selects how CartPole.Step integrates the accelerations.
type Kinematics string

const (
	KinematicsEuler        Kinematics = "euler"
	KinematicsFriction     Kinematics = "friction"
	KinematicsSemiImplicit Kinematics = "semi-implicit"
)

func ParseKinematics(s string) (Kinematics, error) {
	switch k := Kinematics(s); k {
	case KinematicsEuler, KinematicsFriction, KinematicsSemiImplicit:
		return k, nil
	}
	return "", fmt.Errorf("unknown kinematics integrator: %s", s)
}

// CartPole has state [x, ẋ, θ, θ̇]. Length is half the pole length.
type CartPole struct {
	CartMass   float64
	PoleMass   float64
	PoleLength float64
	Gravity    float64
	// CartFriction is the viscous friction used by KinematicsFriction.
	CartFriction float64
}

func NewCartPole() *CartPole {
	return &CartPole{
		CartMass:     1.0,
		PoleMass:     0.1,
		PoleLength:   0.5,
		Gravity:      9.8,
		CartFriction: 0.1,
	}
}

func (c *CartPole) StateDim() int {
	return 4
}

func (c *CartPole) ControlDim() int {
	return 1
}

func (c *CartPole) totalMass() float64 { return c.CartMass + c.PoleMass }

// accelerations returns the cart and pole accelerations and the shared
// intermediate term.
func (c *CartPole) accelerations(x dynamo.State, force float64) (xacc, thetaacc, temp float64) {
	theta, omega := x[2], x[3]

	mp := c.PoleMass
	l := c.PoleLength
	mt := c.totalMass()

	sint := math.Sin(theta)
	cost := math.Cos(theta)

	temp = (force + mp*l*omega*omega*sint) / mt
	thetaacc = (c.Gravity*sint - cost*temp) / (l * (4.0/3.0 - mp*cost*cost/mt))
	xacc = temp - mp*l*thetaacc*cost/mt
	return xacc, thetaacc, temp
}

func (c *CartPole) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	force := 0.0
	if len(u) > 0 {
		force = u[0]
	}
	xacc, thetaacc, _ := c.accelerations(x, force)
	return dynamo.State{x[1], xacc, x[3], thetaacc}
}

// Step advances the cart-pole by tau with the chosen kinematics.
func (c *CartPole) Step(x dynamo.State, force, tau float64, k Kinematics) dynamo.State {
	pos, vel, theta, omega := x[0], x[1], x[2], x[3]
	xacc, thetaacc, temp := c.accelerations(x, force)

	switch k {
	case KinematicsFriction:
		xacc = -c.CartFriction*vel/c.totalMass() + temp - c.PoleMass*c.PoleLength*thetaacc*math.Cos(theta)/c.totalMass()
		pos += tau * vel
		vel += tau * xacc
		omega += tau * thetaacc
		theta += tau * omega
	case KinematicsSemiImplicit:
		vel += tau * xacc
		pos += tau * vel
		omega += tau * thetaacc
		theta += tau * omega
	default:
		pos += tau * vel
		vel += tau * xacc
		theta += tau * omega
		omega += tau * thetaacc
	}
	return dynamo.State{pos, vel, theta, omega}
}

func (c *CartPole) GetParams() map[string]float64 {
	return map[string]float64{
		"length":    c.PoleLength,
		"mass_cart": c.CartMass,
		"mass_pole": c.PoleMass,
		"gravity":   c.Gravity,
	}
}

func (c *CartPole) SetParam(name string, value float64) error {
	switch name {
	case "length":
		if value <= 0 {
			return fmt.Errorf("%w: length must be positive, got %v", dynamo.ErrParameterBounds, value)
		}
		c.PoleLength = value
	case "mass_cart", "mass_pole":
		if value < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %v", dynamo.ErrParameterBounds, name, value)
		}
		if name == "mass_cart" {
			c.CartMass = value
		} else {
			c.PoleMass = value
		}
	case "gravity":
		c.Gravity = value
	default:
		return dynamo.UnknownParam(name)
	}
	return nil
}

// ResetParams restores the default masses, length and gravity.
func (c *CartPole) ResetParams() {
	d := NewCartPole()
	c.CartMass, c.PoleMass, c.PoleLength, c.Gravity = d.CartMass, d.PoleMass, d.PoleLength, d.Gravity
}
