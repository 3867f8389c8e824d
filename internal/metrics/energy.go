package metrics

import (
	"math"

	"github.com/san-kum/stablegym/internal/sim"
)

// Energy is the mean mechanical energy of a pendulum whose angle and rate
// sit at ThetaIndex and OmegaIndex of the observation.
type Energy struct {
	ThetaIndex int
	OmegaIndex int

	mass        float64
	length      float64
	gravity     float64
	samples     int
	totalEnergy float64
}

func NewEnergy(mass, length, gravity float64, thetaIdx, omegaIdx int) *Energy {
	return &Energy{
		ThetaIndex: thetaIdx,
		OmegaIndex: omegaIdx,
		mass:       mass,
		length:     length,
		gravity:    gravity,
	}
}

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Observe(s sim.Sample) {
	x := s.Observation
	if e.ThetaIndex >= len(x) || e.OmegaIndex >= len(x) {
		return
	}
	theta, omega := x[e.ThetaIndex], x[e.OmegaIndex]
	ke := 0.5 * e.mass * e.length * e.length * omega * omega
	pe := e.mass * e.gravity * e.length * (1 - math.Cos(theta))
	e.totalEnergy += ke + pe
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}
