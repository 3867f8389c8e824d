package control

import "github.com/san-kum/stablegym/internal/dynamo"

// LQR applies u = Offset − K(x − Target). Observation elements beyond the
// width of K are ignored.
type LQR struct {
	K      [][]float64
	Target dynamo.State
	Offset dynamo.Control
}

func NewLQR(k [][]float64, target dynamo.State) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) Compute(x dynamo.State, t float64) dynamo.Control {
	u := make(dynamo.Control, len(l.K))
	for i := range u {
		if i < len(l.Offset) {
			u[i] = l.Offset[i]
		}
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			if j < len(l.K[i]) {
				u[i] -= l.K[i][j] * (x[j] - target)
			}
		}
	}
	return u
}

var cartpoleGains = [][]float64{{-1.0, -1.73, -35.36, -8.94}}

// NewCartPoleLQR balances the pole upright at the origin. Positive force
// corrects a positive pole angle.
func NewCartPoleLQR() *LQR {
	return NewLQR(cartpoleGains, dynamo.State{0, 0, 0, 0})
}

// NewQuadrotorHoverLQR holds a planar quadrotor level at height targetZ.
// It reads observations laid out as [z, θ, vx, vz, ω, ...] and commands
// [left, right] thrust around the hover thrust.
func NewQuadrotorHoverLQR(targetZ, hoverThrust float64) *LQR {
	k := [][]float64{
		{5.0, -10.0, 0.0, 3.5, -2.0},
		{5.0, 10.0, 0.0, 3.5, 2.0},
	}
	l := NewLQR(k, dynamo.State{targetZ, 0, 0, 0, 0})
	l.Offset = dynamo.Control{hoverThrust, hoverThrust}
	return l
}
