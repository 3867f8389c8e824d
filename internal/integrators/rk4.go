package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/stablegym/internal/dynamo"
)

// RK4 is the classical fourth-order Runge-Kutta scheme. Stage buffers are
// reused between steps, so an RK4 value must not be shared across goroutines.
type RK4 struct {
	k      [4]dynamo.State
	stage  dynamo.State
	weight [4]float64
}

func NewRK4() *RK4 {
	return &RK4{weight: [4]float64{1, 2, 2, 1}}
}

func (r *RK4) resize(n int) {
	if len(r.stage) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.resize(len(x))

	// Stage i is evaluated at x + c_i·dt·k_{i-1}.
	offsets := [4]float64{0, dt / 2, dt / 2, dt}
	for i := range r.k {
		if i == 0 {
			copy(r.stage, x)
		} else {
			floats.AddScaledTo(r.stage, x, offsets[i], r.k[i-1])
		}
		copy(r.k[i], dyn.Derive(r.stage, u, t+offsets[i]))
	}

	next := x.Clone()
	for i, k := range r.k {
		floats.AddScaled(next, dt*r.weight[i]/6, k)
	}
	return next
}
