package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/stablegym/internal/dynamo"
)

// Euler performs one explicit Euler step: x + dt·f(x, u, t). The oscillator
// environment is defined by this scheme.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	next := x.Clone()
	floats.AddScaled(next, dt, dyn.Derive(x, u, t))
	return next
}
