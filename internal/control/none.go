package control

import (
	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/randomness"
	"github.com/san-kum/stablegym/internal/spaces"
)

type Policy interface {
	Compute(obs dynamo.State, t float64) dynamo.Control
}

// Resetter is implemented by policies with per-episode memory.
type Resetter interface {
	Reset()
}

type None struct {
	dim int
}

func NewNone(dim int) *None {
	return &None{
		dim: dim,
	}
}

func (n *None) Compute(x dynamo.State, t float64) dynamo.Control {
	return make(dynamo.Control, n.dim)
}

type Constant struct {
	U dynamo.Control
}

func NewConstant(u []float64) *Constant {
	return &Constant{U: dynamo.Control(u).Clone()}
}

func (c *Constant) Compute(x dynamo.State, t float64) dynamo.Control {
	return c.U.Clone()
}

// Random samples actions uniformly from a box.
type Random struct {
	space spaces.Box
	rng   *randomness.Source
}

func NewRandom(space spaces.Box, seed uint64) *Random {
	return &Random{space: space, rng: randomness.NewSeeded(seed)}
}

func (r *Random) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control(r.space.Sample(r.rng))
}
