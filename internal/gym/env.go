// Package gym defines the environment contract shared by every cost
// environment together with the small pieces of machinery each of them
// needs: the reset/step lifecycle, action clipping, reset-bound validation,
// instance numbering and episode time limits.
//
// # Contract
//
//	obs, info, err := env.Reset(&seed, nil)
//	for !tr.Terminated && !tr.Truncated {
//	    tr, err = env.Step(u)
//	}
//
// Costs are non-negative and lower is better. Step before the first Reset
// returns [dynamo.ErrNotReset].
//
// # Thread Safety
//
// Environments are single-owner and NOT safe for concurrent use. Run one
// environment per goroutine; [Registry] is the only shared value.
package gym

import (
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/san-kum/stablegym/internal/cost"
	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/spaces"
)

type Env interface {
	// Reset starts a new episode. A non-nil seed reseeds the environment's
	// random source; nil continues the current stream.
	Reset(seed *uint64, opts *ResetOptions) (dynamo.State, cost.Info, error)
	Step(u dynamo.Control) (Transition, error)
	ObservationSpace() spaces.Box
	ActionSpace() spaces.Box
	RewardRange() r1.Interval
	Dt() float64
	Time() float64
	Render() error
	ID() int
}

// ResetOptions overrides the initial state sampling for one reset.
type ResetOptions struct {
	Low  []float64
	High []float64
	// FixedInit starts from the environment's documented initial state
	// instead of sampling.
	FixedInit bool
}

type Transition struct {
	Observation dynamo.State
	// Action is the action applied after the action guard, which differs from
	// the requested one when clipping kicked in.
	Action      dynamo.Control
	Cost        float64
	Terminated  bool
	Truncated   bool
	Info        cost.Info
}

// Unwrap strips wrappers that expose Unwrap and returns the innermost
// environment.
func Unwrap(env Env) Env {
	for {
		w, ok := env.(interface{ Unwrap() Env })
		if !ok {
			return env
		}
		env = w.Unwrap()
	}
}
