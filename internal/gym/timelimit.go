package gym

import (
	"github.com/san-kum/stablegym/internal/cost"
	"github.com/san-kum/stablegym/internal/dynamo"
)

// TimeLimit truncates episodes after MaxSteps steps.
type TimeLimit struct {
	Env
	MaxSteps int
	elapsed  int
}

func NewTimeLimit(env Env, maxSteps int) *TimeLimit {
	return &TimeLimit{Env: env, MaxSteps: maxSteps}
}

func (w *TimeLimit) Reset(seed *uint64, opts *ResetOptions) (dynamo.State, cost.Info, error) {
	w.elapsed = 0
	return w.Env.Reset(seed, opts)
}

func (w *TimeLimit) Step(u dynamo.Control) (Transition, error) {
	tr, err := w.Env.Step(u)
	if err != nil {
		return tr, err
	}
	w.elapsed++
	if w.MaxSteps > 0 && w.elapsed >= w.MaxSteps {
		tr.Truncated = true
	}
	return tr, nil
}

func (w *TimeLimit) Elapsed() int { return w.elapsed }

func (w *TimeLimit) Unwrap() Env { return w.Env }
