package gym

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/spaces"
)

// ActionGuard enforces the action space. With Clip set, out-of-space actions
// are clipped and a warning is logged once per guard; otherwise they are
// rejected with ErrActionOutOfBounds.
type ActionGuard struct {
	Space  spaces.Box
	Clip   bool
	logger *slog.Logger
	warned bool
}

func NewActionGuard(space spaces.Box, clip bool, logger *slog.Logger) *ActionGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionGuard{Space: space, Clip: clip, logger: logger}
}

func (g *ActionGuard) Apply(u dynamo.Control) (dynamo.Control, error) {
	if err := dynamo.CheckDim("action", len(u), g.Space.Shape()); err != nil {
		return nil, err
	}
	if g.Space.Contains(u) {
		return u.Clone(), nil
	}
	if !g.Clip {
		return nil, fmt.Errorf("%w: %v not in [%v, %v]", dynamo.ErrActionOutOfBounds, []float64(u), g.Space.Low, g.Space.High)
	}
	if !g.warned {
		g.logger.Warn("action clipped to action space",
			"action", []float64(u),
			"low", g.Space.Low,
			"high", g.Space.High,
		)
		g.warned = true
	}
	return dynamo.Control(g.Space.Clip(u)), nil
}
