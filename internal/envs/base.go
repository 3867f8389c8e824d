package envs

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/gym"
	"github.com/san-kum/stablegym/internal/randomness"
	"github.com/san-kum/stablegym/internal/spaces"
)

// Common holds the construction options every environment accepts.
type Common struct {
	// Registry numbers the instance. Nil uses gym.DefaultRegistry.
	Registry *gym.Registry
	Logger   *slog.Logger
	// ClipAction clips out-of-space actions with a one-time warning instead
	// of rejecting them.
	ClipAction bool
}

func defaultCommon() Common {
	return Common{ClipAction: true}
}

// base carries the bookkeeping shared by all environments.
type base struct {
	name   string
	id     int
	logger *slog.Logger
	rng    *randomness.Source
	life   *gym.Lifecycle
	guard  *gym.ActionGuard
	obs    spaces.Box
	act    spaces.Box
	dt     float64
	t      float64
	steps  int
}

func newBase(name string, c Common, obs, act spaces.Box, dt float64) base {
	reg := c.Registry
	if reg == nil {
		reg = gym.DefaultRegistry
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := reg.Next()
	logger = logger.With("env", name, "id", id)
	logger.Debug("instance created")

	return base{
		name:   name,
		id:     id,
		logger: logger,
		rng:    randomness.New(),
		life:   gym.NewLifecycle(logger),
		guard:  gym.NewActionGuard(act, c.ClipAction, logger),
		obs:    obs,
		act:    act,
		dt:     dt,
	}
}

func (b *base) ObservationSpace() spaces.Box { return b.obs }
func (b *base) ActionSpace() spaces.Box      { return b.act }
func (b *base) Dt() float64                  { return b.dt }
func (b *base) Time() float64                { return b.t }
func (b *base) ID() int                      { return b.id }
func (b *base) Name() string                 { return b.name }

// Tau is an alias for Dt.
func (b *base) Tau() float64 { return b.dt }

// PhysicsTime is an alias for Time.
func (b *base) PhysicsTime() float64 { return b.t }

func (b *base) Render() error {
	return fmt.Errorf("%w: rendering %s", dynamo.ErrNotImplemented, b.name)
}

// beginStep checks the lifecycle and the action.
func (b *base) beginStep(u dynamo.Control) (dynamo.Control, error) {
	if err := b.life.CheckStep(); err != nil {
		return nil, err
	}
	return b.guard.Apply(u)
}

// ready marks the start of a new episode once a reset has succeeded.
func (b *base) ready() {
	b.t = 0
	b.steps = 0
	b.life.Reset()
}

// finishStep advances the clock and records termination.
func (b *base) finishStep(terminated bool) {
	b.steps++
	b.life.Observe(terminated)
}

func (b *base) invalid(x dynamo.State) error {
	return &dynamo.SimulationError{Step: b.steps, Time: b.t, State: x.Clone(), Wrapped: dynamo.ErrInvalidState}
}
