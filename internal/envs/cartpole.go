package envs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/san-kum/stablegym/internal/cost"
	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/gym"
	"github.com/san-kum/stablegym/internal/physics"
	"github.com/san-kum/stablegym/internal/spaces"
)

const CartPoleName = "CartPoleCost"

// CartPoleInitState is the start state used when random init is disabled.
var CartPoleInitState = dynamo.State{0.1, 0.2, 0.3, 0.1}

// FailureCost replaces the cost of a step that leaves the safe region.
const FailureCost = 100.0

type CartPoleCostType string

const (
	CostStabilization CartPoleCostType = "stabilization"
	CostReference     CartPoleCostType = "reference"
)

type CartPoleConfig struct {
	Common
	Tau        float64
	ForceMag   float64
	Kinematics physics.Kinematics
	CostType   CartPoleCostType
	// ThetaThreshold and XThreshold bound the safe region.
	ThetaThreshold float64
	XThreshold     float64
	MaxV, MaxW     float64
	// ConstraintPos is the position beyond which a constraint violation is
	// flagged in the step info.
	ConstraintPos float64
	TargetPos     float64
	InitLow       []float64
	InitHigh      []float64
}

func DefaultCartPoleConfig() CartPoleConfig {
	return CartPoleConfig{
		Common:         defaultCommon(),
		Tau:            0.02,
		ForceMag:       20,
		Kinematics:     physics.KinematicsEuler,
		CostType:       CostStabilization,
		ThetaThreshold: 20 * 2 * math.Pi / 360,
		XThreshold:     6,
		MaxV:           50,
		MaxW:           50,
		ConstraintPos:  4,
		InitLow:        []float64{-5, -0.2, -0.2, -0.2},
		InitHigh:       []float64{5, 0.2, 0.2, 0.2},
	}
}

// CartPole balances a pole on a cart. Leaving the position or angle
// threshold ends the episode with FailureCost.
type CartPole struct {
	base
	cfg   CartPoleConfig
	pole  *physics.CartPole
	state dynamo.State
}

func NewCartPole(cfg CartPoleConfig) (*CartPole, error) {
	if cfg.Tau <= 0 {
		return nil, fmt.Errorf("%w: tau must be positive, got %v", dynamo.ErrParameterBounds, cfg.Tau)
	}
	if _, err := physics.ParseKinematics(string(cfg.Kinematics)); err != nil {
		return nil, err
	}
	if cfg.CostType != CostStabilization && cfg.CostType != CostReference {
		return nil, fmt.Errorf("unknown cost type: %s", cfg.CostType)
	}

	high := []float64{cfg.XThreshold * 2, cfg.MaxV, cfg.ThetaThreshold * 2, cfg.MaxW}
	low := make([]float64, len(high))
	for i, h := range high {
		low[i] = -h
	}
	obs := spaces.Box{Low: low, High: high, DType: spaces.Float32}
	act := spaces.Uniform(1, -cfg.ForceMag, cfg.ForceMag, spaces.Float32)

	return &CartPole{
		base: newBase(CartPoleName, cfg.Common, obs, act, cfg.Tau),
		cfg:  cfg,
		pole: physics.NewCartPole(),
	}, nil
}

func (c *CartPole) RewardRange() r1.Interval {
	return r1.Interval{Min: 0, Max: math.MaxFloat32}
}

func (c *CartPole) State() dynamo.State { return c.state.Clone() }

// Model exposes the cart-pole parameters.
func (c *CartPole) Model() *physics.CartPole { return c.pole }

// stepCost returns the step cost and the normalised position and angle
// references.
func (c *CartPole) stepCost(x, theta float64) (float64, float64, float64) {
	xs := c.cfg.XThreshold / 10
	ts := c.cfg.ThetaThreshold / 4
	refX := (xs - math.Abs(x-c.cfg.TargetPos)) / xs
	refTheta := (ts - math.Abs(theta)) / ts

	if c.cfg.CostType == CostReference {
		return 20*sign(refTheta)*refTheta*refTheta + sign(refX)*refX*refX, refX, refTheta
	}
	return x*x/100 + 20*(theta/c.cfg.ThetaThreshold)*(theta/c.cfg.ThetaThreshold), refX, refTheta
}

func (c *CartPole) Reset(seed *uint64, opts *gym.ResetOptions) (dynamo.State, cost.Info, error) {
	low, high, err := gym.ResolveResetBounds(c.obs, 4, opts, c.cfg.InitLow, c.cfg.InitHigh)
	if err != nil {
		return nil, cost.Info{}, err
	}
	c.rng.Reseed(seed)

	if opts != nil && opts.FixedInit {
		c.state = CartPoleInitState.Clone()
	} else {
		c.state = dynamo.State(c.rng.UniformVec(low, high))
	}
	c.ready()

	_, refX, refTheta := c.stepCost(c.state[0], c.state[2])
	return c.state.Clone(), c.info(refX, refTheta), nil
}

func (c *CartPole) Step(u dynamo.Control) (gym.Transition, error) {
	u, err := c.beginStep(u)
	if err != nil {
		return gym.Transition{}, err
	}

	next := c.pole.Step(c.state, u[0], c.dt, c.cfg.Kinematics)
	if !next.IsValid() {
		return gym.Transition{}, c.invalid(next)
	}
	c.state = next
	c.t += c.dt

	x, theta := next[0], next[2]
	value, refX, refTheta := c.stepCost(x, theta)

	terminated := math.Abs(x) > c.cfg.XThreshold ||
		math.Abs(theta) > c.cfg.ThetaThreshold ||
		cost.OutOfRange(value, c.RewardRange())
	if terminated {
		value = FailureCost
	}
	c.finishStep(terminated)

	return gym.Transition{
		Observation: c.state.Clone(),
		Action:      u,
		Cost:        value,
		Terminated:  terminated,
		Info:        c.info(refX, refTheta),
	}, nil
}

func (c *CartPole) info(refX, refTheta float64) cost.Info {
	x, theta := c.state[0], c.state[2]
	info := cost.NewInfo(0, theta)
	info.Terms["cons_pos"] = c.cfg.ConstraintPos
	info.Terms["cons_theta"] = c.cfg.ThetaThreshold
	info.Terms["target"] = c.cfg.TargetPos
	info.Terms["violation_of_x_threshold"] = flag(math.Abs(x) > c.cfg.XThreshold)
	info.Terms["violation_of_constraint"] = flag(math.Abs(x) > c.cfg.ConstraintPos)
	info.Terms["reference_x"] = refX
	info.Terms["reference_theta"] = refTheta
	return info
}

func (c *CartPole) GetParams() map[string]float64 { return c.pole.GetParams() }

func (c *CartPole) SetParam(name string, value float64) error {
	return c.pole.SetParam(name, value)
}

// ResetParams restores the default physical parameters.
func (c *CartPole) ResetParams() { c.pole.ResetParams() }

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
