package envs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/san-kum/stablegym/internal/cost"
	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/gym"
	"github.com/san-kum/stablegym/internal/integrators"
	"github.com/san-kum/stablegym/internal/physics"
	"github.com/san-kum/stablegym/internal/reference"
	"github.com/san-kum/stablegym/internal/spaces"
)

const VelocityTrackingName = "VelocityTracking"

// Body is a locomotion model whose forward velocity is tracked. The first
// state element must be the forward position.
type Body interface {
	dynamo.System
	dynamo.Configurable
	InitialState() dynamo.State
	ForwardVelocity(x dynamo.State) float64
	Healthy(x dynamo.State) bool
	ControlBounds() (low, high []float64)
}

type VelocityTrackingConfig struct {
	Common
	// Body defaults to a planar quadrotor.
	Body       Body
	Integrator dynamo.Integrator
	Dt         float64

	ReferenceForwardVelocity float64
	RandomiseReference       bool
	RandomiseRange           reference.UniformResampler

	ForwardVelocityWeight  float64
	IncludeCtrlCost        bool
	CtrlCostWeight         float64
	IncludeHealthPenalty   bool
	HealthPenaltySize      float64
	TerminateWhenUnhealthy bool
	ResetNoiseScale        float64

	ExcludeCurrentPositions bool
	ExcludeReference        bool
	ExcludeReferenceError   bool
	ExcludeXVelocity        bool
}

func DefaultVelocityTrackingConfig() VelocityTrackingConfig {
	return VelocityTrackingConfig{
		Common:                   defaultCommon(),
		Dt:                       0.02,
		ReferenceForwardVelocity: 1.0,
		RandomiseRange:           reference.UniformResampler{Low: 0.5, High: 1.5},
		ForwardVelocityWeight:    1.0,
		CtrlCostWeight:           1e-3,
		IncludeHealthPenalty:     true,
		HealthPenaltySize:        10,
		TerminateWhenUnhealthy:   true,
		ResetNoiseScale:          5e-3,
		ExcludeCurrentPositions:  true,
		ExcludeReferenceError:    true,
	}
}

// VelocityTracking penalises the squared difference between the body's
// forward velocity and a reference velocity, with optional control and
// health terms.
type VelocityTracking struct {
	base
	cfg   VelocityTrackingConfig
	body  Body
	integ dynamo.Integrator
	eval  cost.Evaluator
	ref   reference.Constant
	state dynamo.State
}

func NewVelocityTracking(cfg VelocityTrackingConfig) (*VelocityTracking, error) {
	if cfg.RandomiseReference && cfg.ExcludeReference && cfg.ExcludeReferenceError {
		return nil, fmt.Errorf("%w: a randomised reference must be observable through the reference or its error", dynamo.ErrParameterBounds)
	}
	if cfg.RandomiseReference {
		if err := cfg.RandomiseRange.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %v", dynamo.ErrParameterBounds, cfg.Dt)
	}
	if cfg.Body == nil {
		cfg.Body = physics.NewQuadrotor2D()
	}
	if cfg.Integrator == nil {
		cfg.Integrator = integrators.NewEuler()
	}

	n := cfg.Body.StateDim()
	if cfg.ExcludeCurrentPositions {
		n--
	}
	for _, excluded := range []bool{cfg.ExcludeReference, cfg.ExcludeReferenceError, cfg.ExcludeXVelocity} {
		if !excluded {
			n++
		}
	}
	obs := spaces.Uniform(n, math.Inf(-1), math.Inf(1), spaces.Float64)
	low, high := cfg.Body.ControlBounds()
	act, err := spaces.NewBox(low, high, spaces.Float32)
	if err != nil {
		return nil, fmt.Errorf("body control bounds: %w", err)
	}

	eval := cost.NewEvaluator()
	eval.Weight = cfg.ForwardVelocityWeight
	eval.IncludeCtrl = cfg.IncludeCtrlCost
	eval.CtrlWeight = cfg.CtrlCostWeight
	eval.IncludeHealth = cfg.IncludeHealthPenalty
	eval.HealthPenalty = cfg.HealthPenaltySize
	eval.Range = r1.Interval{Min: 0, Max: math.Inf(1)}

	return &VelocityTracking{
		base:  newBase(VelocityTrackingName, cfg.Common, obs, act, cfg.Dt),
		cfg:   cfg,
		body:  cfg.Body,
		integ: cfg.Integrator,
		eval:  eval,
		ref:   reference.Constant{Target: cfg.ReferenceForwardVelocity},
	}, nil
}

func (v *VelocityTracking) RewardRange() r1.Interval { return v.eval.Range }

func (v *VelocityTracking) State() dynamo.State { return v.state.Clone() }

// ReferenceVelocity is the velocity tracked in the current episode.
func (v *VelocityTracking) ReferenceVelocity() float64 { return v.ref.Target }

func (v *VelocityTracking) Body() Body { return v.body }

func (v *VelocityTracking) Reset(seed *uint64, opts *gym.ResetOptions) (dynamo.State, cost.Info, error) {
	if opts != nil && (opts.Low != nil || opts.High != nil) {
		v.logger.Warn("reset bounds are not used by this environment")
	}
	v.rng.Reseed(seed)

	x := v.body.InitialState()
	if opts == nil || !opts.FixedInit {
		s := v.cfg.ResetNoiseScale
		for i := range x {
			x[i] += v.rng.Uniform(-s, s)
		}
	}
	v.state = x

	// The reset cost terms use the previous episode's reference.
	ref := v.ref.Value(v.t)
	b := v.eval.Evaluate(ref*ref, nil, v.body.Healthy(x))
	if v.cfg.RandomiseReference {
		v.ref = v.cfg.RandomiseRange.Draw(v.rng)
	}
	v.ready()

	return v.observe(0), v.info(b, 0, 0), nil
}

func (v *VelocityTracking) Step(u dynamo.Control) (gym.Transition, error) {
	u, err := v.beginStep(u)
	if err != nil {
		return gym.Transition{}, err
	}

	next := v.integ.Step(v.body, v.state, u, v.t, v.dt)
	if !next.IsValid() {
		return gym.Transition{}, v.invalid(next)
	}
	v.state = next
	v.t += v.dt

	vx := v.body.ForwardVelocity(next)
	ref := v.ref.Value(v.t)
	healthy := v.body.Healthy(next)
	b := v.eval.Evaluate(cost.SquaredError([]float64{vx}, []float64{ref}), u, healthy)
	terminated := v.cfg.TerminateWhenUnhealthy && !healthy
	v.finishStep(terminated)

	return gym.Transition{
		Observation: v.observe(vx),
		Action:      u,
		Cost:        b.Total(),
		Terminated:  terminated,
		Info:        v.info(b, v.eval.CtrlWeight*u.SquaredNorm(), vx),
	}, nil
}

// observe returns the body state extended with the tracking quantities. vx
// is passed in so reset can report zero velocity.
func (v *VelocityTracking) observe(vx float64) dynamo.State {
	obs := v.state.Clone()
	if v.cfg.ExcludeCurrentPositions {
		obs = obs[1:]
	}
	ref := v.ref.Value(v.t)
	if !v.cfg.ExcludeReference {
		obs = append(obs, ref)
	}
	if !v.cfg.ExcludeReferenceError {
		obs = append(obs, vx-ref)
	}
	if !v.cfg.ExcludeXVelocity {
		obs = append(obs, vx)
	}
	return obs
}

func (v *VelocityTracking) info(b cost.Breakdown, ctrl, vx float64) cost.Info {
	info := cost.NewInfo(v.ref.Value(v.t), vx)
	info.Terms["cost_velocity"] = b.Base
	info.Terms["cost_ctrl"] = ctrl
	info.Terms["penalty_health"] = b.Health
	return info
}

func (v *VelocityTracking) GetParams() map[string]float64 {
	params := v.body.GetParams()
	params["reference_forward_velocity"] = v.ref.Target
	params["forward_velocity_weight"] = v.eval.Weight
	params["ctrl_cost_weight"] = v.eval.CtrlWeight
	params["health_penalty_size"] = v.eval.HealthPenalty
	return params
}

func (v *VelocityTracking) SetParam(name string, value float64) error {
	switch name {
	case "reference_forward_velocity":
		v.ref.Target = value
	case "forward_velocity_weight":
		v.eval.Weight = value
	case "ctrl_cost_weight":
		v.eval.CtrlWeight = value
	case "health_penalty_size":
		v.eval.HealthPenalty = value
	default:
		return v.body.SetParam(name, value)
	}
	return nil
}
