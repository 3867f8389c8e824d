package envs

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/san-kum/stablegym/internal/cost"
	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/gym"
	"github.com/san-kum/stablegym/internal/integrators"
	"github.com/san-kum/stablegym/internal/physics"
	"github.com/san-kum/stablegym/internal/reference"
	"github.com/san-kum/stablegym/internal/spaces"
)

const OscillatorName = "Oscillator"

// OscillatorInitState is the start state used when random init is disabled.
var OscillatorInitState = dynamo.State{0.8, 1.5, 0.5, 3.3, 3, 3}

type OscillatorConfig struct {
	Common
	Dt        float64
	Reference reference.Sinusoid
	// Noise holds the half-widths δ1..δ6 of the uniform noise added to each
	// state after the Euler step.
	Noise                 [6]float64
	ExcludeReference      bool
	ExcludeReferenceError bool
	// Integrator defaults to explicit Euler.
	Integrator dynamo.Integrator
	InitLow    []float64
	InitHigh   []float64
}

func DefaultOscillatorConfig() OscillatorConfig {
	return OscillatorConfig{
		Common: defaultCommon(),
		Dt:     1.0,
		Reference: reference.Sinusoid{
			Target:    8,
			Amplitude: 7,
			Frequency: 1.0 / 200,
		},
		ExcludeReferenceError: true,
		InitLow:               []float64{0, 0, 0, 0, 0, 0},
		InitHigh:              []float64{5, 5, 5, 5, 5, 5},
	}
}

// Oscillator drives protein 1 of a synthetic gene network along a reference
// with three transcription inputs. Cost is (p1 − r(t))².
type Oscillator struct {
	base
	cfg   OscillatorConfig
	net   *physics.OscillatorNetwork
	integ dynamo.Integrator
	eval  cost.Evaluator
	state dynamo.State
}

func NewOscillator(cfg OscillatorConfig) (*Oscillator, error) {
	if err := cfg.Reference.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Reference.IsConstant() && cfg.ExcludeReference && cfg.ExcludeReferenceError {
		return nil, fmt.Errorf("%w: a time-varying reference must be observable through the reference or its error", dynamo.ErrParameterBounds)
	}
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %v", dynamo.ErrParameterBounds, cfg.Dt)
	}
	if cfg.Integrator == nil {
		cfg.Integrator = integrators.NewEuler()
	}

	obs := spaces.Uniform(6, 0, 100, spaces.Float64)
	if !cfg.ExcludeReference {
		obs = obs.Concat(spaces.Uniform(1, 0, 100, spaces.Float64))
	}
	if !cfg.ExcludeReferenceError {
		obs = obs.Concat(spaces.Uniform(1, -100, 100, spaces.Float64))
	}
	act := spaces.Uniform(3, -5, 5, spaces.Float64)

	return &Oscillator{
		base:  newBase(OscillatorName, cfg.Common, obs, act, cfg.Dt),
		cfg:   cfg,
		net:   physics.NewOscillatorNetwork(),
		integ: cfg.Integrator,
		eval:  cost.NewEvaluator(),
	}, nil
}

func (o *Oscillator) RewardRange() r1.Interval { return o.eval.Range }

// State returns a copy of [m1, m2, m3, p1, p2, p3].
func (o *Oscillator) State() dynamo.State { return o.state.Clone() }

// Network exposes the underlying model for inspection.
func (o *Oscillator) Network() *physics.OscillatorNetwork { return o.net }

func (o *Oscillator) Reset(seed *uint64, opts *gym.ResetOptions) (dynamo.State, cost.Info, error) {
	low, high, err := gym.ResolveResetBounds(o.obs, 6, opts, o.cfg.InitLow, o.cfg.InitHigh)
	if err != nil {
		return nil, cost.Info{}, err
	}
	o.rng.Reseed(seed)

	if opts != nil && opts.FixedInit {
		o.state = OscillatorInitState.Clone()
	} else {
		o.state = dynamo.State(o.rng.UniformVec(low, high))
	}
	o.ready()

	r := o.cfg.Reference.Value(o.t)
	return o.observe(r), cost.NewInfo(r, o.state[3]), nil
}

func (o *Oscillator) Step(u dynamo.Control) (gym.Transition, error) {
	u, err := o.beginStep(u)
	if err != nil {
		return gym.Transition{}, err
	}

	next := o.integ.Step(o.net, o.state, u, o.t, o.dt)
	for i, delta := range o.cfg.Noise {
		if delta != 0 {
			next[i] += o.rng.Uniform(-delta, delta)
		}
	}
	next.ClampMin(0)
	if !next.IsValid() {
		return gym.Transition{}, o.invalid(next)
	}

	o.state = next
	o.t += o.dt

	r := o.cfg.Reference.Value(o.t)
	p1 := o.state[3]
	c := o.eval.Evaluate(cost.SquaredError([]float64{p1}, []float64{r}), u, true).Total()
	terminated := o.eval.Terminated(c)
	o.finishStep(terminated)

	return gym.Transition{
		Observation: o.observe(r),
		Action:      u,
		Cost:        c,
		Terminated:  terminated,
		Info:        cost.NewInfo(r, p1),
	}, nil
}

func (o *Oscillator) observe(r float64) dynamo.State {
	obs := o.state.Clone()
	if !o.cfg.ExcludeReference {
		obs = append(obs, r)
	}
	if !o.cfg.ExcludeReferenceError {
		obs = append(obs, o.state[3]-r)
	}
	return obs
}

func (o *Oscillator) GetParams() map[string]float64 {
	params := o.net.GetParams()
	for name, v := range o.cfg.Reference.GetParams() {
		params[name] = v
	}
	for i, d := range o.cfg.Noise {
		params["delta"+strconv.Itoa(i+1)] = d
	}
	return params
}

func (o *Oscillator) SetParam(name string, value float64) error {
	if n, ok := noiseIndex(name); ok {
		if value < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %v", dynamo.ErrParameterBounds, name, value)
		}
		o.cfg.Noise[n] = value
		return nil
	}
	if _, ok := o.cfg.Reference.GetParams()[name]; ok {
		return o.cfg.Reference.SetParam(name, value)
	}
	return o.net.SetParam(name, value)
}

// ResetParams restores the default network parameters.
func (o *Oscillator) ResetParams() { o.net.ResetParams() }

func noiseIndex(name string) (int, bool) {
	if len(name) != len("delta1") || name[:5] != "delta" {
		return 0, false
	}
	n := int(name[5] - '1')
	if n < 0 || n > 5 {
		return 0, false
	}
	return n, true
}
