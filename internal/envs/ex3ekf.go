package envs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/san-kum/stablegym/internal/cost"
	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/gym"
	"github.com/san-kum/stablegym/internal/physics"
	"github.com/san-kum/stablegym/internal/spaces"
)

const Ex3EKFName = "Ex3EKF"

type Ex3EKFConfig struct {
	Common
	Dt float64
	// Q1 scales the process noise covariance
	// q1·[[dt³/3, dt²/2], [dt²/2, dt]].
	Q1      float64
	Gravity float64
	Length  float64
	// Mean2 and Cov2 parameterise the measurement noise N(mean2, cov2).
	Mean2       float64
	Cov2        float64
	MissingRate float64
	// InputAmplitude scales the known input a·cos(t)·dt applied to both the
	// plant and the estimator.
	InputAmplitude float64
}

func DefaultEx3EKFConfig() Ex3EKFConfig {
	return Ex3EKFConfig{
		Common:  defaultCommon(),
		Dt:      0.1,
		Q1:      0.01,
		Gravity: 9.81,
		Length:  1.0,
		Cov2:    1e-2,
	}
}

func (c Ex3EKFConfig) validate() error {
	switch {
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %v", dynamo.ErrParameterBounds, c.Dt)
	case c.Q1 < 0:
		return fmt.Errorf("%w: q1 must be non-negative, got %v", dynamo.ErrParameterBounds, c.Q1)
	case c.Cov2 < 0:
		return fmt.Errorf("%w: cov2 must be non-negative, got %v", dynamo.ErrParameterBounds, c.Cov2)
	case c.MissingRate < 0 || c.MissingRate > 1:
		return fmt.Errorf("%w: missing_rate must be in [0, 1], got %v", dynamo.ErrParameterBounds, c.MissingRate)
	}
	return nil
}

// Ex3EKF asks the agent for the two gains of an estimator tracking a noisy
// pendulum through the measurement sin(x1). State is [x̂1, x̂2, x1, x2]; cost
// is the squared estimation error.
type Ex3EKF struct {
	base
	cfg      Ex3EKFConfig
	plant    *physics.Pendulum
	eval     cost.Evaluator
	state    dynamo.State
	output   float64
	received bool
}

func NewEx3EKF(cfg Ex3EKFConfig) (*Ex3EKF, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	plant := physics.NewPendulum()
	plant.Gravity = cfg.Gravity
	plant.Length = cfg.Length

	obs := spaces.Uniform(4, -10000, 10000, spaces.Float32)
	act := spaces.Uniform(2, -10, 10, spaces.Float32)

	return &Ex3EKF{
		base:  newBase(Ex3EKFName, cfg.Common, obs, act, cfg.Dt),
		cfg:   cfg,
		plant: plant,
		eval:  cost.NewEvaluator(),
	}, nil
}

func (e *Ex3EKF) RewardRange() r1.Interval { return e.eval.Range }

// State returns a copy of [x̂1, x̂2, x1, x2].
func (e *Ex3EKF) State() dynamo.State { return e.state.Clone() }

// Output is the latest noisy measurement y1.
func (e *Ex3EKF) Output() float64 { return e.output }

// processCov returns q1·[[dt³/3, dt²/2], [dt²/2, dt]].
func (e *Ex3EKF) processCov() *mat.SymDense {
	dt, q := e.dt, e.cfg.Q1
	return mat.NewSymDense(2, []float64{
		q * dt * dt * dt / 3, q * dt * dt / 2,
		q * dt * dt / 2, q * dt,
	})
}

func (e *Ex3EKF) measure(x1 float64) float64 {
	return math.Sin(x1) + e.rng.Normal(e.cfg.Mean2, math.Sqrt(e.cfg.Cov2))
}

func (e *Ex3EKF) Reset(seed *uint64, opts *gym.ResetOptions) (dynamo.State, cost.Info, error) {
	if opts != nil {
		e.logger.Warn("reset options are not used by this environment")
	}
	e.rng.Reseed(seed)

	x1 := e.rng.Uniform(-math.Pi/2, math.Pi/2)
	x2 := e.rng.Uniform(-math.Pi/2, math.Pi/2)
	h1 := x1 + e.rng.Uniform(-math.Pi/4, math.Pi/4)
	h2 := x2 + e.rng.Uniform(-math.Pi/4, math.Pi/4)
	e.state = dynamo.State{h1, h2, x1, x2}
	e.output = e.measure(x1)
	e.received = true
	e.ready()

	predicted := math.Sin(h1 + e.dt*h2)
	return e.state.Clone(), e.info(e.output - predicted), nil
}

func (e *Ex3EKF) Step(u dynamo.Control) (gym.Transition, error) {
	u, err := e.beginStep(u)
	if err != nil {
		return gym.Transition{}, err
	}
	dt, g := e.dt, e.cfg.Gravity
	input := e.cfg.InputAmplitude * math.Cos(e.t) * dt
	h1, h2 := e.state[0], e.state[1]

	plant := e.plant.SemiImplicitStep(e.state[2:4], dt, input)
	noise, err := e.rng.MultivariateNormal([]float64{0, 0}, e.processCov())
	if err != nil {
		return gym.Transition{}, fmt.Errorf("%w: process noise: %v", dynamo.ErrParameterBounds, err)
	}
	x1, x2 := plant[0]+noise[0], plant[1]+noise[1]

	y1 := e.measure(x1)
	innovation := y1 - math.Sin(h1+dt*h2)

	e.received = e.rng.Bernoulli(1 - e.cfg.MissingRate)
	if e.received {
		h1 = h1 + dt*h2 + dt*u[0]*innovation
		h2 = h2 - g*math.Sin(h1)*dt + dt*u[1]*innovation + input
	} else {
		h1 = h1 + dt*h2
		h2 = h2 - g*math.Sin(h1)*dt + input
	}

	next := dynamo.State{h1, h2, x1, x2}
	if !next.IsValid() {
		return gym.Transition{}, e.invalid(next)
	}
	e.state = next
	e.output = y1
	e.t += dt

	c := e.eval.Evaluate(cost.SquaredError(next[0:2], next[2:4]), u, true).Total()
	terminated := e.eval.Terminated(c)
	e.finishStep(terminated)

	return gym.Transition{
		Observation: e.state.Clone(),
		Action:      u,
		Cost:        c,
		Terminated:  terminated,
		Info:        e.info(innovation),
	}, nil
}

// info reports the measurement as reference and the x1 estimation error as
// the tracked quantity.
func (e *Ex3EKF) info(innovation float64) cost.Info {
	errX1 := e.state[0] - e.state[2]
	errX2 := e.state[1] - e.state[3]
	received := 0.0
	if e.received {
		received = 1
	}
	return cost.Info{
		Reference:       e.output,
		StateOfInterest: errX1,
		ReferenceError:  innovation,
		Terms: map[string]float64{
			"estimation_error_x1": errX1,
			"estimation_error_x2": errX2,
			"packet_received":     received,
		},
	}
}

func (e *Ex3EKF) GetParams() map[string]float64 {
	return map[string]float64{
		"q1":              e.cfg.Q1,
		"gravity":         e.cfg.Gravity,
		"length":          e.cfg.Length,
		"mean2":           e.cfg.Mean2,
		"cov2":            e.cfg.Cov2,
		"missing_rate":    e.cfg.MissingRate,
		"input_amplitude": e.cfg.InputAmplitude,
	}
}

func (e *Ex3EKF) SetParam(name string, value float64) error {
	next := e.cfg
	switch name {
	case "q1":
		next.Q1 = value
	case "gravity":
		next.Gravity = value
	case "length":
		next.Length = value
	case "mean2":
		next.Mean2 = value
	case "cov2":
		next.Cov2 = value
	case "missing_rate":
		next.MissingRate = value
	case "input_amplitude":
		next.InputAmplitude = value
	default:
		return dynamo.UnknownParam(name)
	}
	if err := next.validate(); err != nil {
		return err
	}
	if name == "gravity" || name == "length" {
		if err := e.plant.SetParam(name, value); err != nil {
			return err
		}
	}
	e.cfg = next
	return nil
}
