package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/stablegym/internal/config"
	"github.com/san-kum/stablegym/internal/control"
	"github.com/san-kum/stablegym/internal/disturb"
	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/gym"
	"github.com/san-kum/stablegym/internal/sim"
)

// Experiment is one configured environment/policy pair ready to roll out.
type Experiment struct {
	cfg    *config.Config
	spec   EnvSpec
	raw    gym.Env
	env    gym.Env
	policy control.Policy
	runner *sim.Runner
}

func New(cat *Catalog, cfg *config.Config, logger *slog.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	spec, err := cat.Spec(cfg.Env)
	if err != nil {
		return nil, err
	}
	raw, err := cat.Make(cfg)
	if err != nil {
		return nil, err
	}
	if err := applyParams(raw, cfg.Params); err != nil {
		return nil, err
	}
	env, err := wrapDisturbance(raw, cfg.Disturbance, cfg.Seed)
	if err != nil {
		return nil, err
	}
	policy, err := cat.Policy(cfg.Policy, env, cfg.PolicyParams, cfg.Seed)
	if err != nil {
		return nil, err
	}

	runner := sim.NewRunner(logger)
	runner.AddObserver(sim.StepLogger{Logger: logger.With("env", cfg.Env)})
	if spec.Metrics != nil {
		for _, m := range spec.Metrics() {
			runner.AddMetric(m)
		}
	}

	return &Experiment{
		cfg:    cfg,
		spec:   spec,
		raw:    raw,
		env:    env,
		policy: policy,
		runner: runner,
	}, nil
}

// applyParams sets params in name order so failures are reproducible.
func applyParams(env gym.Env, params map[string]float64) error {
	if len(params) == 0 {
		return nil
	}
	target, ok := env.(dynamo.Configurable)
	if !ok {
		return fmt.Errorf("%T has no parameters", env)
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := target.SetParam(name, params[name]); err != nil {
			return fmt.Errorf("param %s: %w", name, err)
		}
	}
	return nil
}

func wrapDisturbance(env gym.Env, d config.DisturbanceConfig, seed uint64) (gym.Env, error) {
	switch d.Kind {
	case "":
		return env, nil
	case "impulse":
		return disturb.NewOutputDisturber(env, disturb.Impulse{
			Magnitude: d.Magnitude,
			Instant:   d.Instant,
			Constant:  d.Constant,
			Period:    d.Period,
		}), nil
	case "periodic":
		return disturb.NewOutputDisturber(env, disturb.Periodic{
			Amplitude: d.Amplitude,
			Frequency: d.Frequency,
			Phase:     d.Phase,
		}), nil
	case "noise":
		return disturb.NewOutputDisturber(env, disturb.NewNoise(d.Mean, d.Std, seed)), nil
	default:
		return nil, fmt.Errorf("unknown disturbance kind: %s", d.Kind)
	}
}

func (e *Experiment) Env() gym.Env           { return e.env }
func (e *Experiment) Spec() EnvSpec          { return e.spec }
func (e *Experiment) Config() *config.Config { return e.cfg }

// Runner returns the underlying runner for adding observers.
func (e *Experiment) Runner() *sim.Runner { return e.runner }

func (e *Experiment) SimConfig() sim.Config {
	steps := e.cfg.MaxEpisodeSteps
	if steps == 0 {
		steps = e.spec.MaxEpisodeSteps
	}
	cfg := sim.Config{
		Episodes:        e.cfg.Episodes,
		MaxEpisodeSteps: steps,
		Seed:            e.cfg.Seed,
	}
	if e.cfg.FixedInit {
		cfg.ResetOptions = &gym.ResetOptions{FixedInit: true}
	}
	return cfg
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	return e.runner.Run(ctx, e.env, e.policy, e.SimConfig())
}

// Solved reports whether the mean episode cost is within the catalog
// reward threshold.
func (e *Experiment) Solved(res *sim.Result) bool {
	return res.MeanReturn() <= e.spec.RewardThreshold
}

// Factory builds independent copies of the experiment for sim.Ensemble.
func (c *Catalog) Factory(cfg *config.Config) (sim.Factory, error) {
	if err := cfg.Validate(); err != nil {
		return sim.Factory{}, err
	}
	spec, err := c.Spec(cfg.Env)
	if err != nil {
		return sim.Factory{}, err
	}
	return sim.Factory{
		Env: func(seed uint64) (gym.Env, error) {
			raw, err := c.Make(cfg)
			if err != nil {
				return nil, err
			}
			if err := applyParams(raw, cfg.Params); err != nil {
				return nil, err
			}
			return wrapDisturbance(raw, cfg.Disturbance, seed)
		},
		Policy: func(env gym.Env, seed uint64) (control.Policy, error) {
			return c.Policy(cfg.Policy, env, cfg.PolicyParams, seed)
		},
		Metrics: spec.Metrics,
	}, nil
}

// SweepPoint is the outcome of one value of a parameter sweep.
type SweepPoint struct {
	Value      float64
	MeanReturn float64
	Metrics    map[string]float64
}

// Sweep reruns the experiment once per value of the named environment
// parameter and restores the parameter afterwards.
func (e *Experiment) Sweep(ctx context.Context, name string, values []float64) ([]SweepPoint, error) {
	target, ok := e.raw.(dynamo.Configurable)
	if !ok {
		return nil, fmt.Errorf("%T has no parameters", e.raw)
	}
	points := make([]SweepPoint, 0, len(values))
	err := disturb.NewPerturber(target).Sweep(ctx, name, values, func(ctx context.Context, v float64) error {
		res, err := e.Run(ctx)
		if err != nil {
			return err
		}
		points = append(points, SweepPoint{Value: v, MeanReturn: res.MeanReturn(), Metrics: res.Metrics})
		return nil
	})
	return points, err
}

// Tune grid-searches the named parameters for the lowest mean episode cost.
func (e *Experiment) Tune(ctx context.Context, names []string, ranges [][]float64) (map[string]float64, float64, error) {
	target, ok := e.raw.(dynamo.Configurable)
	if !ok {
		return nil, 0, fmt.Errorf("%T has no parameters", e.raw)
	}
	if len(names) != len(ranges) {
		return nil, 0, fmt.Errorf("%d parameters but %d ranges", len(names), len(ranges))
	}
	grid := disturb.NewGridSearch(names, ranges)
	return grid.Search(ctx, target, func(ctx context.Context, _ map[string]float64) (float64, error) {
		res, err := e.Run(ctx)
		if err != nil {
			return 0, err
		}
		return res.MeanReturn(), nil
	})
}
