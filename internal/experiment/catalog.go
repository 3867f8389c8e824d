package experiment

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/stablegym/internal/config"
	"github.com/san-kum/stablegym/internal/control"
	"github.com/san-kum/stablegym/internal/envs"
	"github.com/san-kum/stablegym/internal/gym"
	"github.com/san-kum/stablegym/internal/integrators"
	"github.com/san-kum/stablegym/internal/metrics"
	"github.com/san-kum/stablegym/internal/physics"
	"github.com/san-kum/stablegym/internal/sim"
)

const DefaultRewardThreshold = 300.0

// EnvSpec is a catalog entry: how to build an environment by name and the
// episode limits that go with it.
type EnvSpec struct {
	Name            string
	Description     string
	RewardThreshold float64
	MaxEpisodeSteps int
	New             func(cfg *config.Config, common envs.Common) (gym.Env, error)
	Metrics         func() []sim.Metric
}

type PolicyFactory func(env gym.Env, p config.PolicyConfig, seed uint64) (control.Policy, error)

type Catalog struct {
	envs     map[string]EnvSpec
	policies map[string]PolicyFactory
	registry *gym.Registry
	logger   *slog.Logger
}

func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		envs:     make(map[string]EnvSpec),
		policies: make(map[string]PolicyFactory),
		registry: gym.NewRegistry(),
		logger:   logger,
	}

	c.Register(EnvSpec{
		Name:            envs.OscillatorName,
		Description:     "Repressilator protein 1 tracking a sinusoidal reference",
		RewardThreshold: DefaultRewardThreshold,
		MaxEpisodeSteps: 400,
		New:             newOscillator,
		Metrics: func() []sim.Metric {
			return []sim.Metric{metrics.NewEpisodeCost(), metrics.NewMeanCost(), metrics.NewTracking(1.0), metrics.NewControlEffort()}
		},
	})
	c.Register(EnvSpec{
		Name:            envs.Ex3EKFName,
		Description:     "Pendulum state estimation over a lossy channel",
		RewardThreshold: DefaultRewardThreshold,
		MaxEpisodeSteps: 400,
		New:             newEx3EKF,
		Metrics: func() []sim.Metric {
			return []sim.Metric{metrics.NewEpisodeCost(), metrics.NewMeanCost(), metrics.NewTracking(0.1), metrics.NewEnergy(1, 1, physics.DefaultGravity, 2, 3)}
		},
	})
	c.Register(EnvSpec{
		Name:            envs.CartPoleName,
		Description:     "Cart-pole balancing with a quadratic cost",
		RewardThreshold: DefaultRewardThreshold,
		MaxEpisodeSteps: 250,
		New:             newCartPole,
		Metrics: func() []sim.Metric {
			return []sim.Metric{metrics.NewEpisodeCost(), metrics.NewTerminationRate(), metrics.NewControlEffort()}
		},
	})
	c.Register(EnvSpec{
		Name:            envs.VelocityTrackingName,
		Description:     "Planar quadrotor tracking a forward velocity",
		RewardThreshold: DefaultRewardThreshold,
		MaxEpisodeSteps: 250,
		New:             newVelocityTracking,
		Metrics: func() []sim.Metric {
			return []sim.Metric{metrics.NewEpisodeCost(), metrics.NewTerminationRate(), metrics.NewControlEffort()}
		},
	})

	c.policies["none"] = func(env gym.Env, _ config.PolicyConfig, _ uint64) (control.Policy, error) {
		return control.NewNone(env.ActionSpace().Shape()), nil
	}
	c.policies["constant"] = func(env gym.Env, p config.PolicyConfig, _ uint64) (control.Policy, error) {
		if len(p.Constant) != env.ActionSpace().Shape() {
			return nil, fmt.Errorf("constant policy has %d elements, action space has %d", len(p.Constant), env.ActionSpace().Shape())
		}
		return control.NewConstant(p.Constant), nil
	}
	c.policies["random"] = func(env gym.Env, _ config.PolicyConfig, seed uint64) (control.Policy, error) {
		return control.NewRandom(env.ActionSpace(), seed), nil
	}
	c.policies["pid"] = newPID
	c.policies["lqr"] = newLQR

	return c
}

func (c *Catalog) Register(spec EnvSpec) {
	c.envs[spec.Name] = spec
}

func (c *Catalog) Spec(name string) (EnvSpec, error) {
	spec, ok := c.envs[name]
	if !ok {
		return EnvSpec{}, fmt.Errorf("unknown env: %s", name)
	}
	return spec, nil
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.envs))
	for name := range c.envs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) PolicyNames() []string {
	names := make([]string, 0, len(c.policies))
	for name := range c.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Make builds the environment named by cfg.Env without wrappers.
func (c *Catalog) Make(cfg *config.Config) (gym.Env, error) {
	spec, err := c.Spec(cfg.Env)
	if err != nil {
		return nil, err
	}
	return spec.New(cfg, envs.Common{
		Registry:   c.registry,
		Logger:     c.logger,
		ClipAction: cfg.ClipAction,
	})
}

func (c *Catalog) Policy(name string, env gym.Env, p config.PolicyConfig, seed uint64) (control.Policy, error) {
	fn, ok := c.policies[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy: %s", name)
	}
	return fn(gym.Unwrap(env), p, seed)
}

// Instances reports how many environments the catalog has built.
func (c *Catalog) Instances() int { return c.registry.Count() }

func newOscillator(cfg *config.Config, common envs.Common) (gym.Env, error) {
	ec := envs.DefaultOscillatorConfig()
	ec.Common = common
	if cfg.Integrator != "" {
		integ, err := integrators.ByName(cfg.Integrator)
		if err != nil {
			return nil, err
		}
		ec.Integrator = integ
	}
	return envs.NewOscillator(ec)
}

func newEx3EKF(cfg *config.Config, common envs.Common) (gym.Env, error) {
	if cfg.Integrator != "" {
		common.Logger.Warn("integrator is not used by this environment", "env", envs.Ex3EKFName, "integrator", cfg.Integrator)
	}
	ec := envs.DefaultEx3EKFConfig()
	ec.Common = common
	return envs.NewEx3EKF(ec)
}

func newCartPole(cfg *config.Config, common envs.Common) (gym.Env, error) {
	ec := envs.DefaultCartPoleConfig()
	ec.Common = common
	if cfg.Integrator != "" {
		k, err := physics.ParseKinematics(cfg.Integrator)
		if err != nil {
			return nil, err
		}
		ec.Kinematics = k
	}
	if cfg.CostType != "" {
		ec.CostType = envs.CartPoleCostType(cfg.CostType)
	}
	return envs.NewCartPole(ec)
}

func newVelocityTracking(cfg *config.Config, common envs.Common) (gym.Env, error) {
	ec := envs.DefaultVelocityTrackingConfig()
	ec.Common = common
	if cfg.Integrator != "" {
		integ, err := integrators.ByName(cfg.Integrator)
		if err != nil {
			return nil, err
		}
		ec.Integrator = integ
	}
	return envs.NewVelocityTracking(ec)
}

// newPID tracks the reference exposed in the observation. Only the
// oscillator has a layout for it.
func newPID(env gym.Env, p config.PolicyConfig, _ uint64) (control.Policy, error) {
	pid := control.NewPID(p.Kp, p.Ki, p.Kd, p.Target)
	pid.ActionDim = env.ActionSpace().Shape()
	if _, ok := env.(*envs.Oscillator); !ok {
		return nil, fmt.Errorf("no pid layout for %T", env)
	}
	// p1 against the appended reference.
	pid.StateIndex = 3
	pid.ReferenceIndex = 6
	return pid, nil
}

func newLQR(env gym.Env, _ config.PolicyConfig, _ uint64) (control.Policy, error) {
	switch e := env.(type) {
	case *envs.CartPole:
		return control.NewCartPoleLQR(), nil
	case *envs.VelocityTracking:
		quad, ok := e.Body().(*physics.Quadrotor2D)
		if !ok {
			return nil, fmt.Errorf("no lqr gains for body %T", e.Body())
		}
		return control.NewQuadrotorHoverLQR(quad.InitialState()[1], quad.HoverThrust()), nil
	default:
		return nil, fmt.Errorf("no lqr gains for %T", env)
	}
}
