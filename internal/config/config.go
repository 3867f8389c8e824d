package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEnv      = "Oscillator"
	DefaultPolicy   = "none"
	DefaultEpisodes = 1
	DefaultKp       = 10.0
	DefaultKi       = 0.1
	DefaultKd       = 5.0
)

type Config struct {
	Env        string `yaml:"env"`
	Integrator string `yaml:"integrator"`
	Policy     string `yaml:"policy"`
	Seed       uint64 `yaml:"seed"`
	Episodes   int    `yaml:"episodes"`
	// MaxEpisodeSteps of zero uses the catalog limit for Env.
	MaxEpisodeSteps int  `yaml:"max_episode_steps"`
	ClipAction      bool `yaml:"clip_action"`
	FixedInit       bool `yaml:"fixed_init"`
	// CostType selects the CartPoleCost cost ("stabilization" or "reference").
	CostType     string             `yaml:"cost_type,omitempty"`
	Params       map[string]float64 `yaml:"params,omitempty"`
	PolicyParams PolicyConfig       `yaml:"policy_params"`
	Disturbance  DisturbanceConfig  `yaml:"disturbance,omitempty"`
}

type PolicyConfig struct {
	Kp       float64   `yaml:"kp"`
	Ki       float64   `yaml:"ki"`
	Kd       float64   `yaml:"kd"`
	Target   float64   `yaml:"target"`
	Constant []float64 `yaml:"constant,omitempty"`
}

// DisturbanceConfig describes an output disturbance. Kind is one of
// "impulse", "periodic" or "noise"; empty disables it.
type DisturbanceConfig struct {
	Kind      string  `yaml:"kind,omitempty"`
	Magnitude float64 `yaml:"magnitude,omitempty"`
	Instant   int     `yaml:"instant,omitempty"`
	Constant  bool    `yaml:"constant,omitempty"`
	Period    int     `yaml:"period,omitempty"`
	Amplitude float64 `yaml:"amplitude,omitempty"`
	Frequency float64 `yaml:"frequency,omitempty"`
	Phase     float64 `yaml:"phase,omitempty"`
	Mean      float64 `yaml:"mean,omitempty"`
	Std       float64 `yaml:"std,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Env:        DefaultEnv,
		Policy:     DefaultPolicy,
		Episodes:   DefaultEpisodes,
		ClipAction: true,
		PolicyParams: PolicyConfig{
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Env == "" {
		return fmt.Errorf("env is required")
	}
	if c.Episodes <= 0 {
		return fmt.Errorf("episodes must be positive, got %d", c.Episodes)
	}
	if c.MaxEpisodeSteps < 0 {
		return fmt.Errorf("max_episode_steps must not be negative, got %d", c.MaxEpisodeSteps)
	}
	switch c.Disturbance.Kind {
	case "", "impulse", "periodic", "noise":
	default:
		return fmt.Errorf("unknown disturbance kind: %s", c.Disturbance.Kind)
	}
	if c.Disturbance.Kind == "noise" && c.Disturbance.Std < 0 {
		return fmt.Errorf("noise std must not be negative, got %v", c.Disturbance.Std)
	}
	return nil
}

// Clone returns a deep copy so presets can be modified by callers.
func (c *Config) Clone() *Config {
	out := *c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	if c.PolicyParams.Constant != nil {
		out.PolicyParams.Constant = append([]float64(nil), c.PolicyParams.Constant...)
	}
	return &out
}
