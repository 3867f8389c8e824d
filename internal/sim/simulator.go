package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/stablegym/internal/control"
	"github.com/san-kum/stablegym/internal/gym"
)

// Runner rolls a policy out in an environment for a number of episodes.
type Runner struct {
	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func validateConfig(cfg Config) error {
	if cfg.Episodes <= 0 {
		return fmt.Errorf("episodes must be positive, got %d", cfg.Episodes)
	}
	if cfg.MaxEpisodeSteps <= 0 {
		return fmt.Errorf("max episode steps must be positive, got %d", cfg.MaxEpisodeSteps)
	}
	return nil
}

// Run executes cfg.Episodes episodes. Cancellation is checked between steps;
// the partial result is returned with the context error.
func (r *Runner) Run(ctx context.Context, env gym.Env, policy control.Policy, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	limited := gym.NewTimeLimit(env, cfg.MaxEpisodeSteps)
	result := &Result{
		Samples:  make([]Sample, 0, cfg.Episodes*cfg.MaxEpisodeSteps),
		Episodes: make([]Episode, 0, cfg.Episodes),
		Metrics:  make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	for ep := 0; ep < cfg.Episodes; ep++ {
		seed := cfg.Seed + uint64(ep)
		obs, _, err := limited.Reset(&seed, cfg.ResetOptions)
		if err != nil {
			return result, fmt.Errorf("episode %d reset: %w", ep, err)
		}
		if p, ok := policy.(control.Resetter); ok {
			p.Reset()
		}

		episode := Episode{Index: ep, Seed: seed, Initial: obs.Clone()}
		for {
			select {
			case <-ctx.Done():
				result.Episodes = append(result.Episodes, episode)
				return result, ctx.Err()
			default:
			}

			u := policy.Compute(obs, limited.Time())
			tr, err := limited.Step(u)
			if err != nil {
				return result, fmt.Errorf("episode %d: %w", ep, err)
			}

			applied := tr.Action
			if applied == nil {
				applied = u
			}
			s := Sample{
				Episode:     ep,
				Step:        episode.Steps,
				Time:        limited.Time(),
				Observation: tr.Observation,
				Action:      applied,
				Cost:        tr.Cost,
				Terminated:  tr.Terminated,
				Truncated:   tr.Truncated,
				Info:        tr.Info,
			}
			for _, m := range r.metrics {
				m.Observe(s)
			}
			for _, o := range r.observers {
				o.OnStep(s)
			}
			result.Samples = append(result.Samples, s)
			result.StepsTaken++

			episode.Steps++
			episode.Return += tr.Cost
			obs = tr.Observation

			if tr.Terminated || tr.Truncated {
				episode.Terminated = tr.Terminated
				episode.Truncated = tr.Truncated
				break
			}
		}

		r.logger.Debug("episode finished",
			"episode", ep,
			"steps", episode.Steps,
			"return", episode.Return,
			"terminated", episode.Terminated,
		)
		result.Episodes = append(result.Episodes, episode)
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// StepLogger logs every sample at debug level.
type StepLogger struct {
	Logger *slog.Logger
}

func (l StepLogger) OnStep(s Sample) {
	l.Logger.Debug("step",
		"episode", s.Episode,
		"step", s.Step,
		"cost", s.Cost,
		"terminated", s.Terminated,
		"truncated", s.Truncated,
	)
}
