package sim

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/stablegym/internal/control"
	"github.com/san-kum/stablegym/internal/gym"
)

// Factory builds the per-worker pieces of an ensemble member from the run's
// seed. Environments and policies are not shared between workers.
type Factory struct {
	Env     func(seed uint64) (gym.Env, error)
	Policy  func(env gym.Env, seed uint64) (control.Policy, error)
	Metrics func() []Metric
}

// Ensemble runs independent rollouts concurrently, run i seeded with
// seedStart+i*Episodes.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart uint64
	logger    *slog.Logger
}

func NewEnsemble(f Factory, numRuns int, seedStart uint64, logger *slog.Logger) *Ensemble {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ensemble{factory: f, numRuns: numRuns, seedStart: seedStart, logger: logger}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			seed := e.seedStart + uint64(idx*cfg.Episodes)
			env, err := e.factory.Env(seed)
			if err != nil {
				return err
			}
			policy, err := e.factory.Policy(env, seed)
			if err != nil {
				return err
			}

			runner := NewRunner(e.logger.With("run", idx))
			if e.factory.Metrics != nil {
				for _, m := range e.factory.Metrics() {
					runner.AddMetric(m)
				}
			}

			cfgCopy := cfg
			cfgCopy.Seed = seed

			res, err := runner.Run(ctx, env, policy, cfgCopy)
			results[idx] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
