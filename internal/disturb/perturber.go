// Package disturb perturbs environments for robustness evaluation: it
// changes named model parameters, sweeps them over value grids, and adds
// disturbances to the observations an agent receives.
package disturb

import (
	"context"
	"fmt"

	"github.com/san-kum/stablegym/internal/dynamo"
)

// Perturber changes named parameters of a target and remembers their
// original values so they can be restored.
type Perturber struct {
	target dynamo.Configurable
	saved  map[string]float64
}

func NewPerturber(target dynamo.Configurable) *Perturber {
	return &Perturber{target: target, saved: make(map[string]float64)}
}

// Apply sets every parameter in params. If one fails, the parameters set by
// this call are rolled back.
func (p *Perturber) Apply(params map[string]float64) error {
	current := p.target.GetParams()
	applied := make([]string, 0, len(params))
	for name, v := range params {
		orig, ok := current[name]
		if !ok {
			p.rollback(applied, current)
			return dynamo.UnknownParam(name)
		}
		if err := p.target.SetParam(name, v); err != nil {
			p.rollback(applied, current)
			return fmt.Errorf("perturb %s=%v: %w", name, v, err)
		}
		if _, seen := p.saved[name]; !seen {
			p.saved[name] = orig
		}
		applied = append(applied, name)
	}
	return nil
}

func (p *Perturber) rollback(names []string, values map[string]float64) {
	for _, name := range names {
		_ = p.target.SetParam(name, values[name])
	}
}

// Restore puts back every parameter changed since the last restore.
func (p *Perturber) Restore() error {
	for name, v := range p.saved {
		if err := p.target.SetParam(name, v); err != nil {
			return fmt.Errorf("restore %s: %w", name, err)
		}
		delete(p.saved, name)
	}
	return nil
}

// Perturbed lists the parameters currently differing from their saved
// originals.
func (p *Perturber) Perturbed() map[string]float64 {
	out := make(map[string]float64, len(p.saved))
	for name, v := range p.saved {
		out[name] = v
	}
	return out
}

// Sweep runs fn once per value with name set to that value. The parameter is
// restored afterwards, also on error.
func (p *Perturber) Sweep(ctx context.Context, name string, values []float64, fn func(ctx context.Context, value float64) error) (err error) {
	defer func() {
		if rerr := p.Restore(); err == nil {
			err = rerr
		}
	}()
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.Apply(map[string]float64{name: v}); err != nil {
			return err
		}
		if err := fn(ctx, v); err != nil {
			return fmt.Errorf("%s=%v: %w", name, v, err)
		}
	}
	return nil
}
