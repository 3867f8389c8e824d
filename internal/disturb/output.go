package disturb

import (
	"math"

	"github.com/san-kum/stablegym/internal/cost"
	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/gym"
	"github.com/san-kum/stablegym/internal/randomness"
)

// Disturbance produces an additive disturbance for signal at a step.
type Disturbance interface {
	Sample(signal []float64, step int, t float64) []float64
}

// Impulse pushes against the sign of the signal. A constant impulse acts on
// every step from Instant on; otherwise it fires every Period steps.
type Impulse struct {
	Magnitude float64
	Instant   int
	Constant  bool
	Period    int
}

func (d Impulse) Sample(signal []float64, step int, t float64) []float64 {
	out := make([]float64, len(signal))
	active := step >= d.Instant
	if !d.Constant {
		period := d.Period
		if period <= 0 {
			period = 20
		}
		active = step != 0 && step%period == 0
	}
	if !active {
		return out
	}
	for i, v := range signal {
		out[i] = -d.Magnitude * sign(v)
	}
	return out
}

// Periodic adds amplitude·sin(2π·frequency·t + phase) to every element.
type Periodic struct {
	Amplitude float64
	Frequency float64
	Phase     float64
}

func (d Periodic) Sample(signal []float64, step int, t float64) []float64 {
	v := d.Amplitude * math.Sin(2*math.Pi*d.Frequency*t+d.Phase)
	out := make([]float64, len(signal))
	for i := range out {
		out[i] = v
	}
	return out
}

// Noise adds independent N(mean, std²) samples.
type Noise struct {
	Mean, Std float64
	rng       *randomness.Source
}

func NewNoise(mean, std float64, seed uint64) *Noise {
	return &Noise{Mean: mean, Std: std, rng: randomness.NewSeeded(seed)}
}

func (d *Noise) Seed(seed uint64) { d.rng.Seed(seed) }

func (d *Noise) Sample(signal []float64, step int, t float64) []float64 {
	if d.rng == nil {
		d.rng = randomness.New()
	}
	out := make([]float64, len(signal))
	for i := range out {
		out[i] = d.rng.Normal(d.Mean, d.Std)
	}
	return out
}

// OutputDisturber adds a disturbance to the observations of the wrapped
// environment. The environment's own state is untouched.
type OutputDisturber struct {
	gym.Env
	Disturbance Disturbance
	step        int
}

func NewOutputDisturber(env gym.Env, d Disturbance) *OutputDisturber {
	return &OutputDisturber{Env: env, Disturbance: d}
}

func (w *OutputDisturber) Reset(seed *uint64, opts *gym.ResetOptions) (dynamo.State, cost.Info, error) {
	w.step = 0
	if n, ok := w.Disturbance.(interface{ Seed(uint64) }); ok && seed != nil {
		n.Seed(*seed)
	}
	return w.Env.Reset(seed, opts)
}

func (w *OutputDisturber) Unwrap() gym.Env { return w.Env }

func (w *OutputDisturber) Step(u dynamo.Control) (gym.Transition, error) {
	tr, err := w.Env.Step(u)
	if err != nil {
		return tr, err
	}
	w.step++
	delta := w.Disturbance.Sample(tr.Observation, w.step, w.Env.Time())
	obs := tr.Observation.Clone()
	for i := range obs {
		obs[i] += delta[i]
	}
	tr.Observation = obs
	return tr, nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
