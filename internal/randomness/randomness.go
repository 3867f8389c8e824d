// Package randomness owns the seeded random source of a single environment.
//
// Draws go through gonum distributions backed by a PCG source from
// golang.org/x/exp/rand, so a given seed always reproduces the same stream.
// A Source is owned by exactly one environment and is NOT safe for
// concurrent use.
package randomness

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

type Source struct {
	src    rand.Source
	seed   uint64
	seeded bool
}

// New returns an unseeded source. The first draw (or EnsureSeeded) seeds it
// from the wall clock.
func New() *Source {
	return &Source{}
}

// NewSeeded returns a source seeded with seed.
func NewSeeded(seed uint64) *Source {
	s := &Source{}
	s.Seed(seed)
	return s
}

// Seed restarts the stream from seed.
func (s *Source) Seed(seed uint64) {
	s.src = rand.NewSource(seed)
	s.seed = seed
	s.seeded = true
}

// Reseed seeds from seed when non-nil, otherwise keeps the current stream
// (seeding from the clock if the source was never seeded).
func (s *Source) Reseed(seed *uint64) {
	if seed != nil {
		s.Seed(*seed)
		return
	}
	s.EnsureSeeded()
}

func (s *Source) EnsureSeeded() {
	if !s.seeded {
		s.Seed(uint64(time.Now().UnixNano()))
	}
}

// SeedValue reports the last seed used.
func (s *Source) SeedValue() uint64 { return s.seed }

// Src exposes the underlying source for gonum distributions.
func (s *Source) Src() rand.Source {
	s.EnsureSeeded()
	return s.src
}

// Uniform draws from U(lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: s.Src()}.Rand()
}

// UniformVec draws one U(low[i], high[i]) sample per element.
func (s *Source) UniformVec(low, high []float64) []float64 {
	out := make([]float64, len(low))
	for i := range low {
		out[i] = s.Uniform(low[i], high[i])
	}
	return out
}

// Normal draws from N(mu, sigma²).
func (s *Source) Normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: s.Src()}.Rand()
}

// Bernoulli returns true with probability p.
func (s *Source) Bernoulli(p float64) bool {
	return distuv.Bernoulli{P: p, Src: s.Src()}.Rand() == 1
}

// MultivariateNormal draws one sample from N(mean, cov). A covariance of all
// zeros yields mean without consuming the stream.
func (s *Source) MultivariateNormal(mean []float64, cov *mat.SymDense) ([]float64, error) {
	if isZero(cov) {
		out := make([]float64, len(mean))
		copy(out, mean)
		return out, nil
	}
	dist, ok := distmv.NewNormal(mean, cov, s.Src())
	if !ok {
		return nil, fmt.Errorf("covariance is not positive definite")
	}
	return dist.Rand(nil), nil
}

func isZero(m *mat.SymDense) bool {
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if m.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}
