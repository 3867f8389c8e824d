package metrics

import (
	"math"

	"github.com/san-kum/stablegym/internal/sim"
)

// Tracking is the fraction of steps whose reference error stays within
// the tolerance.
type Tracking struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewTracking(threshold float64) *Tracking {
	return &Tracking{
		name:      "tracking",
		threshold: threshold,
	}
}

func (s *Tracking) Name() string {
	return s.name
}

func (s *Tracking) Observe(sample sim.Sample) {
	s.samples++
	if math.Abs(sample.Info.ReferenceError) > s.threshold {
		s.violations++
	}
}

func (s *Tracking) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Tracking) Reset() {
	s.violations = 0
	s.samples = 0
}

// TerminationRate is the fraction of episodes that ended by termination
// rather than truncation.
type TerminationRate struct {
	episodes   map[int]struct{}
	terminated int
}

func NewTerminationRate() *TerminationRate {
	return &TerminationRate{episodes: make(map[int]struct{})}
}

func (r *TerminationRate) Name() string { return "termination_rate" }

func (r *TerminationRate) Observe(s sim.Sample) {
	r.episodes[s.Episode] = struct{}{}
	if s.Terminated {
		r.terminated++
	}
}

func (r *TerminationRate) Value() float64 {
	if len(r.episodes) == 0 {
		return 0
	}
	return float64(r.terminated) / float64(len(r.episodes))
}

func (r *TerminationRate) Reset() {
	r.episodes = make(map[int]struct{})
	r.terminated = 0
}
