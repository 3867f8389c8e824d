package metrics

import "github.com/san-kum/stablegym/internal/sim"

// EpisodeCost averages the summed cost of each episode seen.
type EpisodeCost struct {
	total    float64
	episodes map[int]struct{}
}

func NewEpisodeCost() *EpisodeCost {
	return &EpisodeCost{episodes: make(map[int]struct{})}
}

func (e *EpisodeCost) Name() string { return "episode_cost" }

func (e *EpisodeCost) Observe(s sim.Sample) {
	e.total += s.Cost
	e.episodes[s.Episode] = struct{}{}
}

func (e *EpisodeCost) Value() float64 {
	if len(e.episodes) == 0 {
		return 0
	}
	return e.total / float64(len(e.episodes))
}

func (e *EpisodeCost) Reset() {
	e.total = 0
	e.episodes = make(map[int]struct{})
}

// MeanCost is the per-step average cost.
type MeanCost struct {
	sum     float64
	samples int
}

func NewMeanCost() *MeanCost { return &MeanCost{} }

func (m *MeanCost) Name() string { return "mean_cost" }

func (m *MeanCost) Observe(s sim.Sample) {
	m.sum += s.Cost
	m.samples++
}

func (m *MeanCost) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanCost) Reset() {
	m.sum = 0
	m.samples = 0
}
