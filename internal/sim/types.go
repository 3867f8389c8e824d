package sim

import (
	"github.com/san-kum/stablegym/internal/cost"
	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/gym"
)

// Sample is one environment step as seen by metrics and observers.
type Sample struct {
	Episode     int
	Step        int
	Time        float64
	Observation dynamo.State
	Action      dynamo.Control
	Cost        float64
	Terminated  bool
	Truncated   bool
	Info        cost.Info
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Config struct {
	Episodes        int
	MaxEpisodeSteps int
	// Seed seeds episode i with Seed+i.
	Seed         uint64
	ResetOptions *gym.ResetOptions
}

// Episode summarises one episode of a run.
type Episode struct {
	Index      int
	Seed       uint64
	Initial    dynamo.State
	Return     float64
	Steps      int
	Terminated bool
	Truncated  bool
}

type Result struct {
	Samples    []Sample
	Episodes   []Episode
	Metrics    map[string]float64
	StepsTaken int
}

// MeanReturn averages the summed cost over episodes.
func (r *Result) MeanReturn() float64 {
	if len(r.Episodes) == 0 {
		return 0
	}
	sum := 0.0
	for _, ep := range r.Episodes {
		sum += ep.Return
	}
	return sum / float64(len(r.Episodes))
}
