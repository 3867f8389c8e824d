// Package cost turns a post-step state into a non-negative cost, a
// termination flag and the diagnostic info every environment reports.
package cost

import (
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/san-kum/stablegym/internal/dynamo"
)

// DefaultRange is the cost band most environments terminate outside of.
var DefaultRange = r1.Interval{Min: 0, Max: 100}

// Info is returned alongside every reset and step.
type Info struct {
	Reference       float64
	StateOfInterest float64
	ReferenceError  float64
	// Terms holds named cost components and environment specific flags.
	Terms map[string]float64
}

// NewInfo fills the tracking fields from a reference and the tracked value.
func NewInfo(ref, soi float64) Info {
	return Info{
		Reference:       ref,
		StateOfInterest: soi,
		ReferenceError:  soi - ref,
		Terms:           map[string]float64{},
	}
}

// SquaredError returns Σ(a_i − b_i)².
func SquaredError(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Breakdown lists the additive parts of a cost.
type Breakdown struct {
	Base   float64
	Ctrl   float64
	Health float64
}

func (b Breakdown) Total() float64 { return b.Base + b.Ctrl + b.Health }

// Evaluator combines a tracking term with optional control and health terms.
// The zero value is not useful; start from NewEvaluator.
type Evaluator struct {
	Weight        float64
	IncludeCtrl   bool
	CtrlWeight    float64
	IncludeHealth bool
	HealthPenalty float64
	Range         r1.Interval
}

func NewEvaluator() Evaluator {
	return Evaluator{
		Weight:        1,
		CtrlWeight:    1e-3,
		HealthPenalty: 10,
		Range:         DefaultRange,
	}
}

// Evaluate returns the weighted cost breakdown. base is the tracking error
// before weighting.
func (e Evaluator) Evaluate(base float64, u dynamo.Control, healthy bool) Breakdown {
	b := Breakdown{Base: e.Weight * base}
	if e.IncludeCtrl {
		b.Ctrl = e.CtrlWeight * u.SquaredNorm()
	}
	if e.IncludeHealth && !healthy {
		b.Health = e.HealthPenalty
	}
	return b
}

// Terminated reports whether c left the evaluator's range.
func (e Evaluator) Terminated(c float64) bool {
	return OutOfRange(c, e.Range)
}

// OutOfRange reports c < r.Min || c > r.Max.
func OutOfRange(c float64, r r1.Interval) bool {
	return c < r.Min || c > r.Max
}
