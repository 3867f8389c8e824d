// Package spaces describes the bounded boxes environments declare for their
// observations and actions.
package spaces

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/san-kum/stablegym/internal/randomness"
)

// DType is the declared element type of a box. Values are always carried as
// float64; the dtype only matters to consumers that serialise observations.
type DType int

const (
	Float64 DType = iota
	Float32
)

func (d DType) String() string {
	if d == Float32 {
		return "float32"
	}
	return "float64"
}

// Box is the cartesian product of closed intervals [Low[i], High[i]].
type Box struct {
	Low   []float64
	High  []float64
	DType DType
}

// NewBox builds a box and validates it.
func NewBox(low, high []float64, dtype DType) (Box, error) {
	b := Box{Low: low, High: high, DType: dtype}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

// Uniform builds an n-dimensional box with the same bounds on every axis.
func Uniform(n int, low, high float64, dtype DType) Box {
	l := make([]float64, n)
	h := make([]float64, n)
	for i := range l {
		l[i], h[i] = low, high
	}
	return Box{Low: l, High: h, DType: dtype}
}

func (b Box) Validate() error {
	if len(b.Low) != len(b.High) {
		return fmt.Errorf("box bounds have %d and %d elements", len(b.Low), len(b.High))
	}
	for i := range b.Low {
		if math.IsNaN(b.Low[i]) || math.IsNaN(b.High[i]) {
			return fmt.Errorf("box bound %d is NaN", i)
		}
		if b.Low[i] > b.High[i] {
			return fmt.Errorf("box bound %d: low %v > high %v", i, b.Low[i], b.High[i])
		}
	}
	return nil
}

func (b Box) Shape() int { return len(b.Low) }

func (b Box) Bound(i int) r1.Interval {
	return r1.Interval{Min: b.Low[i], Max: b.High[i]}
}

// Contains reports whether x has the box's shape and lies inside it.
func (b Box) Contains(x []float64) bool {
	if len(x) != len(b.Low) {
		return false
	}
	for i, v := range x {
		iv := b.Bound(i)
		if math.IsNaN(v) || v < iv.Min || v > iv.Max {
			return false
		}
	}
	return true
}

// Clip returns a copy of x projected onto the box.
func (b Box) Clip(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for i := range out {
		if i >= len(b.Low) {
			break
		}
		iv := b.Bound(i)
		out[i] = math.Min(math.Max(out[i], iv.Min), iv.Max)
	}
	return out
}

// Sample draws uniformly inside the box. Unbounded axes are sampled from a
// standard normal, matching the usual gym convention.
func (b Box) Sample(rng *randomness.Source) []float64 {
	out := make([]float64, len(b.Low))
	for i := range out {
		lo, hi := b.Low[i], b.High[i]
		switch {
		case math.IsInf(lo, 0) || math.IsInf(hi, 0):
			out[i] = rng.Normal(0, 1)
		default:
			out[i] = rng.Uniform(lo, hi)
		}
	}
	return out
}

// Concat appends other's axes to b. The result keeps b's dtype.
func (b Box) Concat(other Box) Box {
	return Box{
		Low:   append(append([]float64{}, b.Low...), other.Low...),
		High:  append(append([]float64{}, b.High...), other.High...),
		DType: b.DType,
	}
}

// Equal reports whether two boxes have identical bounds and dtype.
func (b Box) Equal(other Box) bool {
	return b.DType == other.DType &&
		len(b.Low) == len(other.Low) &&
		floats.Equal(b.Low, other.Low) &&
		floats.Equal(b.High, other.High)
}
