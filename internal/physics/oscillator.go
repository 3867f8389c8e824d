package physics

import (
	"fmt"
	"strconv"

	"github.com/san-kum/stablegym/internal/dynamo"
)

// OscillatorNetwork is a synthetic three-gene oscillatory network. State is
// [m1, m2, m3, p1, p2, p3]: mRNA then protein concentrations. Protein i-1
// represses transcription of gene i (p3 represses m1).
type OscillatorNetwork struct {
	K     [3]float64 // Dissociation constants.
	A     [3]float64 // Maximum promoter strengths.
	Gamma [3]float64 // mRNA decay rates.
	Beta  [3]float64 // Protein production rates.
	C     [3]float64 // Protein decay rates.
	B     [3]float64 // Control input gains.

	defaults *OscillatorNetwork
}

func NewOscillatorNetwork() *OscillatorNetwork {
	o := &OscillatorNetwork{
		K:     [3]float64{1, 1, 1},
		A:     [3]float64{1.6, 1.6, 1.6},
		Gamma: [3]float64{0.16, 0.16, 0.16},
		Beta:  [3]float64{0.16, 0.16, 0.16},
		C:     [3]float64{0.06, 0.06, 0.06},
		B:     [3]float64{1, 1, 1},
	}
	d := *o
	o.defaults = &d
	return o
}

func (o *OscillatorNetwork) StateDim() int   { return 6 }
func (o *OscillatorNetwork) ControlDim() int { return 3 }

func (o *OscillatorNetwork) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	m := x[0:3]
	p := x[3:6]

	dx := make(dynamo.State, 6)
	for i := 0; i < 3; i++ {
		repressor := p[(i+2)%3]
		dx[i] = -o.Gamma[i]*m[i] + o.A[i]/(o.K[i]+repressor*repressor) + o.B[i]*u[i]
		dx[i+3] = -o.C[i]*p[i] + o.Beta[i]*m[i]
	}
	return dx
}

func (o *OscillatorNetwork) params() map[string]*float64 {
	out := make(map[string]*float64, 18)
	for i := 0; i < 3; i++ {
		n := strconv.Itoa(i + 1)
		out["K"+n] = &o.K[i]
		out["a"+n] = &o.A[i]
		out["gamma"+n] = &o.Gamma[i]
		out["beta"+n] = &o.Beta[i]
		out["c"+n] = &o.C[i]
		out["b"+n] = &o.B[i]
	}
	return out
}

func (o *OscillatorNetwork) GetParams() map[string]float64 {
	out := make(map[string]float64, 18)
	for name, v := range o.params() {
		out[name] = *v
	}
	return out
}

func (o *OscillatorNetwork) SetParam(name string, value float64) error {
	p, ok := o.params()[name]
	if !ok {
		return dynamo.UnknownParam(name)
	}
	if name[0] == 'K' && value <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %v", dynamo.ErrParameterBounds, name, value)
	}
	*p = value
	return nil
}

// ResetParams restores the construction-time parameters.
func (o *OscillatorNetwork) ResetParams() {
	d := o.defaults
	*o = *d
	o.defaults = d
}
