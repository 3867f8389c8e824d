package reference

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/randomness"
)

func TestSinusoidValue(t *testing.T) {
	s := Sinusoid{Target: 8, Amplitude: 7, Frequency: 1.0 / 200}

	tests := []struct {
		t    float64
		want float64
	}{
		{0, 8},
		{50, 15},
		{100, 8},
		{150, 1},
	}

	for _, tt := range tests {
		if got := s.Value(tt.t); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Value(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestSinusoidPhaseShift(t *testing.T) {
	s := Sinusoid{Amplitude: 1, Frequency: 1, PhaseShift: math.Pi / 2}
	if got := s.Value(0); math.Abs(got+1) > 1e-12 {
		t.Errorf("Value(0) = %v, want -1", got)
	}
}

func TestSinusoidValidate(t *testing.T) {
	if err := (Sinusoid{Frequency: 0}).Validate(); err != nil {
		t.Errorf("zero frequency rejected: %v", err)
	}
	err := (Sinusoid{Frequency: -0.1}).Validate()
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestSinusoidIsConstant(t *testing.T) {
	tests := []struct {
		s    Sinusoid
		want bool
	}{
		{Sinusoid{Amplitude: 0, Frequency: 1}, true},
		{Sinusoid{Amplitude: 1, Frequency: 0}, true},
		{Sinusoid{Amplitude: 1, Frequency: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.s.IsConstant(); got != tt.want {
			t.Errorf("%+v IsConstant() = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestSinusoidSetParam(t *testing.T) {
	s := Sinusoid{}
	if err := s.SetParam("reference_amplitude", 3); err != nil {
		t.Fatal(err)
	}
	if s.GetParams()["reference_amplitude"] != 3 {
		t.Error("amplitude not updated")
	}
	if err := s.SetParam("reference_frequency", -1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("negative frequency accepted: %v", err)
	}
	if err := s.SetParam("nope", 1); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestUniformResampler(t *testing.T) {
	u := UniformResampler{Low: 0.5, High: 1.5}
	rng := randomness.NewSeeded(4)
	for i := 0; i < 100; i++ {
		c := u.Draw(rng)
		if c.Value(float64(i)) < 0.5 || c.Value(0) >= 1.5 {
			t.Fatalf("draw %v out of range", c.Target)
		}
	}
	if err := (UniformResampler{Low: 2, High: 1}).Validate(); err == nil {
		t.Error("inverted range accepted")
	}
}
