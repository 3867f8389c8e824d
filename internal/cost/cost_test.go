package cost

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/san-kum/stablegym/internal/dynamo"
)

func TestSquaredError(t *testing.T) {
	tests := []struct {
		a, b []float64
		want float64
	}{
		{[]float64{1}, []float64{1}, 0},
		{[]float64{3}, []float64{1}, 4},
		{[]float64{1, 2}, []float64{0, 0}, 5},
		{[]float64{-1, -1}, []float64{1, 1}, 8},
	}

	for _, tt := range tests {
		if got := SquaredError(tt.a, tt.b); got != tt.want {
			t.Errorf("SquaredError(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSquaredErrorNonNegative(t *testing.T) {
	for _, v := range []float64{-1e6, -3.2, 0, 1e-9, 42} {
		if got := SquaredError([]float64{v}, []float64{-v / 2}); got < 0 {
			t.Errorf("negative cost %v", got)
		}
	}
}

func TestTerminated(t *testing.T) {
	e := NewEvaluator()

	tests := []struct {
		cost float64
		want bool
	}{
		{0, false},
		{50, false},
		{100, false},
		{100.0001, true},
		{-1e-12, true},
	}

	for _, tt := range tests {
		if got := e.Terminated(tt.cost); got != tt.want {
			t.Errorf("Terminated(%v) = %v, want %v", tt.cost, got, tt.want)
		}
	}
}

func TestCustomRange(t *testing.T) {
	if !OutOfRange(11, r1.Interval{Min: 0, Max: 10}) {
		t.Error("11 should be outside [0, 10]")
	}
	if OutOfRange(math.MaxFloat32, r1.Interval{Min: 0, Max: math.MaxFloat32}) {
		t.Error("upper bound is inclusive")
	}
}

func TestEvaluatorTerms(t *testing.T) {
	e := NewEvaluator()
	u := dynamo.Control{1, 2}

	b := e.Evaluate(4, u, false)
	if b.Base != 4 || b.Ctrl != 0 || b.Health != 0 {
		t.Errorf("defaults should only include base term, got %+v", b)
	}

	e.Weight = 2
	e.IncludeCtrl = true
	e.IncludeHealth = true
	b = e.Evaluate(4, u, false)
	if b.Base != 8 {
		t.Errorf("Base = %v, want 8", b.Base)
	}
	if math.Abs(b.Ctrl-5e-3) > 1e-15 {
		t.Errorf("Ctrl = %v, want 5e-3", b.Ctrl)
	}
	if b.Health != 10 {
		t.Errorf("Health = %v, want 10", b.Health)
	}
	if math.Abs(b.Total()-(8+5e-3+10)) > 1e-12 {
		t.Errorf("Total = %v", b.Total())
	}

	if b = e.Evaluate(4, u, true); b.Health != 0 {
		t.Errorf("healthy body penalised: %+v", b)
	}
}

func TestNewInfo(t *testing.T) {
	info := NewInfo(8, 5)
	if info.ReferenceError != -3 {
		t.Errorf("ReferenceError = %v, want -3", info.ReferenceError)
	}
	if info.Terms == nil {
		t.Error("Terms map not initialised")
	}
}
