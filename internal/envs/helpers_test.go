package envs

import "testing"

func TestNoiseIndex(t *testing.T) {
	tests := []struct {
		name string
		idx  int
		ok   bool
	}{
		{"delta1", 0, true},
		{"delta6", 5, true},
		{"delta0", 0, false},
		{"delta7", 0, false},
		{"delta", 0, false},
		{"gamma1", 0, false},
	}

	for _, tt := range tests {
		idx, ok := noiseIndex(tt.name)
		if ok != tt.ok || (ok && idx != tt.idx) {
			t.Errorf("noiseIndex(%q) = %d, %v; want %d, %v", tt.name, idx, ok, tt.idx, tt.ok)
		}
	}
}

func TestSign(t *testing.T) {
	for v, want := range map[float64]float64{-2: -1, 0: 0, 3: 1} {
		if got := sign(v); got != want {
			t.Errorf("sign(%v) = %v, want %v", v, got, want)
		}
	}
}
