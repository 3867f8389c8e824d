package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/stablegym/internal/storage"
)

var (
	ErrTooShort = errors.New("analysis: signal too short")
	ErrFlat     = errors.New("analysis: signal has no oscillating component")
)

// Spectrum returns the one-sided amplitude spectrum of signal after removing
// its mean, with the frequency of each bin for sample spacing dt.
func Spectrum(signal []float64, dt float64) (amps, freqs []float64, err error) {
	n := len(signal)
	if n < 4 {
		return nil, nil, ErrTooShort
	}

	centred := make([]float64, n)
	copy(centred, signal)
	floats.AddConst(-stat.Mean(signal, nil), centred)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, centred)

	amps = make([]float64, len(coeffs))
	freqs = make([]float64, len(coeffs))
	for i, c := range coeffs {
		amps[i] = cmplx.Abs(c) / float64(n)
		freqs[i] = fft.Freq(i) / dt
	}
	return amps, freqs, nil
}

// DominantPeriod returns 1/f for the strongest bin above zero frequency.
func DominantPeriod(signal []float64, dt float64) (float64, error) {
	amps, freqs, err := Spectrum(signal, dt)
	if err != nil {
		return 0, err
	}
	k := floats.MaxIdx(amps[1:]) + 1
	if amps[k] < 1e-12 {
		return 0, ErrFlat
	}
	return 1 / freqs[k], nil
}

type Summary struct {
	Mean, Std float64
	Min, Max  float64
}

func Summarize(signal []float64) Summary {
	if len(signal) == 0 {
		return Summary{Mean: math.NaN(), Std: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	}
	mean, std := stat.MeanStdDev(signal, nil)
	return Summary{Mean: mean, Std: std, Min: floats.Min(signal), Max: floats.Max(signal)}
}

// Column extracts observation element idx from stored transitions. Rows
// too short for idx are skipped.
func Column(transitions []storage.Transition, idx int) []float64 {
	out := make([]float64, 0, len(transitions))
	for _, tr := range transitions {
		if idx < len(tr.Observation) {
			out = append(out, tr.Observation[idx])
		}
	}
	return out
}

// Costs extracts the per-step cost from stored transitions.
func Costs(transitions []storage.Transition) []float64 {
	out := make([]float64, len(transitions))
	for i, tr := range transitions {
		out[i] = tr.Cost
	}
	return out
}
