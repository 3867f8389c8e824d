package gym

import (
	"fmt"

	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/spaces"
)

// ValidateResetBounds checks that low and high, zero-padded to the
// observation shape, lie inside obs. Nothing is mutated on failure.
func ValidateResetBounds(obs spaces.Box, low, high []float64) error {
	if len(low) != len(high) {
		return fmt.Errorf("%w: low has %d elements, high has %d", dynamo.ErrResetBounds, len(low), len(high))
	}
	for _, b := range [][]float64{low, high} {
		if len(b) > obs.Shape() {
			return fmt.Errorf("%w: %d bounds for a %d-dimensional observation", dynamo.ErrResetBounds, len(b), obs.Shape())
		}
		padded := make([]float64, obs.Shape())
		copy(padded, b)
		if !obs.Contains(padded) {
			return fmt.Errorf("%w: %v not within [%v, %v]", dynamo.ErrResetBounds, b, obs.Low, obs.High)
		}
	}
	for i := range low {
		if low[i] > high[i] {
			return fmt.Errorf("%w: low[%d]=%v > high[%d]=%v", dynamo.ErrResetBounds, i, low[i], i, high[i])
		}
	}
	return nil
}

// ResolveResetBounds returns the sampling bounds for a reset: the option
// overrides when present, otherwise the defaults. Overrides are validated
// against obs and must cover exactly stateDim elements.
func ResolveResetBounds(obs spaces.Box, stateDim int, opts *ResetOptions, defLow, defHigh []float64) ([]float64, []float64, error) {
	low, high := defLow, defHigh
	if opts != nil && opts.Low != nil {
		low = opts.Low
	}
	if opts != nil && opts.High != nil {
		high = opts.High
	}
	if err := ValidateResetBounds(obs, low, high); err != nil {
		return nil, nil, err
	}
	if len(low) != stateDim {
		return nil, nil, fmt.Errorf("%w: need %d bounds, got %d", dynamo.ErrResetBounds, stateDim, len(low))
	}
	return low, high, nil
}
