// Package sweep enumerates the (up_ratio, down_ratio) parameter grid,
// simulates every pair over one daily price series and keeps the pair with
// the highest excess return over buy-and-hold.
package sweep

import "math"

// axisEpsilon absorbs float jitter when the span is an exact multiple of
// the step, so 0.01..0.10 by 0.001 yields 91 values, not 92.
const axisEpsilon = 1e-9

// BuildAxis enumerates min, min+step, ... up to and including max. The last
// value may land one step past max when the span is not a step multiple.
// A non-positive step or max < min yields an empty axis.
func BuildAxis(min, max, step float64) []float64 {
	if step <= 0 || max < min {
		return nil
	}
	n := int(math.Ceil((max-min)/step-axisEpsilon)) + 1
	values := make([]float64, n)
	for i := range values {
		values[i] = min + float64(i)*step
	}
	return values
}
