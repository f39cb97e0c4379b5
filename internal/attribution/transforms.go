package attribution

import (
	"math"

	"gomix/domain/core"
)

// Adstock applies geometric carryover: y[0]=x[0], y[i]=x[i]+decay*y[i-1].
// The input is not modified.
func Adstock(x []float64, decay float64) ([]float64, error) {
	if math.IsNaN(decay) || decay < 0 || decay >= 1 {
		return nil, core.NewParameterError("decay", decay, "[0,1)")
	}
	out := make([]float64, len(x))
	carry := 0.0
	for i, v := range x {
		carry = v + decay*carry
		out[i] = carry
	}
	return out, nil
}

// Saturate applies log1p(max(x,0)) element-wise.
func Saturate(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Log1p(math.Max(v, 0))
	}
	return out
}

// TransformSpend runs adstock and, when saturation is on, the log saturation.
func TransformSpend(x []float64, decay float64, saturation bool) ([]float64, error) {
	y, err := Adstock(x, decay)
	if err != nil {
		return nil, err
	}
	if saturation {
		return Saturate(y), nil
	}
	return y, nil
}
