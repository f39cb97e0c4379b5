package attribution

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomix/domain/core"
)

var features3 = []string{"intercept", "a__x", "b__x"}

func TestFitXY_RecoversExactCoefficients(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		a, b := float64(i), float64((i*7)%5)
		x = append(x, []float64{1, a, b})
		y = append(y, 3+2*a-b)
	}

	m, err := FitXY(features3, x, y)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{3, 2, -1}, m.Coefficients, 1e-9)
	assert.InDelta(t, 1.0, m.R2, 1e-9)
	assert.Equal(t, 20, m.N)
	assert.Equal(t, 3, m.Rank)
	b, ok := m.Coefficient("b__x")
	require.True(t, ok)
	assert.InDelta(t, -1.0, b, 1e-9)
}

func TestFitXY_CollinearFeaturesStillSolve(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 10; i++ {
		a := float64(i)
		x = append(x, []float64{1, a, 2 * a})
		y = append(y, 1+a)
	}

	m, err := FitXY(features3, x, y)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Rank)
	for i := range y {
		assert.InDelta(t, y[i], m.Fitted[i], 1e-8)
	}
	// Minimum-norm split of the shared slope: b1 + 2*b2 = 1 with b2 = 2*b1.
	assert.InDelta(t, 0.2, m.Coefficients[1], 1e-8)
	assert.InDelta(t, 0.4, m.Coefficients[2], 1e-8)
}

func TestFitXY_FTestUsesRankForDegreesOfFreedom(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 12; i++ {
		a := float64(i)
		x = append(x, []float64{1, a, 2 * a})
		y = append(y, 1+a+float64(i%3)-1)
	}

	m, err := FitXY(features3, x, y)
	require.NoError(t, err)
	require.Equal(t, 2, m.Rank)
	require.NotNil(t, m.FStatistic)
	require.NotNil(t, m.FPValue)

	ssRes, ssTot, mean := 0.0, 0.0, 0.0
	for _, v := range y {
		mean += v / float64(len(y))
	}
	for i, v := range y {
		ssRes += m.Residuals[i] * m.Residuals[i]
		ssTot += (v - mean) * (v - mean)
	}
	// One effective predictor, so df = (1, n-2).
	want := (ssTot - ssRes) / (ssRes / float64(len(y)-2))
	assert.InDelta(t, want, *m.FStatistic, 1e-6*want)
}

func TestFitXY_ConstantTargetHasZeroR2(t *testing.T) {
	x := [][]float64{{1, 1}, {1, 2}, {1, 3}, {1, 4}}
	y := []float64{0.1, 0.1, 0.1, 0.1}

	m, err := FitXY([]string{"intercept", "a__x"}, x, y)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.R2)
	assert.False(t, math.IsNaN(m.AdjR2))
	assert.Nil(t, m.FStatistic)
}

func TestFitXY_UnderdeterminedFallsBackToR2(t *testing.T) {
	x := [][]float64{{1, 5, 2}, {1, 3, 9}}
	y := []float64{10, 4}

	m, err := FitXY(features3, x, y)
	require.NoError(t, err)
	assert.Equal(t, m.R2, m.AdjR2)
	assert.False(t, math.IsInf(m.AdjR2, 0))
	assert.GreaterOrEqual(t, m.AdjR2, 0.0)

	// n == p+1 is still underdetermined for the adjustment.
	x = [][]float64{{1, 5, 2}, {1, 3, 9}, {1, 0, 1}}
	y = []float64{10, 4, 7}
	m, err = FitXY(features3, x, y)
	require.NoError(t, err)
	assert.Equal(t, m.R2, m.AdjR2)
}

func TestFitXY_NoRowsIsInsufficientData(t *testing.T) {
	_, err := FitXY(features3, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestFitXY_ShapeMismatch(t *testing.T) {
	_, err := FitXY(features3, [][]float64{{1, 2, 3}}, []float64{1, 2})
	assert.Error(t, err)

	_, err = FitXY(features3, [][]float64{{1, 2}}, []float64{1})
	assert.Error(t, err)
}

func TestFitXY_NoisyFitDiagnostics(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var x [][]float64
	var y []float64
	for i := 0; i < 200; i++ {
		a, b := rng.Float64()*10, rng.Float64()*5
		x = append(x, []float64{1, a, b})
		y = append(y, 5+1.5*a+0.5*b+rng.NormFloat64())
	}

	m, err := FitXY(features3, x, y)
	require.NoError(t, err)

	assert.Greater(t, m.R2, 0.5)
	assert.Less(t, m.AdjR2, m.R2)
	assert.Greater(t, m.RMSE, 0.0)
	assert.InDelta(t, 1.0, m.ResidualStd, 0.2)
	require.NotNil(t, m.FStatistic)
	require.NotNil(t, m.FPValue)
	assert.Greater(t, *m.FStatistic, 0.0)
	assert.GreaterOrEqual(t, *m.FPValue, 0.0)
	assert.Less(t, *m.FPValue, 1e-6)

	sum := 0.0
	for _, r := range m.Residuals {
		sum += r
	}
	assert.InDelta(t, 0.0, sum, 1e-8)
}
