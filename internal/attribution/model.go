package attribution

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"gomix/domain/attribution"
	"gomix/domain/core"
)

// Fit solves the least-squares problem for a design matrix.
func Fit(m attribution.DesignMatrix) (attribution.FittedModel, error) {
	return FitXY(m.Columns, m.X, m.Y)
}

// FitXY minimises ||Xβ - y||² with an SVD solve. Rank-deficient designs, which
// are common because adstocked spend series move together, get the
// minimum-norm solution instead of a singular-matrix failure. features names
// the columns of x; the first column is taken to be the intercept.
func FitXY(features []string, x [][]float64, y []float64) (attribution.FittedModel, error) {
	n := len(x)
	if n == 0 {
		return attribution.FittedModel{}, core.NewInsufficientDataError("no usable rows after filtering")
	}
	if len(y) != n {
		return attribution.FittedModel{}, fmt.Errorf("design has %d rows but response has %d", n, len(y))
	}
	k := len(features)
	if k == 0 {
		return attribution.FittedModel{}, fmt.Errorf("design has no columns")
	}

	design := mat.NewDense(n, k, nil)
	for i, row := range x {
		if len(row) != k {
			return attribution.FittedModel{}, fmt.Errorf("design row %d has %d values, expected %d", i, len(row), k)
		}
		design.SetRow(i, row)
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return attribution.FittedModel{}, fmt.Errorf("least squares: SVD factorization failed")
	}
	rank := svd.Rank(singularTol)

	beta := make([]float64, k)
	if rank > 0 {
		var sol mat.VecDense
		svd.SolveVecTo(&sol, mat.NewVecDense(n, append([]float64(nil), y...)), rank)
		for j := range beta {
			beta[j] = sol.AtVec(j)
		}
	}

	fitted := make([]float64, n)
	residuals := make([]float64, n)
	ssRes := 0.0
	for i, row := range x {
		fitted[i] = floats.Dot(row, beta)
		residuals[i] = y[i] - fitted[i]
		ssRes += residuals[i] * residuals[i]
	}

	mean := floats.Sum(y) / float64(n)
	ssTot := 0.0
	for _, v := range y {
		d := v - mean
		ssTot += d * d
	}

	r2 := 0.0
	if ssTot > 0 && !constant(y) {
		r2 = 1.0 - ssRes/ssTot
	}

	p := k - 1
	adj := r2
	if n > p+1 {
		adj = 1.0 - (1.0-r2)*float64(n-1)/float64(n-p-1)
	}

	model := attribution.FittedModel{
		Features:     append([]string(nil), features...),
		Coefficients: beta,
		R2:           r2,
		AdjR2:        adj,
		N:            n,
		Rank:         rank,
		Fitted:       fitted,
		Residuals:    residuals,
		RMSE:         math.Sqrt(ssRes / float64(n)),
	}
	if n > 1 {
		if sd, err := stats.StandardDeviationSample(residuals); err == nil {
			model.ResidualStd = sd
		}
	}

	// Degrees of freedom follow the rank, so collinear channels count once.
	dfModel, dfResid := rank-1, n-rank
	if p > 0 && dfModel > 0 && dfResid > 0 && ssRes > 0 && r2 > 0 {
		df1, df2 := float64(dfModel), float64(dfResid)
		f := ((ssTot - ssRes) / df1) / (ssRes / df2)
		pv := 1 - distuv.F{D1: df1, D2: df2}.CDF(f)
		model.FStatistic = &f
		model.FPValue = &pv
	}
	return model, nil
}

// singularTol is the fraction of the largest singular value below which a
// direction is treated as rank-deficient.
const singularTol = 1e-10

func constant(y []float64) bool {
	for _, v := range y[1:] {
		if v != y[0] {
			return false
		}
	}
	return true
}
