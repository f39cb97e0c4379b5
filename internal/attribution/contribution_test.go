package attribution

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomix/domain/attribution"
	"gomix/domain/dataset"
)

func TestContributions_RowsReconstructFittedValues(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 60
	revenue, tv, search := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		tv[i] = 1000 + rng.Float64()*4000
		search[i] = 500 + rng.Float64()*2000
		revenue[i] = 20000 + 3*tv[i] + 5*search[i] + rng.NormFloat64()*800
	}
	ds := weeklyDataset(revenue, tv, search)

	for _, params := range []attribution.Params{{Decay: 0.5, Saturation: true}, {Decay: 0.2, Saturation: false}} {
		m, err := BuildDesign(ds, DetectColumns(ds.Columns), params)
		require.NoError(t, err)
		model, err := Fit(m)
		require.NoError(t, err)
		table, err := Contributions(m, model.Coefficients)
		require.NoError(t, err)

		assert.Equal(t, m.Columns, table.Columns)
		require.Len(t, table.Values, m.Rows())
		for i := range table.Values {
			sum := table.RowSum(i)
			tol := 1e-9 * math.Max(1, math.Abs(model.Fitted[i]))
			if math.Abs(sum-model.Fitted[i]) > tol {
				t.Fatalf("row %d: contributions sum to %v, fitted %v", i, sum, model.Fitted[i])
			}
		}
	}
}

func TestContributions_CoefficientCountMismatch(t *testing.T) {
	ds := weeklyDataset([]float64{1, 2}, []float64{1, 2}, []float64{1, 2})
	m, err := BuildDesign(ds, DetectColumns(ds.Columns), linear)
	require.NoError(t, err)

	_, err = Contributions(m, []float64{1, 2})
	assert.Error(t, err)
}

func TestROIByChannel_ZeroSpendIsNaNAndSortsLast(t *testing.T) {
	n := 30
	revenue, tv, search := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		tv[i] = float64(100 + (i*37)%50)
		revenue[i] = 1000 + 4*tv[i] + float64(i%3)
	}
	ds := weeklyDataset(revenue, tv, search)
	m, err := BuildDesign(ds, DetectColumns(ds.Columns), linear)
	require.NoError(t, err)
	model, err := Fit(m)
	require.NoError(t, err)
	table, err := Contributions(m, model.Coefficients)
	require.NoError(t, err)

	rows := ROIByChannel(ds, m, table)
	require.Len(t, rows, 2)
	assert.Equal(t, "tv_spend", rows[0].Channel)
	assert.True(t, rows[0].Defined())
	assert.Equal(t, "search_spend", rows[1].Channel)
	assert.False(t, rows[1].Defined())
	assert.Equal(t, 0.0, rows[1].TotalSpend)

	raw, err := json.Marshal(rows[1])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"roi":null`)
}

func TestROIByChannel_SpendAlignedToFittedRows(t *testing.T) {
	ds := dataset.Dataset{
		Columns: []string{"date", "revenue", "tv_spend"},
		Rows: []dataset.Row{
			{"date": week(0), "revenue": dataset.Number(10), "tv_spend": dataset.Number(1)},
			{"date": week(1), "revenue": dataset.Missing(), "tv_spend": dataset.Number(1000)},
			{"date": week(2), "revenue": dataset.Number(30), "tv_spend": dataset.Number(3)},
			{"date": week(3), "revenue": dataset.Number(20), "tv_spend": dataset.Number(2)},
		},
	}
	m, err := BuildDesign(ds, DetectColumns(ds.Columns), attribution.Params{Decay: 0})
	require.NoError(t, err)
	model, err := Fit(m)
	require.NoError(t, err)
	table, err := Contributions(m, model.Coefficients)
	require.NoError(t, err)

	rows := ROIByChannel(ds, m, table)
	require.Len(t, rows, 1)
	assert.Equal(t, 6.0, rows[0].TotalSpend)
	assert.InDelta(t, table.ColumnTotal("tv_spend__x")/6.0, rows[0].ROI, 1e-12)
	assert.InDelta(t, 1.0, rows[0].ContributionShare, 1e-12)
}

func TestSortROI(t *testing.T) {
	nan := math.NaN()
	rows := []attribution.ROIRow{
		{Channel: "a", ROI: nan},
		{Channel: "b", ROI: 1.5},
		{Channel: "c", ROI: -0.2},
		{Channel: "d", ROI: nan},
		{Channel: "e", ROI: 3},
	}
	SortROI(rows)

	var order []string
	for _, r := range rows {
		order = append(order, r.Channel)
	}
	assert.Equal(t, []string{"e", "b", "c", "a", "d"}, order)
}

func TestSpendSummaries(t *testing.T) {
	ds := weeklyDataset([]float64{1, 2, 3, 4}, []float64{2, 4, 4, 6}, []float64{0, 0, 0, 0})
	m, err := BuildDesign(ds, DetectColumns(ds.Columns), linear)
	require.NoError(t, err)

	got := SpendSummaries(ds, m)
	require.Len(t, got, 2)
	assert.Equal(t, "tv_spend", got[0].Channel)
	assert.InDelta(t, 4.0, got[0].Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2), got[0].StdDev, 1e-12)
	assert.Equal(t, 2.0, got[0].Min)
	assert.Equal(t, 6.0, got[0].Max)
	assert.Equal(t, 0.0, got[1].Max)
}
