package attribution

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomix/domain/attribution"
	"gomix/domain/core"
	"gomix/domain/dataset"
)

func sampleDataset() dataset.Dataset {
	revenue := []float64{120000, 125000, 118000, 131000, 140000, 128000, 122000, 135000, 150000, 142000}
	tv := []float64{5000, 5200, 4800, 6000, 7000, 5500, 5000, 6500, 8000, 7200}
	search := []float64{3000, 3100, 2900, 3300, 3600, 3200, 3000, 3400, 3900, 3700}
	return weeklyDataset(revenue, tv, search)
}

func TestAnalyze_EndToEnd(t *testing.T) {
	ds := sampleDataset()

	res, err := Analyze(ds, attribution.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, "revenue", res.Roles.Target)
	assert.Equal(t, 10, res.InputRows)
	assert.Equal(t, 10, res.UsedRows)
	assert.Equal(t, 10, res.Model.N)
	assert.Len(t, res.ROI, 2)
	assert.Len(t, res.SpendSummaries, 2)
	assert.False(t, res.DatasetHash.IsEmpty())
	assert.True(t, res.RunID == "")

	total := res.BaselineContribution
	for _, r := range res.ROI {
		total += r.TotalContribution
	}
	fitted := 0.0
	for _, f := range res.Model.Fitted {
		fitted += f
	}
	assert.InDelta(t, fitted, total, 1e-6*fitted)

	_, err = json.Marshal(res)
	require.NoError(t, err)
}

func TestAnalyze_SchemaErrorStopsPipeline(t *testing.T) {
	ds := dataset.Dataset{
		Columns: []string{"date", "tv_spend"},
		Rows:    []dataset.Row{{"date": week(0), "tv_spend": dataset.Number(1)}},
	}
	_, err := Analyze(ds, attribution.DefaultParams())
	assert.ErrorIs(t, err, core.ErrNoTarget)
}

func TestAnalyze_NoUsableRows(t *testing.T) {
	ds := dataset.Dataset{
		Columns: []string{"date", "revenue", "tv_spend"},
		Rows: []dataset.Row{
			{"date": week(0), "revenue": dataset.Text("?"), "tv_spend": dataset.Number(1)},
			{"date": dataset.Missing(), "revenue": dataset.Number(3), "tv_spend": dataset.Number(1)},
		},
	}
	_, err := Analyze(ds, attribution.DefaultParams())
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestAnalyze_InvalidDecay(t *testing.T) {
	_, err := Analyze(sampleDataset(), attribution.Params{Decay: -0.5})
	assert.True(t, core.IsParameterError(err))
}

func TestAnalyzeWithRoles_OverridesDetection(t *testing.T) {
	ds := sampleDataset()
	roles := attribution.ColumnRoles{Date: "date", Target: "revenue", Spend: []string{"search_spend"}}

	res, err := AnalyzeWithRoles(ds, roles, attribution.DefaultParams())
	require.NoError(t, err)
	require.Len(t, res.ROI, 1)
	assert.Equal(t, "search_spend", res.ROI[0].Channel)
	assert.Equal(t, []string{"intercept", "search_spend__x"}, res.Model.Features)
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := sampleDataset()
	b := sampleDataset()
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	b.Rows[0]["revenue"] = dataset.Number(1)
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}
