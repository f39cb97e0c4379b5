package report

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomix/domain/attribution"
	"gomix/domain/core"
)

func sampleResult() attribution.Result {
	f := 12.5
	p := 0.001
	return attribution.Result{
		RunID:       core.RunID("run-1"),
		DatasetHash: core.NewHashOf("a", "b"),
		Roles: attribution.ColumnRoles{
			Date:   "date",
			Target: "revenue",
			Spend:  []string{"tv_spend", "radio_spend"},
		},
		Params:        attribution.Params{Decay: 0.5, Saturation: true},
		InputRows:     10,
		UsedRows:      9,
		DroppedTarget: 1,
		Model: attribution.FittedModel{
			Features:     []string{"intercept", "tv_spend__x", "radio_spend__x"},
			Coefficients: []float64{100, 2.5, 0},
			R2:           0.91,
			AdjR2:        0.88,
			Rank:         3,
			RMSE:         4.2,
			FStatistic:   &f,
			FPValue:      &p,
		},
		ROI: []attribution.ROIRow{
			{Channel: "tv_spend", TotalSpend: 1000, TotalContribution: 2500, ROI: 2.5, ContributionShare: 1},
			{Channel: "radio_spend", TotalSpend: 0, TotalContribution: 0, ROI: math.NaN(), ContributionShare: 0},
		},
		BaselineContribution: 900,
	}
}

func TestMarkdown(t *testing.T) {
	md := NewRenderer().Markdown(sampleResult())

	assert.True(t, strings.HasPrefix(md, "# Marketing Mix Attribution"))
	assert.Contains(t, md, "Run `run-1`")
	assert.Contains(t, md, "| tv_spend | 1000.00 | 2500.00 | 2.500 | 100.0% |")
	assert.Contains(t, md, "| radio_spend | 0.00 | 0.00 | n/a | 0.0% |")
	assert.Contains(t, md, "9 used of 10 (0 without a date, 1 without a numeric target)")
	assert.Contains(t, md, "F-statistic")
	assert.NotContains(t, md, "collinear")
}

func TestMarkdown_RankDeficient(t *testing.T) {
	res := sampleResult()
	res.Model.Rank = 2
	res.Model.FStatistic = nil
	md := NewRenderer().Markdown(res)
	assert.Contains(t, md, "collinear")
	assert.NotContains(t, md, "F-statistic")
}

func TestHTML(t *testing.T) {
	out, err := NewRenderer().HTML(sampleResult())
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>tv_spend</td>")
}
