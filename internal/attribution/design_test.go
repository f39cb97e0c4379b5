package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomix/domain/attribution"
	"gomix/domain/core"
	"gomix/domain/dataset"
)

var linear = attribution.Params{Decay: 0.5, Saturation: false}

func TestBuildDesign_SortsByDateBeforeAdstock(t *testing.T) {
	// Rows arrive newest first; adstock must run oldest to newest.
	ds := dataset.Dataset{
		Columns: []string{"date", "revenue", "tv_spend"},
		Rows: []dataset.Row{
			{"date": week(2), "revenue": dataset.Number(30), "tv_spend": dataset.Number(0)},
			{"date": week(0), "revenue": dataset.Number(10), "tv_spend": dataset.Number(100)},
			{"date": week(1), "revenue": dataset.Number(20), "tv_spend": dataset.Number(0)},
		},
	}
	roles := DetectColumns(ds.Columns)

	m, err := BuildDesign(ds, roles, linear)
	require.NoError(t, err)

	assert.Equal(t, []string{"intercept", "tv_spend__x"}, m.Columns)
	assert.Equal(t, []int{1, 2, 0}, m.RowIndex)
	assert.Equal(t, []float64{10, 20, 30}, m.Y)
	assert.Equal(t, []float64{1, 1, 1}, column(m, 0))
	assert.InDeltaSlice(t, []float64{100, 50, 25}, column(m, 1), 1e-12)
	require.Len(t, m.Dates, 3)
	assert.True(t, m.Dates[0].Before(m.Dates[1]))
}

func TestBuildDesign_DropsBadDatesAndTargets(t *testing.T) {
	ds := dataset.Dataset{
		Columns: []string{"date", "revenue", "tv_spend"},
		Rows: []dataset.Row{
			{"date": week(0), "revenue": dataset.Number(10), "tv_spend": dataset.Number(1)},
			{"date": dataset.Text("not a date"), "revenue": dataset.Number(99), "tv_spend": dataset.Number(1)},
			{"date": week(1), "revenue": dataset.Text("n/a"), "tv_spend": dataset.Number(1)},
			{"date": week(2), "tv_spend": dataset.Number(1)},
			{"date": week(3), "revenue": dataset.Number(40), "tv_spend": dataset.Text("oops")},
		},
	}

	m, err := BuildDesign(ds, DetectColumns(ds.Columns), linear)
	require.NoError(t, err)

	assert.Equal(t, 1, m.DroppedDate)
	assert.Equal(t, 2, m.DroppedTarget)
	assert.Equal(t, []int{0, 4}, m.RowIndex)
	assert.Equal(t, []float64{10, 40}, m.Y)
	assert.Equal(t, m.Rows(), len(m.Y))
	// Unparseable spend counts as zero; carryover from row 0 remains.
	assert.InDeltaSlice(t, []float64{1, 0.5}, column(m, 1), 1e-12)
	assert.Equal(t, []float64{1, 0}, RawSpend(ds, m, "tv_spend"))
}

func TestBuildDesign_NoDateColumnKeepsInputOrder(t *testing.T) {
	ds := dataset.Dataset{
		Columns: []string{"sales", "radio_cost"},
		Rows: []dataset.Row{
			{"sales": dataset.Number(3), "radio_cost": dataset.Number(2)},
			{"sales": dataset.Number(1), "radio_cost": dataset.Number(4)},
		},
	}
	m, err := BuildDesign(ds, DetectColumns(ds.Columns), attribution.Params{Decay: 0, Saturation: true})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, m.RowIndex)
	assert.Nil(t, m.Dates)
	assert.InDeltaSlice(t, Saturate([]float64{2, 4}), column(m, 1), 1e-12)
}

func TestBuildDesign_OneFeaturePerChannel(t *testing.T) {
	ds := weeklyDataset([]float64{1, 2, 3}, []float64{1, 1, 1}, []float64{2, 2, 2})
	m, err := BuildDesign(ds, DetectColumns(ds.Columns), attribution.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, []string{"intercept", "tv_spend__x", "search_spend__x"}, m.Columns)
	for _, row := range m.X {
		assert.Len(t, row, 3)
	}
}

func TestBuildDesign_Errors(t *testing.T) {
	ds := weeklyDataset([]float64{1}, []float64{1}, []float64{1})

	_, err := BuildDesign(ds, DetectColumns(ds.Columns), attribution.Params{Decay: 1})
	assert.ErrorIs(t, err, core.ErrParameterDomain)

	_, err = BuildDesign(ds, attribution.ColumnRoles{Target: "revenue"}, linear)
	assert.ErrorIs(t, err, core.ErrNoSpend)

	roles := attribution.ColumnRoles{Target: "revenue", Spend: []string{"ghost_spend"}}
	_, err = BuildDesign(ds, roles, linear)
	assert.True(t, core.IsSchemaError(err))
}
