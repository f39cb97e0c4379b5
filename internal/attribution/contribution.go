package attribution

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"gomix/domain/attribution"
	"gomix/domain/dataset"
)

// Contributions multiplies every design column by its coefficient. Each row of
// the result sums to that row's fitted value.
func Contributions(m attribution.DesignMatrix, coefficients []float64) (attribution.ContributionTable, error) {
	if len(coefficients) != m.Cols() {
		return attribution.ContributionTable{}, fmt.Errorf("got %d coefficients for %d design columns", len(coefficients), m.Cols())
	}
	values := make([][]float64, m.Rows())
	for i, row := range m.X {
		values[i] = floats.MulTo(make([]float64, len(row)), row, coefficients)
	}
	return attribution.ContributionTable{
		Columns: append([]string(nil), m.Columns...),
		Values:  values,
	}, nil
}

// ROIByChannel builds the channel ROI table. Spend totals are taken from the
// raw dataset values of the rows the model was fit on, so contribution and
// spend describe the same population. A channel with no positive spend gets a
// NaN ROI and sorts after every defined ROI.
func ROIByChannel(ds dataset.Dataset, m attribution.DesignMatrix, contrib attribution.ContributionTable) []attribution.ROIRow {
	rows := make([]attribution.ROIRow, 0, len(m.Roles.Spend))
	channelTotal := 0.0
	for _, ch := range m.Roles.Spend {
		feature := attribution.FeatureName(ch)
		if m.ColumnIndex(feature) < 0 {
			continue
		}
		total := contrib.ColumnTotal(feature)
		spend := floats.Sum(RawSpend(ds, m, ch))
		roi := math.NaN()
		if spend > 0 {
			roi = total / spend
		}
		rows = append(rows, attribution.ROIRow{
			Channel:           ch,
			TotalSpend:        spend,
			TotalContribution: total,
			ROI:               roi,
		})
		channelTotal += total
	}

	for i := range rows {
		rows[i].ContributionShare = math.NaN()
		if channelTotal != 0 {
			rows[i].ContributionShare = rows[i].TotalContribution / channelTotal
		}
	}

	SortROI(rows)
	return rows
}

// SortROI orders rows by descending ROI with undefined ROI last. Ties keep
// their channel order.
func SortROI(rows []attribution.ROIRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].ROI, rows[j].ROI
		if math.IsNaN(a) {
			return false
		}
		return math.IsNaN(b) || a > b
	})
}

// SpendSummaries describes each channel's raw spend over the fitted rows.
func SpendSummaries(ds dataset.Dataset, m attribution.DesignMatrix) []attribution.SpendSummary {
	out := make([]attribution.SpendSummary, 0, len(m.Roles.Spend))
	for _, ch := range m.Roles.Spend {
		spend := RawSpend(ds, m, ch)
		s := attribution.SpendSummary{Channel: ch}
		if len(spend) > 0 {
			s.Mean, _ = stats.Mean(spend)
			s.StdDev, _ = stats.StandardDeviation(spend)
			s.Min, _ = stats.Min(spend)
			s.Max, _ = stats.Max(spend)
		}
		out = append(out, s)
	}
	return out
}
