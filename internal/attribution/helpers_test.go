package attribution

import (
	"time"

	"gomix/domain/attribution"
	"gomix/domain/dataset"
)

var week0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func week(i int) dataset.Value {
	return dataset.Date(week0.AddDate(0, 0, 7*i))
}

// weeklyDataset builds date,revenue,tv_spend,search_spend rows in date order.
func weeklyDataset(revenue, tv, search []float64) dataset.Dataset {
	rows := make([]dataset.Row, len(revenue))
	for i := range revenue {
		rows[i] = dataset.Row{
			"date":         week(i),
			"revenue":      dataset.Number(revenue[i]),
			"tv_spend":     dataset.Number(tv[i]),
			"search_spend": dataset.Number(search[i]),
		}
	}
	return dataset.Dataset{
		Columns: []string{"date", "revenue", "tv_spend", "search_spend"},
		Rows:    rows,
	}
}

func column(m attribution.DesignMatrix, j int) []float64 {
	out := make([]float64, m.Rows())
	for i, row := range m.X {
		out[i] = row[j]
	}
	return out
}
