package attribution

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gomix/domain/attribution"
	"gomix/domain/core"
	"gomix/domain/dataset"
)

// BuildDesign turns a dataset into the regression design matrix and response.
//
// Order matters: rows are first sorted by date (rows without a usable date are
// dropped) because adstock depends on chronology, then rows without a numeric
// target are dropped, and only then are spend columns transformed. Non-numeric
// spend counts as zero. A date role naming a column the dataset lacks is
// ignored and rows keep their input order.
func BuildDesign(ds dataset.Dataset, roles attribution.ColumnRoles, params attribution.Params) (attribution.DesignMatrix, error) {
	if err := roles.Validate(); err != nil {
		return attribution.DesignMatrix{}, err
	}
	if err := params.Validate(); err != nil {
		return attribution.DesignMatrix{}, err
	}
	for _, c := range append([]string{roles.Target}, roles.Spend...) {
		if !ds.HasColumn(c) {
			return attribution.DesignMatrix{}, core.NewSchemaError(fmt.Sprintf("column %q not in dataset", c))
		}
	}

	order, dates, droppedDate := chronologicalOrder(ds, roles.Date)

	rows := make([]int, 0, len(order))
	y := make([]float64, 0, len(order))
	var keptDates []time.Time
	droppedTarget := 0
	for k, idx := range order {
		v, ok := finite(ds.Get(idx, roles.Target))
		if !ok {
			droppedTarget++
			continue
		}
		rows = append(rows, idx)
		y = append(y, v)
		if dates != nil {
			keptDates = append(keptDates, dates[k])
		}
	}

	columns := make([]string, 0, len(roles.Spend)+1)
	columns = append(columns, attribution.InterceptName)
	for _, ch := range roles.Spend {
		columns = append(columns, attribution.FeatureName(ch))
	}

	x := make([][]float64, len(rows))
	for i := range x {
		x[i] = make([]float64, len(columns))
		x[i][0] = 1.0
	}
	for j, ch := range roles.Spend {
		feature, err := TransformSpend(alignedSpend(ds, rows, ch), params.Decay, params.Saturation)
		if err != nil {
			return attribution.DesignMatrix{}, err
		}
		for i, v := range feature {
			x[i][j+1] = v
		}
	}

	return attribution.DesignMatrix{
		Columns:       columns,
		X:             x,
		Y:             y,
		RowIndex:      rows,
		Dates:         keptDates,
		Roles:         roles,
		Params:        params,
		DroppedDate:   droppedDate,
		DroppedTarget: droppedTarget,
	}, nil
}

// RawSpend returns the untransformed spend of a channel for the rows the
// design matrix kept, in design order.
func RawSpend(ds dataset.Dataset, m attribution.DesignMatrix, channel string) []float64 {
	return alignedSpend(ds, m.RowIndex, channel)
}

// chronologicalOrder returns row indices sorted by date. With no usable date
// column it returns the input order and nil dates.
func chronologicalOrder(ds dataset.Dataset, dateCol string) ([]int, []time.Time, int) {
	if dateCol == "" || !ds.HasColumn(dateCol) {
		order := make([]int, ds.Len())
		for i := range order {
			order[i] = i
		}
		return order, nil, 0
	}

	type dated struct {
		idx int
		at  time.Time
	}
	kept := make([]dated, 0, ds.Len())
	dropped := 0
	for i := 0; i < ds.Len(); i++ {
		t, ok := ds.Get(i, dateCol).Timestamp()
		if !ok {
			dropped++
			continue
		}
		kept = append(kept, dated{idx: i, at: t})
	}
	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].at.Before(kept[b].at)
	})

	order := make([]int, len(kept))
	dates := make([]time.Time, len(kept))
	for i, d := range kept {
		order[i] = d.idx
		dates[i] = d.at
	}
	return order, dates, dropped
}

func alignedSpend(ds dataset.Dataset, rows []int, channel string) []float64 {
	out := make([]float64, len(rows))
	for i, idx := range rows {
		if v, ok := finite(ds.Get(idx, channel)); ok {
			out[i] = v
		}
	}
	return out
}

func finite(v dataset.Value) (float64, bool) {
	f, ok := v.Float()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
