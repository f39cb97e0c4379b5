package attribution

import (
	"encoding/json"
	"math"
	"time"

	"gomix/domain/core"
)

// FeatureSuffix is appended to a spend column name to name its transformed feature.
const FeatureSuffix = "__x"

// InterceptName names the constant column of every design matrix.
const InterceptName = "intercept"

// FeatureName returns the design matrix column for a spend channel.
func FeatureName(channel string) string {
	return channel + FeatureSuffix
}

// ColumnRoles assigns dataset columns to their role in the model.
// An empty Target means detection found no target column.
type ColumnRoles struct {
	Date   string   `json:"date,omitempty"`
	Target string   `json:"target"`
	Spend  []string `json:"spend"`
}

// HasDate reports whether a date column was detected.
func (r ColumnRoles) HasDate() bool { return r.Date != "" }

// HasTarget reports whether a target column was detected.
func (r ColumnRoles) HasTarget() bool { return r.Target != "" }

// Validate turns an incomplete detection into a schema error.
func (r ColumnRoles) Validate() error {
	if !r.HasTarget() {
		return core.ErrNoTarget
	}
	if len(r.Spend) == 0 {
		return core.ErrNoSpend
	}
	for _, s := range r.Spend {
		if s == r.Target {
			return core.NewSchemaError("column " + s + " is both target and spend")
		}
	}
	return nil
}

// Params controls the spend transforms.
type Params struct {
	Decay      float64 `json:"decay"`
	Saturation bool    `json:"saturation"`
}

// DefaultParams mirrors the dashboard defaults.
func DefaultParams() Params {
	return Params{Decay: 0.5, Saturation: true}
}

// Validate rejects a decay outside [0,1).
func (p Params) Validate() error {
	if math.IsNaN(p.Decay) || p.Decay < 0 || p.Decay >= 1 {
		return core.NewParameterError("decay", p.Decay, "[0,1)")
	}
	return nil
}

// DesignMatrix is the regression input. X is row-major with the intercept in
// column 0; Y, RowIndex and Dates share X's row order.
type DesignMatrix struct {
	Columns  []string    `json:"columns"`
	X        [][]float64 `json:"x"`
	Y        []float64   `json:"y"`
	RowIndex []int       `json:"row_index"`
	Dates    []time.Time `json:"dates,omitempty"`

	Roles         ColumnRoles `json:"roles"`
	Params        Params      `json:"params"`
	DroppedDate   int         `json:"dropped_date"`
	DroppedTarget int         `json:"dropped_target"`
}

// Rows returns the number of observations.
func (m DesignMatrix) Rows() int { return len(m.X) }

// Cols returns the number of columns including the intercept.
func (m DesignMatrix) Cols() int { return len(m.Columns) }

// ColumnIndex returns the position of a column, or -1.
func (m DesignMatrix) ColumnIndex(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// FittedModel is the immutable output of one least-squares fit.
type FittedModel struct {
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	R2           float64   `json:"r2"`
	AdjR2        float64   `json:"adj_r2"`
	N            int       `json:"n"`
	Rank         int       `json:"rank"`

	Fitted      []float64 `json:"fitted"`
	Residuals   []float64 `json:"residuals"`
	RMSE        float64   `json:"rmse"`
	ResidualStd float64   `json:"residual_std"`

	// Set only when n > p+1 and p > 0.
	FStatistic *float64 `json:"f_statistic,omitempty"`
	FPValue    *float64 `json:"f_p_value,omitempty"`
}

// Coefficient looks a coefficient up by feature name.
func (m FittedModel) Coefficient(name string) (float64, bool) {
	for i, f := range m.Features {
		if f == name {
			return m.Coefficients[i], true
		}
	}
	return 0, false
}

// ContributionTable holds coefficient × feature for every row and column.
type ContributionTable struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// RowSum adds up the contributions of row i, which equals its fitted value.
func (t ContributionTable) RowSum(i int) float64 {
	sum := 0.0
	for _, v := range t.Values[i] {
		sum += v
	}
	return sum
}

// ColumnTotal sums one contribution column over all rows; 0 when unknown.
func (t ContributionTable) ColumnTotal(name string) float64 {
	j := -1
	for k, c := range t.Columns {
		if c == name {
			j = k
			break
		}
	}
	if j < 0 {
		return 0
	}
	sum := 0.0
	for _, row := range t.Values {
		sum += row[j]
	}
	return sum
}

// ROIRow is one line of the channel ROI table. ROI and ContributionShare are
// NaN when undefined and encode as JSON null.
type ROIRow struct {
	Channel           string  `json:"channel"`
	TotalSpend        float64 `json:"total_spend"`
	TotalContribution float64 `json:"total_contribution"`
	ROI               float64 `json:"roi"`
	ContributionShare float64 `json:"contribution_share"`
}

// Defined reports whether ROI could be computed.
func (r ROIRow) Defined() bool { return !math.IsNaN(r.ROI) }

// MarshalJSON writes undefined ratios as null.
func (r ROIRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Channel           string   `json:"channel"`
		TotalSpend        float64  `json:"total_spend"`
		TotalContribution float64  `json:"total_contribution"`
		ROI               *float64 `json:"roi"`
		ContributionShare *float64 `json:"contribution_share"`
	}{
		Channel:           r.Channel,
		TotalSpend:        r.TotalSpend,
		TotalContribution: r.TotalContribution,
		ROI:               finiteOrNil(r.ROI),
		ContributionShare: finiteOrNil(r.ContributionShare),
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// SpendSummary describes the raw spend of a channel over the fitted rows.
type SpendSummary struct {
	Channel string  `json:"channel"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Result is the full output of one pipeline run.
type Result struct {
	RunID       core.RunID  `json:"run_id"`
	DatasetHash core.Hash   `json:"dataset_hash"`
	Roles       ColumnRoles `json:"roles"`
	Params      Params      `json:"params"`

	InputRows     int `json:"input_rows"`
	UsedRows      int `json:"used_rows"`
	DroppedDate   int `json:"dropped_date"`
	DroppedTarget int `json:"dropped_target"`

	Model                FittedModel       `json:"model"`
	Contributions        ContributionTable `json:"contributions"`
	ROI                  []ROIRow          `json:"roi"`
	BaselineContribution float64           `json:"baseline_contribution"`
	SpendSummaries       []SpendSummary    `json:"spend_summaries"`
}

// SweepPoint is the fit quality at one decay.
type SweepPoint struct {
	Decay float64 `json:"decay"`
	R2    float64 `json:"r2"`
	AdjR2 float64 `json:"adj_r2"`
	Rows  int     `json:"rows"`
}

// SweepResult lists sweep points by decay and the best decay by adjusted R².
type SweepResult struct {
	RunID      core.RunID   `json:"run_id"`
	Saturation bool         `json:"saturation"`
	Points     []SweepPoint `json:"points"`
	BestDecay  float64      `json:"best_decay"`
}
