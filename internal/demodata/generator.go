// Package demodata generates a synthetic weekly marketing-mix dataset with a
// known ground truth. It backs the demo mode of the API and CLI and the
// recovery tests of the attribution engine.
package demodata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"gomix/domain/dataset"
	"gomix/internal/attribution"
)

// Channel is one media channel of the synthetic truth.
type Channel struct {
	Name      string
	MeanSpend float64
	// Beta is revenue per unit of adstocked spend.
	Beta float64
}

// Column is the spend column name of the channel.
func (c Channel) Column() string { return c.Name + "_spend" }

type Config struct {
	Weeks     int
	Seed      int64
	StartDate time.Time

	// Carryover applied to every channel before the betas.
	Decay    float64
	Baseline float64
	// Standard deviation of the Gaussian revenue noise.
	Noise float64

	// Multiplier on spend in October through December.
	Q4Uplift float64

	Channels []Channel
}

func DefaultConfig() Config {
	return Config{
		Weeks:     104,
		Seed:      42,
		StartDate: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		Decay:     0.5,
		Baseline:  50000,
		Noise:     500,
		Q4Uplift:  1.25,
		Channels: []Channel{
			{Name: "tv", MeanSpend: 20000, Beta: 1.8},
			{Name: "search", MeanSpend: 8000, Beta: 3.2},
			{Name: "social", MeanSpend: 5000, Beta: 1.5},
		},
	}
}

// Dataset is the generated truth: formatted rows plus the numeric series they
// were rendered from.
type Dataset struct {
	Headers []string
	Rows    [][]string // already formatted/rounded strings

	Dates   []time.Time
	Revenue []float64
	// Spend per channel column, rounded to cents.
	Spend    map[string][]float64
	Channels []Channel
	Decay    float64
}

func Generate(cfg Config) (*Dataset, error) {
	if cfg.Weeks <= 0 {
		return nil, fmt.Errorf("weeks must be > 0")
	}
	if len(cfg.Channels) == 0 {
		return nil, fmt.Errorf("at least one channel is required")
	}
	if cfg.Noise < 0 {
		return nil, fmt.Errorf("noise must be >= 0")
	}
	if cfg.Q4Uplift <= 0 {
		cfg.Q4Uplift = 1
	}
	seen := make(map[string]bool, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		if ch.Name == "" || seen[ch.Name] {
			return nil, fmt.Errorf("channel names must be unique and non-empty")
		}
		seen[ch.Name] = true
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	dates := make([]time.Time, cfg.Weeks)
	for i := range dates {
		dates[i] = cfg.StartDate.AddDate(0, 0, 7*i)
	}

	revenue := make([]float64, cfg.Weeks)
	for i := range revenue {
		revenue[i] = cfg.Baseline
	}

	spend := make(map[string][]float64, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		s := make([]float64, cfg.Weeks)
		for i := range s {
			s[i] = ch.MeanSpend * (0.5 + rng.Float64())
			if dates[i].Month() >= time.October {
				s[i] *= cfg.Q4Uplift
			}
			s[i] = round(s[i], 2)
		}
		carried, err := attribution.Adstock(s, cfg.Decay)
		if err != nil {
			return nil, err
		}
		for i := range revenue {
			revenue[i] += ch.Beta * carried[i]
		}
		spend[ch.Column()] = s
	}

	for i := range revenue {
		revenue[i] = round(revenue[i]+rng.NormFloat64()*cfg.Noise, 2)
	}

	headers := []string{"date", "revenue"}
	for _, ch := range cfg.Channels {
		headers = append(headers, ch.Column())
	}

	rows := make([][]string, cfg.Weeks)
	for t := range rows {
		r := make([]string, 0, len(headers))
		r = append(r, dates[t].Format("2006-01-02"))
		r = append(r, fToStr(revenue[t], 2))
		for _, ch := range cfg.Channels {
			r = append(r, fToStr(spend[ch.Column()][t], 2))
		}
		rows[t] = r
	}

	return &Dataset{
		Headers:  headers,
		Rows:     rows,
		Dates:    dates,
		Revenue:  revenue,
		Spend:    spend,
		Channels: append([]Channel(nil), cfg.Channels...),
		Decay:    cfg.Decay,
	}, nil
}

// Dataset converts the numeric series to the analysis representation.
func (d *Dataset) Dataset() dataset.Dataset {
	rows := make([]dataset.Row, len(d.Dates))
	for t := range rows {
		row := dataset.Row{
			"date":    dataset.Date(d.Dates[t]),
			"revenue": dataset.Number(d.Revenue[t]),
		}
		for _, ch := range d.Channels {
			row[ch.Column()] = dataset.Number(d.Spend[ch.Column()][t])
		}
		rows[t] = row
	}
	return dataset.Dataset{Columns: append([]string(nil), d.Headers...), Rows: rows}
}

// Beta returns the true coefficient of a spend column.
func (d *Dataset) Beta(column string) (float64, bool) {
	for _, ch := range d.Channels {
		if ch.Column() == column {
			return ch.Beta, true
		}
	}
	return 0, false
}

func WriteCSV(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeCSV(f, ds)
}

// EncodeCSV writes the header and rows to w.
func EncodeCSV(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Headers); err != nil {
		return err
	}
	for _, row := range ds.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(path string, ds *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	for i, h := range ds.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for r := 0; r < len(ds.Rows); r++ {
		rowIdx := r + 2
		for c, v := range ds.Rows[r] {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}

func round(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}

func fToStr(x float64, decimals int) string {
	return strconv.FormatFloat(round(x, decimals), 'f', decimals, 64)
}
