package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind classifies a coerced cell value.
type ValueKind string

const (
	KindMissing   ValueKind = "missing"
	KindNumeric   ValueKind = "numeric"
	KindTimestamp ValueKind = "timestamp"
	KindText      ValueKind = "text"
)

// Value is a single coerced cell. Raw keeps the original text for echoing.
type Value struct {
	Kind ValueKind `json:"kind"`
	Num  float64   `json:"num,omitempty"`
	Time time.Time `json:"time,omitempty"`
	Raw  string    `json:"raw,omitempty"`
}

// Missing is the value of an empty or absent cell.
func Missing() Value { return Value{Kind: KindMissing} }

// Number wraps a numeric cell.
func Number(v float64) Value { return Value{Kind: KindNumeric, Num: v} }

// Date wraps a timestamp cell.
func Date(t time.Time) Value { return Value{Kind: KindTimestamp, Time: t} }

// Text wraps a cell that is neither numeric nor a timestamp.
func Text(s string) Value { return Value{Kind: KindText, Raw: s} }

// IsMissing reports whether the cell is empty.
func (v Value) IsMissing() bool { return v.Kind == KindMissing || v.Kind == "" }

// Float returns the numeric value and whether the cell holds one.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumeric {
		return 0, false
	}
	return v.Num, true
}

// Timestamp returns the time value and whether the cell holds one.
func (v Value) Timestamp() (time.Time, bool) {
	if v.Kind != KindTimestamp {
		return time.Time{}, false
	}
	return v.Time, true
}

// String renders the value for fingerprints and reports.
func (v Value) String() string {
	switch v.Kind {
	case KindNumeric:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindTimestamp:
		return v.Time.Format(time.RFC3339)
	case KindText:
		return v.Raw
	default:
		return ""
	}
}

// Row maps column name to value.
type Row map[string]Value

// Dataset is an ordered table of rows. Columns keeps the header order, which
// drives column role detection.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New creates a dataset after checking the header is usable.
func New(columns []string, rows []Row) (Dataset, error) {
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return Dataset{}, fmt.Errorf("column %d has an empty name", i)
		}
		if seen[c] {
			return Dataset{}, fmt.Errorf("duplicate column name %q", c)
		}
		seen[c] = true
	}
	return Dataset{Columns: columns, Rows: rows}, nil
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// HasColumn reports whether name is one of the columns.
func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Get returns the value at row i, column name; missing when absent.
func (d Dataset) Get(i int, name string) Value {
	if i < 0 || i >= len(d.Rows) {
		return Missing()
	}
	v, ok := d.Rows[i][name]
	if !ok {
		return Missing()
	}
	return v
}
