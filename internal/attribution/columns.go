// Package attribution fits the marketing-mix regression: it detects column
// roles, transforms spend into adstocked and saturated features, solves the
// least-squares problem and decomposes the fit into channel contributions.
//
// Every function is a pure computation over its arguments. Nothing is cached
// between calls, so independent datasets may be analysed in parallel.
package attribution

import (
	"strings"

	"gomix/domain/attribution"
)

// Keyword tables, in priority order.
var (
	DateKeywords   = []string{"date"}
	TargetKeywords = []string{"revenue", "sales", "conversions", "orders", "target"}
	SpendKeywords  = []string{"spend", "cost", "media"}
)

// DetectColumns classifies column names into date, target and spend roles.
//
// The date column is the first name containing "date". The target is found by
// walking TargetKeywords in order and taking the first column containing the
// keyword. Spend columns are all other columns containing a spend keyword, in
// column order. Matching is case-insensitive. A missing target is reported as
// an empty Target, never as an error; call Validate on the result.
func DetectColumns(columns []string) attribution.ColumnRoles {
	roles := attribution.ColumnRoles{
		Date:  firstMatch(columns, DateKeywords[0]),
		Spend: []string{},
	}

	for _, key := range TargetKeywords {
		if c := firstMatch(columns, key); c != "" {
			roles.Target = c
			break
		}
	}

	for _, c := range columns {
		if c == roles.Target {
			continue
		}
		if containsAny(c, SpendKeywords) {
			roles.Spend = append(roles.Spend, c)
		}
	}
	return roles
}

// ResolveColumns runs DetectColumns and fails with a schema error when the
// target or every spend column is missing.
func ResolveColumns(columns []string) (attribution.ColumnRoles, error) {
	roles := DetectColumns(columns)
	if err := roles.Validate(); err != nil {
		return roles, err
	}
	return roles, nil
}

func firstMatch(columns []string, keyword string) string {
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c), keyword) {
			return c
		}
	}
	return ""
}

func containsAny(column string, keywords []string) bool {
	lower := strings.ToLower(column)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
