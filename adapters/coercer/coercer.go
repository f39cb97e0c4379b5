// Package coercer turns raw cell text from uploaded files and JSON payloads
// into typed dataset values.
package coercer

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gomix/domain/dataset"
)

// TypeCoercer handles deterministic type coercion
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	NormalizeStrings bool     `json:"normalize_strings"` // Whether to trim/lower strings
	TimeFormats      []string `json:"time_formats"`      // Tried in order after numeric parsing fails
}

// DefaultTimeFormats are the accepted date layouts.
var DefaultTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
	"1/2/2006",
	"1/2/06",
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NormalizeStrings: true,
		TimeFormats:      DefaultTimeFormats,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	if len(config.TimeFormats) == 0 {
		config.TimeFormats = DefaultTimeFormats
	}
	return &TypeCoercer{config: config}
}

var defaultCoercer = NewTypeCoercer(DefaultCoercionConfig())

// Coerce converts cell text with the default rules.
func Coerce(raw string) dataset.Value { return defaultCoercer.CoerceString(raw) }

// CoerceAny converts a decoded JSON value with the default rules.
func CoerceAny(v any) dataset.Value { return defaultCoercer.CoerceValue(v) }

// CoerceString tries numeric first, then timestamp, and falls back to text.
// Blank cells are missing.
func (c *TypeCoercer) CoerceString(strVal string) dataset.Value {
	if strings.TrimSpace(strVal) == "" {
		return dataset.Missing()
	}

	// Try numeric first (most restrictive)
	if v, ok := c.tryParseNumeric(strVal); ok {
		return dataset.Number(v)
	}

	if t, ok := c.tryParseTimestamp(strVal); ok {
		return dataset.Date(t)
	}

	return c.coerceToString(strVal)
}

// CoerceValue deterministically converts an unknown value to a typed Value
func (c *TypeCoercer) CoerceValue(rawValue interface{}) dataset.Value {
	switch v := rawValue.(type) {
	case nil:
		return dataset.Missing()
	case string:
		return c.CoerceString(v)
	case float64:
		return finiteNumber(v)
	case float32:
		return finiteNumber(float64(v))
	case int:
		return dataset.Number(float64(v))
	case int64:
		return dataset.Number(float64(v))
	case int32:
		return dataset.Number(float64(v))
	case json.Number:
		return c.CoerceString(v.String())
	case time.Time:
		return dataset.Date(v)
	case bool:
		return dataset.Text(strconv.FormatBool(v))
	default:
		return c.CoerceString(fmt.Sprintf("%v", v))
	}
}

func finiteNumber(v float64) dataset.Value {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return dataset.Text(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return dataset.Number(v)
}

// coerceToString converts to normalized string value
func (c *TypeCoercer) coerceToString(strVal string) dataset.Value {
	if c.config.NormalizeStrings {
		strVal = normalizeString(strVal)
	}
	if strVal == "" {
		return dataset.Missing()
	}
	return dataset.Text(strVal)
}

// tryParseNumeric attempts to parse as numeric with strict rules
// Handles international formats: parentheses for negatives, European decimals, currency symbols
func (c *TypeCoercer) tryParseNumeric(strVal string) (float64, bool) {
	cleanVal := strings.TrimSpace(strVal)

	// Handle parentheses for negative numbers: (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range currencySymbols {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)
	cleanVal = strings.TrimSuffix(cleanVal, "%")

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		// 1.234,56 or 1 234,56 versus 1,234.56
		commaIdx := strings.LastIndex(cleanVal, ",")
		afterComma := cleanVal[commaIdx+1:]
		if strings.LastIndex(cleanVal, ".") < commaIdx && len(afterComma) <= 3 && allDigits(afterComma) {
			cleanVal = strings.ReplaceAll(cleanVal, ".", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
		}
	case hasComma:
		// 12,500 groups thousands, 12,5 is a decimal comma
		if thousandsGrouped(cleanVal) {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		}
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	// Try parsing as float (handles scientific notation automatically)
	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

var currencySymbols = []string{"USD", "EUR", "GBP", "JPY", "$", "€", "£", "¥"}

// tryParseTimestamp attempts to parse as timestamp with multiple formats
func (c *TypeCoercer) tryParseTimestamp(strVal string) (time.Time, bool) {
	strVal = strings.TrimSpace(strVal)
	for _, format := range c.config.TimeFormats {
		if t, err := time.Parse(format, strVal); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func thousandsGrouped(s string) bool {
	s = strings.TrimPrefix(s, "-")
	groups := strings.Split(s, ",")
	if len(groups[0]) == 0 || len(groups[0]) > 3 || !allDigits(groups[0]) {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var whitespace = regexp.MustCompile(`\s+`)

// normalizeString applies deterministic string normalization
func normalizeString(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespace.ReplaceAllString(s, " ")

	// Remove control characters
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
