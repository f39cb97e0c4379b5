package coercer

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomix/domain/dataset"
)

func TestCoerce_Numbers(t *testing.T) {
	cases := map[string]float64{
		"42":         42,
		" 3.5 ":      3.5,
		"$1,234.50":  1234.5,
		"12,500":     12500,
		"1,234,567":  1234567,
		"12,5":       12.5,
		"1.234,56":   1234.56,
		"1 234,56":   1234.56,
		"(250)":      -250,
		"€ 99":       99,
		"15%":        15,
		"1e3":        1000,
		"-7":         -7,
		"USD 10":     10,
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			v := Coerce(raw)
			got, ok := v.Float()
			require.True(t, ok, "kind %s", v.Kind)
			assert.InDelta(t, want, got, 1e-9)
		})
	}
}

func TestCoerce_Dates(t *testing.T) {
	want := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-03-04", "03/04/2024", "2024/03/04", "04-Mar-2024"} {
		v := Coerce(raw)
		ts, ok := v.Timestamp()
		require.True(t, ok, raw)
		assert.True(t, want.Equal(ts), raw)
	}

	ts, ok := Coerce("2024-03-04T10:30:00Z").Timestamp()
	require.True(t, ok)
	assert.Equal(t, 10, ts.Hour())
}

func TestCoerce_UnpaddedUSDates(t *testing.T) {
	cases := map[string]time.Time{
		"1/7/2024":   time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
		"1/2/2024":   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"12/31/2023": time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		"3/4/24":     time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		ts, ok := Coerce(raw).Timestamp()
		require.True(t, ok, raw)
		assert.True(t, want.Equal(ts), raw)
	}
}

func TestCoerce_TextAndMissing(t *testing.T) {
	assert.True(t, Coerce("").IsMissing())
	assert.True(t, Coerce("   ").IsMissing())

	v := Coerce("  N/A ")
	assert.Equal(t, dataset.KindText, v.Kind)
	assert.Equal(t, "n/a", v.Raw)

	_, ok := Coerce("inf").Float()
	assert.False(t, ok)
	_, ok = Coerce("NaN").Float()
	assert.False(t, ok)
}

func TestCoerceAny(t *testing.T) {
	assert.True(t, CoerceAny(nil).IsMissing())

	f, ok := CoerceAny(2.5).Float()
	require.True(t, ok)
	assert.Equal(t, 2.5, f)

	f, ok = CoerceAny(json.Number("1200")).Float()
	require.True(t, ok)
	assert.Equal(t, 1200.0, f)

	f, ok = CoerceAny("$300").Float()
	require.True(t, ok)
	assert.Equal(t, 300.0, f)

	_, ok = CoerceAny("2024-01-01").Timestamp()
	assert.True(t, ok)

	_, ok = CoerceAny(math.Inf(1)).Float()
	assert.False(t, ok)
	assert.Equal(t, dataset.KindText, CoerceAny(true).Kind)
}

func TestTypeCoercer_KeepsCaseWhenNotNormalizing(t *testing.T) {
	c := NewTypeCoercer(CoercionConfig{NormalizeStrings: false})
	v := c.CoerceString("Holiday Week")
	assert.Equal(t, "Holiday Week", v.Raw)

	_, ok := c.CoerceString("2024-01-01").Timestamp()
	assert.True(t, ok)
}
