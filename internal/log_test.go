package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	lvl, ok := ParseLogLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, LogLevelDebug, lvl)

	lvl, ok = ParseLogLevel("chatty")
	assert.False(t, ok)
	assert.Equal(t, LogLevelInfo, lvl)
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn).With("Attribution")

	logger.Info("hidden %d", 1)
	logger.Warn("dropped %d rows", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] [Attribution] dropped 3 rows")
}
