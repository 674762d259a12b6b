package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsAreSortedAndTyped(t *testing.T) {
	fields := Fields(map[string]interface{}{
		"taskType": "classify-chart-intent",
		"error":    errors.New("boom"),
		"count":    3,
	})

	require.Len(t, fields, 3)
	assert.Equal(t, "count", fields[0].Key)
	assert.Equal(t, "error", fields[1].Key)
	assert.Equal(t, zapcore.ErrorType, fields[1].Type)
	assert.Equal(t, "taskType", fields[2].Key)

	assert.Nil(t, Fields(nil))
}

func TestAdapterCarriesContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).
		WithFields(map[string]interface{}{"taskType": "aggregate-chart-data"}).
		WithError(errors.New("no rows"))

	log.Warn("chart not rendered", map[string]interface{}{"jobKey": int64(42)})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "aggregate-chart-data", ctx["taskType"])
	assert.Equal(t, "no rows", ctx["error"])
	assert.Equal(t, int64(42), ctx["jobKey"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewNeverReturnsNil(t *testing.T) {
	assert.NotNil(t, New("info", "json"))
	assert.NotNil(t, New("debug", "console"))
	NewNoOpLogger().Info("discarded", nil)
}
