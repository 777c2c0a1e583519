package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewJSONWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("debug", "json", &buf)
	require.NoError(t, err)
	NewAdapter(l).Info("store loaded", "driver", "memory", "projects", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "store loaded", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "memory", line["driver"])
	assert.EqualValues(t, 2, line["projects"])
	assert.Contains(t, line, "time")
}

func TestNewHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("WARN", "console", &buf)
	require.NoError(t, err)
	a := NewAdapter(l)
	a.Debug("hidden")
	a.Info("hidden")
	a.Warn("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "shown"))
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	_, err := New("loud", "json", nil)
	require.Error(t, err)
	_, err = New("info", "xml", nil)
	require.Error(t, err)
}

func TestAdapterForwardsLevelsAndFields(t *testing.T) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	a := NewAdapter(zap.New(obsCore))
	a.Debug("d", "operation", "create_project")
	a.Info("i")
	a.Warn("w", "key", "smokecheck:projects")
	a.Error("e", "error", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 4)
	levels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, lvl := range levels {
		assert.Equal(t, lvl, entries[i].Level)
	}
	assert.Equal(t, "create_project", entries[0].ContextMap()["operation"])
	assert.Equal(t, "smokecheck:projects", entries[2].ContextMap()["key"])
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

func TestNilLoggerIsNoop(t *testing.T) {
	a := NewAdapter(nil)
	a.Info("nothing")
	_ = a.Sync()
}
