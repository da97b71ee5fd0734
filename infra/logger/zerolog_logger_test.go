package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestLoggerWritesComponentAndFields(t *testing.T) {
	require.NoError(t, SetLevel("debug"))
	defer func() { _ = SetLevel("info") }()
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "scheduler")
	l.Debugw("slice solved", map[string]any{"slice": "Mon/cashier", "nodes": 3})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "scheduler", rec["component"])
	assert.Equal(t, "debug", rec["level"])
	assert.Equal(t, "Mon/cashier", rec["slice"])
	assert.Equal(t, 3.0, rec["nodes"])
}

func TestSetLevelFilters(t *testing.T) {
	require.NoError(t, SetLevel("warn"))
	defer func() { _ = SetLevel("info") }()
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "pipeline")
	l.Infof("hidden")
	l.Debugw("hidden", map[string]any{"k": 1})
	l.Warnf("shown %d", 1)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown 1")

	assert.Error(t, SetLevel("loud"))
	assert.NoError(t, SetLevel(""))
}
