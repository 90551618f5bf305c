package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fichaje/internal/config"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)

	level, err = ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestBuild_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := build(config.LogConfig{Level: "info"}, false, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("clocked in", zap.Int64("worker_id", 7))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "clocked in")
	assert.Contains(t, out, `"worker_id": 7`)

	buf.Reset()
	log, err = build(config.LogConfig{Level: "info"}, true, &buf)
	require.NoError(t, err)
	log.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestBuild_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fichaje.log")
	var buf bytes.Buffer
	log, err := build(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, false, &buf)
	require.NoError(t, err)

	log.Info("record updated", zap.Int64("record_id", 3))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "record updated", entry["msg"])
	assert.Equal(t, float64(3), entry["record_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestBuild_BadLevel(t *testing.T) {
	_, err := build(config.LogConfig{Level: "loud"}, false, &bytes.Buffer{})
	assert.Error(t, err)
}
