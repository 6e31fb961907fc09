package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestSetupWritesJSON(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "ctxrag.log")

	cfg := Config{
		Level:         "info",
		FilePath:      logPath,
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)

	logger.Info("search_complete", slog.Int("results", 3))
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.Split(strings.TrimSpace(string(data)), "\n")[0]), &entry))
	assert.Equal(t, "search_complete", entry["msg"])
	assert.Equal(t, float64(3), entry["results"])
}

func TestRotatingWriterRotates(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "ctxrag.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// Force rotation by shrinking the threshold
	w.maxSize = 64

	payload := []byte(strings.Repeat("x", 48) + "\n")
	for i := 0; i < 4; i++ {
		_, err := w.Write(payload)
		require.NoError(t, err)
	}

	_, err = os.Stat(logPath)
	assert.NoError(t, err, "current log file should exist")

	_, err = os.Stat(logPath + ".1")
	assert.NoError(t, err, "rotated log file should exist")
}

func TestRotatingWriterKeepsMaxFiles(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "ctxrag.log")

	w, err := NewRotatingWriter(logPath, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	w.maxSize = 16
	for i := 0; i < 10; i++ {
		_, err := w.Write([]byte(strings.Repeat("y", 12) + "\n"))
		require.NoError(t, err)
	}

	matches, err := filepath.Glob(logPath + ".*")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(matches), 2)
}

func TestFindLogFileExplicitMissing(t *testing.T) {
	_, err := FindLogFile(filepath.Join(t.TempDir(), "nope.log"))
	assert.Error(t, err)
}

func TestFindLogFileExplicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.log")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	got, err := FindLogFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}
