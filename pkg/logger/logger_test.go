package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("Error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestInitFiltersByLevel(t *testing.T) {
	t.Setenv("LOG_FILE", "")
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Init("WARN")
	Info("hidden")
	Warn("shown", "name", "a.gz")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "name=a.gz")
}

func TestInitWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STREAMFILE_DATA_DIR", dir)
	t.Setenv("LOG_FILE", "true")
	SetOutput(&bytes.Buffer{})
	defer SetOutput(os.Stderr)

	Init("INFO")
	Info("to file", "kind", "gzip")
	Close()

	matches, err := filepath.Glob(filepath.Join(dir, "streamfile-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `msg="to file" kind=gzip`)
}
