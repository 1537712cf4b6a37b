package log

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmcdole/reel/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestSetupLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reel.log")

	logger, closer, err := SetupLogger(&config.LoggingConfig{File: path, Level: "warn"})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("cache stale", "key", "own_profile")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "cache stale", entry["msg"])
	assert.Equal(t, "own_profile", entry["key"])
	assert.EqualValues(t, os.Getpid(), entry["pid"])
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/.local/state/reel/reel.log")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local/state/reel/reel.log"), got)

	got, err = expandHome("/var/log/reel.log")
	require.NoError(t, err)
	assert.Equal(t, "/var/log/reel.log", got)

	got, err = expandHome("~other/reel.log")
	require.NoError(t, err)
	assert.Equal(t, "~other/reel.log", got)
}

func TestNullLogger(t *testing.T) {
	logger := NullLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}
