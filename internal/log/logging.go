package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcdole/reel/internal/config"
)

// SetupLogger opens the configured log file and returns a JSON logger writing
// to it. Close the returned io.Closer on exit.
func SetupLogger(cfg *config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	path, err := expandHome(cfg.File)
	if err != nil {
		return nil, nil, err
	}

	f, err := openAppend(path)
	if err != nil {
		return nil, nil, err
	}

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)})
	return slog.New(handler).With("pid", os.Getpid()), f, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve log path %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// parseLogLevel accepts slog level names in any case plus "warning".
// Anything unrecognized logs at INFO.
func parseLogLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NullLogger discards everything. Used when the log file cannot be opened.
func NullLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
