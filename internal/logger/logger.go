// Package logger provides the structured slog logger for the watcher.
// All logs are written in JSON format to a size-rotated file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewSystemLogger creates a JSON slog.Logger writing to <logDir>/system.log,
// rotated at 20 MB with three retained backups. The directory is created if
// it does not exist. Log lines are mirrored to stderr.
func NewSystemLogger(logDir string, level slog.Level) (*slog.Logger, error) {
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, fmt.Errorf("creating log directory %q: %w", logDir, err)
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "system.log"),
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		Compress:   true,
	}

	handler := slog.NewJSONHandler(io.MultiWriter(rotated, os.Stderr), &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}
