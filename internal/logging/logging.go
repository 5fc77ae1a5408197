// Package logging configures the process-wide logrus logger: JSON output
// to stderr matching the teacher's cmd/server/main.go
// (logrus.JSONFormatter), plus an optional rotating file sink via
// gopkg.in/natefinch/lumberjack.v2 when a log file path is configured —
// the dual-writer shape is grounded in the MCP-server example's
// internal/logging.Init, adapted from zerolog to logrus.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a *logrus.Logger at the given level, writing JSON lines to
// stderr and, if filePath is non-empty, also to a lumberjack-rotated file.
func New(level, filePath string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(parseLevel(level))

	var out io.Writer = os.Stderr
	if filePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    16, // megabytes
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stderr, rotator)
	}
	log.SetOutput(out)

	return log
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
