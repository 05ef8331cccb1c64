package logger_test

import (
	"log/slog"

	"github.com/soundprediction/metalink/pkg/logger"
)

func ExampleNewDefaultLogger() {
	// Create a logger with default settings
	log := logger.NewDefaultLogger(slog.LevelDebug)

	// Log different levels
	log.Debug("This is a debug message")
	log.Info("This is an info message")
	log.Info("Persisting nodes to graph store") // Will be green in terminal
	log.Warn("This is a warning message")       // Will be yellow in terminal
	log.Error("This is an error message")       // Will be red in terminal
}

func ExampleNewColorHandler() {
	log := logger.NewDefaultLogger(slog.LevelInfo)

	// Log with attributes
	log.Info("Processing scope", "scope", "nf", "records", 120)
	log.Info("Published embedding version", "version", 3, "nodes", 480) // Green
	log.Warn("Vocabulary lookup slow", "duration", "2.5s")              // Yellow
	log.Error("Portal unreachable", "error", "timeout", "attempt", 3)   // Red
}
