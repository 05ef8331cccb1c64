package main

import (
	"log/slog"

	"github.com/soundprediction/metalink/pkg/logger"
)

func main() {
	// Create a colored logger
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("============================================")
	log.Info("    Metalink Colored Logger Demo")
	log.Info("============================================")
	log.Info("")

	log.Debug("Debug message - standard color")
	log.Info("Info message - standard color")
	log.Info("Persisting nodes to graph store - green!")
	log.Info("Published embedding version - also green!")
	log.Warn("Warning message - yellow!")
	log.Error("Error message - red!")

	log.Info("")
	log.Info("Durable writes are highlighted in green:")
	log.Info("Persisting record nodes", "count", 42, "scope", "nf")
	log.Info("Published embedding version", "version", 3, "duration", "2.5s")
	log.Info("Refreshed autocomplete index", "entries", 156)

	log.Info("")
	log.Warn("Warnings appear in yellow for attention")
	log.Error("Errors appear in red for immediate visibility")

	log.Info("")
	log.Info("Demo complete!")
}
