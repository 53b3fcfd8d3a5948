// Package tasks implements scheduled background tasks for the sales bot,
// including task definitions, dependencies, and registration.
package tasks

import (
	"log/slog"

	"salesbot/internal/config"
	"salesbot/internal/database"
	"salesbot/internal/export"
	"salesbot/internal/metrics"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Exporter *export.Exporter
	Metrics  *metrics.Metrics
	Config   *config.Config
}
