package tasks

import (
	"context"
	"fmt"
	"time"
)

// newDailyExportTask creates the scheduled task function that writes a summary
// workbook to the export directory. Old reports are not pruned; the files are
// small and the directory is expected to be rotated externally.
func newDailyExportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_export")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled export task...")
		startTime := time.Now()

		path, err := deps.Exporter.ExportSummary(ctx)

		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Scheduled export task failed", "error", err, "duration", duration)
			deps.Metrics.ExportsTotal.WithLabelValues("summary", "error").Inc()

			return fmt.Errorf("daily export failed: %w", err)
		}

		deps.Metrics.ExportsTotal.WithLabelValues("summary", "success").Inc()
		log.InfoContext(ctx, "Scheduled export task completed", "path", path, "duration", duration)
		return nil
	}
}
