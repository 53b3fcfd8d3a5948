// Package export builds analytics workbooks (Excel) from the bot's data
// for the admin export menu and the scheduled report task.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"salesbot/internal/database"
)

// offerStatsDays bounds the offers-per-day sheet.
const offerStatsDays = 30

// Exporter assembles analytics reports from the Store into Excel files.
type Exporter struct {
	store  database.Store
	dir    string
	logger *slog.Logger
}

// NewExporter creates an Exporter writing workbooks into dir.
func NewExporter(store database.Store, dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{
		store:  store,
		dir:    dir,
		logger: logger.With("component", "exporter"),
	}
}

// ExportSummary writes a workbook with Users, Regions, and Offers sheets
// and returns the file path.
func (e *Exporter) ExportSummary(ctx context.Context) (string, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := e.fillSummarySheets(ctx, f); err != nil {
		return "", err
	}

	return e.save(f, "summary")
}

// ExportDetailed writes the summary sheets plus full message and interest
// logs for every user and returns the file path.
func (e *Exporter) ExportDetailed(ctx context.Context) (string, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := e.fillSummarySheets(ctx, f); err != nil {
		return "", err
	}
	if err := e.fillDetailSheets(ctx, f); err != nil {
		return "", err
	}

	return e.save(f, "detailed")
}

func (e *Exporter) fillSummarySheets(ctx context.Context, f *excelize.File) error {
	users, err := e.store.GetAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users for export: %w", err)
	}

	if err := writeSheet(f, "Users", []any{"User ID", "Username", "First Name", "Last Name", "Region", "Created At"},
		len(users), func(i int) []any {
			u := users[i]
			region := ""
			if u.Region.Valid {
				region = u.Region.String
			}
			return []any{u.UserID, u.Username, u.FirstName, u.LastName, region, u.CreatedAt.Format(time.RFC3339)}
		}); err != nil {
		return err
	}

	regions, err := e.store.GetRegionStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load region stats for export: %w", err)
	}

	if err := writeSheet(f, "Regions", []any{"Region", "Users"},
		len(regions), func(i int) []any {
			return []any{regions[i].Region, regions[i].UserCount}
		}); err != nil {
		return err
	}

	offers, err := e.store.GetOfferDailyStats(ctx, offerStatsDays)
	if err != nil {
		return fmt.Errorf("failed to load offer stats for export: %w", err)
	}

	return writeSheet(f, "Offers", []any{"Day", "Offers Sent"},
		len(offers), func(i int) []any {
			return []any{offers[i].Day, offers[i].Count}
		})
}

func (e *Exporter) fillDetailSheets(ctx context.Context, f *excelize.File) error {
	users, err := e.store.GetAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users for detailed export: %w", err)
	}

	var messages []database.Message
	var interests []database.Interest
	for _, u := range users {
		userMessages, err := e.store.GetUserMessages(ctx, u.UserID)
		if err != nil {
			return fmt.Errorf("failed to load messages for user %d: %w", u.UserID, err)
		}
		messages = append(messages, userMessages...)

		userInterests, err := e.store.GetUserInterests(ctx, u.UserID)
		if err != nil {
			return fmt.Errorf("failed to load interests for user %d: %w", u.UserID, err)
		}
		interests = append(interests, userInterests...)
	}

	if err := writeSheet(f, "Messages", []any{"User ID", "Kind", "Content", "Timestamp"},
		len(messages), func(i int) []any {
			m := messages[i]
			return []any{m.UserID, m.Kind, m.Content, m.Timestamp.Format(time.RFC3339)}
		}); err != nil {
		return err
	}

	return writeSheet(f, "Interests", []any{"User ID", "Kind", "Details", "Timestamp"},
		len(interests), func(i int) []any {
			in := interests[i]
			return []any{in.UserID, in.Kind, in.Details, in.Timestamp.Format(time.RFC3339)}
		})
}

// writeSheet creates a sheet with a header row and count data rows produced by rowFn.
func writeSheet(f *excelize.File, name string, header []any, count int, rowFn func(i int) []any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", name, err)
	}

	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of sheet %q: %w", name, err)
	}

	for i := 0; i < count; i++ {
		row := rowFn(i)
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("failed to write row %d of sheet %q: %w", i+2, name, err)
		}
	}
	return nil
}

func (e *Exporter) save(f *excelize.File, kind string) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	// Drop the default sheet so the workbook opens on real data.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		e.logger.Warn("Failed to remove default sheet", "error", err)
	}

	name := fmt.Sprintf("report_%s_%s_%s.xlsx", kind, time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(e.dir, name)

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save export workbook: %w", err)
	}

	e.logger.Info("Export generated", "kind", kind, "path", path)
	return path, nil
}
