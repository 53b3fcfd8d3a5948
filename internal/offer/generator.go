// Package offer generates personalized commercial offer documents as PDF files.
package offer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"salesbot/internal/database"
)

// maxAcknowledgedInterests caps how many interest entries the offer lists.
const maxAcknowledgedInterests = 5

// DefaultOfferType is the offer type recorded for generated car offers.
const DefaultOfferType = "car_offer"

// Generator renders commercial offer PDFs into a configured output directory.
type Generator struct {
	outputDir string
	logger    *slog.Logger
}

// NewGenerator creates a Generator writing into outputDir.
func NewGenerator(outputDir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{
		outputDir: outputDir,
		logger:    logger.With("component", "offer_generator"),
	}
}

// Generate renders a personalized commercial offer for the user and returns
// the file path. The path is `{output_dir}/offer_{user_id}_{YYYYMMDD_HHMM}.pdf`;
// repeated calls within the same minute for the same user target the same path.
// The document is written to a temporary file and renamed, so a failed render
// never leaves a partial file at the final path.
func (g *Generator) Generate(user *database.User, messages []database.Message, interests []database.Interest) (string, error) {
	if user == nil {
		return "", fmt.Errorf("offer generation requires a user")
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create offer output directory: %w", err)
	}

	now := time.Now()
	filename := fmt.Sprintf("offer_%d_%s.pdf", user.UserID, now.Format("20060102_1504"))
	finalPath := filepath.Join(g.outputDir, filename)
	tmpPath := finalPath + ".tmp"

	if err := g.render(tmpPath, user, now, interests); err != nil {
		// Best effort cleanup of the temp file; the final path stays untouched.
		_ = os.Remove(tmpPath)
		return "", err
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize offer file: %w", err)
	}

	g.logger.Debug("Offer generated", "user_id", user.UserID, "path", finalPath, "interests", len(interests), "messages", len(messages))
	return finalPath, nil
}

func (g *Generator) render(path string, user *database.User, now time.Time, interests []database.Interest) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Commercial Offer", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "COMMERCIAL OFFER", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	client := fmt.Sprintf("Prepared for client ID: %d", user.UserID)
	if name := strings.TrimSpace(user.FirstName + " " + user.LastName); name != "" {
		client = fmt.Sprintf("Prepared for: %s (client ID: %d)", name, user.UserID)
	}
	if user.Region.Valid && user.Region.String != "" {
		client += "\nRegion: " + user.Region.String
	}
	client += "\nDate: " + now.Format("02.01.2006 15:04")

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, client, "", "L", false)
	pdf.Ln(6)

	if len(interests) > 0 {
		listed := interests
		if len(listed) > maxAcknowledgedInterests {
			listed = listed[:maxAcknowledgedInterests]
		}

		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Acknowledged client interests:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, interest := range listed {
			line := "- " + interest.Kind
			if interest.Details != "" {
				line += ": " + interest.Details
			}
			pdf.MultiCell(0, 6, line, "", "L", false)
		}
		pdf.Ln(5)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Special offer for cars", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6,
		"- Wide selection of new and used cars\n"+
			"- Favorable financing terms\n"+
			"- Trade-in for your current car\n"+
			"- Full transaction support\n"+
			"- Warranty on every car",
		"", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Advantages:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6,
		"+ Best prices on the market\n"+
			"+ Verified vehicle history\n"+
			"+ Legal support\n"+
			"+ Delivery across the region",
		"", "L", false)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Contact information:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6,
		"Phone: +7 (XXX) XXX-XX-XX\n"+
			"Telegram: @car_sales_manager\n"+
			"Email: info@carsales.ru\n\n"+
			"We will contact you within 24 hours!",
		"", "L", false)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to render offer PDF: %w", err)
	}
	return nil
}
