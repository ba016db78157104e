package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"clinicbook/internal/domain"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

// ExcelExporter renders the booking audit log for a date range into an
// XLSX workbook under the exports directory.
type ExcelExporter struct {
	repo   domain.BookingRepository
	dir    string
	logger *zerolog.Logger
}

func NewExcelExporter(repo domain.BookingRepository, dir string, logger *zerolog.Logger) *ExcelExporter {
	return &ExcelExporter{
		repo:   repo,
		dir:    dir,
		logger: logger,
	}
}

// ExportRange writes bookings between from and to (inclusive, by local
// date) and returns the file path.
func (e *ExcelExporter) ExportRange(ctx context.Context, from, to time.Time) (string, error) {
	bookings, err := e.repo.ListBookingsByDateRange(ctx, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return "", fmt.Errorf("failed to list bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bookings"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Event Type", "Start", "End", "Name", "Email", "Meet Link", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIdx, b := range bookings {
		values := []interface{}{
			b.ID,
			b.EventTypeID,
			b.Start,
			b.End,
			b.Name,
			b.Email,
			b.MeetLink,
			b.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
			}
		}
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create exports dir: %w", err)
	}

	name := fmt.Sprintf("bookings_%s_%s.xlsx", from.Format(dateLayout), to.Format(dateLayout))
	path := filepath.Join(e.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info().Str("path", path).Int("bookings", len(bookings)).Msg("exported bookings")
	return path, nil
}
