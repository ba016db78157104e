package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"clinicbook/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const bookingsSheet = "Bookings"

// SheetsService mirrors the local booking audit log into one spreadsheet
// tab. Rows are append-only; only the meet link cell gets rewritten.
type SheetsService struct {
	service  *sheets.Service
	sheetID  string
	rowCache map[int64]int
	cacheMu  sync.RWMutex
}

func NewSheetsService(ctx context.Context, credentialsFile, bookingsSheetID string) (*SheetsService, error) {
	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	return &SheetsService{
		service:  srv,
		sheetID:  bookingsSheetID,
		rowCache: make(map[int64]int),
	}, nil
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.sheetID, bookingsSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// AppendBooking adds one row at the bottom of the bookings tab.
func (s *SheetsService) AppendBooking(ctx context.Context, booking *models.Booking) error {
	row := []interface{}{
		booking.ID,
		booking.EventTypeID,
		booking.Start,
		booking.End,
		booking.Name,
		booking.Email,
		booking.MeetLink,
		booking.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	valueRange := &sheets.ValueRange{Values: [][]interface{}{row}}

	resp, err := s.service.Spreadsheets.Values.Append(s.sheetID, bookingsSheet+"!A:H", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append booking %d: %w", booking.ID, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		if rowNum, ok := parseRowFromRange(resp.Updates.UpdatedRange); ok {
			s.cacheMu.Lock()
			s.rowCache[booking.ID] = rowNum
			s.cacheMu.Unlock()
		}
	}

	return nil
}

// UpdateBookingMeetLink rewrites the meet link cell of an existing row.
func (s *SheetsService) UpdateBookingMeetLink(ctx context.Context, bookingID int64, meetLink string) error {
	rowNum, err := s.findRow(ctx, bookingID)
	if err != nil {
		return err
	}

	cell := fmt.Sprintf("%s!G%d", bookingsSheet, rowNum)
	valueRange := &sheets.ValueRange{Values: [][]interface{}{{meetLink}}}

	_, err = s.service.Spreadsheets.Values.Update(s.sheetID, cell, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update meet link for booking %d: %w", bookingID, err)
	}
	return nil
}

// findRow resolves a booking ID to its 1-based sheet row, consulting the
// cache first and rescanning the ID column on a miss.
func (s *SheetsService) findRow(ctx context.Context, bookingID int64) (int, error) {
	s.cacheMu.RLock()
	rowNum, ok := s.rowCache[bookingID]
	s.cacheMu.RUnlock()
	if ok {
		return rowNum, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.sheetID, bookingsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("scan booking ids: %w", err)
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(fmt.Sprintf("%v", row[0]), 10, 64)
		if err != nil {
			continue
		}
		s.rowCache[id] = i + 1
	}

	if rowNum, ok := s.rowCache[bookingID]; ok {
		return rowNum, nil
	}
	return 0, fmt.Errorf("booking %d not found in sheet", bookingID)
}

// parseRowFromRange extracts the row number from a range like
// "Bookings!A42:H42".
func parseRowFromRange(updatedRange string) (int, bool) {
	digits := ""
	for i := len(updatedRange) - 1; i >= 0; i-- {
		c := updatedRange[i]
		if c >= '0' && c <= '9' {
			digits = string(c) + digits
			continue
		}
		break
	}
	if digits == "" {
		return 0, false
	}
	rowNum, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return rowNum, true
}
