package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinicbook/internal/models"
)

var ErrBookingNotFound = errors.New("booking not found")

// CreateBooking appends a booking row. Rows are an append-only audit log:
// nothing updates start/end/name/email after insert.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (event_type_id, start, "end", name, email, meet_link, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.EventTypeID,
		booking.Start,
		booking.End,
		booking.Name,
		booking.Email,
		nullable(booking.MeetLink),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now

	return nil
}

// UpdateBookingMeetLink records the meeting link the provider returned
// after confirmation. The single permitted post-insert mutation.
func (db *DB) UpdateBookingMeetLink(ctx context.Context, id int64, meetLink string) error {
	query := `UPDATE bookings SET meet_link = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, meetLink, id)
	if err != nil {
		return fmt.Errorf("failed to update meet link: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT id, event_type_id, start, "end", name, email, meet_link, created_at
              FROM bookings WHERE id = ?`

	var booking models.Booking
	var meetLink sql.NullString
	err := db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID, &booking.EventTypeID, &booking.Start, &booking.End,
		&booking.Name, &booking.Email, &meetLink, &booking.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	booking.MeetLink = meetLink.String

	return &booking, nil
}

// BookingTimesForDate returns the stored (start, end) strings for every
// booking whose start is prefixed by the YYYY-MM-DD date, across all
// event types.
func (db *DB) BookingTimesForDate(ctx context.Context, date string) ([]models.BookingTime, error) {
	query := `SELECT start, "end" FROM bookings WHERE start LIKE ?`
	rows, err := db.QueryContext(ctx, query, date+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to get booking times: %w", err)
	}
	defer rows.Close()

	var times []models.BookingTime
	for rows.Next() {
		var bt models.BookingTime
		if err := rows.Scan(&bt.Start, &bt.End); err != nil {
			return nil, fmt.Errorf("failed to scan booking time: %w", err)
		}
		times = append(times, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read booking times: %w", err)
	}
	return times, nil
}

// ListBookingsByDateRange returns bookings whose start date falls within
// [from, to], both YYYY-MM-DD inclusive, ordered chronologically.
func (db *DB) ListBookingsByDateRange(ctx context.Context, from, to string) ([]models.Booking, error) {
	query := `SELECT id, event_type_id, start, "end", name, email, meet_link, created_at
              FROM bookings
              WHERE substr(start, 1, 10) BETWEEN ? AND ?
              ORDER BY start ASC, id ASC`
	rows, err := db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		var meetLink sql.NullString
		err := rows.Scan(&b.ID, &b.EventTypeID, &b.Start, &b.End, &b.Name, &b.Email, &meetLink, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.MeetLink = meetLink.String
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return bookings, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
