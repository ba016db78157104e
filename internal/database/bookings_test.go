package database

import (
	"context"
	"os"
	"testing"

	"clinicbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(os.Stdout)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := &models.Booking{
		EventTypeID: 4136379,
		Start:       "2025-06-10T10:00:00",
		End:         "2025-06-10T10:30:00",
		Name:        "Asha Patel",
		Email:       "asha@example.com",
	}
	err := db.CreateBooking(ctx, booking)
	require.NoError(t, err)
	assert.NotZero(t, booking.ID)
	assert.False(t, booking.CreatedAt.IsZero())

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.EventTypeID, got.EventTypeID)
	assert.Equal(t, booking.Start, got.Start)
	assert.Equal(t, booking.End, got.End)
	assert.Equal(t, booking.Email, got.Email)
	assert.Empty(t, got.MeetLink)
}

func TestGetBookingNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetBooking(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestUpdateBookingMeetLink(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := &models.Booking{
		EventTypeID: 4136388,
		Start:       "2025-06-11T09:00:00",
		End:         "2025-06-11T09:15:00",
		Name:        "Ravi Kumar",
		Email:       "ravi@example.com",
	}
	require.NoError(t, db.CreateBooking(ctx, booking))

	err := db.UpdateBookingMeetLink(ctx, booking.ID, "https://meet.example.com/abc")
	require.NoError(t, err)

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://meet.example.com/abc", got.MeetLink)

	err = db.UpdateBookingMeetLink(ctx, 9999, "https://meet.example.com/xyz")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestBookingTimesForDateUsesPrefixAcrossEventTypes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed := []models.Booking{
		{EventTypeID: 4136379, Start: "2025-06-10T10:00:00", End: "2025-06-10T10:30:00", Name: "A", Email: "a@example.com"},
		{EventTypeID: 4136398, Start: "2025-06-10T15:00:00Z", End: "2025-06-10T16:00:00Z", Name: "B", Email: "b@example.com"},
		{EventTypeID: 4136379, Start: "2025-06-11T10:00:00", End: "2025-06-11T10:30:00", Name: "C", Email: "c@example.com"},
	}
	for i := range seed {
		require.NoError(t, db.CreateBooking(ctx, &seed[i]))
	}

	times, err := db.BookingTimesForDate(ctx, "2025-06-10")
	require.NoError(t, err)
	require.Len(t, times, 2)

	// Raw stored strings come back untouched, Z markers included.
	assert.Equal(t, "2025-06-10T10:00:00", times[0].Start)
	assert.Equal(t, "2025-06-10T15:00:00Z", times[1].Start)
}

func TestListBookingsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seed := []models.Booking{
		{EventTypeID: 4136379, Start: "2025-06-09T10:00:00", End: "2025-06-09T10:30:00", Name: "A", Email: "a@example.com"},
		{EventTypeID: 4136379, Start: "2025-06-10T11:00:00", End: "2025-06-10T11:30:00", Name: "B", Email: "b@example.com"},
		{EventTypeID: 4136379, Start: "2025-06-12T09:00:00", End: "2025-06-12T09:30:00", Name: "C", Email: "c@example.com"},
	}
	for i := range seed {
		require.NoError(t, db.CreateBooking(ctx, &seed[i]))
	}

	bookings, err := db.ListBookingsByDateRange(ctx, "2025-06-09", "2025-06-10")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "A", bookings[0].Name)
	assert.Equal(t, "B", bookings[1].Name)
}
