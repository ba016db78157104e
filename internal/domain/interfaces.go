package domain

import (
	"context"
	"time"

	"clinicbook/internal/cal"
	"clinicbook/internal/models"
)

// BookingRepository is the local append-only audit store.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingMeetLink(ctx context.Context, id int64, meetLink string) error
	BookingTimesForDate(ctx context.Context, date string) ([]models.BookingTime, error)
	ListBookingsByDateRange(ctx context.Context, from, to string) ([]models.Booking, error)
}

// AvailabilityProvider answers "which windows are bookable". Two
// implementations exist: the external scheduling provider (production)
// and the local slot engine (fallback/demo). Call sites must not care
// which one they hold.
type AvailabilityProvider interface {
	ListSlots(ctx context.Context, eventTypeID int64, date string) (*models.SlotList, error)
}

// SchedulingProvider is the external system that owns true availability,
// double-booking prevention and timezone-correct scheduling.
type SchedulingProvider interface {
	EventTypes(ctx context.Context) ([]cal.EventType, error)
	CreateBooking(ctx context.Context, req cal.BookingRequest) (*cal.BookingConfirmation, error)
	CancelBooking(ctx context.Context, bookingUID string) (map[string]any, error)
	RescheduleBooking(ctx context.Context, bookingUID, start, reason string) (map[string]any, error)
}

// AvailabilityCache holds recent slot lists per (event type, date).
type AvailabilityCache interface {
	GetSlots(ctx context.Context, eventTypeID int64, date string) (*models.SlotList, error)
	SetSlots(ctx context.Context, list *models.SlotList) error
	InvalidateDate(ctx context.Context, date string) error
}

// EventPublisher fans booking lifecycle events out to subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SheetsWriter mirrors the local audit log into a spreadsheet.
type SheetsWriter interface {
	AppendBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingMeetLink(ctx context.Context, bookingID int64, meetLink string) error
}

// SyncWorker schedules audit-sheet synchronization tasks.
type SyncWorker interface {
	EnqueueAppend(ctx context.Context, booking *models.Booking) error
	EnqueueMeetLink(ctx context.Context, bookingID int64, meetLink string) error
}

// BookingExporter renders the audit log for a date range into a file.
type BookingExporter interface {
	ExportRange(ctx context.Context, from, to time.Time) (string, error)
}
