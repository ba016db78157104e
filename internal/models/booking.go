package models

import "time"

// Booking is the local audit copy of one clinic appointment. Rows are
// write-once: cancellation and rescheduling happen on the scheduling
// provider side and are not reflected back here. The only mutation
// after insert is MeetLink, filled in once the provider confirms.
type Booking struct {
	ID          int64     `json:"id"`
	EventTypeID int64     `json:"event_type_id"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	MeetLink    string    `json:"meet_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookingTime is a raw (start, end) pair as stored, before timezone
// normalization.
type BookingTime struct {
	Start string
	End   string
}
