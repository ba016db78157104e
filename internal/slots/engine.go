package slots

import (
	"context"
	"fmt"
	"time"

	"clinicbook/internal/metrics"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
)

const isoLayout = "2006-01-02T15:04:05-07:00"

// BookedIntervalSource yields the raw stored (start, end) strings for all
// bookings on a calendar date, across every event type. A single
// practitioner runs a single calendar, so any booking blocks the day for
// all event types.
type BookedIntervalSource interface {
	BookingTimesForDate(ctx context.Context, date string) ([]models.BookingTime, error)
}

// Engine is the local slot generator. It is the fallback availability
// path: the scheduling provider remains the source of truth for conflicts
// in production, and nothing here serializes a concurrent read against a
// concurrent booking insert.
type Engine struct {
	schedule Schedule
	store    BookedIntervalSource
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewEngine(schedule Schedule, store BookedIntervalSource, logger *zerolog.Logger) *Engine {
	return &Engine{
		schedule: schedule,
		store:    store,
		now:      time.Now,
		logger:   logger,
	}
}

// ListSlots generates the bookable windows for an event type on a date.
//
// An unknown event type or a malformed date is a client-correctable
// condition and comes back as a structured error result with a nil error.
// Store and data failures return an error and no partial slot list.
func (e *Engine) ListSlots(ctx context.Context, eventTypeID int64, date string) (*models.SlotList, error) {
	duration, ok := e.schedule.Durations[eventTypeID]
	if !ok {
		return &models.SlotList{Status: "error", Message: "Invalid event type", Slots: []models.Slot{}}, nil
	}

	day, err := time.ParseInLocation("2006-01-02", date, e.schedule.Location)
	if err != nil {
		return &models.SlotList{Status: "error", Message: "Invalid date, expected YYYY-MM-DD", Slots: []models.Slot{}}, nil
	}

	// One snapshot per call so every candidate is filtered against the
	// same instant.
	now := e.now().In(e.schedule.Location)

	booked, err := e.bookedIntervals(ctx, date)
	if err != nil {
		return nil, err
	}

	step := time.Duration(duration) * time.Minute
	cursor := e.schedule.WorkStart.On(day, e.schedule.Location)
	dayEnd := e.schedule.WorkEnd.On(day, e.schedule.Location)
	breakStart := e.schedule.BreakStart.On(day, e.schedule.Location)
	breakEnd := e.schedule.BreakEnd.On(day, e.schedule.Location)

	result := make([]models.Slot, 0)
	for !cursor.Add(step).After(dayEnd) {
		slotEnd := cursor.Add(step)
		candidate := Interval{Start: cursor, End: slotEnd}

		// A candidate must lie entirely before or entirely after the
		// break; partial overlap disqualifies it. Only strictly future
		// starts are offered. Rejected candidates still consume a full
		// step, there is no compaction around them.
		if e.clearsBreak(candidate, breakStart, breakEnd) &&
			cursor.After(now) &&
			!overlapsAny(candidate, booked) {
			result = append(result, models.Slot{
				Start: cursor.Format(isoLayout),
				End:   slotEnd.Format(isoLayout),
			})
		}

		cursor = slotEnd
	}

	if e.logger != nil {
		e.logger.Debug().
			Int64("event_type_id", eventTypeID).
			Str("date", date).
			Int("duration_minutes", duration).
			Int("slots", len(result)).
			Int("booked", len(booked)).
			Msg("generated slots")
	}

	metrics.IncSlotGeneration("local")

	return &models.SlotList{
		Status:          "success",
		EventTypeID:     eventTypeID,
		Date:            date,
		DurationMinutes: duration,
		Timezone:        e.schedule.Location.String(),
		Slots:           result,
	}, nil
}

func (e *Engine) clearsBreak(candidate Interval, breakStart, breakEnd time.Time) bool {
	return !candidate.End.After(breakStart) || !candidate.Start.Before(breakEnd)
}

func (e *Engine) bookedIntervals(ctx context.Context, date string) ([]Interval, error) {
	rows, err := e.store.BookingTimesForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	intervals := make([]Interval, 0, len(rows))
	for _, row := range rows {
		start, err := ParseStoredTime(row.Start, e.schedule.Location)
		if err != nil {
			return nil, err
		}
		end, err := ParseStoredTime(row.End, e.schedule.Location)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, Interval{Start: start, End: end})
	}
	return intervals, nil
}

func overlapsAny(candidate Interval, booked []Interval) bool {
	for _, b := range booked {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
