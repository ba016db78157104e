package slots

import (
	"fmt"
	"time"

	"clinicbook/internal/models"
)

// ClockTime is a wall-clock point within a working day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" string.
func ParseClock(value string) (ClockTime, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", value, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// On returns the instant for this clock time on the given calendar day.
func (c ClockTime) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, loc)
}

// Schedule is the immutable working-day configuration the engine runs
// against. Built once at startup and passed in explicitly, so the engine
// stays pure and testable with alternate schedules.
type Schedule struct {
	Location   *time.Location
	WorkStart  ClockTime
	WorkEnd    ClockTime
	BreakStart ClockTime
	BreakEnd   ClockTime
	Durations  map[int64]int // event type ID -> appointment minutes
}

// NewSchedule builds a Schedule from config-level string values.
func NewSchedule(timezone, workStart, workEnd, breakStart, breakEnd string, eventTypes []models.EventType) (Schedule, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Schedule{}, fmt.Errorf("load clinic timezone: %w", err)
	}

	s := Schedule{Location: loc, Durations: make(map[int64]int, len(eventTypes))}
	if s.WorkStart, err = ParseClock(workStart); err != nil {
		return Schedule{}, err
	}
	if s.WorkEnd, err = ParseClock(workEnd); err != nil {
		return Schedule{}, err
	}
	if s.BreakStart, err = ParseClock(breakStart); err != nil {
		return Schedule{}, err
	}
	if s.BreakEnd, err = ParseClock(breakEnd); err != nil {
		return Schedule{}, err
	}

	for _, et := range eventTypes {
		s.Durations[et.ID] = et.DurationMinutes
	}
	return s, nil
}
