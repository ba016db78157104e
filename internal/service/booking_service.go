package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinicbook/internal/cal"
	"clinicbook/internal/domain"
	"clinicbook/internal/events"
	"clinicbook/internal/metrics"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
)

var (
	// ErrUnknownEventType means the requested appointment type is not
	// configured for the clinic.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrInvalidStart means the requested start time could not be parsed.
	ErrInvalidStart = errors.New("invalid start time")
)

const (
	localLayout = "2006-01-02T15:04:05"
	utcLayout   = "2006-01-02T15:04:05Z"
)

// CreateBookingInput is a patient's booking request.
type CreateBookingInput struct {
	EventTypeID int64  `json:"eventTypeId"`
	Start       string `json:"start"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}

// BookingResult pairs the local audit row with the provider confirmation.
type BookingResult struct {
	Booking      *models.Booking `json:"booking"`
	BookingUID   string          `json:"booking_uid"`
	MeetLink     string          `json:"meet_link,omitempty"`
	ProviderBody map[string]any  `json:"-"`
}

// BookingService owns the booking lifecycle: the scheduling provider is
// the source of truth, the local store is an append-only audit copy.
type BookingService struct {
	repo         domain.BookingRepository
	provider     domain.SchedulingProvider
	availability domain.AvailabilityProvider
	cache        domain.AvailabilityCache
	bus          domain.EventPublisher
	worker       domain.SyncWorker
	location     *time.Location
	durations    map[int64]int
	timezone     string
	logger       *zerolog.Logger
}

func NewBookingService(
	repo domain.BookingRepository,
	provider domain.SchedulingProvider,
	availability domain.AvailabilityProvider,
	cache domain.AvailabilityCache,
	bus domain.EventPublisher,
	worker domain.SyncWorker,
	location *time.Location,
	durations map[int64]int,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		repo:         repo,
		provider:     provider,
		availability: availability,
		cache:        cache,
		bus:          bus,
		worker:       worker,
		location:     location,
		durations:    durations,
		timezone:     location.String(),
		logger:       logger,
	}
}

// toUTC reinterprets the request's wall clock in the clinic timezone and
// converts to UTC. Any offset the caller sent, Z included, is discarded:
// patients pick times off a clinic-local schedule, so the digits are
// authoritative and the marker is not.
func (s *BookingService) toUTC(value string) (time.Time, error) {
	trimmed := strings.TrimSuffix(value, "Z")
	for _, layout := range []string{localLayout, "2006-01-02T15:04"} {
		if wall, err := time.ParseInLocation(layout, trimmed, s.location); err == nil {
			return wall.UTC(), nil
		}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, s.location)
		return wall.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidStart, value)
}

// CreateBooking saves the booking locally, forwards it to the provider
// and fans out the side effects (cache invalidation, audit sheet sync,
// lifecycle event). The local row is written before the provider call so
// the audit log never misses an attempt that the provider accepted.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingResult, error) {
	duration, ok := s.durations[input.EventTypeID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEventType, input.EventTypeID)
	}

	startUTC, err := s.toUTC(input.Start)
	if err != nil {
		return nil, err
	}
	endUTC := startUTC.Add(time.Duration(duration) * time.Minute)

	startLocal := startUTC.In(s.location)
	booking := &models.Booking{
		EventTypeID: input.EventTypeID,
		Start:       startLocal.Format(localLayout),
		End:         startLocal.Add(time.Duration(duration) * time.Minute).Format(localLayout),
		Name:        input.Name,
		Email:       input.Email,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to save booking locally: %w", err)
	}

	confirmation, err := s.provider.CreateBooking(ctx, cal.BookingRequest{
		EventTypeID: input.EventTypeID,
		Start:       startUTC.Format(utcLayout),
		End:         endUTC.Format(utcLayout),
		TimeZone:    s.timezone,
		Name:        input.Name,
		Email:       input.Email,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("provider rejected booking")
		return nil, fmt.Errorf("failed to create provider booking: %w", err)
	}

	if confirmation.MeetLink != "" {
		booking.MeetLink = confirmation.MeetLink
		if err := s.repo.UpdateBookingMeetLink(ctx, booking.ID, confirmation.MeetLink); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("failed to store meet link")
		}
	}

	metrics.IncBookingCreated()

	date := booking.Start[:10]
	if s.cache != nil {
		if err := s.cache.InvalidateDate(ctx, date); err != nil {
			s.logger.Warn().Err(err).Str("date", date).Msg("failed to invalidate availability cache")
		}
	}

	if s.worker != nil {
		if err := s.worker.EnqueueAppend(ctx, booking); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("failed to enqueue sheet append")
		}
		if booking.MeetLink != "" {
			if err := s.worker.EnqueueMeetLink(ctx, booking.ID, booking.MeetLink); err != nil {
				s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("failed to enqueue meet link sync")
			}
		}
	}

	if s.bus != nil {
		_ = s.bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{
			BookingID:   booking.ID,
			BookingUID:  confirmation.UID,
			EventTypeID: booking.EventTypeID,
			Start:       booking.Start,
			End:         booking.End,
			Name:        booking.Name,
			Email:       booking.Email,
			MeetLink:    booking.MeetLink,
		})
	}

	return &BookingResult{
		Booking:    booking,
		BookingUID: confirmation.UID,
		MeetLink:   confirmation.MeetLink,
	}, nil
}

// Availability serves slot lists through the cache. Only successful
// results are cached; error results always recompute.
func (s *BookingService) Availability(ctx context.Context, eventTypeID int64, date string) (*models.SlotList, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSlots(ctx, eventTypeID, date); err == nil && cached != nil {
			return cached, nil
		}
	}

	list, err := s.availability.ListSlots(ctx, eventTypeID, date)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && list.Status == "success" {
		if err := s.cache.SetSlots(ctx, list); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache availability")
		}
	}
	return list, nil
}

// CancelBooking proxies the cancellation to the provider. The local
// audit row is deliberately kept.
func (s *BookingService) CancelBooking(ctx context.Context, bookingUID string) (map[string]any, error) {
	out, err := s.provider.CancelBooking(ctx, bookingUID)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		_ = s.bus.PublishJSON(events.EventBookingCancelled, events.BookingEventPayload{
			BookingUID: bookingUID,
		})
	}
	return out, nil
}

// RescheduleBooking proxies the move to the provider and dirties the
// cache for the new date.
func (s *BookingService) RescheduleBooking(ctx context.Context, bookingUID, start, reason string) (map[string]any, error) {
	out, err := s.provider.RescheduleBooking(ctx, bookingUID, start, reason)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(start) >= 10 {
		if err := s.cache.InvalidateDate(ctx, start[:10]); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate availability cache")
		}
	}

	if s.bus != nil {
		_ = s.bus.PublishJSON(events.EventBookingRescheduled, events.BookingEventPayload{
			BookingUID: bookingUID,
			Start:      start,
			Reason:     reason,
		})
	}
	return out, nil
}

// EventTypes proxies the provider's event type catalogue.
func (s *BookingService) EventTypes(ctx context.Context) ([]cal.EventType, error) {
	return s.provider.EventTypes(ctx)
}
