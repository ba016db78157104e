package repository

import (
	"context"
	"sync/atomic"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
)

type FailoverAvailabilityCache struct {
	primary  domain.AvailabilityCache
	fallback domain.AvailabilityCache
	logger   *zerolog.Logger
	isDown   atomic.Bool
	// Unix nanoseconds of the last failed primary attempt. Written from
	// concurrent request goroutines, so it is atomic like isDown.
	lastCheck atomic.Int64
}

func (r *FailoverAvailabilityCache) markDown() {
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverAvailabilityCache) recoveryDue() bool {
	return time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute
}

func NewFailoverAvailabilityCache(primary, fallback domain.AvailabilityCache, logger *zerolog.Logger) *FailoverAvailabilityCache {
	return &FailoverAvailabilityCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverAvailabilityCache) GetSlots(ctx context.Context, eventTypeID int64, date string) (*models.SlotList, error) {
	if !r.isDown.Load() {
		list, err := r.primary.GetSlots(ctx, eventTypeID, date)
		if err == nil {
			return list, nil
		}
		r.logger.Error().Err(err).Msg("Primary availability cache failed, falling back to memory")
		r.markDown()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && r.recoveryDue() {
		list, err := r.primary.GetSlots(ctx, eventTypeID, date)
		if err == nil {
			r.isDown.Store(false)
			return list, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.GetSlots(ctx, eventTypeID, date)
}

func (r *FailoverAvailabilityCache) SetSlots(ctx context.Context, list *models.SlotList) error {
	if !r.isDown.Load() {
		err := r.primary.SetSlots(ctx, list)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary availability cache failed, falling back to memory")
		r.markDown()
	}

	return r.fallback.SetSlots(ctx, list)
}

func (r *FailoverAvailabilityCache) InvalidateDate(ctx context.Context, date string) error {
	if !r.isDown.Load() {
		err := r.primary.InvalidateDate(ctx, date)
		if err == nil {
			// Keep the fallback coherent too.
			return r.fallback.InvalidateDate(ctx, date)
		}
		r.logger.Error().Err(err).Msg("Primary availability cache failed, falling back to memory")
		r.markDown()
	}

	return r.fallback.InvalidateDate(ctx, date)
}
