package repository

import (
	"context"
	"testing"
	"time"

	"clinicbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAvailabilityCache(t *testing.T) {
	cache := NewMemoryAvailabilityCache(time.Hour)
	ctx := context.Background()

	list := &models.SlotList{
		Status:      "success",
		EventTypeID: 4136379,
		Date:        "2025-06-10",
		Slots:       []models.Slot{{Start: "2025-06-10T09:00:00+05:30", End: "2025-06-10T09:30:00+05:30"}},
	}

	require.NoError(t, cache.SetSlots(ctx, list))

	got, err := cache.GetSlots(ctx, 4136379, "2025-06-10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, list.Slots, got.Slots)

	got, err = cache.GetSlots(ctx, 999, "2025-06-10")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.InvalidateDate(ctx, "2025-06-10"))
	got, err = cache.GetSlots(ctx, 4136379, "2025-06-10")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryAvailabilityCacheExpiry(t *testing.T) {
	cache := NewMemoryAvailabilityCache(-time.Second)
	ctx := context.Background()

	list := &models.SlotList{Status: "success", EventTypeID: 1, Date: "2025-06-10"}
	require.NoError(t, cache.SetSlots(ctx, list))

	got, err := cache.GetSlots(ctx, 1, "2025-06-10")
	require.NoError(t, err)
	assert.Nil(t, got)
}
