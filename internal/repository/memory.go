package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"clinicbook/internal/models"
)

type memoryEntry struct {
	list      *models.SlotList
	expiresAt time.Time
}

type MemoryAvailabilityCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemoryAvailabilityCache(ttl time.Duration) *MemoryAvailabilityCache {
	return &MemoryAvailabilityCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (m *MemoryAvailabilityCache) GetSlots(ctx context.Context, eventTypeID int64, date string) (*models.SlotList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := slotsKey(eventTypeID, date)
	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil, nil
	}
	return entry.list, nil
}

func (m *MemoryAvailabilityCache) SetSlots(ctx context.Context, list *models.SlotList) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[slotsKey(list.EventTypeID, list.Date)] = memoryEntry{
		list:      list,
		expiresAt: time.Now().Add(m.ttl),
	}
	return nil
}

func (m *MemoryAvailabilityCache) InvalidateDate(ctx context.Context, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := "slots:" + date + ":"
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}
