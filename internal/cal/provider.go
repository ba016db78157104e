package cal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clinicbook/internal/metrics"
	"clinicbook/internal/models"
)

const slotLayout = "2006-01-02T15:04:05-07:00"

// Provider exposes the remote scheduling system as an availability
// source. Durations come from local configuration because the slots
// endpoint only reports start times.
type Provider struct {
	client    *Client
	durations map[int64]int
	timezone  string
}

func NewProvider(client *Client, durations map[int64]int, timezone string) *Provider {
	return &Provider{
		client:    client,
		durations: durations,
		timezone:  timezone,
	}
}

// ListSlots fetches open windows for one event type and date. Unknown
// event types produce a structured error result, not a transport error.
func (p *Provider) ListSlots(ctx context.Context, eventTypeID int64, date string) (*models.SlotList, error) {
	duration, ok := p.durations[eventTypeID]
	if !ok {
		return &models.SlotList{
			Status:      "error",
			Message:     "Invalid event type",
			EventTypeID: eventTypeID,
			Date:        date,
			Slots:       []models.Slot{},
		}, nil
	}

	starts, err := p.client.Slots(ctx, eventTypeID, date, p.timezone)
	if err != nil {
		return nil, fmt.Errorf("fetch provider slots: %w", err)
	}

	metrics.IncSlotGeneration("cal")

	loc, err := time.LoadLocation(p.timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", p.timezone, err)
	}

	slots := make([]models.Slot, 0, len(starts))
	for _, raw := range starts {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("parse provider slot %q: %w", raw, err)
		}
		start = start.In(loc)
		end := start.Add(time.Duration(duration) * time.Minute)
		slots = append(slots, models.Slot{
			Start: start.Format(slotLayout),
			End:   end.Format(slotLayout),
		})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })

	return &models.SlotList{
		Status:          "success",
		EventTypeID:     eventTypeID,
		Date:            date,
		DurationMinutes: duration,
		Timezone:        p.timezone,
		Slots:           slots,
	}, nil
}
