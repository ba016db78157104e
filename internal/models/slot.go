package models

// Slot is one bookable window, both ends as clinic-local ISO-8601 strings.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SlotList is the availability response for one (event type, date) pair.
// Status is "success" or "error"; on error only Message is meaningful.
type SlotList struct {
	Status          string `json:"status"`
	Message         string `json:"message,omitempty"`
	EventTypeID     int64  `json:"eventTypeId,omitempty"`
	Date            string `json:"date,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
	Slots           []Slot `json:"slots"`
}
