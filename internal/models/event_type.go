package models

// EventType maps a provider event-type ID to a fixed appointment length.
// The table is static configuration; in the production flow the provider
// owns durations and this map only feeds the local slot engine.
type EventType struct {
	ID              int64  `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	DurationMinutes int    `yaml:"duration_minutes" json:"duration_minutes"`
}
