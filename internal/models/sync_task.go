package models

import "time"

// SyncTask is one unit of audit-sheet synchronization work persisted in
// the sync_queue table.
type SyncTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	BookingID   int64      `json:"booking_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"` // pending, retry, completed, failed
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}
