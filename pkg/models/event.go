package models

import "time"

// ChangeType is the kind of record mutation that produced a change event.
type ChangeType string

const (
	ChangeCreated ChangeType = "CREATED"
	ChangeUpdated ChangeType = "UPDATED"
	ChangeDeleted ChangeType = "DELETED"
)

// RecordChangeEvent describes one committed record mutation. After-save
// workflow evaluation consumes these; before-save evaluation works from the
// raw save request instead.
type RecordChangeEvent struct {
	EventID        string         `json:"event_id"`
	TenantID       string         `json:"tenant_id"`
	CollectionName string         `json:"collection_name"`
	RecordID       string         `json:"record_id,omitempty"`
	ChangeType     ChangeType     `json:"change_type"`
	Data           map[string]any `json:"data"`
	PreviousData   map[string]any `json:"previous_data,omitempty"`
	ChangedFields  []string       `json:"changed_fields,omitempty"`
	UserID         string         `json:"user_id"`
	OccurredAt     time.Time      `json:"occurred_at"`
}
