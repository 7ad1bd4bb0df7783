package models

import "time"

// DeviceCleanup records one sanitization run reported by a device agent.
// It shares the record store with certificates but is never verified.
type DeviceCleanup struct {
	RecordType        RecordType `json:"record_type"`
	DeviceID          string     `json:"device_id"`
	OS                string     `json:"os"`
	ActionType        string     `json:"action_type"`
	SizeRemoved       string     `json:"size_removed"`
	Timestamp         string     `json:"timestamp"`
	FilesDeletedCount int        `json:"files_deleted_count"`
	FilesDeleted      []string   `json:"files_deleted"`
	ProcessedAt       time.Time  `json:"processed_at"`
}

func (d *DeviceCleanup) Kind() RecordType { return RecordTypeDeviceCleanup }

// StoreKey is empty: cleanup entries are log lines, not addressable records.
func (d *DeviceCleanup) StoreKey() string { return "" }

// Entry is anything appended to a record store.
type Entry interface {
	Kind() RecordType
	StoreKey() string
}

// Bool returns a pointer to v, for optional flags such as Credentials.HasQR.
func Bool(v bool) *bool { return &v }
