package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/logging"
	"github.com/dmitrijs2005/certvault/internal/metrics"
	"github.com/dmitrijs2005/certvault/internal/models"
)

// Supported sanitization actions.
const (
	ActionPurge = "purge"
	ActionClear = "clear"
)

// requiredDeviceFields must be present in a device cleanup report.
var requiredDeviceFields = []string{"device_id", "files_deleted", "size_removed", "action_type", "timestamp"}

// RecordAppender appends entries to the record store.
type RecordAppender interface {
	Append(ctx context.Context, e models.Entry) error
}

// ValidateAction accepts purge and clear, in any letter case.
func ValidateAction(actionType any) error {
	s, _ := actionType.(string)
	switch strings.ToLower(s) {
	case ActionPurge, ActionClear:
		return nil
	}
	return fmt.Errorf("%w: invalid action_type %q, use %q or %q", common.ErrorValidation, fmt.Sprint(actionType), ActionPurge, ActionClear)
}

// DeviceReport extracts the device section of raw input: either the
// "device" object of a combined document or the whole object.
func DeviceReport(raw map[string]any) map[string]any {
	if d, ok := raw["device"].(map[string]any); ok {
		return d
	}
	return raw
}

// ParseCleanup validates a device report and converts it to a cleanup
// entry stamped with now.
func ParseCleanup(info map[string]any, now time.Time) (*models.DeviceCleanup, error) {
	var missing []string
	for _, f := range requiredDeviceFields {
		if _, ok := info[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing required fields: %s", common.ErrorValidation, strings.Join(missing, ", "))
	}
	if err := ValidateAction(info["action_type"]); err != nil {
		return nil, err
	}

	list, ok := info["files_deleted"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: files_deleted must be a list", common.ErrorValidation)
	}
	files := make([]string, 0, len(list))
	for _, f := range list {
		files = append(files, fmt.Sprint(f))
	}

	return &models.DeviceCleanup{
		RecordType:        models.RecordTypeDeviceCleanup,
		DeviceID:          fmt.Sprint(info["device_id"]),
		OS:                firstString(info, "N/A", "Operating System", "os"),
		ActionType:        strings.ToLower(info["action_type"].(string)),
		SizeRemoved:       fmt.Sprint(info["size_removed"]),
		Timestamp:         fmt.Sprint(info["timestamp"]),
		FilesDeletedCount: len(files),
		FilesDeleted:      files,
		ProcessedAt:       now.UTC(),
	}, nil
}

// DeviceLog stores device cleanup reports next to the certificates.
type DeviceLog struct {
	store   RecordAppender
	logger  logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewDeviceLog(store RecordAppender, logger logging.Logger, m *metrics.Metrics) *DeviceLog {
	if logger == nil {
		logger = logging.Nop()
	}
	return &DeviceLog{store: store, logger: logger.With("module", "devicelog"), metrics: m, now: time.Now}
}

// Record validates info and appends it. Unlike issuance, a storage failure
// is returned: the record is the whole point of the call.
func (d *DeviceLog) Record(ctx context.Context, info map[string]any) (*models.DeviceCleanup, error) {
	entry, err := ParseCleanup(info, d.now())
	if err != nil {
		return nil, err
	}
	if err := d.store.Append(ctx, entry); err != nil {
		d.logger.Error(ctx, "device cleanup not stored", "device_id", entry.DeviceID, "error", err)
		return nil, fmt.Errorf("store device cleanup: %w", err)
	}
	d.metrics.ObserveDeviceCleanup(entry.ActionType)
	d.logger.Info(ctx, "device cleanup stored", "device_id", entry.DeviceID, "files", entry.FilesDeletedCount)
	return entry, nil
}
