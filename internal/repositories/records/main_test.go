package records

import (
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/certvault/internal/models"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sampleRecord(id string) *models.Record {
	return &models.Record{
		FieldSet: models.FieldSet{
			CertificateID: id,
			RecipientName: "Jane Doe",
			IssueDate:     "January 01, 2025",
			Issuer:        "Test Authority",
			Title:         "Data Sanitization Certificate",
			GeneratedAt:   "2025-01-01T10:00:00Z",
		},
		Credentials: models.Credentials{
			TokenHash: "aa",
			Checksum:  "0123456789abcdef",
			HasQR:     models.Bool(true),
		},
		RecordType: models.RecordTypeCertificate,
		CreatedAt:  time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func sampleCleanup() *models.DeviceCleanup {
	return &models.DeviceCleanup{
		RecordType:        models.RecordTypeDeviceCleanup,
		DeviceID:          "dev-1",
		OS:                "Linux",
		ActionType:        "purge",
		SizeRemoved:       "1.2 GB",
		Timestamp:         "2025-01-01T09:00:00Z",
		FilesDeleted:      []string{"/tmp/a", "/tmp/b"},
		FilesDeletedCount: 2,
	}
}

func certID(i int) string {
	return fmt.Sprintf("CERT-20250101-%024X", i)
}
