// Package records implements the append-only credential record store:
// a JSON append log, SQLite, PostgreSQL and Redis backends, and a Chain that
// combines them in order of preference.
package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/certvault/internal/models"
)

// Repository is the record store contract. Records are only ever appended;
// there is no update or delete.
//
// FindByID returns common.ErrorNotFound when the backend answered but holds
// no certificate with that id. Any other error means the backend could not
// be consulted.
type Repository interface {
	Name() string
	Append(ctx context.Context, e models.Entry) error
	FindByID(ctx context.Context, certificateID string) (*models.Record, error)
}

// document is what the backends persist for one entry.
type document struct {
	key  string
	kind models.RecordType
	body []byte
}

func encodeEntry(e models.Entry) (document, error) {
	if e == nil {
		return document{}, fmt.Errorf("encode entry: nil entry")
	}
	if e.Kind() == models.RecordTypeCertificate && e.StoreKey() == "" {
		return document{}, fmt.Errorf("encode entry: certificate without id")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return document{}, fmt.Errorf("encode entry: %w", err)
	}
	return document{key: e.StoreKey(), kind: e.Kind(), body: b}, nil
}

func decodeRecord(b []byte) (*models.Record, error) {
	var rec models.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
