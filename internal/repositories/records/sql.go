package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/models"
	"github.com/google/uuid"
)

// sqlDialect holds what differs between the SQL backends.
type sqlDialect struct {
	name            string
	insertQuery     string
	selectQuery     string
	uniqueViolation func(error) bool
}

// SQLStore persists entries as JSON documents in the records table created
// by the migrations package.
type SQLStore struct {
	db      *sql.DB
	dialect sqlDialect
}

func (s *SQLStore) Name() string { return s.dialect.name }

// Append inserts e in its own transaction. A duplicate certificate id hits
// the unique constraint and is reported as common.ErrorAlreadyExists.
func (s *SQLStore) Append(ctx context.Context, e models.Entry) error {
	doc, err := encodeEntry(e)
	if err != nil {
		return err
	}

	var key sql.NullString
	if doc.key != "" {
		key = sql.NullString{String: doc.key, Valid: true}
	}

	err = inTx(ctx, s.db, func(ctx context.Context, tx execer) error {
		_, err := tx.ExecContext(ctx, s.dialect.insertQuery, uuid.NewString(), key, string(doc.kind), string(doc.body))
		return err
	})
	if err != nil {
		if s.dialect.uniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindByID loads the certificate with the given id.
func (s *SQLStore) FindByID(ctx context.Context, certificateID string) (*models.Record, error) {
	var body string
	err := s.db.QueryRowContext(ctx, s.dialect.selectQuery, certificateID, string(models.RecordTypeCertificate)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return decodeRecord([]byte(body))
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
