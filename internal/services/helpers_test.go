package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/logging"
	"github.com/dmitrijs2005/certvault/internal/models"
)

// memStore is an in-memory record store; err, when set, makes it
// unreachable.
type memStore struct {
	mu      sync.Mutex
	records map[string]*models.Record
	entries []models.Entry
	err     error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*models.Record{}}
}

func (m *memStore) Append(_ context.Context, e models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if rec, ok := e.(*models.Record); ok {
		if _, dup := m.records[rec.CertificateID]; dup {
			return common.ErrorAlreadyExists
		}
		cp := *rec
		m.records[rec.CertificateID] = &cp
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memStore) FindByID(_ context.Context, id string) (*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	return &cp, nil
}

// recordingLogger keeps messages by level.
type recordingLogger struct {
	mu   sync.Mutex
	msgs map[string][]string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{msgs: map[string][]string{}}
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs[level] = append(l.msgs[level], msg)
}

func (l *recordingLogger) Debug(_ context.Context, msg string, _ ...any) { l.add("debug", msg) }
func (l *recordingLogger) Info(_ context.Context, msg string, _ ...any)  { l.add("info", msg) }
func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...any)  { l.add("warn", msg) }
func (l *recordingLogger) Error(_ context.Context, msg string, _ ...any) { l.add("error", msg) }
func (l *recordingLogger) With(...any) logging.Logger                    { return l }

func (l *recordingLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs[level]...)
}
