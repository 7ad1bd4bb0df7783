package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/filex"
	"github.com/dmitrijs2005/certvault/internal/models"
	"golang.org/x/sys/unix"
)

// lockRetryInterval is how often a busy flock is retried.
const lockRetryInterval = 10 * time.Millisecond

// JSONStore keeps every entry in a single JSON array file. Appends are
// serialized inside the process and with an exclusive flock on a sidecar
// lock file across processes; the file itself is replaced atomically.
// Waiting for either lock is bounded by the caller's context.
type JSONStore struct {
	path string
	// sem is a one-slot semaphore serializing appends in this process.
	sem chan struct{}
}

// NewJSONStore returns a store backed by the file at path. The file is
// created on first append.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, sem: make(chan struct{}, 1)}
}

func (s *JSONStore) Name() string { return "json" }

// Append adds e to the log. A certificate id already present in the log is
// rejected with common.ErrorAlreadyExists.
func (s *JSONStore) Append(ctx context.Context, e models.Entry) error {
	doc, err := encodeEntry(e)
	if err != nil {
		return err
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return unreachable(ctx.Err())
	}
	defer func() { <-s.sem }()

	unlock, err := s.lock(ctx, unix.LOCK_EX)
	if err != nil {
		return err
	}
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := s.read()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if doc.key != "" {
		for _, raw := range entries {
			if h, ok := peek(raw); ok && h.isCertificate() && h.CertificateID == doc.key {
				return common.ErrorAlreadyExists
			}
		}
	}

	entries = append(entries, doc.body)
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("json store: %w", err)
	}
	if err := filex.WriteFileAtomic(s.path, b, 0o600); err != nil {
		return fmt.Errorf("json store: %w", err)
	}
	return nil
}

// FindByID scans the log for a certificate. A missing log file makes the
// store unreachable rather than empty. Entries that fail to decode are
// skipped.
func (s *JSONStore) FindByID(ctx context.Context, certificateID string) (*models.Record, error) {
	unlock, err := s.lock(ctx, unix.LOCK_SH)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.read()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("json store %s: %w", s.path, common.ErrStoreUnreachable)
	}
	if err != nil {
		return nil, err
	}

	for _, raw := range entries {
		h, ok := peek(raw)
		if !ok || !h.isCertificate() || h.CertificateID != certificateID {
			continue
		}
		if rec, err := decodeRecord(raw); err == nil {
			return rec, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (s *JSONStore) read() ([]json.RawMessage, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("json store %s: %w", s.path, err)
	}
	return entries, nil
}

// lock takes a flock of the given kind on the sidecar lock file, retrying
// until ctx is done. A shared lock opens the sidecar read-only and treats a
// missing one as unlocked, so lookups never create files.
func (s *JSONStore) lock(ctx context.Context, how int) (func(), error) {
	f, err := s.openLock(how)
	if how == unix.LOCK_SH && errors.Is(err, fs.ErrNotExist) {
		return func() {}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("json store lock: %w", err)
	}

	fd := int(f.Fd())
	for {
		err := unix.Flock(fd, how|unix.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = f.Close()
			return nil, fmt.Errorf("json store lock: %w", err)
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, unreachable(ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		_ = unix.Flock(fd, unix.LOCK_UN)
		_ = f.Close()
	}, nil
}

func (s *JSONStore) openLock(how int) (*os.File, error) {
	if how == unix.LOCK_SH {
		return os.Open(s.path + ".lock")
	}
	return os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0o600)
}

func unreachable(cause error) error {
	return fmt.Errorf("json store lock: %w: %w", common.ErrStoreUnreachable, cause)
}

// header is the part of an entry needed to route a lookup.
type header struct {
	RecordType    models.RecordType `json:"record_type"`
	CertificateID string            `json:"certificate_id"`
}

func (h header) isCertificate() bool {
	return h.RecordType == "" || h.RecordType == models.RecordTypeCertificate
}

func peek(raw json.RawMessage) (header, bool) {
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return header{}, false
	}
	return h, true
}
