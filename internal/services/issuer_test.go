package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/certvault/internal/carrier"
	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/config"
	"github.com/dmitrijs2005/certvault/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchiver struct {
	enabled bool
	err     error
	paths   []string
}

func (f *fakeArchiver) Enabled() bool { return f.enabled }

func (f *fakeArchiver) Archive(_ context.Context, id, path string) (string, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return "", f.err
	}
	return "certificates/" + id + ".cert.yaml", nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Secret = testSecret
	cfg.OutputDir = t.TempDir()
	cfg.Template.Issuer = "Test Authority"
	return cfg
}

func deviceInfo() map[string]any {
	return map[string]any{
		"device_id":        "LAPTOP-42",
		"Operating System": "Ubuntu 24.04",
		"size_removed":     "3.5 GB",
		"action_type":      "purge",
		"timestamp":        "2025-01-01 09:00",
		"files_deleted":    []any{"/tmp/a", "/tmp/b"},
	}
}

func fixedIssuer(cfg *config.Config, store RecordAppender, archive Archiver) *Issuer {
	i := NewIssuer(cfg, store, archive, nil, nil)
	i.now = func() time.Time { return time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC) }
	return i
}

func TestIssue_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	store := newMemStore()
	ctx := context.Background()

	res, err := fixedIssuer(cfg, store, nil).Issue(ctx, IssueRequest{RecipientName: "Jane Doe", DeviceInfo: deviceInfo()})
	require.NoError(t, err)

	rec := res.Record
	assert.Regexp(t, `^CERT-20250101-[0-9A-F]{24}$`, rec.CertificateID)
	assert.Equal(t, "January 01, 2025", rec.IssueDate)
	assert.Equal(t, "2025-01-01T10:00:00Z", rec.GeneratedAt)
	assert.Equal(t, "Test Authority", rec.Issuer)
	assert.Equal(t, cryptox.HashToken(res.Token), rec.Credentials.TokenHash)
	assert.NotEmpty(t, rec.Credentials.Signature)
	assert.True(t, res.Persisted)
	assert.True(t, res.Embedded)
	assert.False(t, res.Archived)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "Jane_Doe.cert.yaml"), res.DocumentPath)
	assert.Equal(t, res.DocumentPath, rec.FilePath)

	stored, err := store.FindByID(ctx, rec.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, rec.Credentials, stored.Credentials)

	payload, err := carrier.ExtractPayload(res.DocumentPath)
	require.NoError(t, err)
	assert.Equal(t, rec.CertificateID, payload.ID)
	assert.Equal(t, rec.Credentials.Checksum, payload.Checksum)
	assert.Equal(t, rec.Credentials.TokenHash, payload.TokenHash)

	v := NewVerifier(store, cryptox.NewStamper(cfg.StamperConfig("")), nil, nil)
	got := v.Verify(ctx, VerifyRequest{
		Payload: &payload,
		Token:   res.Token,
		Claimed: []Field{{"recipient_name", "Jane Doe"}},
	})
	assert.Equal(t, ReasonOK, got.Reason)
}

func TestIssue_TokenIsNeverPersisted(t *testing.T) {
	cfg := testConfig(t)
	res, err := fixedIssuer(cfg, newMemStore(), nil).Issue(context.Background(), IssueRequest{RecipientName: "Jane Doe"})
	require.NoError(t, err)

	b, err := os.ReadFile(res.DocumentPath)
	require.NoError(t, err)
	assert.NotContains(t, string(b), res.Token)
}

func TestIssue_IDDateFollowsGeneratedAt(t *testing.T) {
	cfg := testConfig(t)
	i := NewIssuer(cfg, newMemStore(), nil, nil, nil)
	east := time.FixedZone("UTC-5", -5*60*60)
	i.now = func() time.Time { return time.Date(2024, time.December, 31, 23, 30, 0, 0, east) }

	res, err := i.Issue(context.Background(), IssueRequest{RecipientName: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01T04:30:00Z", res.Record.GeneratedAt)
	assert.Regexp(t, `^CERT-20250101-[0-9A-F]{24}$`, res.Record.CertificateID)
}

func TestIssue_ExplicitSecretOverridesConfigured(t *testing.T) {
	cfg := testConfig(t)
	store := newMemStore()
	ctx := context.Background()

	res, err := fixedIssuer(cfg, store, nil).Issue(ctx, IssueRequest{RecipientName: "Jane Doe", Secret: "per-call"})
	require.NoError(t, err)

	withConfigured := NewVerifier(store, cryptox.NewStamper(cfg.StamperConfig("")), nil, nil)
	assert.Equal(t, ReasonChecksumMismatch, withConfigured.Verify(ctx, VerifyRequest{CertificateID: res.Record.CertificateID}).Reason)

	withExplicit := NewVerifier(store, cryptox.NewStamper(cfg.StamperConfig("per-call")), nil, nil)
	assert.Equal(t, ReasonOK, withExplicit.Verify(ctx, VerifyRequest{CertificateID: res.Record.CertificateID}).Reason)
}

func TestIssue_InsecureDefaultIsLogged(t *testing.T) {
	cfg := testConfig(t)
	cfg.Secret = ""
	logger := newRecordingLogger()

	i := NewIssuer(cfg, newMemStore(), nil, logger, nil)
	res, err := i.Issue(context.Background(), IssueRequest{RecipientName: "Jane Doe"})
	require.NoError(t, err)

	insecure := cryptox.NewStamper(cryptox.StamperConfig{})
	ok, err := insecure.VerifyChecksum(res.Record.ChecksumInput(), res.Record.Credentials.Checksum)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, logger.messages("warn"))
}

func TestIssue_BestEffortSideEffects(t *testing.T) {
	ctx := context.Background()

	t.Run("store down still returns the token", func(t *testing.T) {
		store := newMemStore()
		store.err = common.ErrStoreUnreachable
		res, err := fixedIssuer(testConfig(t), store, nil).Issue(ctx, IssueRequest{RecipientName: "Jane Doe"})
		require.NoError(t, err)
		assert.False(t, res.Persisted)
		assert.NotEmpty(t, res.Token)
		assert.FileExists(t, res.DocumentPath)
	})

	t.Run("archive success", func(t *testing.T) {
		arch := &fakeArchiver{enabled: true}
		res, err := fixedIssuer(testConfig(t), newMemStore(), arch).Issue(ctx, IssueRequest{RecipientName: "Jane Doe"})
		require.NoError(t, err)
		assert.True(t, res.Archived)
		assert.Equal(t, []string{res.DocumentPath}, arch.paths)
		assert.NotEmpty(t, res.ArchiveKey)
	})

	t.Run("archive failure is swallowed", func(t *testing.T) {
		arch := &fakeArchiver{enabled: true, err: errors.New("403")}
		res, err := fixedIssuer(testConfig(t), newMemStore(), arch).Issue(ctx, IssueRequest{RecipientName: "Jane Doe"})
		require.NoError(t, err)
		assert.False(t, res.Archived)
		assert.True(t, res.Persisted)
	})

	t.Run("archive disabled", func(t *testing.T) {
		arch := &fakeArchiver{}
		_, err := fixedIssuer(testConfig(t), newMemStore(), arch).Issue(ctx, IssueRequest{RecipientName: "Jane Doe"})
		require.NoError(t, err)
		assert.Empty(t, arch.paths)
	})

	t.Run("unwritable output dir", func(t *testing.T) {
		cfg := testConfig(t)
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0o600))
		cfg.OutputDir = blocker

		res, err := fixedIssuer(cfg, newMemStore(), nil).Issue(ctx, IssueRequest{RecipientName: "Jane Doe"})
		require.NoError(t, err)
		assert.Empty(t, res.DocumentPath)
		assert.False(t, res.Embedded)
		assert.True(t, res.Persisted)
	})
}

func TestIssue_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  IssueRequest
	}{
		{"empty name", IssueRequest{RecipientName: "  "}},
		{"bad action", IssueRequest{RecipientName: "Jane", DeviceInfo: map[string]any{"action_type": "shred"}}},
		{"missing action", IssueRequest{RecipientName: "Jane", DeviceInfo: map[string]any{"device_id": "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			_, err := fixedIssuer(testConfig(t), store, nil).Issue(context.Background(), tt.req)
			assert.ErrorIs(t, err, common.ErrorValidation)
			assert.Empty(t, store.entries)
		})
	}
}

func TestIssue_CourseVariant(t *testing.T) {
	cfg := testConfig(t)
	res, err := fixedIssuer(cfg, newMemStore(), nil).Issue(context.Background(), IssueRequest{
		RecipientName: "Alice Smith",
		CourseName:    "Secure Erasure 101",
		IssueDate:     "March 03, 2025",
		OutputName:    "alice",
	})
	require.NoError(t, err)

	assert.Equal(t, "March 03, 2025", res.Record.IssueDate)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "alice.cert.yaml"), res.DocumentPath)
	assert.Contains(t, res.Record.ChecksumInput(), "course_name")
}
