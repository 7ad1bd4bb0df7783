package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/dmitrijs2005/certvault/internal/api"
	"github.com/dmitrijs2005/certvault/internal/server/auth"
	"github.com/dmitrijs2005/certvault/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userData = `{
  "user": {"name": "Jane Doe", "date": "January 01, 2025", "output": "jane"},
  "device": {
    "device_id": "LAPTOP-42",
    "Operating System": "Ubuntu 24.04",
    "size_removed": "3.5 GB",
    "action_type": "purge",
    "timestamp": "2025-01-01 09:00",
    "files_deleted": ["/tmp/a", "/tmp/b"]
  }
}`

type env struct {
	dir       string
	config    string
	storePath string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{dir: dir, storePath: filepath.Join(dir, "credentials.json")}
	e.config = e.writeConfig(t, "config.yaml", e.storePath)
	return e
}

func (e *env) writeConfig(t *testing.T, name, storePath string) string {
	t.Helper()
	body := fmt.Sprintf("secret: test-secret\nlocal_store_path: %s\noutput_dir: %s\ntemplate:\n  issuer: Test Authority\n  qr: true\n",
		storePath, filepath.Join(e.dir, "out"))
	return e.write(t, name, body)
}

func (e *env) write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

type result struct {
	code   int
	out    string
	errOut string
}

func run(t *testing.T, configure func(*App), args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)
	if configure != nil {
		configure(app)
	}
	code := app.Execute(context.Background(), args)
	return result{code: code, out: out.String(), errOut: errOut.String()}
}

func find(t *testing.T, pattern, s string) string {
	t.Helper()
	m := regexp.MustCompile(pattern).FindStringSubmatch(s)
	require.Len(t, m, 2, "pattern %q not found in:\n%s", pattern, s)
	return m[1]
}

// issue runs create and returns the certificate id, token and document path.
func (e *env) issue(t *testing.T, extra ...string) (string, string, string) {
	t.Helper()
	input := e.write(t, "user_data.json", userData)
	args := append([]string{"create", "--config", e.config, "--input", input}, extra...)
	res := run(t, nil, args...)
	require.Equal(t, exitOK, res.code, res.out+res.errOut)

	id := find(t, `Certificate ID\s+: (\S+)`, res.out)
	token := find(t, `Verification token \(store safely\): (\S+)`, res.out)
	return id, token, filepath.Join(e.dir, "out", "jane.cert.yaml")
}

func TestCreate_PrintsDetailsAndToken(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "user_data.json", userData)

	res := run(t, nil, "create", "--config", e.config, "--input", input)
	require.Equal(t, exitOK, res.code, res.errOut)

	assert.Contains(t, res.out, "✓ Certificate generated successfully")
	assert.Regexp(t, `Certificate ID\s+: CERT-\d{8}-[0-9A-F]{24}`, res.out)
	assert.Regexp(t, `Operating System\s+: Ubuntu 24.04`, res.out)
	assert.Regexp(t, `Space Recovered\s+: 3.5 GB`, res.out)
	assert.NotContains(t, res.out, "\x1b[", "no colors outside a terminal")
	assert.FileExists(t, filepath.Join(e.dir, "out", "jane.cert.yaml"))

	token := find(t, `Verification token \(store safely\): (\S+)`, res.out)
	store, err := os.ReadFile(e.storePath)
	require.NoError(t, err)
	assert.NotContains(t, string(store), token)
}

func TestCreate_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"not an object", `[1,2]`, "input JSON must be an object"},
		{"bad json", `{"user":`, "invalid JSON"},
		{"no user", `{"device":{"action_type":"purge"}}`, "'user' section missing"},
		{"no device", `{"user":{"name":"Jane"}}`, "'device' section missing"},
		{"no name", `{"user":{"date":"x"},"device":{"action_type":"purge"}}`, "'user.name' is required"},
		{"bad action", `{"user":{"name":"Jane"},"device":{"action_type":"shred"}}`, "certificate will not be generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			input := e.write(t, "in.json", tt.body)

			res := run(t, nil, "create", "--config", e.config, "--input", input)
			assert.Equal(t, exitFailure, res.code)
			assert.Contains(t, res.errOut, tt.wantErr)
			assert.NoFileExists(t, e.storePath)
		})
	}
}

func TestVerifyFile(t *testing.T) {
	e := newEnv(t)
	_, token, doc := e.issue(t)

	res := run(t, nil, "verify-file", "--config", e.config, "--file", doc, "--token", token)
	require.Equal(t, exitOK, res.code, res.out+res.errOut)
	assert.Contains(t, res.out, "✓ Certificate VERIFIED")
	assert.Regexp(t, `Recipient\s+: Jane Doe`, res.out)

	res = run(t, nil, "verify-file", "--config", e.config, "--file", doc, "--token", "wrong")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.out, "TOKEN_MISMATCH")
}

func TestVerifyFile_TamperedStore(t *testing.T) {
	e := newEnv(t)
	_, _, doc := e.issue(t)

	b, err := os.ReadFile(e.storePath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(e.storePath, []byte(strings.Replace(string(b), "Jane Doe", "Jane Roe", 1)), 0o600))

	res := run(t, nil, "verify-file", "--config", e.config, "--file", doc)
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.out, "CHECKSUM_MISMATCH")
}

func TestVerifyFile_MetadataOnly(t *testing.T) {
	e := newEnv(t)
	_, token, doc := e.issue(t)
	offline := e.writeConfig(t, "offline.yaml", filepath.Join(e.dir, "missing.json"))

	res := run(t, nil, "verify-file", "--config", offline, "--file", doc, "--token", token)
	assert.Equal(t, exitUnconfirmed, res.code, res.out+res.errOut)
	assert.Contains(t, res.out, "embedded credential checksum")

	res = run(t, nil, "verify-file", "--config", offline, "--file", doc, "--token", "wrong")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.out, "TOKEN_MISMATCH")
}

func TestVerifyFile_NoMetadataAndMissingFile(t *testing.T) {
	e := newEnv(t)
	plain := e.write(t, "plain.cert.yaml", "heading: Plain\n")

	res := run(t, nil, "verify-file", "--config", e.config, "--file", plain)
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.out, "No embedded certificate metadata found")

	res = run(t, nil, "verify-file", "--config", e.config, "--file", filepath.Join(e.dir, "nope.cert.yaml"))
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.errOut, "file not found")
}

func TestVerifyDB(t *testing.T) {
	e := newEnv(t)
	id, token, _ := e.issue(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		want     string
	}{
		{"match", []string{"--cert-id", id, "--name", "Jane Doe", "--token", token}, exitOK, "✓ Certificate VERIFIED"},
		{"wrong name", []string{"--cert-id", id, "--name", "John Doe"}, exitFailure, "FIELD_MISMATCH"},
		{"course claimed but absent", []string{"--cert-id", id, "--name", "Jane Doe", "--course", "Go"}, exitFailure, "course_name does not match"},
		{"unknown id", []string{"--cert-id", "CERT-20250101-000000000000000000000000", "--name", "Jane Doe"}, exitFailure, "NOT_FOUND"},
		{"wrong token", []string{"--cert-id", id, "--name", "Jane Doe", "--token", "nope"}, exitFailure, "TOKEN_MISMATCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, nil, append([]string{"verify-db", "--config", e.config}, tt.args...)...)
			assert.Equal(t, tt.wantCode, res.code, res.out+res.errOut)
			assert.Contains(t, res.out, tt.want)
		})
	}
}

func TestVerifyDB_RequiresFlags(t *testing.T) {
	e := newEnv(t)
	res := run(t, nil, "verify-db", "--config", e.config, "--name", "Jane Doe")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.errOut, "cert-id")
}

func TestSecretFlag(t *testing.T) {
	e := newEnv(t)
	id, _, _ := e.issue(t, "--secret", "per-run")

	res := run(t, nil, "verify-db", "--config", e.config, "--cert-id", id, "--name", "Jane Doe")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.out, "CHECKSUM_MISMATCH")

	res = run(t, nil, "verify-db", "--config", e.config, "--secret", "per-run", "--cert-id", id, "--name", "Jane Doe")
	assert.Equal(t, exitOK, res.code, res.out)
}

func TestProcessDevice(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "user_data.json", userData)

	res := run(t, nil, "process-device", "--config", e.config, "--input", input)
	require.Equal(t, exitOK, res.code, res.errOut)
	assert.Contains(t, res.out, "✓ Device data processed successfully")
	assert.Regexp(t, `Files Deleted\s+: 2 file\(s\)`, res.out)
	assert.Contains(t, res.out, "    2. /tmp/b")

	store, err := os.ReadFile(e.storePath)
	require.NoError(t, err)
	assert.Contains(t, string(store), `"record_type": "device_cleanup"`)
}

func TestProcessDevice_Invalid(t *testing.T) {
	e := newEnv(t)

	res := run(t, nil, "process-device", "--config", e.config, "--input",
		e.write(t, "bad.json", `{"device_id":"x","files_deleted":[],"size_removed":"1","action_type":"shred","timestamp":"t"}`))
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.errOut, "invalid action_type")

	res = run(t, nil, "process-device", "--config", e.config, "--input", e.write(t, "partial.json", `{"device_id":"x"}`))
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.errOut, "missing required fields")
	assert.NoFileExists(t, e.storePath)
}

type fakeRemote struct {
	addr    string
	token   string
	issued  api.IssueRequest
	request services.VerifyRequest
	verdict services.Verdict
	closed  bool
}

func (f *fakeRemote) Issue(_ context.Context, req api.IssueRequest) (*api.IssueResponse, error) {
	f.issued = req
	return &api.IssueResponse{CertificateID: "CERT-20250101-AAAA", Token: "remote-token", DocumentPath: "/srv/jane.cert.yaml"}, nil
}

func (f *fakeRemote) Verify(_ context.Context, req services.VerifyRequest) (services.Verdict, error) {
	f.request = req
	return f.verdict, nil
}

func (f *fakeRemote) Close() error {
	f.closed = true
	return nil
}

func withRemote(f *fakeRemote) func(*App) {
	return func(a *App) {
		a.dialRemote = func(addr, token string) (remoteService, error) {
			f.addr, f.token = addr, token
			return f, nil
		}
	}
}

func TestVerifyRemote(t *testing.T) {
	e := newEnv(t)
	_, _, doc := e.issue(t)
	f := &fakeRemote{verdict: services.Verdict{OK: true, Reason: services.ReasonOK, CertificateID: "CERT-X"}}

	res := run(t, withRemote(f), "verify-remote", "--config", e.config, "--addr", "10.0.0.1:50051",
		"--file", doc, "--name", "Jane Doe")
	require.Equal(t, exitOK, res.code, res.out+res.errOut)

	assert.Equal(t, "10.0.0.1:50051", f.addr)
	assert.True(t, f.closed)
	require.NotNil(t, f.request.Payload)
	assert.Equal(t, []services.Field{{Name: "recipient_name", Value: "Jane Doe"}}, f.request.Claimed)

	res = run(t, withRemote(f), "verify-remote", "--config", e.config)
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.errOut, "either --cert-id or --file")
}

func TestCreateRemote(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "user_data.json", userData)
	f := &fakeRemote{}

	res := run(t, withRemote(f), "create", "--config", e.config, "--input", input, "--remote", "--access-token", "jwt")
	require.Equal(t, exitOK, res.code, res.errOut)

	assert.Equal(t, "127.0.0.1:50051", f.addr)
	assert.Equal(t, "jwt", f.token)
	assert.Equal(t, "Jane Doe", f.issued.RecipientName)
	assert.Contains(t, res.out, "remote-token")
	assert.NoFileExists(t, e.storePath, "remote issuance does not touch local stores")

	res = run(t, withRemote(f), "create", "--config", e.config, "--input", input, "--remote", "--secret", "s")
	assert.Equal(t, exitFailure, res.code)
}

func TestToken(t *testing.T) {
	e := newEnv(t)

	res := run(t, nil, "token", "--config", e.config, "--subject", "registrar")
	require.Equal(t, exitOK, res.code, res.errOut)

	subject, err := auth.SubjectFromToken(strings.TrimSpace(res.out), []byte("secretKey"))
	require.NoError(t, err)
	assert.Equal(t, "registrar", subject)
}

func TestVersion(t *testing.T) {
	res := run(t, nil, "version")
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.out, "Build version:")
}

func TestBadConfigFile(t *testing.T) {
	res := run(t, nil, "version", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.errOut, "failed to load config")
}
