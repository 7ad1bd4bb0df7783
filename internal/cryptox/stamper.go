package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"maps"
)

// InsecureDefaultSecret is used when neither an explicit secret nor a
// configured CERT_SECRET is available.
//
// INSECURE: anyone who knows this value can forge checksums for any
// certificate. Deployments must configure their own secret.
const InsecureDefaultSecret = "default-secret"

// ChecksumLength is the number of hex characters kept from the HMAC digest.
// 16 hex chars are 64 bits: enough to detect accidental and casual edits and
// small enough for the document metadata slot, but far weaker than the full
// 256-bit digest. Already-issued carriers depend on this width.
const ChecksumLength = 16

// StamperConfig carries the secret candidates in resolution order.
type StamperConfig struct {
	// Secret is an explicit per-call or per-component secret.
	Secret string
	// Configured is the process-wide value, usually CERT_SECRET.
	Configured string
}

// Stamper computes keyed integrity stamps over canonical field sets.
type Stamper struct {
	key      []byte
	insecure bool
}

// NewStamper resolves the secret (explicit, then configured, then
// InsecureDefaultSecret) and returns a ready Stamper.
func NewStamper(cfg StamperConfig) *Stamper {
	secret, insecure := ResolveSecret(cfg)
	return &Stamper{key: []byte(secret), insecure: insecure}
}

// ResolveSecret applies the secret resolution order and reports whether the
// insecure fallback was chosen.
func ResolveSecret(cfg StamperConfig) (secret string, insecure bool) {
	switch {
	case cfg.Secret != "":
		return cfg.Secret, false
	case cfg.Configured != "":
		return cfg.Configured, false
	default:
		return InsecureDefaultSecret, true
	}
}

// Insecure reports whether the stamper runs on InsecureDefaultSecret.
func (s *Stamper) Insecure() bool {
	return s.insecure
}

// Checksum returns the first ChecksumLength hex characters of
// HMAC-SHA-256(secret, Encode(fields)).
func (s *Stamper) Checksum(fields map[string]any) (string, error) {
	digest, err := s.mac(fields)
	if err != nil {
		return "", err
	}
	return digest[:ChecksumLength], nil
}

// Signature returns the full hex HMAC-SHA-256 over fields plus token_hash.
// It binds the stamp to one token, so a checksum replayed with a different
// token is detectable. This is a shared-secret MAC, not a public-key
// signature.
func (s *Stamper) Signature(fields map[string]any, tokenHash string) (string, error) {
	bound := make(map[string]any, len(fields)+1)
	maps.Copy(bound, fields)
	bound["token_hash"] = tokenHash
	return s.mac(bound)
}

// VerifyChecksum recomputes the checksum and compares it in constant time.
func (s *Stamper) VerifyChecksum(fields map[string]any, expected string) (bool, error) {
	actual, err := s.Checksum(fields)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(actual), []byte(expected)), nil
}

// VerifySignature recomputes the signature and compares it in constant time.
func (s *Stamper) VerifySignature(fields map[string]any, tokenHash, expected string) (bool, error) {
	actual, err := s.Signature(fields, tokenHash)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(actual), []byte(expected)), nil
}

func (s *Stamper) mac(v any) (string, error) {
	msg, err := Encode(v)
	if err != nil {
		return "", err
	}
	h := hmac.New(sha256.New, s.key)
	h.Write(msg)
	return hex.EncodeToString(h.Sum(nil)), nil
}
