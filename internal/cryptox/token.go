package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/certvault/internal/common"
)

// TokenBytes is the entropy of a verification token (128 bits).
const TokenBytes = 16

var randRead = rand.Read

// IssueToken generates a one-time verification token and its SHA-256 hash.
//
// The token is handed to the certificate holder once and is never persisted;
// only tokenHash is stored and embedded. An error means the entropy source
// failed and the issuance must be aborted.
func IssueToken() (token, tokenHash string, err error) {
	b := make([]byte, TokenBytes)
	defer common.WipeByteArray(b)
	if _, err := randRead(b); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(b)
	return token, HashToken(token), nil
}

// HashToken returns hex(SHA-256(token)).
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenMatches reports whether token hashes to storedHash, in constant time.
func TokenMatches(token, storedHash string) bool {
	actual := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(storedHash)) == 1
}
