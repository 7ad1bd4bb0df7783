package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding them, so the final string length is twice the size.
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {

	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}

// NewCertificateID returns a fresh identifier of the form
// CERT-<YYYYMMDD>-<24 upper-case hex chars> for the given issuance time.
// The date is taken in UTC, matching generated_at.
func NewCertificateID(now time.Time) (string, error) {
	random, err := MakeRandHexString(12)
	if err != nil {
		return "", fmt.Errorf("certificate id: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", CertificateIDPrefix, now.UTC().Format("20060102"), strings.ToUpper(random)), nil
}
