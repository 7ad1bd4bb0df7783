// Package cryptox implements the credential primitives of certvault: the
// canonical encoding of certificate fields, one-time verification tokens and
// the HMAC checksum/signature stamped over canonical data.
package cryptox

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Encode returns the RFC 8785 canonical JSON form of v. Object keys are
// sorted at every nesting level, no insignificant whitespace is emitted and
// numbers use their shortest round-trip form, so logically equal field sets
// always encode to identical bytes.
func Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("jcs transform: %w", err)
	}
	return canonical, nil
}
