// Package carrier packs verification payloads into a short metadata string
// of the issued document and recovers them on the way back.
package carrier

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/dmitrijs2005/certvault/internal/models"
)

// Marker prefixes every packed payload inside the carrier slot.
const Marker = "CertGen|"

// MaxPayloadLength is the maximum number of characters kept after Marker.
const MaxPayloadLength = 200

// ErrNotFound is returned when no payload can be recovered from a carrier.
var ErrNotFound = errors.New("no embedded payload")

// Pack encodes p compactly, prefixes it with Marker and cuts the encoding at
// MaxPayloadLength characters.
//
// Optional fields that would push the encoding over the limit are dropped
// first (signature, then has_qr), so the identifier, token hash and checksum
// stay parseable. Truncation remains the last resort.
func Pack(p models.Payload) string {
	encoded := marshal(p)
	if runeLen(encoded) > MaxPayloadLength && p.Signature != "" {
		p.Signature = ""
		encoded = marshal(p)
	}
	if runeLen(encoded) > MaxPayloadLength && p.HasQR != nil {
		p.HasQR = nil
		encoded = marshal(p)
	}
	return Marker + truncate(encoded, MaxPayloadLength)
}

// Unpack recovers a payload from an arbitrary carrier string.
//
// Everything after the first Marker is parsed strictly; if that fails (for
// example because Pack truncated it) the slice between the first '{' and the
// last '}' is parsed instead. ErrNotFound is returned when the marker is
// missing or nothing usable can be recovered.
func Unpack(s string) (models.Payload, error) {
	_, raw, ok := strings.Cut(s, Marker)
	if !ok {
		return models.Payload{}, ErrNotFound
	}

	if p, err := parse(raw); err == nil {
		return p, nil
	}

	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return models.Payload{}, ErrNotFound
	}
	p, err := parse(raw[start : end+1])
	if err != nil {
		return models.Payload{}, ErrNotFound
	}
	return p, nil
}

func parse(raw string) (models.Payload, error) {
	var p models.Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return models.Payload{}, err
	}
	if p.IsZero() {
		return models.Payload{}, ErrNotFound
	}
	return p, nil
}

func marshal(p models.Payload) string {
	// Payload holds only strings and a bool pointer; Marshal cannot fail.
	b, _ := json.Marshal(p)
	return string(b)
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
