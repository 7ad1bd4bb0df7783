package models

// Payload is the metadata-only subset of a record hidden in the document
// carrier. It never holds recipient, issuer or other identifying fields.
type Payload struct {
	ID        string `json:"id"`
	TokenHash string `json:"token_hash,omitempty"`
	Checksum  string `json:"checksum,omitempty"`
	Signature string `json:"signature,omitempty"`
	HasQR     *bool  `json:"has_qr,omitempty"`
}

// IsZero reports whether nothing usable was recovered.
func (p Payload) IsZero() bool {
	return p.ID == "" && p.TokenHash == "" && p.Checksum == "" && p.Signature == "" && p.HasQR == nil
}

// HasCredentials reports whether the payload carries a checksum or a token
// hash, i.e. whether a metadata-only check is possible at all.
func (p Payload) HasCredentials() bool {
	return p.Checksum != "" || p.TokenHash != ""
}
