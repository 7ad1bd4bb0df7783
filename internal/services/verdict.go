package services

import "github.com/dmitrijs2005/certvault/internal/models"

// ReasonCode is the stable outcome of a verification.
type ReasonCode string

const (
	ReasonOK                  ReasonCode = "OK"
	ReasonNotFound            ReasonCode = "NOT_FOUND"
	ReasonFieldMismatch       ReasonCode = "FIELD_MISMATCH"
	ReasonTokenMismatch       ReasonCode = "TOKEN_MISMATCH"
	ReasonChecksumMismatch    ReasonCode = "CHECKSUM_MISMATCH"
	ReasonMetadataOnlyPresent ReasonCode = "METADATA_ONLY_PRESENT"
	ReasonNoMetadata          ReasonCode = "NO_METADATA"
	ReasonStoreUnreachable    ReasonCode = "STORE_UNREACHABLE"
)

// Field is one claimed identity value, e.g. recipient_name.
type Field struct {
	Name  string
	Value string
}

// VerifyRequest describes what the caller holds.
//
// CertificateID may be left empty when Payload carries the id. Claimed
// fields are compared in the given order. Payload is the carrier content of
// the document in hand, if any.
type VerifyRequest struct {
	CertificateID string
	Claimed       []Field
	Token         string
	Payload       *models.Payload
}

// Verdict is the result of a verification. OK is true only for ReasonOK;
// METADATA_ONLY_PRESENT is a downgrade, not a proof.
type Verdict struct {
	OK            bool              `json:"ok"`
	Reason        ReasonCode        `json:"reason"`
	CertificateID string            `json:"certificate_id,omitempty"`
	Field         string            `json:"field,omitempty"`
	Excerpt       map[string]string `json:"record_excerpt,omitempty"`
}

// Message is a short human readable explanation of v.
func (v Verdict) Message() string {
	switch v.Reason {
	case ReasonOK:
		return "certificate verified"
	case ReasonNotFound:
		return "certificate id not found"
	case ReasonFieldMismatch:
		return v.Field + " does not match the stored record"
	case ReasonTokenMismatch:
		return "token mismatch"
	case ReasonChecksumMismatch:
		return "checksum mismatch, possible tampering"
	case ReasonMetadataOnlyPresent:
		return "document carries credentials but no record store could confirm them"
	case ReasonNoMetadata:
		return "insufficient embedded metadata to verify certificate"
	case ReasonStoreUnreachable:
		return "no record store reachable"
	}
	return string(v.Reason)
}

func verdict(reason ReasonCode, id string) Verdict {
	return Verdict{OK: reason == ReasonOK, Reason: reason, CertificateID: id}
}
