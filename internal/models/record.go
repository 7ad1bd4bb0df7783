package models

import "time"

// RecordType discriminates entries that share one record store.
type RecordType string

const (
	RecordTypeCertificate   RecordType = "certificate"
	RecordTypeDeviceCleanup RecordType = "device_cleanup"
)

// Credentials are derived from a FieldSet at issuance and never edited.
// Signature and HasQR are only present in the extended variant.
type Credentials struct {
	TokenHash string `json:"token_hash"`
	Checksum  string `json:"checksum"`
	Signature string `json:"signature,omitempty"`
	HasQR     *bool  `json:"has_qr,omitempty"`
}

// Record is the persisted form of an issued certificate. It is appended once
// and read-only afterwards. The raw token is never part of it.
type Record struct {
	FieldSet
	Credentials Credentials `json:"credentials"`
	FilePath    string      `json:"file_path,omitempty"`
	RecordType  RecordType  `json:"record_type"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (r *Record) Kind() RecordType { return RecordTypeCertificate }

func (r *Record) StoreKey() string { return r.CertificateID }

// IsCertificate treats records written before the discriminator existed as
// certificates.
func (r *Record) IsCertificate() bool {
	return r.RecordType == "" || r.RecordType == RecordTypeCertificate
}

// Excerpt returns the fields that are safe to display after a successful
// verification. Credentials are deliberately left out.
func (r *Record) Excerpt() map[string]string {
	e := map[string]string{
		"certificate_id": r.CertificateID,
		"recipient_name": r.RecipientName,
		"issue_date":     r.IssueDate,
		"issuer":         r.Issuer,
		"title":          r.Title,
		"generated_at":   r.GeneratedAt,
	}
	if r.CourseName != "" {
		e["course_name"] = r.CourseName
	}
	return e
}

// Payload returns the non-identifying subset embedded in the carrier.
func (r *Record) Payload() Payload {
	return Payload{
		ID:        r.CertificateID,
		TokenHash: r.Credentials.TokenHash,
		Checksum:  r.Credentials.Checksum,
		Signature: r.Credentials.Signature,
		HasQR:     r.Credentials.HasQR,
	}
}
