// Package models defines the certificate data shared by issuance,
// persistence and verification.
package models

import "maps"

// FieldSet is the human-meaningful content of a certificate and the sole
// input of its checksum.
type FieldSet struct {
	CertificateID string         `json:"certificate_id"`
	RecipientName string         `json:"recipient_name"`
	IssueDate     string         `json:"issue_date"`
	Issuer        string         `json:"issuer"`
	Title         string         `json:"title"`
	GeneratedAt   string         `json:"generated_at"`
	CourseName    string         `json:"course_name,omitempty"`
	DeviceInfo    map[string]any `json:"device_info,omitempty"`
}

// ChecksumInput returns the exact key set stamped at issuance and recomputed
// at verification. Optional keys appear only when set. Both sides must go
// through this method: any extra or missing key changes the HMAC.
func (f FieldSet) ChecksumInput() map[string]any {
	m := map[string]any{
		"certificate_id": f.CertificateID,
		"recipient_name": f.RecipientName,
		"issue_date":     f.IssueDate,
		"issuer":         f.Issuer,
		"title":          f.Title,
		"generated_at":   f.GeneratedAt,
	}
	if f.CourseName != "" {
		m["course_name"] = f.CourseName
	}
	if len(f.DeviceInfo) > 0 {
		m["device_info"] = maps.Clone(f.DeviceInfo)
	}
	return m
}

// Field returns the stored value of a named identity field and whether the
// name is known.
func (f FieldSet) Field(name string) (string, bool) {
	switch name {
	case "certificate_id":
		return f.CertificateID, true
	case "recipient_name":
		return f.RecipientName, true
	case "issue_date":
		return f.IssueDate, true
	case "issuer":
		return f.Issuer, true
	case "title":
		return f.Title, true
	case "generated_at":
		return f.GeneratedAt, true
	case "course_name":
		return f.CourseName, true
	}
	return "", false
}
