package services

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/certvault/internal/carrier"
	"github.com/dmitrijs2005/certvault/internal/config"
	"github.com/dmitrijs2005/certvault/internal/models"
)

// BuildDocument lays out the visible content of a certificate. Carrier
// properties are filled in later by carrier.Embed.
func BuildDocument(tpl config.Template, rec *models.Record) *carrier.Document {
	doc := &carrier.Document{
		Heading:   rec.Title,
		Subtitle:  tpl.Subtitle,
		Recipient: rec.RecipientName,
		Footer: []string{
			"Issued by: " + rec.Issuer,
			"Certificate Number: " + rec.CertificateID,
			"Issue Date: " + rec.IssueDate,
		},
	}

	if rec.CourseName != "" {
		doc.Lines = append(doc.Lines, "has successfully completed "+rec.CourseName+".")
	}
	if len(rec.DeviceInfo) > 0 {
		doc.Lines = append(doc.Lines, deviceLines(rec.DeviceInfo)...)
	}
	if tpl.QR {
		doc.QRText = fmt.Sprintf("Certificate:%s;Name:%s;Date:%s", rec.CertificateID, rec.RecipientName, rec.IssueDate)
	}
	return doc
}

func deviceLines(info map[string]any) []string {
	osName := firstString(info, "the specified operating system", "Operating System", "os")
	deviceID := firstString(info, "the specified device", "device_id")
	size := firstString(info, "the specified amount of space", "size_removed", "data_recovered")

	when := "during the sanitization process"
	if ts := firstString(info, "", "timestamp"); ts != "" {
		when = "on " + ts
	}

	return []string{
		"Device Sanitization Details",
		fmt.Sprintf("This certificate confirms that %s, device %s running %s underwent %s.",
			when, deviceID, osName, actionPhrase(firstString(info, "", "action_type"))),
		fmt.Sprintf("During this process, approximately %s of storage space was recovered from the device.", size),
	}
}

func actionPhrase(actionType string) string {
	switch strings.ToLower(actionType) {
	case ActionPurge:
		return "a secure purge operation"
	case ActionClear:
		return "a standard clean operation"
	}
	return "a data cleaning operation"
}

// firstString returns the first non-empty value among keys, formatted as
// text, or def.
func firstString(info map[string]any, def string, keys ...string) string {
	for _, k := range keys {
		v, ok := info[k]
		if !ok || v == nil {
			continue
		}
		s := fmt.Sprint(v)
		if s != "" {
			return s
		}
	}
	return def
}
