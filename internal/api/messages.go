package api

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/certvault/internal/models"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type IssueRequest struct {
	RecipientName string         `json:"recipient_name"`
	IssueDate     string         `json:"issue_date,omitempty"`
	CourseName    string         `json:"course_name,omitempty"`
	DeviceInfo    map[string]any `json:"device_info,omitempty"`
	OutputName    string         `json:"output_name,omitempty"`
}

// IssueResponse carries the one-time token back to the caller; the server
// keeps only its hash.
type IssueResponse struct {
	CertificateID string `json:"certificate_id"`
	Token         string `json:"token"`
	DocumentPath  string `json:"document_path,omitempty"`
	ArchiveKey    string `json:"archive_key,omitempty"`
	Persisted     bool   `json:"persisted"`
	Embedded      bool   `json:"embedded"`
	Archived      bool   `json:"archived"`
}

type Claim struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// VerifyRequest mirrors services.VerifyRequest. Claimed is a list so the
// comparison order survives the trip.
type VerifyRequest struct {
	CertificateID string          `json:"certificate_id,omitempty"`
	Claimed       []Claim         `json:"claimed,omitempty"`
	Token         string          `json:"token,omitempty"`
	Payload       *models.Payload `json:"payload,omitempty"`
}

type VerifyResponse struct {
	OK            bool              `json:"ok"`
	Reason        string            `json:"reason"`
	CertificateID string            `json:"certificate_id,omitempty"`
	Field         string            `json:"field,omitempty"`
	Message       string            `json:"message"`
	Excerpt       map[string]string `json:"record_excerpt,omitempty"`
}

type PingResponse struct {
	Status string `json:"status"`
}

// Encode converts a message into a Struct through its JSON form.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return structpb.NewStruct(m)
}

// Decode fills v from s. Unknown keys are ignored.
func Decode(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
