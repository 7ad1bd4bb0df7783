package carrier

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/certvault/internal/filex"
	"github.com/dmitrijs2005/certvault/internal/models"
	"gopkg.in/yaml.v3"
)

// DocumentExt is the file extension of issued document descriptors.
const DocumentExt = ".cert.yaml"

// Properties is the descriptive metadata block of a document. Creator is the
// carrier slot holding the packed payload.
type Properties struct {
	Title   string `yaml:"title"`
	Author  string `yaml:"author"`
	Subject string `yaml:"subject"`
	Creator string `yaml:"creator,omitempty"`
}

// Document is the issued artifact: descriptive properties plus the visible
// text of the certificate.
type Document struct {
	Properties Properties `yaml:"properties"`
	Heading    string     `yaml:"heading"`
	Subtitle   string     `yaml:"subtitle"`
	Recipient  string     `yaml:"recipient"`
	Lines      []string   `yaml:"lines"`
	Footer     []string   `yaml:"footer"`
	QRText     string     `yaml:"qr_text,omitempty"`
}

// Embed writes the document properties and the packed payload of rec into
// doc. It only fails on an unusable record; callers log the error and keep
// the document, which stays valid but unverifiable.
func Embed(doc *Document, rec *models.Record) error {
	if doc == nil {
		return fmt.Errorf("embed: nil document")
	}
	if rec == nil || rec.CertificateID == "" {
		return fmt.Errorf("embed: record has no certificate id")
	}

	doc.Properties.Title = "Certificate: " + rec.CertificateID
	doc.Properties.Author = rec.Issuer
	doc.Properties.Subject = rec.Title
	doc.Properties.Creator = Pack(rec.Payload())
	return nil
}

// WriteDocument stores doc as YAML at path.
func WriteDocument(path string, doc *Document) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := filex.WriteFileAtomic(path, b, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// ReadDocument loads a document descriptor from path.
func ReadDocument(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	return &doc, nil
}

// ExtractPayload reads the document at path and unpacks its carrier slot.
// A readable document without a recoverable payload yields ErrNotFound.
func ExtractPayload(path string) (models.Payload, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return models.Payload{}, err
	}
	return Unpack(doc.Properties.Creator)
}
