package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/certvault/internal/carrier"
	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/config"
	"github.com/dmitrijs2005/certvault/internal/cryptox"
	"github.com/dmitrijs2005/certvault/internal/filex"
	"github.com/dmitrijs2005/certvault/internal/logging"
	"github.com/dmitrijs2005/certvault/internal/metrics"
	"github.com/dmitrijs2005/certvault/internal/models"
)

// IssueDateLayout is how issue dates are printed when the caller gives none.
const IssueDateLayout = "January 02, 2006"

// Archiver copies written documents elsewhere.
type Archiver interface {
	Enabled() bool
	Archive(ctx context.Context, certificateID, path string) (string, error)
}

// IssueRequest is the caller-provided content of a new certificate.
type IssueRequest struct {
	RecipientName string
	IssueDate     string
	CourseName    string
	DeviceInfo    map[string]any
	// OutputName is the document file name; defaults to the recipient.
	OutputName string
	// Secret overrides the configured CERT_SECRET for this certificate.
	Secret string
}

// IssueResult reports what issuance produced. Token is shown to the holder
// once and exists nowhere else. The flags tell which best-effort steps
// succeeded.
type IssueResult struct {
	Record       *models.Record
	Token        string
	DocumentPath string
	ArchiveKey   string
	Persisted    bool
	Embedded     bool
	Archived     bool
}

// Issuer creates certificates: credentials, document, record.
type Issuer struct {
	cfg     *config.Config
	store   RecordAppender
	archive Archiver
	logger  logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewIssuer wires an Issuer. store and archive may be nil.
func NewIssuer(cfg *config.Config, store RecordAppender, archive Archiver, logger logging.Logger, m *metrics.Metrics) *Issuer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Issuer{
		cfg:     cfg,
		store:   store,
		archive: archive,
		logger:  logger.With("module", "issuer"),
		metrics: m,
		now:     time.Now,
	}
}

// Issue creates one certificate.
//
// It fails only on invalid input or when the entropy source fails. Writing
// the document, embedding the carrier, persisting the record and archiving
// are best-effort: failures are logged and reported through the result
// flags. The record is persisted after the document is written, so a
// verification right after issuance may briefly miss it.
func (i *Issuer) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	if err := validateIssue(req); err != nil {
		return nil, err
	}

	now := i.now().UTC()
	id, err := common.NewCertificateID(now)
	if err != nil {
		return nil, err
	}
	token, tokenHash, err := cryptox.IssueToken()
	if err != nil {
		return nil, err
	}

	rec := &models.Record{
		FieldSet: models.FieldSet{
			CertificateID: id,
			RecipientName: req.RecipientName,
			IssueDate:     req.IssueDate,
			Issuer:        i.cfg.Template.Issuer,
			Title:         i.cfg.Template.Title,
			GeneratedAt:   now.UTC().Format(time.RFC3339),
			CourseName:    req.CourseName,
			DeviceInfo:    req.DeviceInfo,
		},
		RecordType: models.RecordTypeCertificate,
		CreatedAt:  now.UTC(),
	}
	if rec.IssueDate == "" {
		rec.IssueDate = now.Format(IssueDateLayout)
	}

	stamper := cryptox.NewStamper(i.cfg.StamperConfig(req.Secret))
	if stamper.Insecure() {
		i.logger.Warn(ctx, "CERT_SECRET is not configured, stamping with the insecure default secret", "certificate_id", id)
	}
	fields := rec.ChecksumInput()
	checksum, err := stamper.Checksum(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	signature, err := stamper.Signature(fields, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	rec.Credentials = models.Credentials{
		TokenHash: tokenHash,
		Checksum:  checksum,
		Signature: signature,
		HasQR:     models.Bool(i.cfg.Template.QR),
	}

	res := &IssueResult{Record: rec, Token: token}

	res.DocumentPath, res.Embedded = i.writeDocument(ctx, rec, req.OutputName)
	rec.FilePath = res.DocumentPath

	if i.store != nil {
		if err := i.store.Append(ctx, rec); err != nil {
			i.logger.Error(ctx, "certificate record not persisted", "certificate_id", id, "error", err)
		} else {
			res.Persisted = true
		}
	}

	if res.DocumentPath != "" && i.archive != nil && i.archive.Enabled() {
		key, err := i.archive.Archive(ctx, id, res.DocumentPath)
		if err != nil {
			i.logger.Warn(ctx, "document not archived", "certificate_id", id, "error", err)
		} else {
			res.ArchiveKey, res.Archived = key, true
		}
	}

	i.metrics.ObserveIssuance(res.Persisted, res.Embedded, res.Archived)
	i.logger.Info(ctx, "certificate issued",
		"certificate_id", id, "document", res.DocumentPath,
		"persisted", res.Persisted, "embedded", res.Embedded, "archived", res.Archived)
	return res, nil
}

// writeDocument lays out, embeds and writes the document. It returns the
// written path (empty on failure) and whether the carrier was embedded.
func (i *Issuer) writeDocument(ctx context.Context, rec *models.Record, outputName string) (string, bool) {
	doc := BuildDocument(i.cfg.Template, rec)

	embedded := true
	if err := carrier.Embed(doc, rec); err != nil {
		i.logger.Warn(ctx, "carrier not embedded, document stays unverifiable", "certificate_id", rec.CertificateID, "error", err)
		embedded = false
	}

	dir, err := filex.EnsureSubdDir(i.cfg.OutputDir)
	if err != nil {
		i.logger.Error(ctx, "output directory unavailable", "error", err)
		return "", false
	}
	name := outputName
	if name == "" {
		name = rec.RecipientName
	}
	path := filepath.Join(dir, filex.OutputFileName(name, carrier.DocumentExt))
	if err := carrier.WriteDocument(path, doc); err != nil {
		i.logger.Error(ctx, "document not written", "certificate_id", rec.CertificateID, "error", err)
		return "", false
	}
	return path, embedded
}

func validateIssue(req IssueRequest) error {
	if strings.TrimSpace(req.RecipientName) == "" {
		return fmt.Errorf("%w: recipient name is required", common.ErrorValidation)
	}
	if req.DeviceInfo != nil {
		if err := ValidateAction(req.DeviceInfo["action_type"]); err != nil {
			return err
		}
	}
	return nil
}
