// Package services holds the issuing and verifying sides of certvault.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/cryptox"
	"github.com/dmitrijs2005/certvault/internal/logging"
	"github.com/dmitrijs2005/certvault/internal/metrics"
	"github.com/dmitrijs2005/certvault/internal/models"
)

// RecordFinder looks records up by certificate id.
type RecordFinder interface {
	FindByID(ctx context.Context, certificateID string) (*models.Record, error)
}

// Verifier runs the verification checks in a fixed order and stops at the
// first failure: lookup, claimed fields, token, checksum.
type Verifier struct {
	store   RecordFinder
	stamper *cryptox.Stamper
	logger  logging.Logger
	metrics *metrics.Metrics
}

// NewVerifier returns a Verifier. store may be nil, in which case every
// verification takes the metadata-only path.
func NewVerifier(store RecordFinder, stamper *cryptox.Stamper, logger logging.Logger, m *metrics.Metrics) *Verifier {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("module", "verifier")
	if stamper.Insecure() {
		logger.Warn(context.Background(), "CERT_SECRET is not configured, using the insecure default secret")
	}
	return &Verifier{store: store, stamper: stamper, logger: logger, metrics: m}
}

// Verify never fails: every outcome, including store outages, is a Verdict.
func (v *Verifier) Verify(ctx context.Context, req VerifyRequest) Verdict {
	start := time.Now()
	res := v.verify(ctx, req)
	v.metrics.ObserveVerdict(string(res.Reason), time.Since(start))
	v.logger.Info(ctx, "verification finished",
		"certificate_id", res.CertificateID, "reason", res.Reason, "field", res.Field)
	return res
}

func (v *Verifier) verify(ctx context.Context, req VerifyRequest) Verdict {
	id := req.CertificateID
	if id == "" && req.Payload != nil {
		id = req.Payload.ID
	}
	if id == "" {
		if req.Payload != nil {
			return v.metadataOnly(req, id)
		}
		return verdict(ReasonNotFound, id)
	}

	rec, err := v.lookup(ctx, id)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return verdict(ReasonNotFound, id)
	case err != nil:
		v.logger.Warn(ctx, "record lookup failed", "certificate_id", id, "error", err)
		return v.metadataOnly(req, id)
	}

	if name, ok := mismatchedField(rec, req); !ok {
		res := verdict(ReasonFieldMismatch, id)
		res.Field = name
		return res
	}

	if !tokenAccepted(rec, req) {
		return verdict(ReasonTokenMismatch, id)
	}

	if !v.checksumAccepted(ctx, rec, req.Payload) {
		return verdict(ReasonChecksumMismatch, id)
	}

	res := verdict(ReasonOK, id)
	res.Excerpt = rec.Excerpt()
	return res
}

func (v *Verifier) lookup(ctx context.Context, id string) (*models.Record, error) {
	if v.store == nil {
		return nil, common.ErrNoStoreConfigured
	}
	rec, err := v.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil || !rec.IsCertificate() {
		return nil, common.ErrorNotFound
	}
	return rec, nil
}

// mismatchedField returns the first claimed field that differs from the
// record. Unknown field names never match. A payload whose id disagrees
// with the record counts as a certificate_id mismatch.
func mismatchedField(rec *models.Record, req VerifyRequest) (string, bool) {
	if req.Payload != nil && req.Payload.ID != "" && req.Payload.ID != rec.CertificateID {
		return "certificate_id", false
	}
	for _, f := range req.Claimed {
		stored, known := rec.Field(f.Name)
		if !known || stored != f.Value {
			return f.Name, false
		}
	}
	return "", true
}

// tokenAccepted checks a supplied token against the stored hash and a
// carried token hash against the stored one.
func tokenAccepted(rec *models.Record, req VerifyRequest) bool {
	if req.Token != "" && !cryptox.TokenMatches(req.Token, rec.Credentials.TokenHash) {
		return false
	}
	if req.Payload != nil && req.Payload.TokenHash != "" && req.Payload.TokenHash != rec.Credentials.TokenHash {
		return false
	}
	return true
}

// checksumAccepted recomputes the checksum, and the signature when one is
// stored. A record without a checksum fails: a skipped check is never OK.
func (v *Verifier) checksumAccepted(ctx context.Context, rec *models.Record, p *models.Payload) bool {
	stored := rec.Credentials.Checksum
	if stored == "" {
		v.logger.Warn(ctx, "stored record has no checksum", "certificate_id", rec.CertificateID)
		return false
	}
	if p != nil && p.Checksum != "" && p.Checksum != stored {
		return false
	}

	fields := rec.ChecksumInput()
	ok, err := v.stamper.VerifyChecksum(fields, stored)
	if err != nil {
		v.logger.Error(ctx, "checksum recomputation failed", "certificate_id", rec.CertificateID, "error", err)
		return false
	}
	if !ok {
		return false
	}

	if sig := rec.Credentials.Signature; sig != "" {
		ok, err = v.stamper.VerifySignature(fields, rec.Credentials.TokenHash, sig)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// metadataOnly is the degraded path used when no store could be consulted.
func (v *Verifier) metadataOnly(req VerifyRequest, id string) Verdict {
	p := req.Payload
	if p == nil {
		return verdict(ReasonStoreUnreachable, id)
	}
	if req.CertificateID != "" && p.ID != "" && p.ID != req.CertificateID {
		res := verdict(ReasonFieldMismatch, id)
		res.Field = "certificate_id"
		return res
	}
	if req.Token != "" && p.TokenHash != "" && !cryptox.TokenMatches(req.Token, p.TokenHash) {
		return verdict(ReasonTokenMismatch, id)
	}
	if p.HasCredentials() {
		return verdict(ReasonMetadataOnlyPresent, id)
	}
	return verdict(ReasonNoMetadata, id)
}
