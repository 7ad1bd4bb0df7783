// Package archive copies issued documents to an S3-compatible bucket
// through presigned PUT URLs.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/certvault/internal/config"
	"github.com/dmitrijs2005/certvault/internal/netx"
	"github.com/google/uuid"
)

// PresignExpiry bounds how long a generated upload URL stays valid.
const PresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	upload = netx.PutPresigned
)

// Archiver uploads documents to the configured bucket.
type Archiver struct {
	cfg config.S3
	now func() time.Time
}

// New returns an Archiver for cfg. Callers check Enabled before use.
func New(cfg config.S3) *Archiver {
	return &Archiver{cfg: cfg, now: time.Now}
}

// Enabled reports whether archiving is switched on.
func (a *Archiver) Enabled() bool {
	return a != nil && a.cfg.Enabled
}

// ObjectKey places a document under a dated prefix with a random suffix so
// reissued files never overwrite each other.
func (a *Archiver) ObjectKey(certificateID, path string) string {
	d := a.now().UTC()
	return fmt.Sprintf("certificates/%04d/%02d/%02d/%s-%s%s",
		d.Year(), d.Month(), d.Day(), certificateID, uuid.NewString(), filepath.Ext(path))
}

// Archive uploads the file at path and returns its object key.
func (a *Archiver) Archive(ctx context.Context, certificateID, path string) (string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}

	url, key, err := a.presignedPut(ctx, a.ObjectKey(certificateID, path))
	if err != nil {
		return "", fmt.Errorf("archive: presign: %w", err)
	}
	if err := upload(ctx, url, "application/yaml", body); err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}
	return key, nil
}

func (a *Archiver) presignedPut(ctx context.Context, key string) (string, string, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(a.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.cfg.RootUser,
			a.cfg.RootPassword,
			"",
		)))
	if err != nil {
		return "", "", err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(a.cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	req, err := presignPutObject(s3.NewPresignClient(client), ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", "", err
	}
	return req.URL, key, nil
}
