// Package minio stores incident photos in an S3-compatible bucket.
package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	defaultRegion = "us-east-1"
	urlExpiry     = time.Hour

	// MaxPhotoBytes caps a single upload.
	MaxPhotoBytes = 10 << 20
)

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// PhotoStore implements domain.PhotoStore.
type PhotoStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// Options configures the connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewPhotoStore creates the client. It does not contact the server; call
// EnsureBucket before serving uploads.
func NewPhotoStore(opts Options, logger *slog.Logger) (*PhotoStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &PhotoStore{client: client, bucket: opts.Bucket, logger: logger}, nil
}

// EnsureBucket creates the photo bucket when it does not exist.
func (s *PhotoStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: defaultRegion}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("created photo bucket", "bucket", s.bucket)
	return nil
}

// CheckReadiness verifies the bucket is reachable.
func (s *PhotoStore) CheckReadiness(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// PutPhoto uploads r and returns the object key.
func (s *PhotoStore) PutPhoto(ctx context.Context, incidentID uuid.UUID, contentType string, r io.Reader, size int64) (string, error) {
	key, err := photoKey(incidentID, contentType)
	if err != nil {
		return "", err
	}
	if size <= 0 || size > MaxPhotoBytes {
		return "", fmt.Errorf("%w: photo size %d outside 1..%d bytes", domain.ErrInvalidInput, size, MaxPhotoBytes)
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("store photo %s: %w", key, err)
	}
	s.logger.Info("stored incident photo", "incident_id", incidentID, "key", key, "bytes", info.Size)
	return key, nil
}

// PhotoURL returns a time-limited download URL for key.
func (s *PhotoStore) PhotoURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// photoKey places each upload under its incident with a fresh name, so a
// replaced photo never serves a stale cached copy.
func photoKey(incidentID uuid.UUID, contentType string) (string, error) {
	ext, ok := photoExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported photo type %q", domain.ErrInvalidInput, contentType)
	}
	return fmt.Sprintf("incidents/%s/%s.%s", incidentID, uuid.New(), ext), nil
}
