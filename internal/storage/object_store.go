// Package storage stores uploaded images in MinIO/S3 compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	apperrors "imtapp/internal/errors"
)

const (
	// PresignExpiry is the lifetime of a download URL.
	PresignExpiry = 20 * time.Minute
	// partSize is used when the object length is unknown.
	partSize = 5 * 1024 * 1024

	keySeparator = "__"
)

// ObjectStore provides access to object storage.
type ObjectStore interface {
	Store(ctx context.Context, key string, r io.Reader, size int64) (string, error)
	URLFor(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Options configures a MinioStore.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// MinioStore implements ObjectStore for MinIO/S3 compatible storage.
type MinioStore struct {
	client *minio.Client
	bucket string
	region string
}

var _ ObjectStore = (*MinioStore)(nil)

// NewMinioStore creates the client. No request is made until EnsureBucket.
func NewMinioStore(opts Options) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: opts.Bucket, region: opts.Region}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (m *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return apperrors.Dependency("object storage", fmt.Errorf("check bucket: %w", err))
	}
	if exists {
		log.Info().Str("bucket", m.bucket).Msg("bucket already exists")
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return apperrors.Dependency("object storage", fmt.Errorf("create bucket: %w", err))
	}
	log.Info().Str("bucket", m.bucket).Msg("bucket created")
	return nil
}

// Store uploads r under key with a content type derived from the key's
// extension and returns the key. A negative size streams in fixed parts.
func (m *MinioStore) Store(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	opts := minio.PutObjectOptions{ContentType: ContentTypeFor(key)}
	if size < 0 {
		opts.PartSize = partSize
	}
	if _, err := m.client.PutObject(ctx, m.bucket, key, r, size, opts); err != nil {
		return "", apperrors.Dependency("object storage", fmt.Errorf("put object: %w", err))
	}
	return key, nil
}

// URLFor returns a presigned GET URL valid for PresignExpiry.
func (m *MinioStore) URLFor(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, PresignExpiry, nil)
	if err != nil {
		return "", apperrors.Dependency("object storage", fmt.Errorf("presign get: %w", err))
	}
	return u.String(), nil
}

// Delete removes an object.
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return apperrors.Dependency("object storage", fmt.Errorf("delete object: %w", err))
	}
	return nil
}

// NewStorageKey returns a collision-free key "<uuid>__<filename>".
func NewStorageKey(filename string) string {
	return uuid.NewString() + keySeparator + filename
}

// ContentTypeFor maps an image file name to its MIME type.
func ContentTypeFor(name string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
