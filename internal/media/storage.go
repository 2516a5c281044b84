package media

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/safesocial/safesocial-backend/internal/conf"
	"github.com/safesocial/safesocial-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// Store wraps the minio client for content uploads. Objects are
// addressed as "minio://<bucket>/<key>", which is the opaque storage
// pointer the vault records on-chain.
type Store struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

// NewStore connects to minio and ensures the media bucket exists.
func NewStore(ctx context.Context, cfg *conf.MinIOConfig, log *logger.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info("media bucket created", zap.String("bucket", cfg.Bucket))
	}

	return &Store{client: client, bucket: cfg.Bucket, log: log}, nil
}

// Put uploads an object and returns its storage pointer.
func (s *Store) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	s.log.Debug("object uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int64("size", size))

	return fmt.Sprintf("minio://%s/%s", s.bucket, key), nil
}

// Get streams an object back by key.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return obj, nil
}

// Remove deletes an object.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
