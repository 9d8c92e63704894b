// Package minio implements port.ObjectStorage on a MinIO server.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docfill/internal/config"
	"docfill/internal/logger"
	"docfill/internal/port"
)

// Storage stores archived uploads in MinIO.
type Storage struct {
	client *minio.Client
	region string
	log    logger.Logger
}

// NewStorage creates a MinIO client. cfg.Endpoint may be a bare host:port or a URL.
func NewStorage(cfg *config.ArchiveConfig, log logger.Logger) (*Storage, error) {
	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &Storage{client: client, region: cfg.Region, log: log}, nil
}

// EnsureBucket creates bucket if it does not exist yet.
func (m *Storage) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	m.log.Info("Created archive bucket", logger.String("bucket", bucket))
	return nil
}

func (m *Storage) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	size := input.Size
	if size <= 0 {
		size = -1
	}
	info, err := m.client.PutObject(ctx, input.Bucket, input.Key, input.Body, size, minio.PutObjectOptions{
		ContentType: input.ContentType,
	})
	if err != nil {
		m.log.Error("Failed to store file to MinIO",
			logger.String("bucket", input.Bucket),
			logger.String("key", input.Key),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	return &port.UploadOutput{
		Location: input.Bucket + "/" + info.Key,
		ETag:     info.ETag,
	}, nil
}

// DeletePrefix streams the listing under prefix into a batch remove.
func (m *Storage) DeletePrefix(ctx context.Context, bucket, prefix string) (int, error) {
	objectsCh := make(chan minio.ObjectInfo)
	var listErr error
	listed := 0
	listDone := make(chan struct{})
	go func() {
		defer close(listDone)
		defer close(objectsCh)
		for obj := range m.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			select {
			case objectsCh <- obj:
				listed++
			case <-ctx.Done():
				return
			}
		}
	}()

	failed := 0
	var firstErr error
	for rErr := range m.client.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		failed++
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", rErr.ObjectName, rErr.Err)
		}
	}
	<-listDone

	removed := listed - failed
	if listErr != nil {
		firstErr = listErr
	}
	if firstErr != nil {
		m.log.Error("Failed to delete files from MinIO",
			logger.String("bucket", bucket),
			logger.String("prefix", prefix),
			logger.Int("failed", failed),
			logger.Error(firstErr),
		)
		return removed, fmt.Errorf("failed to delete files: %w", firstErr)
	}
	return removed, nil
}

func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, useSSL
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint, useSSL
	}
	return u.Host, u.Scheme == "https"
}
