package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/SAP-F-2025/lms-service/internal/config"
)

var ErrStorageDisabled = errors.New("object storage is not configured")

// Uploader stores an object and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type OSSUploader struct {
	bucket *oss.Bucket
	cfg    config.OSSConfig
	logger *slog.Logger
}

func NewOSSUploader(cfg config.OSSConfig, logger *slog.Logger) (*OSSUploader, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create oss client: %w", err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", cfg.Bucket, err)
	}
	return &OSSUploader{bucket: bucket, cfg: cfg, logger: logger}, nil
}

// NewUploader returns an OSS uploader, or a disabled one when OSS is not configured
func NewUploader(cfg config.OSSConfig, logger *slog.Logger) (Uploader, error) {
	if !cfg.Enabled() {
		logger.Warn("OSS not configured, uploads are disabled")
		return disabledUploader{}, nil
	}
	return NewOSSUploader(cfg, logger)
}

func (u *OSSUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	objectKey := u.objectKey(key)
	listener := &progressListener{logger: u.logger.With("object_key", objectKey)}

	err := u.bucket.PutObject(objectKey, bytes.NewReader(data),
		oss.ContentType(contentType),
		oss.Progress(listener),
		oss.WithContext(ctx),
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}
	return u.PublicURL(objectKey), nil
}

func (u *OSSUploader) objectKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if u.cfg.Prefix == "" {
		return key
	}
	return strings.Trim(u.cfg.Prefix, "/") + "/" + key
}

func (u *OSSUploader) PublicURL(objectKey string) string {
	if u.cfg.PublicBaseURL != "" {
		return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + objectKey
	}
	host := strings.TrimPrefix(strings.TrimPrefix(u.cfg.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", u.cfg.Bucket, host, objectKey)
}

// progressListener logs byte progress of one upload
type progressListener struct {
	logger *slog.Logger
}

func (p *progressListener) ProgressChanged(event *oss.ProgressEvent) {
	switch event.EventType {
	case oss.TransferStartedEvent:
		p.logger.Debug("Upload started", "total_bytes", event.TotalBytes)
	case oss.TransferDataEvent:
		if event.TotalBytes > 0 {
			p.logger.Debug("Upload progress",
				"consumed_bytes", event.ConsumedBytes,
				"total_bytes", event.TotalBytes,
				"percent", event.ConsumedBytes*100/event.TotalBytes)
		}
	case oss.TransferCompletedEvent:
		p.logger.Info("Upload completed", "total_bytes", event.TotalBytes)
	case oss.TransferFailedEvent:
		p.logger.Warn("Upload failed", "consumed_bytes", event.ConsumedBytes, "total_bytes", event.TotalBytes)
	}
}

type disabledUploader struct{}

func (disabledUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	return "", ErrStorageDisabled
}
