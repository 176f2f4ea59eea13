// Package storage holds the report archive backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/salesflow-analytics/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo represents metadata for a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage captures the minimal S3-compatible operations the report
// archive needs. Keys are flat names relative to the archive root.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte) error
}

// New selects the backend named by cfg.Storage.
func New(ctx context.Context, cfg config.ReportConfig) (ObjectStorage, error) {
	s3 := S3Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		UseSSL:    cfg.S3UseSSL,
	}
	switch cfg.Storage {
	case "", "local":
		return NewLocal(cfg.Dir)
	case "sevalla", "s3":
		return NewSevallaClient(s3)
	case "minio":
		return NewMinioClient(ctx, s3)
	default:
		return nil, fmt.Errorf("unknown report storage %q", cfg.Storage)
	}
}
