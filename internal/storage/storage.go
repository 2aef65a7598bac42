// Package storage writes and reads report artifacts in object storage.
// Writes are create-only: an existing key is never overwritten.
package storage

import (
	"context"
	"fmt"
	"io"

	"patient-intake-server/internal/config"

	"go.uber.org/zap"
)

// ObjectStore is a create-only key/value blob store.
type ObjectStore interface {
	// Put writes body under key. It returns apperrors.ErrConflict if key exists.
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Open returns the object under key or apperrors.ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (ObjectStore, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.LocalDir)
	case "s3":
		return NewS3Store(ctx, cfg.Bucket, cfg.Endpoint, cfg.PathStyle, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
