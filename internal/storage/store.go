package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"
)

// Backend names recorded on each stored file.
const (
	BackendDatabase   = "database"
	BackendFilesystem = "filesystem"
	BackendS3         = "s3"
)

// ErrBlobNotFound is returned when no payload exists under the requested key.
var ErrBlobNotFound = errors.New("storage: blob not found")

// BlobStore persists opaque file payloads under caller-chosen keys.
type BlobStore interface {
	// Backend identifies the store so file records can name where their payload lives.
	Backend() string
	// Put writes size bytes from r under key, replacing any existing payload.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Open returns a reader for the payload stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the payload. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by stores that can verify their backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config selects and configures a BlobStore.
type Config struct {
	Driver string
	Path   string
	S3     S3Config
}

// New builds the BlobStore named by cfg.Driver. The database store shares db.
func New(ctx context.Context, cfg Config, db *gorm.DB) (BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", BackendDatabase:
		return NewDatabaseStore(db)
	case BackendFilesystem:
		return NewFilesystemStore(cfg.Path)
	case BackendS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("storage: key is required")
	}
	return nil
}
