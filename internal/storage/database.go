package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/caseintake/internal/models"
)

var _ BlobStore = (*DatabaseStore)(nil)

// DatabaseStore keeps payload bytes in the file_blobs table next to the
// records that reference them.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore returns a store writing to db.
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if db == nil {
		return nil, errors.New("database store: db is required")
	}
	return &DatabaseStore{db: db}, nil
}

func (s *DatabaseStore) Backend() string { return BackendDatabase }

func (s *DatabaseStore) Put(ctx context.Context, key string, r io.Reader, size int64, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	buf := bytes.NewBuffer(make([]byte, 0, max(size, 0)))
	if _, err := io.Copy(buf, r); err != nil {
		return fmt.Errorf("database store: read payload: %w", err)
	}

	blob := models.FileBlob{Key: key, Data: buf.Bytes()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blob_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data"}),
	}).Create(&blob).Error
	if err != nil {
		return fmt.Errorf("database store: save blob: %w", err)
	}
	return nil
}

func (s *DatabaseStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	var blob models.FileBlob
	err := s.db.WithContext(ctx).Take(&blob, "blob_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database store: load blob: %w", err)
	}
	return io.NopCloser(bytes.NewReader(blob.Data)), nil
}

func (s *DatabaseStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&models.FileBlob{}, "blob_key = ?", key).Error; err != nil {
		return fmt.Errorf("database store: delete blob: %w", err)
	}
	return nil
}

// Ping checks the shared database connection.
func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("database store: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
