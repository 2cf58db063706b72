package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/internal/resume"
	"github.com/charlesng35/caseintake/internal/storage"
	"github.com/charlesng35/caseintake/pkg/crypto"
	apperrors "github.com/charlesng35/caseintake/pkg/errors"
	"github.com/charlesng35/caseintake/pkg/logger"
	"github.com/charlesng35/caseintake/pkg/metrics"
)

// DefaultMaxUploadBytes bounds resume payloads when no limit is configured.
const DefaultMaxUploadBytes int64 = 10 << 20

// FileURLPrefix is joined with a file id to form its public download path.
const FileURLPrefix = "/api/files/"

// FileServiceConfig tunes upload acceptance.
type FileServiceConfig struct {
	MaxBytes int64
	// Inspect parses each payload to confirm it matches its extension.
	Inspect bool
}

// UploadInput carries one resume upload.
type UploadInput struct {
	LeadID      string
	Filename    string
	ContentType string
	Data        []byte
}

// FileService stores resumes and attaches them to leads.
type FileService struct {
	db     *gorm.DB
	store  storage.BlobStore
	cfg    FileServiceConfig
	logger *zap.Logger
}

// NewFileService constructs a FileService writing payloads to store.
func NewFileService(db *gorm.DB, store storage.BlobStore, cfg FileServiceConfig) (*FileService, error) {
	if db == nil {
		return nil, errors.New("file service: db is required")
	}
	if store == nil {
		return nil, errors.New("file service: blob store is required")
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxUploadBytes
	}
	return &FileService{
		db:     db,
		store:  store,
		cfg:    cfg,
		logger: logger.WithModule("files"),
	}, nil
}

// MaxBytes returns the largest accepted payload.
func (s *FileService) MaxBytes() int64 {
	return s.cfg.MaxBytes
}

// FileURL returns the download path of a stored file.
func FileURL(fileID string) string {
	return FileURLPrefix + fileID
}

// Upload stores a resume for a lead and points the lead's resume reference
// at it. Earlier files of the lead are kept.
func (s *FileService) Upload(ctx context.Context, input UploadInput) (*models.File, error) {
	ctx = ensureContext(ctx)

	file, err := s.upload(ctx, input)
	switch {
	case err == nil:
		metrics.ResumeUploads.WithLabelValues("success").Inc()
	case isClientError(err):
		metrics.ResumeUploads.WithLabelValues("rejected").Inc()
	default:
		metrics.ResumeUploads.WithLabelValues("failure").Inc()
	}
	return file, err
}

func (s *FileService) upload(ctx context.Context, input UploadInput) (*models.File, error) {
	leadID := strings.TrimSpace(input.LeadID)
	filename := filepath.Base(strings.TrimSpace(input.Filename))
	if len(input.Data) == 0 || filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, ErrNoFile
	}
	if leadID == "" {
		return nil, ErrLeadIDRequired
	}

	var lead models.Lead
	if err := s.db.WithContext(ctx).Select("id").First(&lead, "id = ?", leadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, apperrors.ErrPersistence.WithInternal(fmt.Errorf("file service: load lead: %w", err))
	}

	if !resume.IsAllowed(filename) {
		return nil, ErrResumeType
	}
	if int64(len(input.Data)) > s.cfg.MaxBytes {
		return nil, ErrResumeTooLarge
	}

	var report resume.Report
	if s.cfg.Inspect {
		var err error
		report, err = resume.Inspect(filename, input.Data)
		if err != nil {
			return nil, ErrResumeUnreadable.WithInternal(err)
		}
	}

	file := &models.File{
		LeadID:         lead.ID,
		Filename:       filename,
		ContentType:    resume.ContentType(filename, input.ContentType),
		Size:           int64(len(input.Data)),
		Checksum:       crypto.Checksum(input.Data),
		PageCount:      report.PageCount,
		StorageBackend: s.store.Backend(),
	}
	file.ID = uuid.NewString()
	file.StorageKey = lead.ID + "/" + file.ID

	if err := s.store.Put(ctx, file.StorageKey, bytes.NewReader(input.Data), file.Size, file.ContentType); err != nil {
		return nil, ErrResumeStorage.WithInternal(err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(file).Error; err != nil {
			return err
		}
		return tx.Model(&models.Lead{}).Where("id = ?", lead.ID).Updates(map[string]any{
			"resume_file_id": file.ID,
			"resume_url":     FileURL(file.ID),
		}).Error
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, file.StorageKey); delErr != nil {
			s.logger.Warn("failed to remove orphaned resume payload",
				zap.String("key", file.StorageKey), zap.Error(delErr))
		}
		return nil, apperrors.ErrPersistence.WithInternal(fmt.Errorf("file service: record file: %w", err))
	}

	s.logger.Info("resume stored",
		zap.String("lead_id", lead.ID),
		zap.String("file_id", file.ID),
		zap.String("backend", file.StorageBackend),
		zap.Int64("size", file.Size))
	return file, nil
}

// Get loads file metadata.
func (s *FileService) Get(ctx context.Context, id string) (*models.File, error) {
	ctx = ensureContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrFileNotFound
	}

	var file models.File
	if err := s.db.WithContext(ctx).First(&file, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, apperrors.ErrPersistence.WithInternal(fmt.Errorf("file service: load file: %w", err))
	}
	return &file, nil
}

// Open returns the metadata and payload of a file. Callers close the reader.
func (s *FileService) Open(ctx context.Context, id string) (*models.File, io.ReadCloser, error) {
	file, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if file.StorageBackend != s.store.Backend() {
		return nil, nil, apperrors.ErrInternalServer.WithInternal(
			fmt.Errorf("file service: file %s is stored on %q, active backend is %q", file.ID, file.StorageBackend, s.store.Backend()))
	}

	rc, err := s.store.Open(ensureContext(ctx), file.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, nil, ErrFileNotFound.WithInternal(err)
		}
		return nil, nil, apperrors.ErrInternalServer.WithInternal(fmt.Errorf("file service: open payload: %w", err))
	}
	return file, rc, nil
}

func isClientError(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.StatusCode < 500
}
