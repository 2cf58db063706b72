package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var _ BlobStore = (*FilesystemStore)(nil)

// FilesystemStore persists payloads as files below a root directory. Keys may
// contain forward slashes, which become subdirectories.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore initialises a filesystem-backed store rooted at dir.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("filesystem store: root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filesystem store: ensure root directory: %w", err)
	}
	return &FilesystemStore{root: dir}, nil
}

func (s *FilesystemStore) Backend() string { return BackendFilesystem }

// Put writes to a temporary file first so readers never observe a partial payload.
func (s *FilesystemStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	fullPath, err := s.absolute(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filesystem store: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("filesystem store: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("filesystem store: write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filesystem store: close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("filesystem store: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("filesystem store: commit payload: %w", err)
	}
	return nil
}

func (s *FilesystemStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.absolute(key)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("filesystem store: open file: %w", err)
	}
	return fh, nil
}

func (s *FilesystemStore) Delete(_ context.Context, key string) error {
	fullPath, err := s.absolute(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("filesystem store: delete file: %w", err)
	}
	return nil
}

// absolute resolves key below the root and refuses keys that escape it.
func (s *FilesystemStore) absolute(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(key, "/")))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("filesystem store: invalid key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Ping verifies the root still exists and is a directory.
func (s *FilesystemStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("filesystem store: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("filesystem store: %s is not a directory", s.root)
	}
	return nil
}
