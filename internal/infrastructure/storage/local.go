package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"accounts/backend/internal/domain/media"

	"github.com/google/uuid"
)

// LocalStore writes images into a directory on disk and returns their path.
type LocalStore struct {
	dir string
}

var _ media.ImageStore = (*LocalStore)(nil)

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes the upload under a random name and returns the file path.
func (s *LocalStore) Save(ctx context.Context, upload media.Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, uuid.NewString()+media.Extension(upload.ContentType))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, upload.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close image file: %w", err)
	}
	return path, nil
}

// Delete removes a previously saved image. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	clean := filepath.Clean(ref)
	if filepath.Dir(clean) != filepath.Clean(s.dir) {
		return fmt.Errorf("image %q is outside %s", ref, s.dir)
	}
	if err := os.Remove(clean); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
