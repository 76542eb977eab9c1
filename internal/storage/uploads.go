package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/trailbliss/trailbliss-api/internal/domain"
	"github.com/trailbliss/trailbliss-api/pkg/logger"
)

// PublicPrefix is the URL path uploaded files are served under.
const PublicPrefix = "/uploads/"

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

var allowedMIME = []string{"image/jpeg", "image/png", "image/gif"}

// LocalImageStore writes validated images to a directory served at PublicPrefix.
type LocalImageStore struct {
	dir      string
	maxBytes int64
}

func NewLocalImageStore(dir string, maxBytes int64) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalImageStore{dir: dir, maxBytes: maxBytes}, nil
}

// Save checks the extension, size and sniffed content type of the upload and
// stores it as <prefix>-<uuid><ext>. It returns the public path.
func (s *LocalImageStore) Save(ctx context.Context, prefix string, upload *domain.Upload) (string, error) {
	if upload == nil || upload.Content == nil {
		return "", domain.ErrMissingFile
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: extension %q", domain.ErrInvalidFile, ext)
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", domain.ErrFileTooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedMIME...) {
		return "", fmt.Errorf("%w: content type %s", domain.ErrInvalidFile, mtype.String())
	}

	name := prefix + "-" + uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing upload: %w", domain.ErrStorage, err)
	}

	logger.DebugContext(ctx, "Stored upload", "file", name, "bytes", len(data), "mime", mtype.String())
	return path.Join(PublicPrefix, name), nil
}

// Remove deletes a previously saved file. Unknown paths are ignored.
func (s *LocalImageStore) Remove(ctx context.Context, publicPath string) error {
	if !strings.HasPrefix(publicPath, PublicPrefix) {
		return nil
	}
	name := filepath.Base(publicPath)
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		logger.WarnContext(ctx, "Failed to remove upload", "file", name, "error", err)
		return err
	}
	return nil
}

// Dir is the directory files are written to.
func (s *LocalImageStore) Dir() string {
	return s.dir
}
