// Package storage provides file uploader implementations backed by the local
// filesystem or Cloudinary.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Local stores uploads on the local filesystem under a per-category
// subdirectory, using randomized filenames so concurrent writes cannot
// collide.
type Local struct {
	root     string
	category string
	logger   zerolog.Logger
}

// NewLocal constructs a local disk uploader rooted at dir. Category names a
// subdirectory (e.g. "submissions", "materials").
func NewLocal(dir, category string, logger zerolog.Logger) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory must be provided")
	}

	target := filepath.Join(dir, category)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &Local{
		root:     dir,
		category: category,
		logger:   logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Upload writes the reader's content to a randomized filename and returns
// the relative path used to reference the file.
func (l *Local) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	filename := uuid.NewString() + filepath.Ext(name)
	relative := filepath.Join(l.category, filename)
	absolute := filepath.Join(l.root, relative)

	out, err := os.Create(absolute)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		os.Remove(absolute)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	l.logger.Info().Str("path", relative).Msg("file stored on disk")

	return relative, nil
}
