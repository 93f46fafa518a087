package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FS stores blobs as files under a root directory:
// <dir>/uploads/<id>.pdf and <dir>/outputs/<id>.docx.
type FS struct {
	dir string
}

// NewFS creates the directory layout under dir if needed.
func NewFS(dir string) (*FS, error) {
	if dir == "" {
		dir = "data"
	}
	for _, k := range []Kind{KindUpload, KindOutput} {
		if err := os.MkdirAll(filepath.Join(dir, k.dir()), 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}
	return &FS{dir: dir}, nil
}

func (s *FS) path(h Handle) string {
	return filepath.Join(s.dir, h.Kind.dir(), h.ID+h.Kind.ext())
}

// Put writes data to a temporary file next to the target and renames it into
// place, so readers never observe a partial blob.
func (s *FS) Put(ctx context.Context, h Handle, data []byte) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.path(h)
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", h.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", h.ID, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("storing %s: %w", h.ID, err)
	}
	return nil
}

func (s *FS) Get(ctx context.Context, h Handle) ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(h))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, h.Kind, h.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", h.ID, err)
	}
	return data, nil
}

func (s *FS) Close() error { return nil }
