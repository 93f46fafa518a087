// Package store keeps uploaded PDFs and rendered documents by handle.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrInvalidHandle = errors.New("store: invalid handle")
	ErrUnknownStore  = errors.New("store: unknown backend")
)

// Store persists blobs by handle. Implementations are safe for concurrent use.
type Store interface {
	Put(ctx context.Context, h Handle, data []byte) error
	Get(ctx context.Context, h Handle) ([]byte, error)
	Close() error
}

// Kind separates uploads from rendered outputs.
type Kind string

const (
	KindUpload Kind = "upload"
	KindOutput Kind = "output"
)

// Handle names one stored blob.
type Handle struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
}

// NewHandle returns a handle with a fresh random ID.
func NewHandle(kind Kind) Handle {
	return Handle{ID: uuid.NewString(), Kind: kind}
}

// Validate rejects handles whose ID is not a UUID or whose kind is unknown.
// IDs reach file paths and object keys, so nothing else is accepted.
func (h Handle) Validate() error {
	if _, err := uuid.Parse(h.ID); err != nil {
		return fmt.Errorf("%w: id %q", ErrInvalidHandle, h.ID)
	}
	switch h.Kind {
	case KindUpload, KindOutput:
		return nil
	}
	return fmt.Errorf("%w: kind %q", ErrInvalidHandle, h.Kind)
}

// ext is the file extension of a kind.
func (k Kind) ext() string {
	if k == KindUpload {
		return ".pdf"
	}
	return ".docx"
}

func (k Kind) contentType() string {
	if k == KindUpload {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// dir is the directory (or key segment) holding blobs of a kind.
func (k Kind) dir() string {
	return string(k) + "s"
}

// Config selects and configures a backend.
type Config struct {
	Backend    string   `json:"backend" yaml:"backend"`
	Dir        string   `json:"dir" yaml:"dir"`
	SQLitePath string   `json:"sqlite_path" yaml:"sqlite_path"`
	S3         S3Config `json:"s3" yaml:"s3"`
}

// Backend names accepted by Open.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// Open returns the backend named by cfg.Backend; empty means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFS:
		return NewFS(cfg.Dir)
	case BackendSQLite:
		return NewSQLite(cfg.SQLitePath)
	case BackendS3:
		return NewS3(ctx, cfg.S3)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Backend)
}
