// Package storage holds uploaded project files. The database only records the returned URL,
// size and MIME type; bytes go to a local directory or a Google Cloud Storage bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/localnerve/bigstone-community/internal/config"
)

// Object describes a stored file.
type Object struct {
	Key         string
	URL         string
	Size        int64
	ContentType string
}

// Store accepts a file and returns a retrievable URL.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// ObjectKey builds a collision free key under the project's prefix.
func ObjectKey(projectID, filename string) string {
	return path.Join("projects", projectID, uuid.NewString()+"-"+sanitize(filename))
}

func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

// New selects the backend configured by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return NewLocalStore(cfg.StorageDir, cfg.StorageBaseURL)
	case config.StorageGCS:
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	}
	return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
}
