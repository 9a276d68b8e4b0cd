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

// LocalStore writes files below Dir and serves them from BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStore) pathFor(key string) (string, error) {
	p := filepath.Join(s.Dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.Dir, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("object key %q escapes storage dir", key)
	}
	return p, nil
}

// Put writes r to the key's file.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create object dir: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return Object{}, fmt.Errorf("failed to create object %s: %w", key, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return Object{}, fmt.Errorf("failed to write object %s: %w", key, err)
	}

	return Object{
		Key:         key,
		URL:         s.BaseURL + "/" + key,
		Size:        n,
		ContentType: contentType,
	}, nil
}

// Delete removes the key's file. Missing files are ignored.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// Close is a no-op.
func (s *LocalStore) Close() error {
	return nil
}
