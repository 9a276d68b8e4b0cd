package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps files in a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore connects with a service account key file, or application default credentials
// when credentialsFile is empty. Extra client options are appended.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", credentialsFile)
		}
		opts = append([]option.ClientOption{option.WithCredentialsFile(credentialsFile)}, opts...)
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Put streams r into the bucket object.
func (s *GCSStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error) {
	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "public, max-age=86400"

	n, err := io.Copy(writer, r)
	if err != nil {
		_ = writer.Close()
		return Object{}, fmt.Errorf("failed to copy upload to GCS object %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to close GCS writer for %s: %w", key, err)
	}

	return Object{
		Key:         key,
		URL:         fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key),
		Size:        n,
		ContentType: contentType,
	}, nil
}

// Delete removes the object. Missing objects are ignored.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %s: %w", key, err)
	}
	return nil
}

// Close releases the client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
