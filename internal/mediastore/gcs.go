package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSStore keeps media in a bucket. Credentials come from the environment
// (GOOGLE_APPLICATION_CREDENTIALS or the metadata server).
type GCSStore struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

func NewGCSStore(ctx context.Context, bucket, publicBaseURL string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://storage.googleapis.com/%s", bucket)
	}
	return &GCSStore{client: client, bucket: bucket, publicBaseURL: publicBaseURL}, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload gs://%s/%s: %w", s.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize gs://%s/%s: %w", s.bucket, key, err)
	}
	return joinURL(s.publicBaseURL, key), nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gs://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
