// Package mediastore persists uploaded files on local disk or in a GCS bucket.
package mediastore

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/config"
)

// Store writes and removes media objects by key.
type Store interface {
	// Put stores r under key and returns the public URL.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// Delete removes key. A missing object is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey returns "{ownerID}/{unix millis}-{sanitised filename}".
func ObjectKey(ownerID, filename string, now time.Time) string {
	name := unsafeFilename.ReplaceAllString(path.Base(strings.ReplaceAll(filename, `\`, "/")), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s/%d-%s", ownerID, now.UnixMilli(), name)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.MediaConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "gcs":
		store, err := NewGCSStore(ctx, cfg.GCSBucket, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("Media stored in GCS", zap.String("bucket", cfg.GCSBucket))
		return store, nil
	case "local", "":
		store, err := NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("Media stored on local disk", zap.String("dir", cfg.LocalDir))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
}
