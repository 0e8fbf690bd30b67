package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// defaultLocalDir is used when no base directory is configured
const defaultLocalDir = "uploads"

// PublicPrefix is the URL path the router serves local uploads from
const PublicPrefix = "/uploads"

// LocalUploader writes objects to the local file system. Meant for development;
// the router serves BasePath under PublicPrefix.
type LocalUploader struct {
	basePath      string
	publicBaseURL string
}

// NewLocalUploader creates a new LocalUploader
func NewLocalUploader(basePath, publicBaseURL string) *LocalUploader {
	if basePath == "" {
		basePath = defaultLocalDir
	}
	return &LocalUploader{
		basePath:      basePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// BasePath returns the directory objects are written to
func (u *LocalUploader) BasePath() string {
	return u.basePath
}

// Upload writes data to <basePath>/<key> and returns <publicBaseURL>/uploads/<key>
func (u *LocalUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	fullPath := filepath.Join(u.basePath, clean)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		log.Printf("[LocalUploader] failed to create directory for %s: %v", fullPath, err)
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		log.Printf("[LocalUploader] failed to write %s: %v", fullPath, err)
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	log.Printf("[LocalUploader] stored %s (%d bytes, %s)", key, len(data), contentType)
	return u.publicBaseURL + PublicPrefix + "/" + filepath.ToSlash(clean), nil
}
