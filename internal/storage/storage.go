// Package storage holds the object storage backends behind image uploads.
package storage

import "context"

// Uploader stores an object under key and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
