package service

import (
	"context"
	"errors"
	"sync"
)

// recordingUploader keeps uploads in memory and returns deterministic URLs
type recordingUploader struct {
	mu   sync.Mutex
	keys []string
	fail error
}

func (u *recordingUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail != nil {
		return "", u.fail
	}
	u.keys = append(u.keys, key)
	return "https://img.example.com/" + key, nil
}

var errStorageDown = errors.New("storage unavailable")

func jpegOfSize(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	return data
}

func pngOfSize(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'})
	return data
}
