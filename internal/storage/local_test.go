package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUploaderWritesFile(t *testing.T) {
	dir := t.TempDir()
	u := NewLocalUploader(dir, "http://localhost:8080/")

	url, err := u.Upload(context.Background(), "novels/abc/cover.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/novels/abc/cover.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "novels", "abc", "cover.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalUploaderRejectsEscapingKeys(t *testing.T) {
	u := NewLocalUploader(t.TempDir(), "")

	for _, key := range []string{"", "../etc/passwd", "/abs/path.png"} {
		_, err := u.Upload(context.Background(), key, []byte("x"), "image/png")
		assert.Error(t, err, key)
	}
}

func TestLocalUploaderHonoursCancellation(t *testing.T) {
	u := NewLocalUploader(t.TempDir(), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := u.Upload(ctx, "a.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}
