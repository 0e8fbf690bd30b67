package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/novelhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadService(u *recordingUploader) *UploadService {
	return NewUploadService(u, config.UploadConfig{MaxImageMB: 5, MaxQRImageMB: 2})
}

func TestUploadQRSizeCeiling(t *testing.T) {
	u := &recordingUploader{}
	svc := newUploadService(u)

	_, err := svc.Upload(context.Background(), &File{Name: "qr.jpg", Data: jpegOfSize(3 << 20)}, "payments", svc.QRImagePolicy())
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.False(t, upErr.Upstream)
	assert.Contains(t, upErr.Message, "2MB")

	url, err := svc.Upload(context.Background(), &File{Name: "qr.jpg", Data: jpegOfSize(19 << 20 / 10)}, "payments", svc.QRImagePolicy())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://img.example.com/payments/"), url)
	assert.True(t, strings.HasSuffix(url, "-qr.jpg"), url)
}

func TestUploadGeneralCeilingIsLarger(t *testing.T) {
	svc := newUploadService(&recordingUploader{})

	_, err := svc.Upload(context.Background(), &File{Name: "cover.png", Data: pngOfSize(3 << 20)}, "novels", svc.ImagePolicy())
	assert.NoError(t, err)

	_, err = svc.Upload(context.Background(), &File{Name: "cover.png", Data: pngOfSize(6 << 20)}, "novels", svc.ImagePolicy())
	var upErr *UploadError
	assert.ErrorAs(t, err, &upErr)
}

func TestUploadSniffsContentType(t *testing.T) {
	u := &recordingUploader{}
	svc := newUploadService(u)

	_, err := svc.Upload(context.Background(), &File{Name: "fake.png", Data: []byte("%PDF-1.4 not an image")}, "x", svc.ImagePolicy())
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Contains(t, upErr.Message, "Invalid file type")
	assert.Empty(t, u.keys)
}

func TestUploadRejectsEmpty(t *testing.T) {
	svc := newUploadService(&recordingUploader{})
	_, err := svc.Upload(context.Background(), &File{Name: "a.png"}, "x", svc.ImagePolicy())
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "No file uploaded", upErr.Message)
}

func TestUploadUpstreamFailure(t *testing.T) {
	svc := newUploadService(&recordingUploader{fail: errStorageDown})

	_, err := svc.Upload(context.Background(), &File{Name: "a.png", Data: pngOfSize(1024)}, "x", svc.ImagePolicy())
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.True(t, upErr.Upstream)
	assert.True(t, errors.Is(err, errStorageDown))
}

func TestUploadAllValidatesBeforeUploading(t *testing.T) {
	u := &recordingUploader{}
	svc := newUploadService(u)

	files := []*File{
		{Name: "1.png", Data: pngOfSize(100)},
		{Name: "2.txt", Data: []byte("plain text")},
	}
	_, err := svc.UploadAll(context.Background(), files, "x", svc.ImagePolicy())
	assert.Error(t, err)
	assert.Empty(t, u.keys)

	urls, err := svc.UploadAll(context.Background(), files[:1], "x", svc.ImagePolicy())
	require.NoError(t, err)
	assert.Len(t, urls, 1)
}
