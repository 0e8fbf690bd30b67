package service

import (
	"context"
	"fmt"
	"log"

	"github.com/gabriel-vasile/mimetype"
	"github.com/novelhub/internal/config"
	"github.com/novelhub/internal/storage"
	"github.com/novelhub/pkg/keygen"
)

var (
	// ImageTypes are accepted for covers and chapter images
	ImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	// QRImageTypes are accepted for payment QR codes
	QRImageTypes = []string{"image/jpeg", "image/png"}
)

// File is an uploaded payload held in memory
type File struct {
	Name string
	Data []byte
}

// UploadPolicy bounds what an endpoint accepts
type UploadPolicy struct {
	MaxBytes int64
	Types    []string
}

// UploadService validates images and forwards them to object storage
type UploadService struct {
	uploader     storage.Uploader
	uploadConfig config.UploadConfig
}

// NewUploadService creates a new UploadService
func NewUploadService(uploader storage.Uploader, uploadConfig config.UploadConfig) *UploadService {
	return &UploadService{
		uploader:     uploader,
		uploadConfig: uploadConfig,
	}
}

// ImagePolicy is the general image policy
func (s *UploadService) ImagePolicy() UploadPolicy {
	return UploadPolicy{MaxBytes: s.uploadConfig.MaxImageBytes(), Types: ImageTypes}
}

// QRImagePolicy is the stricter payment QR image policy
func (s *UploadService) QRImagePolicy() UploadPolicy {
	return UploadPolicy{MaxBytes: s.uploadConfig.MaxQRImageBytes(), Types: QRImageTypes}
}

// Upload checks the payload against policy and stores it under folder
func (s *UploadService) Upload(ctx context.Context, file *File, folder string, policy UploadPolicy) (string, error) {
	contentType, err := checkImage(file, policy)
	if err != nil {
		return "", err
	}

	key := keygen.ObjectKey(folder, file.Name)
	url, err := s.uploader.Upload(ctx, key, file.Data, contentType)
	if err != nil {
		log.Printf("[UploadService] upload of %s failed: %v", key, err)
		return "", &UploadError{Message: "Failed to upload image", Upstream: true, Err: err}
	}
	return url, nil
}

// UploadAll uploads files in order and returns their URLs in the same order
func (s *UploadService) UploadAll(ctx context.Context, files []*File, folder string, policy UploadPolicy) ([]string, error) {
	for _, f := range files {
		if _, err := checkImage(f, policy); err != nil {
			return nil, err
		}
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.Upload(ctx, f, folder, policy)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func checkImage(file *File, policy UploadPolicy) (string, error) {
	if file == nil || len(file.Data) == 0 {
		return "", &UploadError{Message: "No file uploaded"}
	}
	if policy.MaxBytes > 0 && int64(len(file.Data)) > policy.MaxBytes {
		return "", &UploadError{Message: fmt.Sprintf("File size exceeds the limit of %s", formatMB(policy.MaxBytes))}
	}

	detected := mimetype.Detect(file.Data)
	for _, accepted := range policy.Types {
		if detected.Is(accepted) {
			return accepted, nil
		}
	}
	return "", &UploadError{Message: fmt.Sprintf("Invalid file type %s", detected.String())}
}

func formatMB(n int64) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
}
