// Package handler holds the gin HTTP handlers of the API.
package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/novelhub/internal/middleware"
	"github.com/novelhub/internal/repository"
	"github.com/novelhub/internal/service"
	"github.com/novelhub/pkg/response"
)

// RegisterValidators adds the custom binding tags used by request structs
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation("upi", func(fl validator.FieldLevel) bool {
		return service.ValidUPIID(fl.Field().String())
	})
}

// writeError maps service and repository errors onto the response envelope
func writeError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var uploadErr *service.UploadError

	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(c, validationErr.Message)
	case errors.As(err, &uploadErr):
		if uploadErr.Upstream {
			_ = c.Error(err)
			response.InternalError(c, uploadErr.Message)
			return
		}
		response.BadRequest(c, uploadErr.Message)
	case errors.Is(err, service.ErrEmailTaken):
		response.BadRequest(c, "User with this email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, "Invalid email or password")
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, "invalid or expired token")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, "Only the author can modify this resource")
	case errors.Is(err, repository.ErrNovelNotFound):
		response.NotFound(c, "Novel not found")
	case errors.Is(err, repository.ErrChapterNotFound):
		response.NotFound(c, "Chapter not found")
	case errors.Is(err, repository.ErrUserNotFound):
		response.NotFound(c, "User not found")
	case errors.Is(err, repository.ErrPaymentNotFound):
		response.NotFound(c, "Payment method not found")
	default:
		_ = c.Error(err)
		middleware.LogError("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		response.InternalError(c, "Internal server error")
	}
}

// parseID reads a uuid path parameter, answering 404 when malformed
func parseID(c *gin.Context, param, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.NotFound(c, resource+" not found")
		return uuid.Nil, false
	}
	return id, true
}

// readUpload loads a multipart file, reading at most one byte past limit
// so oversized payloads are still reported as such
func readUpload(fh *multipart.FileHeader, limit int64) (*service.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &service.File{Name: fh.Filename, Data: data}, nil
}

// formFile reads the single file sent under field
func formFile(c *gin.Context, field string, limit int64) (*service.File, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			response.BadRequest(c, "No file uploaded")
			return nil, false
		}
		response.BadRequest(c, err.Error())
		return nil, false
	}

	file, err := readUpload(fh, limit)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return file, true
}

// formFiles reads every file under field, plus fields named prefix<n> in index order
func formFiles(form *multipart.Form, field, prefix string, limit int64) ([]*service.File, error) {
	if form == nil {
		return nil, nil
	}

	headers := append([]*multipart.FileHeader{}, form.File[field]...)

	var indexed []string
	for key := range form.File {
		if key != field && prefix != "" && strings.HasPrefix(key, prefix) {
			indexed = append(indexed, key)
		}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if len(indexed[i]) != len(indexed[j]) {
			return len(indexed[i]) < len(indexed[j])
		}
		return indexed[i] < indexed[j]
	})
	for _, key := range indexed {
		headers = append(headers, form.File[key]...)
	}

	files := make([]*service.File, 0, len(headers))
	for _, fh := range headers {
		file, err := readUpload(fh, limit)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}
