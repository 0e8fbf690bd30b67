package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/novelhub/internal/middleware"
	"github.com/novelhub/internal/service"
	"github.com/novelhub/pkg/keygen"
	"github.com/novelhub/pkg/response"
)

// UploadHandler handles general image uploads
type UploadHandler struct {
	uploadService *service.UploadService
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload stores an image and returns its public URL
// POST /api/v1/uploads
func (h *UploadHandler) Upload(c *gin.Context) {
	policy := h.uploadService.ImagePolicy()
	file, ok := formFile(c, "file", policy.MaxBytes)
	if !ok {
		return
	}

	folder := keygen.JoinFolder("users", middleware.GetUserID(c).String())
	url, err := h.uploadService.Upload(c.Request.Context(), file, folder, policy)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"url": url})
}

// RegisterRoutes registers upload routes
func (h *UploadHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	rg.POST("/uploads", authMiddleware, h.Upload)
}
