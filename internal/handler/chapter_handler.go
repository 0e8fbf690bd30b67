package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/novelhub/internal/middleware"
	"github.com/novelhub/internal/service"
	"github.com/novelhub/pkg/response"
)

// ChapterHandler handles chapter API requests
type ChapterHandler struct {
	chapterService *service.ChapterService
	uploadService  *service.UploadService
}

// NewChapterHandler creates a new ChapterHandler
func NewChapterHandler(chapterService *service.ChapterService, uploadService *service.UploadService) *ChapterHandler {
	return &ChapterHandler{
		chapterService: chapterService,
		uploadService:  uploadService,
	}
}

// CreateChapter handles multipart chapter creation
// POST /api/v1/novels/:id/chapters
func (h *ChapterHandler) CreateChapter(c *gin.Context) {
	novelID, ok := parseID(c, "id", "Novel")
	if !ok {
		return
	}

	in, ok := h.bindChapter(c)
	if !ok {
		return
	}

	chapter, err := h.chapterService.Create(c.Request.Context(), middleware.GetUserID(c), novelID, in)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, chapter)
}

// ListChapters handles listing a novel's chapters in reading order
// GET /api/v1/novels/:id/chapters
func (h *ChapterHandler) ListChapters(c *gin.Context) {
	novelID, ok := parseID(c, "id", "Novel")
	if !ok {
		return
	}

	chapters, err := h.chapterService.List(novelID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, chapters)
}

// GetChapter handles reading one chapter with navigation
// GET /api/v1/novels/:id/chapters/:chapterId
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	novelID, ok := parseID(c, "id", "Novel")
	if !ok {
		return
	}
	chapterID, ok := parseID(c, "chapterId", "Chapter")
	if !ok {
		return
	}

	detail, err := h.chapterService.Get(novelID, chapterID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, detail)
}

// UpdateChapter handles multipart chapter edits
// PUT /api/v1/novels/:id/chapters/:chapterId
func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	novelID, ok := parseID(c, "id", "Novel")
	if !ok {
		return
	}
	chapterID, ok := parseID(c, "chapterId", "Chapter")
	if !ok {
		return
	}

	in, ok := h.bindChapter(c)
	if !ok {
		return
	}

	chapter, err := h.chapterService.Update(c.Request.Context(), middleware.GetUserID(c), novelID, chapterID, in)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithStatus(c, http.StatusOK, "Chapter updated successfully", chapter)
}

// DeleteChapter handles chapter removal
// DELETE /api/v1/novels/:id/chapters/:chapterId
func (h *ChapterHandler) DeleteChapter(c *gin.Context) {
	novelID, ok := parseID(c, "id", "Novel")
	if !ok {
		return
	}
	chapterID, ok := parseID(c, "chapterId", "Chapter")
	if !ok {
		return
	}

	if err := h.chapterService.Delete(middleware.GetUserID(c), novelID, chapterID); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithStatus(c, http.StatusOK, "Chapter deleted successfully", nil)
}

// bindChapter reads title, content, chapterNumber, keepImages and image files
// from a multipart form
func (h *ChapterHandler) bindChapter(c *gin.Context) (*service.ChapterInput, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "Expected a multipart form")
		return nil, false
	}

	in := &service.ChapterInput{
		Title:   c.PostForm("title"),
		Content: c.PostForm("content"),
	}

	if raw := strings.TrimSpace(c.PostForm("chapterNumber")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "Chapter number must be a positive integer")
			return nil, false
		}
		in.ChapterNumber = n
	}

	in.KeepImages = append(in.KeepImages, form.Value["keepImages[]"]...)
	in.KeepImages = append(in.KeepImages, form.Value["keepImages"]...)

	limit := h.uploadService.ImagePolicy().MaxBytes
	in.Images, err = formFiles(form, "images", "newImages", limit)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	more, err := formFiles(form, "images[]", "", limit)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	in.Images = append(in.Images, more...)

	return in, true
}

// RegisterRoutes registers chapter routes
func (h *ChapterHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	chapters := rg.Group("/novels/:id/chapters")
	{
		chapters.GET("", h.ListChapters)
		chapters.GET("/:chapterId", h.GetChapter)
		chapters.POST("", authMiddleware, h.CreateChapter)
		chapters.PUT("/:chapterId", authMiddleware, h.UpdateChapter)
		chapters.DELETE("/:chapterId", authMiddleware, h.DeleteChapter)
	}
}
