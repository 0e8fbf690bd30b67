package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/novelhub/internal/middleware"
	"github.com/novelhub/internal/service"
	"github.com/novelhub/pkg/response"
)

// NovelHandler handles novel API requests
type NovelHandler struct {
	novelService  *service.NovelService
	uploadService *service.UploadService
}

// NewNovelHandler creates a new NovelHandler
func NewNovelHandler(novelService *service.NovelService, uploadService *service.UploadService) *NovelHandler {
	return &NovelHandler{
		novelService:  novelService,
		uploadService: uploadService,
	}
}

// CreateNovel handles novel creation
// POST /api/v1/novels
func (h *NovelHandler) CreateNovel(c *gin.Context) {
	var req service.CreateNovelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	novel, err := h.novelService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, novel)
}

// ListNovels handles the paginated novel listing
// GET /api/v1/novels?authorId=&genre=&page=&limit=
func (h *NovelHandler) ListNovels(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultPageSize)))

	q := service.ListNovelsQuery{
		Genre: c.Query("genre"),
		Page:  page,
		Limit: limit,
	}
	if author := c.Query("authorId"); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			response.BadRequest(c, "invalid authorId")
			return
		}
		q.AuthorID = authorID
	}

	result, err := h.novelService.List(q)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// GetNovel handles reading a novel, counting one view
// GET /api/v1/novels/:id
func (h *NovelHandler) GetNovel(c *gin.Context) {
	id, ok := parseID(c, "id", "Novel")
	if !ok {
		return
	}

	detail, err := h.novelService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, detail)
}

// UpdateNovel handles title and description edits
// PUT /api/v1/novels/:id
func (h *NovelHandler) UpdateNovel(c *gin.Context) {
	id, ok := parseID(c, "id", "Novel")
	if !ok {
		return
	}

	var req service.UpdateNovelRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	novel, err := h.novelService.Update(middleware.GetUserID(c), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithStatus(c, http.StatusOK, "Novel updated successfully", novel)
}

// UpdateNovelDetails handles cover URL and genre edits
// PATCH /api/v1/novels/:id/details
func (h *NovelHandler) UpdateNovelDetails(c *gin.Context) {
	id, ok := parseID(c, "id", "Novel")
	if !ok {
		return
	}

	var req service.UpdateNovelDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	novel, err := h.novelService.UpdateDetails(middleware.GetUserID(c), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, novel)
}

// UploadCover handles a multipart cover image upload
// POST /api/v1/novels/:id/cover
func (h *NovelHandler) UploadCover(c *gin.Context) {
	id, ok := parseID(c, "id", "Novel")
	if !ok {
		return
	}

	file, ok := formFile(c, "file", h.uploadService.ImagePolicy().MaxBytes)
	if !ok {
		return
	}

	novel, err := h.novelService.UploadCover(c.Request.Context(), middleware.GetUserID(c), id, file)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, novel)
}

// DeleteNovel handles deleting a novel and its chapters
// DELETE /api/v1/novels/:id
func (h *NovelHandler) DeleteNovel(c *gin.Context) {
	id, ok := parseID(c, "id", "Novel")
	if !ok {
		return
	}

	if err := h.novelService.Delete(middleware.GetUserID(c), id); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithStatus(c, http.StatusOK, "Novel deleted successfully", nil)
}

// AuthorAnalytics returns view statistics for the caller's novels
// GET /api/v1/analytics
func (h *NovelHandler) AuthorAnalytics(c *gin.Context) {
	stats, err := h.novelService.AuthorAnalytics(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, stats)
}

// RegisterRoutes registers novel routes
func (h *NovelHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	novels := rg.Group("/novels")
	{
		novels.GET("", h.ListNovels)
		novels.GET("/:id", h.GetNovel)
		novels.POST("", authMiddleware, h.CreateNovel)
		novels.PUT("/:id", authMiddleware, h.UpdateNovel)
		novels.PATCH("/:id/details", authMiddleware, h.UpdateNovelDetails)
		novels.POST("/:id/cover", authMiddleware, h.UploadCover)
		novels.DELETE("/:id", authMiddleware, h.DeleteNovel)
	}

	rg.GET("/analytics", authMiddleware, h.AuthorAnalytics)
}
