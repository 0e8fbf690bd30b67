package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/novelhub/internal/config"
	"github.com/novelhub/internal/models"
	"github.com/novelhub/internal/repository"
	"github.com/novelhub/pkg/keygen"
	"gorm.io/datatypes"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ViewNotifier receives the new view count after every detail read
type ViewNotifier interface {
	PublishViews(ctx context.Context, novelID uuid.UUID, views int64) error
}

// NovelService handles novel operations
type NovelService struct {
	novelRepo     *repository.NovelRepository
	chapterRepo   *repository.ChapterRepository
	uploads       *UploadService
	contentConfig config.ContentConfig
	notifier      ViewNotifier
}

// NewNovelService creates a new NovelService
func NewNovelService(
	novelRepo *repository.NovelRepository,
	chapterRepo *repository.ChapterRepository,
	uploads *UploadService,
	contentConfig config.ContentConfig,
) *NovelService {
	return &NovelService{
		novelRepo:     novelRepo,
		chapterRepo:   chapterRepo,
		uploads:       uploads,
		contentConfig: contentConfig,
	}
}

// SetViewNotifier attaches the live views feed
func (s *NovelService) SetViewNotifier(n ViewNotifier) {
	s.notifier = n
}

// CreateNovelRequest represents the create novel request
type CreateNovelRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CoverImage  string   `json:"coverImage" binding:"omitempty,url"`
	Genres      []string `json:"genres"`
}

// UpdateNovelRequest represents the update novel request
type UpdateNovelRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
}

// UpdateNovelDetailsRequest replaces the cover and genres when present
type UpdateNovelDetailsRequest struct {
	CoverImage *string  `json:"coverImage" binding:"omitempty,url"`
	Genres     []string `json:"genres"`
}

// NovelDetail is a novel together with its chapter listing
type NovelDetail struct {
	Novel    *models.NovelResponse   `json:"novel"`
	Chapters []models.ChapterSummary `json:"chapters"`
}

// ListNovelsQuery holds listing filters and paging
type ListNovelsQuery struct {
	AuthorID uuid.UUID
	Genre    string
	Page     int
	Limit    int
}

// Pagination describes one page of a listing
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// NovelPage is one page of novels
type NovelPage struct {
	Novels     []models.NovelResponse `json:"novels"`
	Pagination Pagination             `json:"pagination"`
}

// NovelStat is one row of the author analytics
type NovelStat struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Views     int64     `json:"views"`
	Chapters  int64     `json:"chapters"`
	SharePct  int       `json:"sharePct"`
	CreatedAt string    `json:"createdAt"`
}

// AuthorAnalytics aggregates the view counts of an author's novels
type AuthorAnalytics struct {
	TotalNovels  int         `json:"totalNovels"`
	TotalViews   int64       `json:"totalViews"`
	AverageViews int64       `json:"averageViews"`
	Novels       []NovelStat `json:"novels"`
}

// Create publishes a new novel for userID
func (s *NovelService) Create(userID uuid.UUID, req *CreateNovelRequest) (*models.NovelResponse, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, invalid("title", "Title and description are required")
	}

	genres := normalizeGenres(req.Genres)
	if s.contentConfig.RequireGenres && len(genres) == 0 {
		return nil, invalid("genres", "At least one genre is required")
	}

	novel := &models.Novel{
		Title:       title,
		Description: description,
		CoverImage:  strings.TrimSpace(req.CoverImage),
		AuthorID:    userID,
		Genres:      datatypes.JSONSlice[string](genres),
	}
	if err := s.novelRepo.Create(novel); err != nil {
		return nil, fmt.Errorf("failed to create novel: %w", err)
	}

	return novel.ToResponse(), nil
}

// Get records one view and returns the novel with its chapter listing
func (s *NovelService) Get(ctx context.Context, id uuid.UUID) (*NovelDetail, error) {
	views, err := s.novelRepo.IncrementViews(id)
	if err != nil {
		return nil, err
	}

	novel, err := s.novelRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	chapters, err := s.chapterRepo.ListSummariesByNovelID(id)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.PublishViews(ctx, id, views); err != nil {
			log.Printf("[NovelService] failed to publish views for %s: %v", id, err)
		}
	}

	return &NovelDetail{Novel: novel.ToResponse(), Chapters: chapters}, nil
}

// Update overwrites the title and description
func (s *NovelService) Update(userID, id uuid.UUID, req *UpdateNovelRequest) (*models.NovelResponse, error) {
	novel, err := s.authoredNovel(userID, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, invalid("title", "Title and description are required")
	}

	novel.Title = title
	novel.Description = description
	if err := s.novelRepo.Update(novel); err != nil {
		return nil, fmt.Errorf("failed to update novel: %w", err)
	}

	return novel.ToResponse(), nil
}

// UpdateDetails replaces the cover image and genres when supplied
func (s *NovelService) UpdateDetails(userID, id uuid.UUID, req *UpdateNovelDetailsRequest) (*models.NovelResponse, error) {
	novel, err := s.authoredNovel(userID, id)
	if err != nil {
		return nil, err
	}

	if req.CoverImage != nil {
		novel.CoverImage = strings.TrimSpace(*req.CoverImage)
	}
	if req.Genres != nil {
		genres := normalizeGenres(req.Genres)
		if s.contentConfig.RequireGenres && len(genres) == 0 {
			return nil, invalid("genres", "At least one genre is required")
		}
		novel.Genres = datatypes.JSONSlice[string](genres)
	}

	if err := s.novelRepo.Update(novel); err != nil {
		return nil, fmt.Errorf("failed to update novel: %w", err)
	}

	return novel.ToResponse(), nil
}

// UploadCover stores a new cover image and points the novel at it
func (s *NovelService) UploadCover(ctx context.Context, userID, id uuid.UUID, file *File) (*models.NovelResponse, error) {
	novel, err := s.authoredNovel(userID, id)
	if err != nil {
		return nil, err
	}

	url, err := s.uploads.Upload(ctx, file, keygen.NovelFolder(id), s.uploads.ImagePolicy())
	if err != nil {
		return nil, err
	}

	novel.CoverImage = url
	if err := s.novelRepo.Update(novel); err != nil {
		return nil, fmt.Errorf("failed to update novel: %w", err)
	}

	return novel.ToResponse(), nil
}

// Delete removes the novel together with all of its chapters
func (s *NovelService) Delete(userID, id uuid.UUID) error {
	if _, err := s.authoredNovel(userID, id); err != nil {
		return err
	}

	if err := s.novelRepo.DeleteWithChapters(id); err != nil {
		if errors.Is(err, repository.ErrNovelNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete novel: %w", err)
	}
	return nil
}

// List returns one page of novels, newest first
func (s *NovelService) List(q ListNovelsQuery) (*NovelPage, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	novels, total, err := s.novelRepo.List(repository.NovelFilter{
		AuthorID: q.AuthorID,
		Genre:    strings.TrimSpace(q.Genre),
	}, page, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]models.NovelResponse, len(novels))
	for i := range novels {
		responses[i] = *novels[i].ToResponse()
	}

	return &NovelPage{
		Novels: responses,
		Pagination: Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}

// AuthorAnalytics summarises views across the novels of userID
func (s *NovelService) AuthorAnalytics(userID uuid.UUID) (*AuthorAnalytics, error) {
	novels, err := s.novelRepo.ListByAuthor(userID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range novels {
		total += n.Views
	}

	stats := make([]NovelStat, len(novels))
	for i, n := range novels {
		chapters, err := s.chapterRepo.CountByNovelID(n.ID)
		if err != nil {
			return nil, err
		}
		stats[i] = NovelStat{
			ID:        n.ID,
			Title:     n.Title,
			Views:     n.Views,
			Chapters:  chapters,
			SharePct:  sharePct(n.Views, total),
			CreatedAt: n.CreatedAt.Format("2006-01-02"),
		}
	}

	analytics := &AuthorAnalytics{
		TotalNovels: len(novels),
		TotalViews:  total,
		Novels:      stats,
	}
	if len(novels) > 0 {
		analytics.AverageViews = int64(math.Round(float64(total) / float64(len(novels))))
	}
	return analytics, nil
}

// authoredNovel loads a novel and checks that userID wrote it
func (s *NovelService) authoredNovel(userID, id uuid.UUID) (*models.Novel, error) {
	novel, err := s.novelRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !novel.IsAuthoredBy(userID) {
		return nil, ErrForbidden
	}
	return novel, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func normalizeGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

func sharePct(views, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(views) * 100 / float64(total)))
}
