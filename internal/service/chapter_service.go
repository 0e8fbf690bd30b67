package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/novelhub/internal/models"
	"github.com/novelhub/internal/repository"
	"github.com/novelhub/pkg/keygen"
	"gorm.io/datatypes"
)

// ChapterService handles chapter operations
type ChapterService struct {
	novelRepo   *repository.NovelRepository
	chapterRepo *repository.ChapterRepository
	uploads     *UploadService
}

// NewChapterService creates a new ChapterService
func NewChapterService(
	novelRepo *repository.NovelRepository,
	chapterRepo *repository.ChapterRepository,
	uploads *UploadService,
) *ChapterService {
	return &ChapterService{
		novelRepo:   novelRepo,
		chapterRepo: chapterRepo,
		uploads:     uploads,
	}
}

// ChapterInput carries the editable chapter fields. Images are uploaded
// and appended after KeepImages, which only applies to updates.
type ChapterInput struct {
	Title         string
	Content       string
	ChapterNumber int
	KeepImages    []string
	Images        []*File
}

// ChapterDetail is a chapter with links to its neighbours
type ChapterDetail struct {
	Chapter    *models.Chapter   `json:"chapter"`
	Navigation models.Navigation `json:"navigation"`
}

// Create adds a chapter to a novel owned by userID
func (s *ChapterService) Create(ctx context.Context, userID, novelID uuid.UUID, in *ChapterInput) (*models.Chapter, error) {
	if err := s.checkAuthor(userID, novelID); err != nil {
		return nil, err
	}
	if err := validateChapter(in); err != nil {
		return nil, err
	}

	urls, err := s.uploads.UploadAll(ctx, in.Images, keygen.NovelFolder(novelID), s.uploads.ImagePolicy())
	if err != nil {
		return nil, err
	}

	chapter := &models.Chapter{
		NovelID:       novelID,
		Title:         strings.TrimSpace(in.Title),
		Content:       in.Content,
		ChapterNumber: in.ChapterNumber,
		Images:        datatypes.JSONSlice[string](urls),
	}
	if err := s.chapterRepo.Create(chapter); err != nil {
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}

	return chapter, nil
}

// List returns every chapter of a novel in reading order
func (s *ChapterService) List(novelID uuid.UUID) ([]models.Chapter, error) {
	if err := s.checkNovel(novelID); err != nil {
		return nil, err
	}

	chapters, err := s.chapterRepo.ListByNovelID(novelID)
	if err != nil {
		return nil, err
	}
	if chapters == nil {
		chapters = []models.Chapter{}
	}
	return chapters, nil
}

// Get returns a chapter and the ids of the chapters before and after it
func (s *ChapterService) Get(novelID, chapterID uuid.UUID) (*ChapterDetail, error) {
	if err := s.checkNovel(novelID); err != nil {
		return nil, err
	}

	chapter, err := s.chapterRepo.GetByIDAndNovelID(chapterID, novelID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.chapterRepo.ListSummariesByNovelID(novelID)
	if err != nil {
		return nil, err
	}

	return &ChapterDetail{
		Chapter:    chapter,
		Navigation: navigationFor(summaries, chapterID),
	}, nil
}

// Update replaces a chapter's fields. The stored images become
// KeepImages followed by the newly uploaded images.
func (s *ChapterService) Update(ctx context.Context, userID, novelID, chapterID uuid.UUID, in *ChapterInput) (*models.Chapter, error) {
	if err := s.checkAuthor(userID, novelID); err != nil {
		return nil, err
	}

	chapter, err := s.chapterRepo.GetByIDAndNovelID(chapterID, novelID)
	if err != nil {
		return nil, err
	}
	if err := validateChapter(in); err != nil {
		return nil, err
	}

	urls, err := s.uploads.UploadAll(ctx, in.Images, keygen.NovelFolder(novelID), s.uploads.ImagePolicy())
	if err != nil {
		return nil, err
	}

	images := make([]string, 0, len(in.KeepImages)+len(urls))
	for _, img := range in.KeepImages {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	images = append(images, urls...)

	chapter.Title = strings.TrimSpace(in.Title)
	chapter.Content = in.Content
	chapter.ChapterNumber = in.ChapterNumber
	chapter.Images = datatypes.JSONSlice[string](images)
	if err := s.chapterRepo.Update(chapter); err != nil {
		return nil, fmt.Errorf("failed to update chapter: %w", err)
	}

	return chapter, nil
}

// Delete removes a chapter from a novel owned by userID
func (s *ChapterService) Delete(userID, novelID, chapterID uuid.UUID) error {
	if err := s.checkAuthor(userID, novelID); err != nil {
		return err
	}
	return s.chapterRepo.Delete(chapterID, novelID)
}

func (s *ChapterService) checkNovel(novelID uuid.UUID) error {
	exists, err := s.novelRepo.Exists(novelID)
	if err != nil {
		return err
	}
	if !exists {
		return repository.ErrNovelNotFound
	}
	return nil
}

func (s *ChapterService) checkAuthor(userID, novelID uuid.UUID) error {
	novel, err := s.novelRepo.GetByID(novelID)
	if err != nil {
		return err
	}
	if !novel.IsAuthoredBy(userID) {
		return ErrForbidden
	}
	return nil
}

func validateChapter(in *ChapterInput) error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return invalid("title", "Title and content are required")
	}
	if in.ChapterNumber <= 0 {
		return invalid("chapterNumber", "Chapter number must be a positive integer")
	}
	return nil
}

// navigationFor links to the adjacent entries of the sorted listing
func navigationFor(summaries []models.ChapterSummary, chapterID uuid.UUID) models.Navigation {
	var nav models.Navigation
	for i := range summaries {
		if summaries[i].ID != chapterID {
			continue
		}
		if i > 0 {
			prev := summaries[i-1].ID
			nav.PrevChapterID = &prev
		}
		if i < len(summaries)-1 {
			next := summaries[i+1].ID
			nav.NextChapterID = &next
		}
		break
	}
	return nav
}
