package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/novelhub/internal/models"
	"gorm.io/gorm"
)

var (
	ErrChapterNotFound = errors.New("chapter not found")
)

// ChapterRepository handles chapter data access
type ChapterRepository struct {
	db *gorm.DB
}

// NewChapterRepository creates a new ChapterRepository
func NewChapterRepository(db *gorm.DB) *ChapterRepository {
	return &ChapterRepository{db: db}
}

// Create creates a new chapter
func (r *ChapterRepository) Create(chapter *models.Chapter) error {
	return r.db.Create(chapter).Error
}

// GetByIDAndNovelID retrieves a chapter only if it belongs to the novel
func (r *ChapterRepository) GetByIDAndNovelID(id, novelID uuid.UUID) (*models.Chapter, error) {
	var chapter models.Chapter
	result := r.db.Where("id = ? AND novel_id = ?", id, novelID).First(&chapter)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChapterNotFound
		}
		return nil, result.Error
	}
	return &chapter, nil
}

// ListByNovelID retrieves the chapters of a novel in reading order
func (r *ChapterRepository) ListByNovelID(novelID uuid.UUID) ([]models.Chapter, error) {
	var chapters []models.Chapter
	result := r.db.Where("novel_id = ?", novelID).
		Order("chapter_number ASC").
		Order("created_at ASC").
		Order("id").
		Find(&chapters)
	return chapters, result.Error
}

// ListSummariesByNovelID retrieves the listing projection in reading order
func (r *ChapterRepository) ListSummariesByNovelID(novelID uuid.UUID) ([]models.ChapterSummary, error) {
	summaries := []models.ChapterSummary{}
	result := r.db.Model(&models.Chapter{}).
		Select("id", "title", "chapter_number", "created_at").
		Where("novel_id = ?", novelID).
		Order("chapter_number ASC").
		Order("created_at ASC").
		Order("id").
		Find(&summaries)
	return summaries, result.Error
}

// CountByNovelID counts the chapters of a novel
func (r *ChapterRepository) CountByNovelID(novelID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.Chapter{}).Where("novel_id = ?", novelID).Count(&count).Error
	return count, err
}

// Update writes the editable fields of an existing chapter
func (r *ChapterRepository) Update(chapter *models.Chapter) error {
	result := r.db.Model(chapter).
		Where("id = ? AND novel_id = ?", chapter.ID, chapter.NovelID).
		Select("title", "content", "chapter_number", "images", "updated_at").
		Updates(chapter)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChapterNotFound
	}
	return nil
}

// Delete removes a chapter of a novel
func (r *ChapterRepository) Delete(id, novelID uuid.UUID) error {
	result := r.db.Where("id = ? AND novel_id = ?", id, novelID).Delete(&models.Chapter{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChapterNotFound
	}
	return nil
}

// DeleteOrphans removes chapters whose novel no longer exists
func (r *ChapterRepository) DeleteOrphans() (int64, error) {
	result := r.db.
		Where("novel_id NOT IN (?)", r.db.Model(&models.Novel{}).Select("id")).
		Delete(&models.Chapter{})
	return result.RowsAffected, result.Error
}
