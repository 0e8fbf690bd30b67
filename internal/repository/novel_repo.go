package repository

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/novelhub/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNovelNotFound = errors.New("novel not found")
)

// NovelFilter narrows a novel listing
type NovelFilter struct {
	AuthorID uuid.UUID
	Genre    string
}

// NovelRepository handles novel data access
type NovelRepository struct {
	db *gorm.DB
}

// NewNovelRepository creates a new NovelRepository
func NewNovelRepository(db *gorm.DB) *NovelRepository {
	return &NovelRepository{db: db}
}

// Create creates a new novel
func (r *NovelRepository) Create(novel *models.Novel) error {
	return r.db.Create(novel).Error
}

// GetByID retrieves a novel by ID together with its author
func (r *NovelRepository) GetByID(id uuid.UUID) (*models.Novel, error) {
	var novel models.Novel
	result := r.db.Preload("Author").Where("id = ?", id).First(&novel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNovelNotFound
		}
		return nil, result.Error
	}
	return &novel, nil
}

// Exists checks whether a novel exists
func (r *NovelRepository) Exists(id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.Novel{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// IncrementViews atomically adds one view and returns the new count
func (r *NovelRepository) IncrementViews(id uuid.UUID) (int64, error) {
	result := r.db.Model(&models.Novel{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrNovelNotFound
	}

	var views int64
	if err := r.db.Model(&models.Novel{}).Where("id = ?", id).Pluck("views", &views).Error; err != nil {
		return 0, err
	}
	return views, nil
}

// List retrieves novels newest first with pagination
func (r *NovelRepository) List(filter NovelFilter, page, pageSize int) ([]models.Novel, int64, error) {
	var novels []models.Novel
	var total int64

	query, err := r.filtered(filter)
	if err != nil {
		return nil, 0, err
	}

	// Count total
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Get paginated results
	offset := (page - 1) * pageSize
	result := query.Preload("Author").
		Order("created_at DESC").
		Order("id").
		Offset(offset).
		Limit(pageSize).
		Find(&novels)

	if result.Error != nil {
		return nil, 0, result.Error
	}

	return novels, total, nil
}

// ListByAuthor retrieves every novel of an author, most viewed first
func (r *NovelRepository) ListByAuthor(authorID uuid.UUID) ([]models.Novel, error) {
	var novels []models.Novel
	result := r.db.Where("author_id = ?", authorID).
		Order("views DESC").
		Order("created_at DESC").
		Find(&novels)
	return novels, result.Error
}

func (r *NovelRepository) filtered(filter NovelFilter) (*gorm.DB, error) {
	query := r.db.Model(&models.Novel{})
	if filter.AuthorID != uuid.Nil {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if filter.Genre != "" {
		switch r.db.Dialector.Name() {
		case "postgres":
			needle, err := json.Marshal([]string{filter.Genre})
			if err != nil {
				return nil, err
			}
			query = query.Where("genres::jsonb @> ?::jsonb", string(needle))
		default:
			query = query.Where("EXISTS (SELECT 1 FROM json_each(CAST(novels.genres AS TEXT)) WHERE json_each.value = ?)", filter.Genre)
		}
	}
	return query, nil
}

// Update writes the editable fields of an existing novel
func (r *NovelRepository) Update(novel *models.Novel) error {
	result := r.db.Model(novel).
		Where("id = ?", novel.ID).
		Select("title", "description", "cover_image", "genres", "updated_at").
		Updates(novel)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNovelNotFound
	}
	return nil
}

// DeleteWithChapters removes the novel and all of its chapters in one transaction
func (r *NovelRepository) DeleteWithChapters(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("novel_id = ?", id).Delete(&models.Chapter{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Novel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNovelNotFound
		}
		return nil
	})
}
