package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Chapter belongs to exactly one novel
type Chapter struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	NovelID       uuid.UUID                   `gorm:"type:uuid;index:idx_chapter_novel_number;not null" json:"novelId"`
	Title         string                      `gorm:"size:255;not null" json:"title"`
	Content       string                      `gorm:"type:text;not null" json:"content"`
	ChapterNumber int                         `gorm:"index:idx_chapter_novel_number;not null" json:"chapterNumber"`
	Images        datatypes.JSONSlice[string] `json:"images"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

// TableName specifies the table name for Chapter model
func (Chapter) TableName() string {
	return "chapters"
}

// BeforeCreate assigns a fresh identifier
func (c *Chapter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Images == nil {
		c.Images = datatypes.JSONSlice[string]{}
	}
	return nil
}

// ChapterSummary is the listing projection shown on a novel's detail page
type ChapterSummary struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	ChapterNumber int       `json:"chapterNumber"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Navigation points at the neighbouring chapters in reading order
type Navigation struct {
	PrevChapterID *uuid.UUID `json:"prevChapterId"`
	NextChapterID *uuid.UUID `json:"nextChapterId"`
}
