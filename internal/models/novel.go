package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Novel is a published work owned by exactly one author
type Novel struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string                      `gorm:"size:255;not null" json:"title"`
	Description string                      `gorm:"type:text;not null" json:"description"`
	CoverImage  string                      `gorm:"size:512" json:"coverImage,omitempty"`
	AuthorID    uuid.UUID                   `gorm:"type:uuid;index;not null" json:"authorId"`
	Genres      datatypes.JSONSlice[string] `json:"genres"`
	Views       int64                       `gorm:"not null;default:0" json:"views"`
	CreatedAt   time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`

	// Relations
	Author *User `gorm:"foreignKey:AuthorID" json:"-"`
}

// TableName specifies the table name for Novel model
func (Novel) TableName() string {
	return "novels"
}

// BeforeCreate assigns a fresh identifier
func (n *Novel) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Genres == nil {
		n.Genres = datatypes.JSONSlice[string]{}
	}
	return nil
}

// IsAuthoredBy reports whether userID owns the novel
func (n *Novel) IsAuthoredBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && n.AuthorID == userID
}

// AuthorSummary is the author projection embedded in novel listings
type AuthorSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NovelResponse is the reader facing representation of a novel
type NovelResponse struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	CoverImage  string         `json:"coverImage,omitempty"`
	AuthorID    uuid.UUID      `json:"authorId"`
	Author      *AuthorSummary `json:"author,omitempty"`
	Genres      []string       `json:"genres"`
	Views       int64          `json:"views"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ToResponse builds the public representation, including the author name when preloaded
func (n *Novel) ToResponse() *NovelResponse {
	resp := &NovelResponse{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		CoverImage:  n.CoverImage,
		AuthorID:    n.AuthorID,
		Genres:      []string(n.Genres),
		Views:       n.Views,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	if resp.Genres == nil {
		resp.Genres = []string{}
	}
	if n.Author != nil {
		resp.Author = &AuthorSummary{ID: n.Author.ID, Name: n.Author.Name}
	}
	return resp
}
