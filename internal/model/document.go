package model

import (
	"time"

	"docanalyst/internal/pipeline"
)

// Document is an ingested file with its extracted text. Chunks are stored
// inline and concatenate back to Content.
type Document struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Title     string           `gorm:"size:256;not null" json:"title"`
	FileName  string           `gorm:"size:256;not null" json:"file_name"`
	Content   string           `gorm:"type:longtext;not null" json:"-"`
	Chunks    []pipeline.Chunk `gorm:"type:json;serializer:json" json:"-"`
	Metadata  map[string]any   `gorm:"type:json;serializer:json" json:"metadata"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
