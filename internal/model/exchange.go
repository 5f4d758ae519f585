package model

import "time"

// Exchange is one recorded question against a document. A nil Answer marks a
// failed analysis kept for audit.
type Exchange struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	DocumentID      uint      `gorm:"not null;index" json:"document_id"`
	Question        string    `gorm:"type:text;not null" json:"question"`
	Answer          *string   `gorm:"type:text" json:"answer"`
	Evidence        []string  `gorm:"type:json;serializer:json" json:"evidence"`
	ConfidenceScore *int      `json:"confidence_score"`
	Reasoning       *string   `gorm:"type:text" json:"reasoning"`
	Outcome         string    `gorm:"size:16;not null" json:"outcome"`
	CreatedAt       time.Time `json:"created_at"`

	Document Document `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}
