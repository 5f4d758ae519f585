package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docanalyst/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// ListByUserID returns the user's documents without their text and chunks.
func (r *DocumentRepository) ListByUserID(ctx context.Context, userID uint) ([]model.Document, error) {
	var list []model.Document
	err := r.db.WithContext(ctx).
		Omit("content", "chunks").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

func (r *DocumentRepository) GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// DeleteByIDAndUserID removes the document and its exchanges in one transaction.
// It reports whether a document was deleted.
func (r *DocumentRepository) DeleteByIDAndUserID(ctx context.Context, id, userID uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ? AND user_id = ?", id, userID).Delete(&model.Exchange{}).Error; err != nil {
			return fmt.Errorf("delete document exchanges failed: %w", err)
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Document{})
		if res.Error != nil {
			return fmt.Errorf("delete document failed: %w", res.Error)
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
