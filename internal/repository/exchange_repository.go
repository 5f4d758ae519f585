package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"docanalyst/internal/model"
)

type ExchangeRepository struct {
	db *gorm.DB
}

func NewExchangeRepository(db *gorm.DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

func (r *ExchangeRepository) Create(ctx context.Context, exchange *model.Exchange) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(exchange).Error; err != nil {
		return fmt.Errorf("create exchange failed: %w", err)
	}
	return nil
}

func (r *ExchangeRepository) ListByDocumentID(ctx context.Context, userID, documentID uint, limit int) ([]model.Exchange, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var list []model.Exchange
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND user_id = ?", documentID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list exchanges failed: %w", err)
	}
	return list, nil
}
