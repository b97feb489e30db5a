package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
)

// CreateDocument inserts a processed document record.
func CreateDocument(ctx context.Context, db *gorm.DB, d *domain.Document) error {
	return db.WithContext(ctx).Create(d).Error
}

// GetDocument returns a document by ID or ErrNotFound.
func GetDocument(ctx context.Context, db *gorm.DB, id string) (*domain.Document, error) {
	var d domain.Document
	if err := db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDocumentsByFarmer returns a page of a farmer's documents, newest first,
// with the total count for pagination.
func ListDocumentsByFarmer(ctx context.Context, db *gorm.DB, farmer string, offset, limit int) ([]domain.Document, int64, error) {
	var total int64
	q := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("LOWER(farmer_address) = LOWER(?)", farmer)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Document
	err := q.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

// CountDocumentsByFarmer returns how many documents a farmer has uploaded.
func CountDocumentsByFarmer(ctx context.Context, db *gorm.DB, farmer string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("LOWER(farmer_address) = LOWER(?)", farmer).
		Count(&n).Error
	return n, err
}
