package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
)

// CreateLotEvent inserts a supply-chain event for a lot.
func CreateLotEvent(ctx context.Context, db *gorm.DB, e *domain.LotEvent) error {
	return db.WithContext(ctx).Create(e).Error
}

// GetLotEvent returns one recorded event by ID, or ErrNotFound. Used to
// replay idempotent lot event registrations.
func GetLotEvent(ctx context.Context, db *gorm.DB, id string) (*domain.LotEvent, error) {
	var e domain.LotEvent
	err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListLotEvents returns all events for a lot in submission order.
func ListLotEvents(ctx context.Context, db *gorm.DB, lotID string) ([]domain.LotEvent, error) {
	var out []domain.LotEvent
	err := db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}
