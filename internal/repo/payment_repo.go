package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
)

// CreatePayment inserts a payment record, confirmed or failed.
func CreatePayment(ctx context.Context, db *gorm.DB, p *domain.Payment) error {
	return db.WithContext(ctx).Create(p).Error
}

// ListPaymentsByFarmer returns a page of a farmer's payments, newest first,
// with the total count for pagination.
func ListPaymentsByFarmer(ctx context.Context, db *gorm.DB, farmer string, offset, limit int) ([]domain.Payment, int64, error) {
	var total int64
	q := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("LOWER(farmer_address) = LOWER(?)", farmer)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Payment
	err := q.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

// GetPaymentByTxHash returns the payment recorded for a transaction hash, or
// ErrNotFound. Used to replay idempotent payment requests.
func GetPaymentByTxHash(ctx context.Context, db *gorm.DB, txHash string) (*domain.Payment, error) {
	var p domain.Payment
	err := db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPaymentsByFarmer returns how many confirmed payments a farmer has
// received.
func CountPaymentsByFarmer(ctx context.Context, db *gorm.DB, farmer string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("LOWER(farmer_address) = LOWER(?) AND status = ?", farmer, domain.PaymentConfirmed).
		Count(&n).Error
	return n, err
}
