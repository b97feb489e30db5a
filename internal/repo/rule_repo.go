package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
)

// RuleStats is an aggregate snapshot over all rules, deleted rows excluded.
type RuleStats struct {
	TotalRules      int64 `json:"totalRules"`
	ActiveRules     int64 `json:"activeRules"`
	TotalExecutions int64 `json:"totalExecutions"`
}

// CreateRule inserts a new automatic payment rule.
func CreateRule(ctx context.Context, db *gorm.DB, r *domain.AutoPayRule) error {
	return db.WithContext(ctx).Create(r).Error
}

// GetRule returns a rule by ID or ErrNotFound.
func GetRule(ctx context.Context, db *gorm.DB, id string) (*domain.AutoPayRule, error) {
	var r domain.AutoPayRule
	if err := db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateRuleFields applies a partial update to a rule and returns the fresh
// row. Returns ErrNotFound when the rule does not exist.
func UpdateRuleFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) (*domain.AutoPayRule, error) {
	if len(fields) > 0 {
		res := db.WithContext(ctx).
			Model(&domain.AutoPayRule{}).
			Where("id = ?", id).
			Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return GetRule(ctx, db, id)
}

// DeleteRule soft-deletes a rule. The bool reports whether a row was removed,
// so callers can distinguish "deleted" from "was already gone".
func DeleteRule(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).Delete(&domain.AutoPayRule{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListRules returns all rules ordered by creation time.
func ListRules(ctx context.Context, db *gorm.DB) ([]domain.AutoPayRule, error) {
	var out []domain.AutoPayRule
	err := db.WithContext(ctx).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// ListRulesByFarmer returns all rules whose farmer address matches,
// case-insensitively. Hex addresses arrive in mixed checksum casing.
func ListRulesByFarmer(ctx context.Context, db *gorm.DB, farmer string) ([]domain.AutoPayRule, error) {
	var out []domain.AutoPayRule
	err := db.WithContext(ctx).
		Where("LOWER(farmer_address) = LOWER(?)", farmer).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// ListActiveRules returns all enabled rules.
func ListActiveRules(ctx context.Context, db *gorm.DB) ([]domain.AutoPayRule, error) {
	var out []domain.AutoPayRule
	err := db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// MarkExecuted records one successful execution for a rule: bumps the
// counter and stamps last_executed.
func MarkExecuted(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.AutoPayRule{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"execution_count": gorm.Expr("execution_count + 1"),
			"last_executed":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRuleStats aggregates rule counts and cumulative executions.
func GetRuleStats(ctx context.Context, db *gorm.DB) (RuleStats, error) {
	var s RuleStats
	if err := db.WithContext(ctx).
		Model(&domain.AutoPayRule{}).
		Count(&s.TotalRules).Error; err != nil {
		return s, err
	}
	if err := db.WithContext(ctx).
		Model(&domain.AutoPayRule{}).
		Where("enabled = ?", true).
		Count(&s.ActiveRules).Error; err != nil {
		return s, err
	}
	var total *int64
	if err := db.WithContext(ctx).
		Model(&domain.AutoPayRule{}).
		Select("SUM(execution_count)").
		Scan(&total).Error; err != nil {
		return s, err
	}
	if total != nil {
		s.TotalExecutions = *total
	}
	return s, nil
}
