// Package services – LotService
//
// This file implements the supply-chain lot ledger: HARVEST, SHIPPED, and
// STORAGE events are anchored on the MATE EVVM through its executor contract
// and mirrored into the local database for fast listing.
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritrust/go-agritrust-backend/internal/chain"
	"github.com/agritrust/go-agritrust-backend/internal/domain"
)

// LotExecutor anchors lot events on-chain.
type LotExecutor interface {
	RegisterEvent(ctx context.Context, lotID, eventType string) (*chain.ExecutorReceipt, error)
}

// LotRepo persists lot event rows.
type LotRepo interface {
	CreateLotEvent(ctx context.Context, db *gorm.DB, e *domain.LotEvent) error
	ListLotEvents(ctx context.Context, db *gorm.DB, lotID string) ([]domain.LotEvent, error)
}

// LotService records and lists supply-chain events.
type LotService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the lot event repository used by this service.
	Repo LotRepo
	// Executor anchors events on-chain; nil disables anchoring.
	Executor LotExecutor
}

// NewLotService constructs a LotService.
func NewLotService(db *gorm.DB, r LotRepo, exec LotExecutor) *LotService {
	return &LotService{DB: db, Repo: r, Executor: exec}
}

// RegisterEvent validates and anchors one lot event, then records it
// locally. The on-chain transaction is the source of truth; a failed anchor
// fails the whole operation.
func (s *LotService) RegisterEvent(ctx context.Context, lotID string, eventType domain.LotEventType) (*domain.LotEvent, error) {
	if strings.TrimSpace(lotID) == "" {
		return nil, ErrInvalidLotEvent
	}
	if !domain.ValidLotEvent(eventType) {
		return nil, ErrInvalidLotEvent
	}
	if s.Executor == nil {
		return nil, ErrWalletNotConfigured
	}

	receipt, err := s.Executor.RegisterEvent(ctx, lotID, string(eventType))
	if err != nil {
		return nil, err
	}

	event := &domain.LotEvent{
		ID:          uuid.NewString(),
		LotID:       lotID,
		EventType:   eventType,
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
	}
	if err := s.Repo.CreateLotEvent(ctx, s.DB, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Events returns all recorded events for a lot in submission order.
func (s *LotService) Events(ctx context.Context, lotID string) ([]domain.LotEvent, error) {
	return s.Repo.ListLotEvents(ctx, s.DB, lotID)
}
