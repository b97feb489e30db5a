// Package services – PaymentService
//
// This file implements the x402 micropayment executor. A payment is a plain
// MATIC transfer from the backend wallet to the producer; confirmed transfers
// are mirrored into the reputation contract (best effort) and recorded in the
// local payment history either way.
package services

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/agritrust/go-agritrust-backend/internal/chain"
	"github.com/agritrust/go-agritrust-backend/internal/domain"
)

// Default payment rates in MATIC per action.
var defaultRates = map[string]string{
	"document_validation": "0.001",
	"certification_check": "0.002",
	"verification_step":   "0.0005",
	"report_generation":   "0.003",
}

const fallbackRate = "0.001"

// PaymentChain is the blockchain surface PaymentService depends on.
type PaymentChain interface {
	IsConfigured() bool
	WalletAddress() string
	WalletBalance(ctx context.Context) (*big.Int, error)
	SendValue(ctx context.Context, to common.Address, amount *big.Int) (string, error)
}

// PaymentRecorder mirrors confirmed payments into the reputation contract.
type PaymentRecorder interface {
	LogPayment(ctx context.Context, farmer common.Address, amountWei *big.Int, action string) (string, error)
}

// PaymentRepo persists payment history rows.
type PaymentRepo interface {
	CreatePayment(ctx context.Context, db *gorm.DB, p *domain.Payment) error
	ListPaymentsByFarmer(ctx context.Context, db *gorm.DB, farmer string, offset, limit int) ([]domain.Payment, int64, error)
}

// PaymentResult is the executor's report of one transfer.
type PaymentResult struct {
	TxHash        string `json:"txHash"`
	Amount        string `json:"amount"`
	Action        string `json:"action"`
	FarmerAddress string `json:"farmerAddress"`
	Status        string `json:"status"`
}

// BatchItem is one entry of a batch payment request.
type BatchItem struct {
	FarmerAddress string `json:"farmerAddress"`
	Action        string `json:"action"`
	Amount        string `json:"amount,omitempty"`
}

// BatchResult pairs a batch item with its outcome.
type BatchResult struct {
	FarmerAddress string `json:"farmerAddress"`
	Action        string `json:"action"`
	Executed      bool   `json:"executed"`
	TxHash        string `json:"txHash,omitempty"`
	Error         string `json:"error,omitempty"`
}

// PaymentService executes micropayments and keeps their history. It
// implements the PaymentExecutor contract used by AutoPayService.
type PaymentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the payment repository used by this service.
	Repo PaymentRepo
	// Chain is the signing RPC connection.
	Chain PaymentChain
	// Recorder mirrors payments on-chain; nil when no contract is bound.
	Recorder PaymentRecorder
}

// NewPaymentService constructs a PaymentService. recorder may be nil.
func NewPaymentService(db *gorm.DB, r PaymentRepo, c PaymentChain, recorder PaymentRecorder) *PaymentService {
	return &PaymentService{DB: db, Repo: r, Chain: c, Recorder: recorder}
}

// IsConfigured reports whether the service can move value.
func (s *PaymentService) IsConfigured() bool { return s.Chain.IsConfigured() }

// WalletAddress returns the paying wallet's address.
func (s *PaymentService) WalletAddress() string { return s.Chain.WalletAddress() }

// Rates returns the default per-action payment rates in MATIC.
func (s *PaymentService) Rates() map[string]string {
	out := make(map[string]string, len(defaultRates))
	for k, v := range defaultRates {
		out[k] = v
	}
	return out
}

// Balance returns the paying wallet's balance as a decimal MATIC string.
func (s *PaymentService) Balance(ctx context.Context) (string, error) {
	if !s.Chain.IsConfigured() {
		return "", ErrWalletNotConfigured
	}
	wei, err := s.Chain.WalletBalance(ctx)
	if err != nil {
		return "", err
	}
	return chain.FormatMATIC(wei), nil
}

// resolveAmount picks the override when present, otherwise the default rate
// for the action.
func resolveAmount(action, override string) (string, *big.Int, error) {
	amt := strings.TrimSpace(override)
	if amt == "" {
		amt = defaultRates[action]
		if amt == "" {
			amt = fallbackRate
		}
	}
	wei, err := chain.ParseMATIC(amt)
	if err != nil {
		return "", nil, ErrInvalidAmount
	}
	return amt, wei, nil
}

// ExecutePayment transfers the resolved amount to the producer and records
// the outcome. An empty amount selects the default rate for the action.
func (s *PaymentService) ExecutePayment(ctx context.Context, farmerAddress, action, amount string) (*PaymentResult, error) {
	if !common.IsHexAddress(farmerAddress) {
		return nil, ErrInvalidAddress
	}
	if strings.TrimSpace(action) == "" {
		return nil, ErrInvalidAction
	}
	if !s.Chain.IsConfigured() {
		return nil, ErrWalletNotConfigured
	}

	matic, wei, err := resolveAmount(action, amount)
	if err != nil {
		return nil, err
	}

	balance, err := s.Chain.WalletBalance(ctx)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(wei) < 0 {
		return nil, ErrInsufficientFunds
	}

	to := common.HexToAddress(farmerAddress)
	txHash, err := s.Chain.SendValue(ctx, to, wei)
	if err != nil {
		s.record(ctx, farmerAddress, action, matic, wei, txHash, domain.PaymentFailed)
		return nil, err
	}

	if s.Recorder != nil {
		if _, rerr := s.Recorder.LogPayment(ctx, to, wei, action); rerr != nil {
			log.Warn().Err(rerr).
				Str("farmer", farmerAddress).
				Str("action", action).
				Msg("payment confirmed but on-chain log failed")
		}
	}

	s.record(ctx, farmerAddress, action, matic, wei, txHash, domain.PaymentConfirmed)
	return &PaymentResult{
		TxHash:        txHash,
		Amount:        matic,
		Action:        action,
		FarmerAddress: farmerAddress,
		Status:        domain.PaymentConfirmed,
	}, nil
}

// ExecuteBatch runs each item independently; one failure does not stop the
// rest.
func (s *PaymentService) ExecuteBatch(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, 0, len(items))
	for _, item := range items {
		res := BatchResult{FarmerAddress: item.FarmerAddress, Action: item.Action}
		payment, err := s.ExecutePayment(ctx, item.FarmerAddress, item.Action, item.Amount)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Executed = true
			res.TxHash = payment.TxHash
		}
		results = append(results, res)
	}
	return results
}

// History returns a page of a producer's payments, newest first.
func (s *PaymentService) History(ctx context.Context, farmer string, offset, limit int) ([]domain.Payment, int64, error) {
	return s.Repo.ListPaymentsByFarmer(ctx, s.DB, farmer, offset, limit)
}

// record persists a payment row; persistence failures are logged, not
// propagated, because the transfer itself already settled.
func (s *PaymentService) record(ctx context.Context, farmer, action, matic string, wei *big.Int, txHash, status string) {
	p := &domain.Payment{
		ID:            uuid.NewString(),
		FarmerAddress: farmer,
		Action:        action,
		AmountWei:     wei.String(),
		Amount:        matic,
		TxHash:        txHash,
		Status:        status,
	}
	if err := s.Repo.CreatePayment(ctx, s.DB, p); err != nil {
		log.Error().Err(err).Str("farmer", farmer).Msg("recording payment failed")
	}
}
