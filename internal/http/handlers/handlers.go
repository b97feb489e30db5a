// Handler wiring and service contracts.
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses. Each service contract
// below names exactly the surface the HTTP layer consumes, so tests can
// substitute fakes without touching the real services.
package handlers

import (
	"context"
	"time"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
	"github.com/agritrust/go-agritrust-backend/internal/repo"
	"github.com/agritrust/go-agritrust-backend/internal/services"
)

// AutoPayService defines rule management and event processing operations.
type AutoPayService interface {
	CreateRule(ctx context.Context, spec services.RuleSpec) (*domain.AutoPayRule, error)
	UpdateRule(ctx context.Context, id string, upd services.RuleUpdate) (*domain.AutoPayRule, error)
	DeleteRule(ctx context.Context, id string) (bool, error)
	Rules(ctx context.Context) ([]domain.AutoPayRule, error)
	RulesForFarmer(ctx context.Context, farmer string) ([]domain.AutoPayRule, error)
	Stats(ctx context.Context) (repo.RuleStats, error)
	ProcessEvent(ctx context.Context, eventType domain.EventType, data services.EventData) []services.RuleResult
}

// PaymentService defines micropayment execution and history operations.
type PaymentService interface {
	ExecutePayment(ctx context.Context, farmerAddress, action, amount string) (*services.PaymentResult, error)
	ExecuteBatch(ctx context.Context, items []services.BatchItem) []services.BatchResult
	History(ctx context.Context, farmer string, offset, limit int) ([]domain.Payment, int64, error)
	Balance(ctx context.Context) (string, error)
	Rates() map[string]string
	WalletAddress() string
	IsConfigured() bool
}

// DocumentService defines document intake and history operations.
type DocumentService interface {
	ProcessUpload(ctx context.Context, farmerAddress, declaredType string, files []services.UploadFile) (*services.UploadReport, error)
	History(ctx context.Context, farmer string, offset, limit int) ([]domain.Document, int64, error)
}

// VerificationService defines verification request and pipeline operations.
type VerificationService interface {
	RequestVerification(ctx context.Context, farmerAddress string, documentHashes []string) (*services.VerificationTicket, error)
	RunValidation(ctx context.Context, farmerAddress string, docs services.ValidationDocs) (*services.ValidationResult, error)
}

// FarmerService defines producer status and reputation operations.
type FarmerService interface {
	Status(ctx context.Context, address string) (*services.FarmerStatus, error)
	Register(ctx context.Context, address, farmerID string) (string, error)
	UpdateReputation(ctx context.Context, address string, newScore int) (*services.ReputationChange, error)
}

// ReportService defines trust report generation.
type ReportService interface {
	Generate(ctx context.Context, farmerAddress string) (*services.TrustReport, error)
}

// WalletService defines agent wallet operations.
type WalletService interface {
	Create(ctx context.Context, agentID string) (*services.WalletInfo, error)
	Address(agentID string) (string, error)
	Balance(ctx context.Context, agentID string) (string, error)
	SignMessage(agentID, message string) (string, error)
	VerifyMessage(message, signature string) (string, error)
	Send(ctx context.Context, agentID, to, valueMATIC, dataHex string) (string, error)
	Context(ctx context.Context, agentID string) (*services.WalletContext, error)
	List() []string
}

// LotService defines supply-chain lot ledger operations.
type LotService interface {
	RegisterEvent(ctx context.Context, lotID string, eventType domain.LotEventType) (*domain.LotEvent, error)
	Events(ctx context.Context, lotID string) ([]domain.LotEvent, error)
}

// Handlers groups the HTTP endpoints of the API. It depends on abstract
// service interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	autopay  AutoPayService
	payments PaymentService
	docs     DocumentService
	verify   VerificationService
	farmers  FarmerService
	reports  ReportService
	wallets  WalletService
	lots     LotService

	maxUploadBytes int64
	idemTTL        time.Duration
}

// New constructs a Handlers instance bound to the given services. idemTTL is
// how long completed mutations stay replayable through the Idempotency-Key
// header; values <= 0 fall back to 24h.
func New(
	autopay AutoPayService,
	payments PaymentService,
	docs DocumentService,
	verify VerificationService,
	farmers FarmerService,
	reports ReportService,
	wallets WalletService,
	lots LotService,
	maxUploadBytes int64,
	idemTTL time.Duration,
) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{
		autopay:        autopay,
		payments:       payments,
		docs:           docs,
		verify:         verify,
		farmers:        farmers,
		reports:        reports,
		wallets:        wallets,
		lots:           lots,
		maxUploadBytes: maxUploadBytes,
		idemTTL:        idemTTL,
	}
}
