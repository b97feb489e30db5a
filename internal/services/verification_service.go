// Package services – VerificationService
//
// This file implements the four-step validation pipeline: identity,
// certifications, warehouse, crop. Each step runs an LLM analysis over the
// supplied document text, logs the verdict into the reputation contract, and
// rewards the producer with a verification micropayment. Chain and payment
// failures are per-step and best effort; the pipeline always completes and
// reports every step it ran.
package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agritrust/go-agritrust-backend/internal/chain"
	"github.com/agritrust/go-agritrust-backend/internal/domain"
	"github.com/agritrust/go-agritrust-backend/internal/llm"
)

// FarmerReader reads the on-chain farmer record.
type FarmerReader interface {
	FarmerInfo(ctx context.Context, addr common.Address) (*chain.FarmerInfo, error)
}

// VerificationLogger records pipeline verdicts into the reputation contract.
type VerificationLogger interface {
	LogVerification(ctx context.Context, farmer common.Address, step int, status bool, details string) (string, error)
}

// EventSink receives domain events for automatic payment rule matching.
type EventSink interface {
	ProcessEvent(ctx context.Context, eventType domain.EventType, data EventData) []RuleResult
}

// VerificationTicket acknowledges a queued verification request.
type VerificationTicket struct {
	VerificationID    string   `json:"verificationId"`
	FarmerAddress     string   `json:"farmerAddress"`
	FarmerID          string   `json:"farmerId"`
	CurrentReputation int64    `json:"currentReputation"`
	DocumentHashes    []string `json:"documentHashes"`
	Status            string   `json:"status"`
	Message           string   `json:"message"`
	EstimatedTime     string   `json:"estimatedTime"`
}

// ValidationDocs carries the document text for each pipeline step. Empty
// fields skip their step.
type ValidationDocs struct {
	Identity       string   `json:"identity,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
	Warehouse      string   `json:"warehouse,omitempty"`
	Crop           string   `json:"crop,omitempty"`
}

// StepResult reports one executed pipeline step.
type StepResult struct {
	Step        int     `json:"step"`
	Name        string  `json:"name"`
	Status      bool    `json:"status"`
	Confidence  float64 `json:"confidence"`
	Details     string  `json:"details,omitempty"`
	TxHash      string  `json:"txHash,omitempty"`
	PaymentHash string  `json:"paymentHash,omitempty"`
}

// ValidationResult summarizes a full pipeline run.
type ValidationResult struct {
	Success       bool         `json:"success"`
	FarmerAddress string       `json:"farmerAddress"`
	Steps         []StepResult `json:"steps"`
	TotalPayments int          `json:"totalPayments"`
	TotalAmount   string       `json:"totalAmount"`
}

// VerificationService coordinates the validation pipeline.
type VerificationService struct {
	// Farmers reads on-chain farmer records; nil when no contract is bound.
	Farmers FarmerReader
	// Logger records verdicts on-chain; nil when no contract is bound.
	Logger VerificationLogger
	// Analyzer produces document verdicts.
	Analyzer llm.Analyzer
	// Payments executes step micropayments.
	Payments PaymentExecutor
	// Events receives verification_completed events for rule matching.
	Events EventSink
}

// NewVerificationService constructs a VerificationService. Chain
// collaborators may be nil.
func NewVerificationService(farmers FarmerReader, logger VerificationLogger, analyzer llm.Analyzer, payments PaymentExecutor, events EventSink) *VerificationService {
	return &VerificationService{
		Farmers:  farmers,
		Logger:   logger,
		Analyzer: analyzer,
		Payments: payments,
		Events:   events,
	}
}

// RequestVerification validates the producer's registration and queues a
// verification request.
func (s *VerificationService) RequestVerification(ctx context.Context, farmerAddress string, documentHashes []string) (*VerificationTicket, error) {
	if !common.IsHexAddress(farmerAddress) {
		return nil, ErrInvalidAddress
	}
	documentHashes = normalizeHashes(documentHashes)
	if len(documentHashes) == 0 {
		return nil, ErrNoFiles
	}
	if s.Farmers == nil {
		return nil, ErrContractNotConfigured
	}
	info, err := s.Farmers.FarmerInfo(ctx, common.HexToAddress(farmerAddress))
	if err != nil {
		return nil, err
	}
	if !info.IsRegistered {
		return nil, ErrFarmerNotRegistered
	}

	return &VerificationTicket{
		VerificationID:    fmt.Sprintf("verification_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8]),
		FarmerAddress:     farmerAddress,
		FarmerID:          info.FarmerID,
		CurrentReputation: info.ReputationScore,
		DocumentHashes:    documentHashes,
		Status:            "queued",
		Message:           "Verificación en cola. El agente procesará los documentos.",
		EstimatedTime:     "2-5 minutos",
	}, nil
}

// RunValidation executes the pipeline steps for which document text was
// supplied. It never fails once the address is accepted; each step carries
// its own outcome.
func (s *VerificationService) RunValidation(ctx context.Context, farmerAddress string, docs ValidationDocs) (*ValidationResult, error) {
	if !common.IsHexAddress(farmerAddress) {
		return nil, ErrInvalidAddress
	}

	result := &ValidationResult{FarmerAddress: farmerAddress}
	totalWei := new(big.Int)

	if docs.Identity != "" {
		step := s.runStep(ctx, farmerAddress, 1, "Validación de Identidad", docs.Identity, "identity", "verification_step", totalWei, result)
		result.Steps = append(result.Steps, step)
	}
	if len(docs.Certifications) > 0 {
		step := s.runCertifications(ctx, farmerAddress, docs.Certifications, totalWei, result)
		result.Steps = append(result.Steps, step)
	}
	if docs.Warehouse != "" {
		step := s.runStep(ctx, farmerAddress, 3, "Validación de Almacén", docs.Warehouse, "warehouse", "verification_step", totalWei, result)
		result.Steps = append(result.Steps, step)
	}
	if docs.Crop != "" {
		step := s.runStep(ctx, farmerAddress, 4, "Validación de Cultivo", docs.Crop, "crop", "verification_step", totalWei, result)
		result.Steps = append(result.Steps, step)
	}

	result.Success = len(result.Steps) > 0
	result.TotalAmount = chain.FormatMATIC(totalWei)
	return result, nil
}

// addMATIC accumulates a decimal MATIC amount onto total.
func addMATIC(total *big.Int, matic string) {
	if wei, err := chain.ParseMATIC(matic); err == nil {
		total.Add(total, wei)
	}
}

// runStep analyzes one document, logs the verdict, pays the step reward,
// and emits a verification_completed event for rule matching.
func (s *VerificationService) runStep(ctx context.Context, farmerAddress string, step int, name, content, docType, action string, totalWei *big.Int, result *ValidationResult) StepResult {
	out := StepResult{Step: step, Name: name}

	analysis, err := s.Analyzer.AnalyzeDocument(ctx, content, docType)
	if err != nil {
		out.Details = err.Error()
		return out
	}
	out.Status = analysis.IsValid
	out.Confidence = float64(analysis.Confidence)
	out.Details = analysis.Details

	addr := common.HexToAddress(farmerAddress)
	if s.Logger != nil {
		if txHash, err := s.Logger.LogVerification(ctx, addr, step, analysis.IsValid, analysis.Details); err != nil {
			log.Warn().Err(err).Int("step", step).Msg("verification log failed")
		} else {
			out.TxHash = txHash
		}
	}

	if payment, err := s.Payments.ExecutePayment(ctx, farmerAddress, action, ""); err != nil {
		log.Warn().Err(err).Int("step", step).Msg("verification micropayment failed")
	} else {
		out.PaymentHash = payment.TxHash
		result.TotalPayments++
		addMATIC(totalWei, payment.Amount)
	}

	if s.Events != nil {
		stepCopy := step
		s.Events.ProcessEvent(ctx, domain.EventVerificationCompleted, EventData{
			FarmerAddress:    farmerAddress,
			VerificationStep: &stepCopy,
		})
	}
	return out
}

// runCertifications analyzes each certification document; the step passes
// when any certification is valid.
func (s *VerificationService) runCertifications(ctx context.Context, farmerAddress string, certDocs []string, totalWei *big.Int, result *ValidationResult) StepResult {
	out := StepResult{Step: 2, Name: "Validación de Certificaciones"}

	var valid int
	var confidenceSum float64
	for _, content := range certDocs {
		analysis, err := s.Analyzer.AnalyzeDocument(ctx, content, "certification")
		if err != nil {
			continue
		}
		if analysis.IsValid {
			valid++
		}
		confidenceSum += float64(analysis.Confidence)
	}
	out.Status = valid > 0
	out.Confidence = confidenceSum / float64(len(certDocs))
	out.Details = fmt.Sprintf("Validadas %d certificaciones", len(certDocs))

	addr := common.HexToAddress(farmerAddress)
	if s.Logger != nil {
		if txHash, err := s.Logger.LogVerification(ctx, addr, 2, out.Status, out.Details); err != nil {
			log.Warn().Err(err).Int("step", 2).Msg("verification log failed")
		} else {
			out.TxHash = txHash
		}
	}

	if payment, err := s.Payments.ExecutePayment(ctx, farmerAddress, "certification_check", ""); err != nil {
		log.Warn().Err(err).Int("step", 2).Msg("certification micropayment failed")
	} else {
		out.PaymentHash = payment.TxHash
		result.TotalPayments++
		addMATIC(totalWei, payment.Amount)
	}

	if s.Events != nil {
		step := 2
		s.Events.ProcessEvent(ctx, domain.EventVerificationCompleted, EventData{
			FarmerAddress:    farmerAddress,
			VerificationStep: &step,
		})
		if out.Status {
			s.Events.ProcessEvent(ctx, domain.EventCertificationAdded, EventData{
				FarmerAddress: farmerAddress,
			})
		}
	}
	return out
}

// normalizeHashes trims and drops empty entries from a hash list.
func normalizeHashes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, h := range in {
		if t := strings.TrimSpace(h); t != "" {
			out = append(out, t)
		}
	}
	return out
}
