// Package services – FarmerService
//
// This file aggregates the full on-chain status of a producer and owns
// reputation updates. A reputation update captures the previous score, sends
// the contract transaction, and emits a reputation_updated event so matching
// automatic payment rules fire.
package services

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/agritrust/go-agritrust-backend/internal/chain"
	"github.com/agritrust/go-agritrust-backend/internal/domain"
)

// FarmerContract is the full reputation contract surface FarmerService uses.
type FarmerContract interface {
	FarmerReader
	Documents(ctx context.Context, addr common.Address) ([]chain.DocumentRecord, error)
	Verifications(ctx context.Context, addr common.Address) ([]chain.VerificationRecord, error)
	Certifications(ctx context.Context, addr common.Address) ([]string, error)
	RegisterFarmer(ctx context.Context, farmer common.Address, farmerID string) (string, error)
	UpdateReputation(ctx context.Context, farmer common.Address, score int) (string, error)
}

// FarmerStatus is the aggregated on-chain state of a producer.
type FarmerStatus struct {
	Address             string                     `json:"address"`
	FarmerID            string                     `json:"farmerId,omitempty"`
	IsRegistered        bool                       `json:"isRegistered"`
	ReputationScore     int64                      `json:"reputationScore"`
	TotalVerifications  int64                      `json:"totalVerifications"`
	ValidCertifications int64                      `json:"validCertifications"`
	RegistrationDate    *time.Time                 `json:"registrationDate,omitempty"`
	Documents           []chain.DocumentRecord     `json:"documents"`
	Verifications       []chain.VerificationRecord `json:"verifications"`
	Certifications      []string                   `json:"certifications"`
	LastUpdate          time.Time                  `json:"lastUpdate"`
}

// ReputationChange reports a completed reputation update.
type ReputationChange struct {
	FarmerAddress string       `json:"farmerAddress"`
	OldScore      int64        `json:"oldScore"`
	NewScore      int          `json:"newScore"`
	TxHash        string       `json:"txHash"`
	Status        string       `json:"status"`
	RuleResults   []RuleResult `json:"ruleResults,omitempty"`
}

// FarmerService owns producer status and reputation operations.
type FarmerService struct {
	// Contract is the reputation contract; nil when not bound.
	Contract FarmerContract
	// Events receives reputation_updated events for rule matching.
	Events EventSink
}

// NewFarmerService constructs a FarmerService.
func NewFarmerService(contract FarmerContract, events EventSink) *FarmerService {
	return &FarmerService{Contract: contract, Events: events}
}

// Status aggregates the producer's full on-chain state. An unregistered
// producer yields a zeroed status, not an error.
func (s *FarmerService) Status(ctx context.Context, address string) (*FarmerStatus, error) {
	if !common.IsHexAddress(address) {
		return nil, ErrInvalidAddress
	}
	if s.Contract == nil {
		return nil, ErrContractNotConfigured
	}

	addr := common.HexToAddress(address)
	status := &FarmerStatus{
		Address:        address,
		Documents:      []chain.DocumentRecord{},
		Verifications:  []chain.VerificationRecord{},
		Certifications: []string{},
		LastUpdate:     time.Now().UTC(),
	}

	info, err := s.Contract.FarmerInfo(ctx, addr)
	if err != nil {
		return nil, err
	}
	status.FarmerID = info.FarmerID
	status.IsRegistered = info.IsRegistered
	status.ReputationScore = info.ReputationScore
	status.TotalVerifications = info.Verifications
	status.ValidCertifications = info.Certifications
	if !info.RegistrationDate.IsZero() {
		d := info.RegistrationDate
		status.RegistrationDate = &d
	}
	if !info.IsRegistered {
		return status, nil
	}

	if docs, err := s.Contract.Documents(ctx, addr); err == nil {
		status.Documents = docs
	}
	if vers, err := s.Contract.Verifications(ctx, addr); err == nil {
		status.Verifications = vers
	}
	if certs, err := s.Contract.Certifications(ctx, addr); err == nil {
		status.Certifications = certs
	}
	return status, nil
}

// Register creates the on-chain farmer record.
func (s *FarmerService) Register(ctx context.Context, address, farmerID string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	if s.Contract == nil {
		return "", ErrContractNotConfigured
	}
	return s.Contract.RegisterFarmer(ctx, common.HexToAddress(address), farmerID)
}

// UpdateReputation sets the producer's score on-chain and feeds the change
// into the automatic payment engine.
func (s *FarmerService) UpdateReputation(ctx context.Context, address string, newScore int) (*ReputationChange, error) {
	if !common.IsHexAddress(address) {
		return nil, ErrInvalidAddress
	}
	if newScore < 0 || newScore > 100 {
		return nil, ErrInvalidScore
	}
	if s.Contract == nil {
		return nil, ErrContractNotConfigured
	}

	addr := common.HexToAddress(address)
	var oldScore int64
	if info, err := s.Contract.FarmerInfo(ctx, addr); err != nil {
		log.Warn().Err(err).Str("farmer", address).Msg("reading current score failed")
	} else {
		oldScore = info.ReputationScore
	}

	txHash, err := s.Contract.UpdateReputation(ctx, addr, newScore)
	if err != nil {
		return nil, err
	}

	change := &ReputationChange{
		FarmerAddress: address,
		OldScore:      oldScore,
		NewScore:      newScore,
		TxHash:        txHash,
		Status:        "confirmed",
	}
	if s.Events != nil {
		score := float64(newScore)
		change.RuleResults = s.Events.ProcessEvent(ctx, domain.EventReputationUpdated, EventData{
			FarmerAddress:   address,
			ReputationScore: &score,
		})
	}
	return change, nil
}
