// Package services – ReportService
//
// This file builds the agricultural trust report from the on-chain farmer
// record, derives the four verification step statuses the dashboard renders,
// and charges the report_generation micropayment (best effort).
package services

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReportStep is one derived verification step of the trust report.
type ReportStep struct {
	Step    int    `json:"step"`
	Status  bool   `json:"status"`
	Details string `json:"details"`
}

// TrustReport is the producer's aggregated trust profile.
type TrustReport struct {
	FarmerAddress       string       `json:"farmerAddress"`
	FarmerID            string       `json:"farmerId,omitempty"`
	ReportID            string       `json:"reportId"`
	GeneratedAt         time.Time    `json:"generatedAt"`
	ReputationScore     int64        `json:"reputationScore"`
	TotalVerifications  int64        `json:"totalVerifications"`
	ValidCertifications int64        `json:"validCertifications"`
	IsRegistered        bool         `json:"isRegistered"`
	VerificationSteps   []ReportStep `json:"verificationSteps"`
	PaymentHash         string       `json:"paymentHash,omitempty"`
}

// ReportService generates trust reports.
type ReportService struct {
	// Farmers reads on-chain farmer records; nil when no contract is bound.
	Farmers FarmerReader
	// Payments charges the report generation fee.
	Payments PaymentExecutor
}

// NewReportService constructs a ReportService.
func NewReportService(farmers FarmerReader, payments PaymentExecutor) *ReportService {
	return &ReportService{Farmers: farmers, Payments: payments}
}

// Generate builds the trust report for a producer. The report fee payment
// is best effort; a failed charge still yields the report.
func (s *ReportService) Generate(ctx context.Context, farmerAddress string) (*TrustReport, error) {
	if !common.IsHexAddress(farmerAddress) {
		return nil, ErrInvalidAddress
	}
	if s.Farmers == nil {
		return nil, ErrContractNotConfigured
	}

	info, err := s.Farmers.FarmerInfo(ctx, common.HexToAddress(farmerAddress))
	if err != nil {
		return nil, err
	}

	report := &TrustReport{
		FarmerAddress:       farmerAddress,
		FarmerID:            info.FarmerID,
		ReportID:            "report_" + uuid.NewString(),
		GeneratedAt:         time.Now().UTC(),
		ReputationScore:     info.ReputationScore,
		TotalVerifications:  info.Verifications,
		ValidCertifications: info.Certifications,
		IsRegistered:        info.IsRegistered,
		VerificationSteps: []ReportStep{
			{Step: 1, Status: info.Verifications > 0, Details: "Identidad verificada"},
			{Step: 2, Status: info.Certifications > 0, Details: "Certificaciones validadas"},
			{Step: 3, Status: info.Verifications >= 2, Details: "Almacén verificado"},
			{Step: 4, Status: info.Verifications >= 3, Details: "Cultivo verificado"},
		},
	}

	if payment, err := s.Payments.ExecutePayment(ctx, farmerAddress, "report_generation", ""); err != nil {
		log.Warn().Err(err).Str("farmer", farmerAddress).Msg("report micropayment failed")
	} else {
		report.PaymentHash = payment.TxHash
	}
	return report, nil
}
