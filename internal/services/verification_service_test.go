package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agritrust/go-agritrust-backend/internal/chain"
	"github.com/agritrust/go-agritrust-backend/internal/domain"
	"github.com/agritrust/go-agritrust-backend/internal/llm"
)

// fakeAnalyzer returns a scripted verdict per document content.
type fakeAnalyzer struct {
	verdicts map[string]*llm.Analysis
	err      error
	calls    int
}

func (f *fakeAnalyzer) AnalyzeDocument(_ context.Context, content, docType string) (*llm.Analysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.verdicts[content]; ok {
		return a, nil
	}
	return &llm.Analysis{IsValid: true, Confidence: 90, Details: "ok"}, nil
}

type fakeVerifLogger struct {
	err   error
	steps []int
}

func (f *fakeVerifLogger) LogVerification(_ context.Context, _ common.Address, step int, _ bool, _ string) (string, error) {
	f.steps = append(f.steps, step)
	if f.err != nil {
		return "", f.err
	}
	return "0xlog", nil
}

type fakeStepPayer struct {
	err     error
	actions []string
}

func (f *fakeStepPayer) ExecutePayment(_ context.Context, farmer, action, amount string) (*PaymentResult, error) {
	f.actions = append(f.actions, action)
	if f.err != nil {
		return nil, f.err
	}
	return &PaymentResult{TxHash: "0xpay", Amount: "0.0005", Action: action, FarmerAddress: farmer, Status: domain.PaymentConfirmed}, nil
}

func newVerification(t *testing.T) (*VerificationService, *fakeVerifLogger, *fakeStepPayer, *fakeEventSink) {
	t.Helper()
	logger := &fakeVerifLogger{}
	payer := &fakeStepPayer{}
	sink := &fakeEventSink{}
	farmers := &fakeContract{info: registeredInfo()}
	svc := NewVerificationService(farmers, logger, &fakeAnalyzer{}, payer, sink)
	return svc, logger, payer, sink
}

func TestRequestVerification(t *testing.T) {
	svc, _, _, _ := newVerification(t)
	ctx := context.Background()
	hashes := []string{" h1 ", "", "h2"}

	ticket, err := svc.RequestVerification(ctx, testFarmer, hashes)
	if err != nil {
		t.Fatalf("RequestVerification: %v", err)
	}
	if ticket.Status != "queued" || ticket.FarmerID != "FARM-001" || ticket.CurrentReputation != 55 {
		t.Fatalf("unexpected ticket: %+v", ticket)
	}
	if len(ticket.DocumentHashes) != 2 || ticket.DocumentHashes[0] != "h1" {
		t.Fatalf("hashes not normalized: %v", ticket.DocumentHashes)
	}
	if !strings.HasPrefix(ticket.VerificationID, "verification_") {
		t.Fatalf("unexpected verification id: %s", ticket.VerificationID)
	}
}

func TestRequestVerification_Errors(t *testing.T) {
	ctx := context.Background()

	svc, _, _, _ := newVerification(t)
	if _, err := svc.RequestVerification(ctx, "nope", []string{"h"}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("want ErrInvalidAddress, got %v", err)
	}
	if _, err := svc.RequestVerification(ctx, testFarmer, []string{"  "}); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("want ErrNoFiles, got %v", err)
	}

	noContract := NewVerificationService(nil, nil, &fakeAnalyzer{}, &fakeStepPayer{}, nil)
	if _, err := noContract.RequestVerification(ctx, testFarmer, []string{"h"}); !errors.Is(err, ErrContractNotConfigured) {
		t.Fatalf("want ErrContractNotConfigured, got %v", err)
	}

	unregistered := NewVerificationService(&fakeContract{info: &chain.FarmerInfo{}}, nil, &fakeAnalyzer{}, &fakeStepPayer{}, nil)
	if _, err := unregistered.RequestVerification(ctx, testFarmer, []string{"h"}); !errors.Is(err, ErrFarmerNotRegistered) {
		t.Fatalf("want ErrFarmerNotRegistered, got %v", err)
	}
}

func TestRunValidation_AllSteps(t *testing.T) {
	svc, logger, payer, sink := newVerification(t)

	result, err := svc.RunValidation(context.Background(), testFarmer, ValidationDocs{
		Identity:       "credencial INE",
		Certifications: []string{"certificado orgánico", "otro certificado"},
		Warehouse:      "registro de bodega",
		Crop:           "cultivo de aguacate",
	})
	if err != nil {
		t.Fatalf("RunValidation: %v", err)
	}
	if !result.Success || len(result.Steps) != 4 {
		t.Fatalf("unexpected result: %+v", result)
	}
	for i, step := range result.Steps {
		if step.Step != i+1 {
			t.Fatalf("steps out of order: %+v", result.Steps)
		}
		if !step.Status || step.TxHash != "0xlog" || step.PaymentHash != "0xpay" {
			t.Fatalf("step %d incomplete: %+v", step.Step, step)
		}
	}
	if result.TotalPayments != 4 {
		t.Fatalf("want 4 payments, got %d", result.TotalPayments)
	}
	// Four payments of 0.0005 MATIC each.
	if result.TotalAmount != "0.002" {
		t.Fatalf("want total 0.002, got %s", result.TotalAmount)
	}

	if len(logger.steps) != 4 {
		t.Fatalf("not every verdict was logged: %v", logger.steps)
	}
	wantActions := []string{"verification_step", "certification_check", "verification_step", "verification_step"}
	for i, a := range payer.actions {
		if a != wantActions[i] {
			t.Fatalf("action %d: got %s want %s", i, a, wantActions[i])
		}
	}

	// One verification_completed per step, plus certification_added for the
	// passing certification step.
	var completed, certAdded int
	for _, e := range sink.events {
		switch e {
		case domain.EventVerificationCompleted:
			completed++
		case domain.EventCertificationAdded:
			certAdded++
		}
	}
	if completed != 4 || certAdded != 1 {
		t.Fatalf("unexpected events: %v", sink.events)
	}
}

func TestRunValidation_SkipsStepsWithoutDocs(t *testing.T) {
	svc, _, payer, _ := newVerification(t)

	result, err := svc.RunValidation(context.Background(), testFarmer, ValidationDocs{Crop: "cultivo"})
	if err != nil {
		t.Fatalf("RunValidation: %v", err)
	}
	if len(result.Steps) != 1 || result.Steps[0].Step != 4 {
		t.Fatalf("want only step 4, got %+v", result.Steps)
	}
	if len(payer.actions) != 1 {
		t.Fatalf("want 1 payment, got %v", payer.actions)
	}
}

func TestRunValidation_NoDocs(t *testing.T) {
	svc, _, _, _ := newVerification(t)

	result, err := svc.RunValidation(context.Background(), testFarmer, ValidationDocs{})
	if err != nil {
		t.Fatalf("RunValidation: %v", err)
	}
	if result.Success || len(result.Steps) != 0 {
		t.Fatalf("empty pipeline should not report success: %+v", result)
	}
	if result.TotalAmount != "0" {
		t.Fatalf("want total 0, got %s", result.TotalAmount)
	}
}

func TestRunValidation_InvalidAddress(t *testing.T) {
	svc, _, _, _ := newVerification(t)
	if _, err := svc.RunValidation(context.Background(), "nope", ValidationDocs{Identity: "x"}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("want ErrInvalidAddress, got %v", err)
	}
}

func TestRunValidation_AnalyzerFailureFailsStepOnly(t *testing.T) {
	logger := &fakeVerifLogger{}
	payer := &fakeStepPayer{}
	svc := NewVerificationService(&fakeContract{info: registeredInfo()}, logger,
		&fakeAnalyzer{err: errors.New("llm offline")}, payer, nil)

	result, err := svc.RunValidation(context.Background(), testFarmer, ValidationDocs{Identity: "x"})
	if err != nil {
		t.Fatalf("analyzer failure must not fail the run: %v", err)
	}
	step := result.Steps[0]
	if step.Status || step.Details != "llm offline" {
		t.Fatalf("unexpected step: %+v", step)
	}
	if len(payer.actions) != 0 {
		t.Fatalf("failed step must not be paid: %v", payer.actions)
	}
}

func TestRunValidation_PaymentFailureIsBestEffort(t *testing.T) {
	logger := &fakeVerifLogger{}
	payer := &fakeStepPayer{err: errors.New("insufficient funds")}
	svc := NewVerificationService(&fakeContract{info: registeredInfo()}, logger, &fakeAnalyzer{}, payer, nil)

	result, err := svc.RunValidation(context.Background(), testFarmer, ValidationDocs{Identity: "x"})
	if err != nil {
		t.Fatalf("RunValidation: %v", err)
	}
	step := result.Steps[0]
	if !step.Status || step.PaymentHash != "" {
		t.Fatalf("unexpected step: %+v", step)
	}
	if result.TotalPayments != 0 || result.TotalAmount != "0" {
		t.Fatalf("failed payment counted: %+v", result)
	}
}

func TestRunValidation_CertificationStepPassesOnAnyValid(t *testing.T) {
	analyzer := &fakeAnalyzer{verdicts: map[string]*llm.Analysis{
		"bad":  {IsValid: false, Confidence: 20, Details: "no"},
		"good": {IsValid: true, Confidence: 80, Details: "sí"},
	}}
	svc := NewVerificationService(&fakeContract{info: registeredInfo()}, &fakeVerifLogger{}, analyzer, &fakeStepPayer{}, nil)

	result, err := svc.RunValidation(context.Background(), testFarmer, ValidationDocs{
		Certifications: []string{"bad", "good"},
	})
	if err != nil {
		t.Fatalf("RunValidation: %v", err)
	}
	step := result.Steps[0]
	if step.Step != 2 || !step.Status {
		t.Fatalf("mixed certifications should still pass: %+v", step)
	}
	if step.Confidence != 50 {
		t.Fatalf("want averaged confidence 50, got %v", step.Confidence)
	}
}
