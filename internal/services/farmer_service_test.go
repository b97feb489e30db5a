package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agritrust/go-agritrust-backend/internal/chain"
	"github.com/agritrust/go-agritrust-backend/internal/domain"
)

// fakeContract is a scripted FarmerContract.
type fakeContract struct {
	info    *chain.FarmerInfo
	infoErr error

	docs  []chain.DocumentRecord
	vers  []chain.VerificationRecord
	certs []string

	updateErr   error
	updateCalls int
}

func (f *fakeContract) FarmerInfo(context.Context, common.Address) (*chain.FarmerInfo, error) {
	return f.info, f.infoErr
}

func (f *fakeContract) Documents(context.Context, common.Address) ([]chain.DocumentRecord, error) {
	return f.docs, nil
}

func (f *fakeContract) Verifications(context.Context, common.Address) ([]chain.VerificationRecord, error) {
	return f.vers, nil
}

func (f *fakeContract) Certifications(context.Context, common.Address) ([]string, error) {
	return f.certs, nil
}

func (f *fakeContract) RegisterFarmer(context.Context, common.Address, string) (string, error) {
	return "0xregister", nil
}

func (f *fakeContract) UpdateReputation(_ context.Context, _ common.Address, score int) (string, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return "", f.updateErr
	}
	return "0xupdate", nil
}

// fakeEventSink records ProcessEvent calls.
type fakeEventSink struct {
	events []domain.EventType
	data   []EventData
}

func (f *fakeEventSink) ProcessEvent(_ context.Context, et domain.EventType, data EventData) []RuleResult {
	f.events = append(f.events, et)
	f.data = append(f.data, data)
	return []RuleResult{{RuleID: "r1", Executed: true, TxHash: "0xtx"}}
}

func registeredInfo() *chain.FarmerInfo {
	return &chain.FarmerInfo{
		FarmerAddress:    testFarmer,
		FarmerID:         "FARM-001",
		ReputationScore:  55,
		Verifications:    3,
		Certifications:   1,
		IsRegistered:     true,
		RegistrationDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStatus_Registered(t *testing.T) {
	c := &fakeContract{
		info:  registeredInfo(),
		docs:  []chain.DocumentRecord{{DocHash: "h1", DocType: "identity"}},
		vers:  []chain.VerificationRecord{{Step: 1, Status: true}},
		certs: []string{"organic"},
	}
	svc := NewFarmerService(c, nil)

	status, err := svc.Status(context.Background(), testFarmer)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.IsRegistered || status.FarmerID != "FARM-001" || status.ReputationScore != 55 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(status.Documents) != 1 || len(status.Verifications) != 1 || len(status.Certifications) != 1 {
		t.Fatalf("record lists not populated: %+v", status)
	}
	if status.RegistrationDate == nil {
		t.Fatal("registration date missing")
	}
}

func TestStatus_UnregisteredIsZeroedNotError(t *testing.T) {
	c := &fakeContract{info: &chain.FarmerInfo{IsRegistered: false}}
	svc := NewFarmerService(c, nil)

	status, err := svc.Status(context.Background(), testFarmer)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.IsRegistered || status.ReputationScore != 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
	// Lists stay empty but non-nil so clients always get arrays.
	if status.Documents == nil || status.Verifications == nil || status.Certifications == nil {
		t.Fatalf("lists must be non-nil: %+v", status)
	}
}

func TestStatus_Errors(t *testing.T) {
	if _, err := NewFarmerService(&fakeContract{}, nil).Status(context.Background(), "nope"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("want ErrInvalidAddress, got %v", err)
	}
	if _, err := NewFarmerService(nil, nil).Status(context.Background(), testFarmer); !errors.Is(err, ErrContractNotConfigured) {
		t.Fatalf("want ErrContractNotConfigured, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	svc := NewFarmerService(&fakeContract{}, nil)

	tx, err := svc.Register(context.Background(), testFarmer, "FARM-002")
	if err != nil || tx != "0xregister" {
		t.Fatalf("Register: tx=%s err=%v", tx, err)
	}

	if _, err := svc.Register(context.Background(), "nope", "FARM-002"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("want ErrInvalidAddress, got %v", err)
	}
}

func TestUpdateReputation_EmitsEvent(t *testing.T) {
	c := &fakeContract{info: registeredInfo()}
	sink := &fakeEventSink{}
	svc := NewFarmerService(c, sink)

	change, err := svc.UpdateReputation(context.Background(), testFarmer, 80)
	if err != nil {
		t.Fatalf("UpdateReputation: %v", err)
	}
	if change.OldScore != 55 || change.NewScore != 80 || change.TxHash != "0xupdate" {
		t.Fatalf("unexpected change: %+v", change)
	}
	if len(change.RuleResults) != 1 {
		t.Fatalf("rule results not propagated: %+v", change)
	}

	if len(sink.events) != 1 || sink.events[0] != domain.EventReputationUpdated {
		t.Fatalf("wrong event emitted: %v", sink.events)
	}
	if sink.data[0].ReputationScore == nil || *sink.data[0].ReputationScore != 80 {
		t.Fatalf("score not carried on event: %+v", sink.data[0])
	}
}

func TestUpdateReputation_Validation(t *testing.T) {
	svc := NewFarmerService(&fakeContract{info: registeredInfo()}, nil)
	ctx := context.Background()

	if _, err := svc.UpdateReputation(ctx, "nope", 50); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("want ErrInvalidAddress, got %v", err)
	}
	for _, score := range []int{-1, 101} {
		if _, err := svc.UpdateReputation(ctx, testFarmer, score); !errors.Is(err, ErrInvalidScore) {
			t.Fatalf("score %d: want ErrInvalidScore, got %v", score, err)
		}
	}
	if _, err := NewFarmerService(nil, nil).UpdateReputation(ctx, testFarmer, 50); !errors.Is(err, ErrContractNotConfigured) {
		t.Fatalf("want ErrContractNotConfigured, got %v", err)
	}
}

func TestUpdateReputation_ContractFailure(t *testing.T) {
	updateErr := errors.New("execution reverted")
	c := &fakeContract{info: registeredInfo(), updateErr: updateErr}
	sink := &fakeEventSink{}
	svc := NewFarmerService(c, sink)

	if _, err := svc.UpdateReputation(context.Background(), testFarmer, 80); !errors.Is(err, updateErr) {
		t.Fatalf("want contract error, got %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("no event must fire on failure: %v", sink.events)
	}
}

func TestUpdateReputation_ReadFailureStillUpdates(t *testing.T) {
	c := &fakeContract{infoErr: errors.New("rpc timeout")}
	svc := NewFarmerService(c, nil)

	change, err := svc.UpdateReputation(context.Background(), testFarmer, 80)
	if err != nil {
		t.Fatalf("UpdateReputation: %v", err)
	}
	if change.OldScore != 0 || change.NewScore != 80 {
		t.Fatalf("unexpected change: %+v", change)
	}
	if c.updateCalls != 1 {
		t.Fatalf("update not sent: %d", c.updateCalls)
	}
}
