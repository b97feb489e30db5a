package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
	"github.com/agritrust/go-agritrust-backend/internal/repo"
)

// fakeRuleRepo is an in-memory RuleRepo. The db handle is ignored.
type fakeRuleRepo struct {
	mu    sync.Mutex
	rules map[string]*domain.AutoPayRule

	listErr   error
	markedIDs []string
	markErr   error
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: map[string]*domain.AutoPayRule{}}
}

func (f *fakeRuleRepo) CreateRule(_ context.Context, _ *gorm.DB, r *domain.AutoPayRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.rules[r.ID] = &cp
	return nil
}

func (f *fakeRuleRepo) GetRule(_ context.Context, _ *gorm.DB, id string) (*domain.AutoPayRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rules[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRuleRepo) UpdateRuleFields(_ context.Context, _ *gorm.DB, id string, fields map[string]any) (*domain.AutoPayRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rules[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if v, ok := fields["enabled"].(bool); ok {
		r.Enabled = v
	}
	if v, ok := fields["amount"].(string); ok {
		r.Amount = v
	}
	if v, ok := fields["action"].(string); ok {
		r.Action = v
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRuleRepo) DeleteRule(_ context.Context, _ *gorm.DB, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rules[id]; !ok {
		return false, nil
	}
	delete(f.rules, id)
	return true, nil
}

func (f *fakeRuleRepo) ListRules(_ context.Context, _ *gorm.DB) ([]domain.AutoPayRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AutoPayRule, 0, len(f.rules))
	for _, r := range f.rules {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRuleRepo) ListRulesByFarmer(_ context.Context, _ *gorm.DB, farmer string) ([]domain.AutoPayRule, error) {
	all, _ := f.ListRules(context.Background(), nil)
	out := []domain.AutoPayRule{}
	for _, r := range all {
		if strings.EqualFold(r.FarmerAddress, farmer) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) ListActiveRules(_ context.Context, _ *gorm.DB) ([]domain.AutoPayRule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	all, _ := f.ListRules(context.Background(), nil)
	out := []domain.AutoPayRule{}
	for _, r := range all {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) MarkExecuted(_ context.Context, _ *gorm.DB, id string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.markedIDs = append(f.markedIDs, id)
	return nil
}

func (f *fakeRuleRepo) GetRuleStats(_ context.Context, _ *gorm.DB) (repo.RuleStats, error) {
	all, _ := f.ListRules(context.Background(), nil)
	s := repo.RuleStats{TotalRules: int64(len(all))}
	for _, r := range all {
		if r.Enabled {
			s.ActiveRules++
		}
	}
	return s, nil
}

// fakeExecutor counts payment attempts and can be told to fail for specific
// producers, or to block until released.
type fakeExecutor struct {
	mu       sync.Mutex
	calls    []string
	failFor  map[string]error
	started  chan struct{}
	blocksOn chan struct{}
}

func (f *fakeExecutor) ExecutePayment(_ context.Context, farmer, action, amount string) (*PaymentResult, error) {
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.blocksOn != nil {
		<-f.blocksOn
	}
	f.mu.Lock()
	f.calls = append(f.calls, farmer+"/"+action+"/"+amount)
	f.mu.Unlock()
	if err, ok := f.failFor[farmer]; ok {
		return nil, err
	}
	return &PaymentResult{
		TxHash:        "0xtx",
		Amount:        amount,
		Action:        action,
		FarmerAddress: farmer,
		Status:        domain.PaymentConfirmed,
	}, nil
}

func newAutoPay(t *testing.T) (*AutoPayService, *fakeRuleRepo, *fakeExecutor) {
	t.Helper()
	r := newFakeRuleRepo()
	e := &fakeExecutor{}
	return NewAutoPayService(nil, r, e), r, e
}

func seedRule(t *testing.T, svc *AutoPayService, spec RuleSpec) *domain.AutoPayRule {
	t.Helper()
	rule, err := svc.CreateRule(context.Background(), spec)
	if err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	return rule
}

func TestCreateRule_Validation(t *testing.T) {
	svc, _, _ := newAutoPay(t)
	ctx := context.Background()

	cases := []struct {
		name string
		spec RuleSpec
		want error
	}{
		{"blank farmer", RuleSpec{FarmerAddress: "  ", Trigger: domain.TriggerDocumentValidated, Action: "a"}, ErrInvalidAddress},
		{"bad trigger", RuleSpec{FarmerAddress: "0xabc", Trigger: "on_rain", Action: "a"}, ErrInvalidTrigger},
		{"blank action", RuleSpec{FarmerAddress: "0xabc", Trigger: domain.TriggerDocumentValidated, Action: " "}, ErrInvalidAction},
		{"bad amount", RuleSpec{FarmerAddress: "0xabc", Trigger: domain.TriggerDocumentValidated, Action: "a", Amount: "-3"}, ErrInvalidAmount},
		{"non-numeric amount", RuleSpec{FarmerAddress: "0xabc", Trigger: domain.TriggerDocumentValidated, Action: "a", Amount: "lots"}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateRule(ctx, tc.spec); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateRule_DefaultsEnabled(t *testing.T) {
	svc, _, _ := newAutoPay(t)

	rule := seedRule(t, svc, RuleSpec{
		FarmerAddress: "0xabc",
		Trigger:       domain.TriggerDocumentValidated,
		Action:        "document_validation",
	})
	if rule.ID == "" {
		t.Fatal("rule ID not assigned")
	}
	if !rule.Enabled {
		t.Fatal("enabled should default to true")
	}

	off := false
	disabled := seedRule(t, svc, RuleSpec{
		FarmerAddress: "0xabc",
		Trigger:       domain.TriggerDocumentValidated,
		Action:        "document_validation",
		Enabled:       &off,
	})
	if disabled.Enabled {
		t.Fatal("explicit enabled=false ignored")
	}
}

func TestUpdateRule(t *testing.T) {
	svc, _, _ := newAutoPay(t)
	ctx := context.Background()

	rule := seedRule(t, svc, RuleSpec{
		FarmerAddress: "0xabc",
		Trigger:       domain.TriggerDocumentValidated,
		Action:        "document_validation",
	})

	t.Run("no fields", func(t *testing.T) {
		if _, err := svc.UpdateRule(ctx, rule.ID, RuleUpdate{}); !errors.Is(err, ErrNoFieldsToUpdate) {
			t.Fatalf("want ErrNoFieldsToUpdate, got %v", err)
		}
	})

	t.Run("unknown rule", func(t *testing.T) {
		off := false
		if _, err := svc.UpdateRule(ctx, "missing", RuleUpdate{Enabled: &off}); !errors.Is(err, ErrRuleNotFound) {
			t.Fatalf("want ErrRuleNotFound, got %v", err)
		}
	})

	t.Run("invalid amount", func(t *testing.T) {
		bad := "zero"
		if _, err := svc.UpdateRule(ctx, rule.ID, RuleUpdate{Amount: &bad}); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("want ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("applies fields", func(t *testing.T) {
		off := false
		amt := "0.5"
		got, err := svc.UpdateRule(ctx, rule.ID, RuleUpdate{Enabled: &off, Amount: &amt})
		if err != nil {
			t.Fatalf("UpdateRule: %v", err)
		}
		if got.Enabled || got.Amount != "0.5" {
			t.Fatalf("fields not applied: %+v", got)
		}
	})
}

func TestDeleteRule_SecondDeleteReportsFalse(t *testing.T) {
	svc, _, _ := newAutoPay(t)
	ctx := context.Background()

	rule := seedRule(t, svc, RuleSpec{
		FarmerAddress: "0xabc",
		Trigger:       domain.TriggerDocumentValidated,
		Action:        "a",
	})

	deleted, err := svc.DeleteRule(ctx, rule.ID)
	if err != nil || !deleted {
		t.Fatalf("first delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = svc.DeleteRule(ctx, rule.ID)
	if err != nil || deleted {
		t.Fatalf("second delete: deleted=%v err=%v", deleted, err)
	}
}

func TestProcessEvent_MatchesCaseInsensitively(t *testing.T) {
	svc, rr, exec := newAutoPay(t)
	ctx := context.Background()

	seedRule(t, svc, RuleSpec{
		FarmerAddress: "0xABC",
		Trigger:       domain.TriggerDocumentValidated,
		Action:        "document_validation",
	})

	results := svc.ProcessEvent(ctx, domain.EventDocumentValidated, EventData{FarmerAddress: "0xabc"})
	if len(results) != 1 || !results[0].Executed || results[0].TxHash != "0xtx" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("want 1 payment attempt, got %d", len(exec.calls))
	}
	if len(rr.markedIDs) != 1 {
		t.Fatalf("successful execution not recorded: %v", rr.markedIDs)
	}
}

func TestProcessEvent_SkipsOtherFarmersAndDisabledRules(t *testing.T) {
	svc, _, exec := newAutoPay(t)
	ctx := context.Background()

	off := false
	seedRule(t, svc, RuleSpec{FarmerAddress: "0xother", Trigger: domain.TriggerDocumentValidated, Action: "a"})
	seedRule(t, svc, RuleSpec{FarmerAddress: "0xabc", Trigger: domain.TriggerDocumentValidated, Action: "a", Enabled: &off})

	results := svc.ProcessEvent(ctx, domain.EventDocumentValidated, EventData{FarmerAddress: "0xabc"})
	if len(results) != 0 {
		t.Fatalf("want no matches, got %+v", results)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("executor should not have been called: %v", exec.calls)
	}
}

func TestProcessEvent_InvalidInput(t *testing.T) {
	svc, _, _ := newAutoPay(t)
	ctx := context.Background()

	seedRule(t, svc, RuleSpec{FarmerAddress: "0xabc", Trigger: domain.TriggerDocumentValidated, Action: "a"})

	if got := svc.ProcessEvent(ctx, "weather_changed", EventData{FarmerAddress: "0xabc"}); len(got) != 0 {
		t.Fatalf("unknown event type must match nothing: %+v", got)
	}
	if got := svc.ProcessEvent(ctx, domain.EventDocumentValidated, EventData{FarmerAddress: "  "}); len(got) != 0 {
		t.Fatalf("blank farmer must match nothing: %+v", got)
	}
}

func TestProcessEvent_TriggerEventTable(t *testing.T) {
	step2 := 2
	step3 := 3
	rep70 := 70.0
	score80 := 80.0
	score60 := 60.0

	cases := []struct {
		name      string
		trigger   domain.TriggerType
		condition *domain.RuleCondition
		event     domain.EventType
		data      EventData
		match     bool
	}{
		{"document trigger matches document event", domain.TriggerDocumentValidated, nil, domain.EventDocumentValidated, EventData{}, true},
		{"document trigger ignores certification event", domain.TriggerDocumentValidated, nil, domain.EventCertificationAdded, EventData{}, false},
		{"certification trigger matches certification event", domain.TriggerCertificationAdded, nil, domain.EventCertificationAdded, EventData{}, true},
		{"verification without condition matches any step", domain.TriggerVerificationCompleted, nil, domain.EventVerificationCompleted, EventData{VerificationStep: &step3}, true},
		{"verification step condition matches equal step", domain.TriggerVerificationCompleted, &domain.RuleCondition{VerificationStep: &step2}, domain.EventVerificationCompleted, EventData{VerificationStep: &step2}, true},
		{"verification step condition rejects other step", domain.TriggerVerificationCompleted, &domain.RuleCondition{VerificationStep: &step2}, domain.EventVerificationCompleted, EventData{VerificationStep: &step3}, false},
		{"verification step condition rejects missing step", domain.TriggerVerificationCompleted, &domain.RuleCondition{VerificationStep: &step2}, domain.EventVerificationCompleted, EventData{}, false},
		{"reputation threshold passes at or above", domain.TriggerReputationThreshold, &domain.RuleCondition{MinReputation: &rep70}, domain.EventReputationUpdated, EventData{ReputationScore: &score80}, true},
		{"reputation threshold passes at exactly the bound", domain.TriggerReputationThreshold, &domain.RuleCondition{MinReputation: &rep70}, domain.EventReputationUpdated, EventData{ReputationScore: &rep70}, true},
		{"reputation threshold rejects below", domain.TriggerReputationThreshold, &domain.RuleCondition{MinReputation: &rep70}, domain.EventReputationUpdated, EventData{ReputationScore: &score60}, false},
		{"reputation threshold rejects missing score", domain.TriggerReputationThreshold, &domain.RuleCondition{MinReputation: &rep70}, domain.EventReputationUpdated, EventData{}, false},
		{"reputation trigger without condition always passes", domain.TriggerReputationThreshold, nil, domain.EventReputationUpdated, EventData{}, true},
		{"reputation trigger ignores document event", domain.TriggerReputationThreshold, nil, domain.EventDocumentValidated, EventData{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newAutoPay(t)
			seedRule(t, svc, RuleSpec{
				FarmerAddress: "0xabc",
				Trigger:       tc.trigger,
				Condition:     tc.condition,
				Action:        "a",
			})
			tc.data.FarmerAddress = "0xabc"
			got := svc.ProcessEvent(context.Background(), tc.event, tc.data)
			if matched := len(got) == 1; matched != tc.match {
				t.Fatalf("match=%v, want %v (results %+v)", matched, tc.match, got)
			}
		})
	}
}

func TestProcessEvent_FailureIsolatedPerRule(t *testing.T) {
	r := newFakeRuleRepo()
	e := &fakeExecutor{failFor: map[string]error{}}
	svc := NewAutoPayService(nil, r, e)
	ctx := context.Background()

	seedRule(t, svc, RuleSpec{FarmerAddress: "0xabc", Trigger: domain.TriggerDocumentValidated, Action: "pays"})
	seedRule(t, svc, RuleSpec{FarmerAddress: "0xabc", Trigger: domain.TriggerDocumentValidated, Action: "fails"})

	e.failFor["0xabc"] = errors.New("rpc down")
	results := svc.ProcessEvent(ctx, domain.EventDocumentValidated, EventData{FarmerAddress: "0xabc"})
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %+v", results)
	}
	for _, res := range results {
		if res.Executed || res.Error == "" {
			t.Fatalf("expected failed result, got %+v", res)
		}
	}
	if len(r.markedIDs) != 0 {
		t.Fatalf("failed executions must not be recorded: %v", r.markedIDs)
	}

	delete(e.failFor, "0xabc")
	results = svc.ProcessEvent(ctx, domain.EventDocumentValidated, EventData{FarmerAddress: "0xabc"})
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %+v", results)
	}
	for _, res := range results {
		if !res.Executed {
			t.Fatalf("expected success, got %+v", res)
		}
	}
	if len(r.markedIDs) != 2 {
		t.Fatalf("want 2 recorded executions, got %v", r.markedIDs)
	}
}

func TestProcessEvent_BookkeepingFailureStillSuccess(t *testing.T) {
	r := newFakeRuleRepo()
	r.markErr = errors.New("db locked")
	e := &fakeExecutor{}
	svc := NewAutoPayService(nil, r, e)

	seedRule(t, svc, RuleSpec{FarmerAddress: "0xabc", Trigger: domain.TriggerDocumentValidated, Action: "a"})

	results := svc.ProcessEvent(context.Background(), domain.EventDocumentValidated, EventData{FarmerAddress: "0xabc"})
	if len(results) != 1 || !results[0].Executed {
		t.Fatalf("payment success must survive bookkeeping failure: %+v", results)
	}
}

func TestProcessEvent_ConcurrentPassIsDropped(t *testing.T) {
	r := newFakeRuleRepo()
	e := &fakeExecutor{
		started:  make(chan struct{}),
		blocksOn: make(chan struct{}),
	}
	svc := NewAutoPayService(nil, r, e)

	seedRule(t, svc, RuleSpec{FarmerAddress: "0xabc", Trigger: domain.TriggerDocumentValidated, Action: "a"})

	started := e.started
	firstDone := make(chan []RuleResult, 1)
	go func() {
		firstDone <- svc.ProcessEvent(context.Background(), domain.EventDocumentValidated, EventData{FarmerAddress: "0xabc"})
	}()

	<-started
	second := svc.ProcessEvent(context.Background(), domain.EventDocumentValidated, EventData{FarmerAddress: "0xabc"})
	if len(second) != 0 {
		t.Fatalf("overlapping pass must be dropped, got %+v", second)
	}

	close(e.blocksOn)
	first := <-firstDone
	if len(first) != 1 || !first[0].Executed {
		t.Fatalf("first pass should complete normally: %+v", first)
	}
}

func TestProcessEvent_ListFailureYieldsEmpty(t *testing.T) {
	r := newFakeRuleRepo()
	r.listErr = errors.New("db gone")
	svc := NewAutoPayService(nil, r, &fakeExecutor{})

	got := svc.ProcessEvent(context.Background(), domain.EventDocumentValidated, EventData{FarmerAddress: "0xabc"})
	if len(got) != 0 {
		t.Fatalf("want empty results on repo failure, got %+v", got)
	}
}
