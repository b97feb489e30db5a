// Package services – AutoPayService
//
// This file implements the automatic payment rule engine. Producers register
// rules that pair a trigger (document validated, verification completed,
// certification added, reputation threshold) with a payment action; inbound
// domain events are matched against the enabled rules of the event's producer
// and every match drives one payment attempt through the PaymentExecutor.
//
// ProcessEvent never returns an error: per-rule failures are captured in the
// result records, and a pass that arrives while another is in flight yields
// an empty result list. Execution metadata (lastExecuted, executionCount) is
// updated only when the payment succeeded.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/agritrust/go-agritrust-backend/internal/chain"
	"github.com/agritrust/go-agritrust-backend/internal/domain"
	"github.com/agritrust/go-agritrust-backend/internal/repo"
)

var ruleExecutions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "autopay_rule_executions_total",
		Help: "Automatic payment rule executions by outcome.",
	},
	[]string{"outcome"},
)

// RuleRepo defines the repository contract required by AutoPayService.
type RuleRepo interface {
	// CreateRule inserts a new rule row.
	CreateRule(ctx context.Context, db *gorm.DB, r *domain.AutoPayRule) error

	// GetRule fetches a rule by ID or returns repo.ErrNotFound.
	GetRule(ctx context.Context, db *gorm.DB, id string) (*domain.AutoPayRule, error)

	// UpdateRuleFields applies a partial update and returns the fresh row.
	UpdateRuleFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) (*domain.AutoPayRule, error)

	// DeleteRule removes a rule, reporting whether a row was removed.
	DeleteRule(ctx context.Context, db *gorm.DB, id string) (bool, error)

	// ListRules returns every rule.
	ListRules(ctx context.Context, db *gorm.DB) ([]domain.AutoPayRule, error)

	// ListRulesByFarmer returns a producer's rules, matched case-insensitively.
	ListRulesByFarmer(ctx context.Context, db *gorm.DB, farmer string) ([]domain.AutoPayRule, error)

	// ListActiveRules returns all enabled rules across producers.
	ListActiveRules(ctx context.Context, db *gorm.DB) ([]domain.AutoPayRule, error)

	// MarkExecuted records one successful execution.
	MarkExecuted(ctx context.Context, db *gorm.DB, id string, at time.Time) error

	// GetRuleStats aggregates counts over the full rule set.
	GetRuleStats(ctx context.Context, db *gorm.DB) (repo.RuleStats, error)
}

// PaymentExecutor is the collaborator that moves value. An empty amount
// selects the executor's default rate for the action.
type PaymentExecutor interface {
	ExecutePayment(ctx context.Context, farmerAddress, action, amount string) (*PaymentResult, error)
}

// RuleSpec carries the caller-supplied fields for a new rule.
type RuleSpec struct {
	FarmerAddress string                `json:"farmerAddress"`
	Trigger       domain.TriggerType    `json:"trigger"`
	Condition     *domain.RuleCondition `json:"condition,omitempty"`
	Action        string                `json:"action"`
	Amount        string                `json:"amount,omitempty"`
	Enabled       *bool                 `json:"enabled,omitempty"`
}

// RuleUpdate is a partial rule change; nil fields are left untouched.
type RuleUpdate struct {
	FarmerAddress *string               `json:"farmerAddress,omitempty"`
	Trigger       *domain.TriggerType   `json:"trigger,omitempty"`
	Condition     *domain.RuleCondition `json:"condition,omitempty"`
	Action        *string               `json:"action,omitempty"`
	Amount        *string               `json:"amount,omitempty"`
	Enabled       *bool                 `json:"enabled,omitempty"`
}

// EventData is the payload of an inbound domain event.
type EventData struct {
	FarmerAddress    string   `json:"farmerAddress"`
	VerificationStep *int     `json:"verificationStep,omitempty"`
	ReputationScore  *float64 `json:"reputationScore,omitempty"`
}

// RuleResult reports the outcome of one matched rule in a processing pass.
type RuleResult struct {
	RuleID   string `json:"ruleId"`
	Executed bool   `json:"executed"`
	TxHash   string `json:"txHash,omitempty"`
	Error    string `json:"error,omitempty"`
}

// AutoPayService owns the rule set and drives payment execution for
// matching events. The mutex guarantees that at most one event-processing
// pass runs at a time; a pass arriving while another holds the lock is
// dropped with an empty result rather than queued.
type AutoPayService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the rule repository used by this service.
	Repo RuleRepo
	// Executor performs the actual value transfer.
	Executor PaymentExecutor

	mu sync.Mutex
}

// NewAutoPayService constructs an AutoPayService.
func NewAutoPayService(db *gorm.DB, r RuleRepo, exec PaymentExecutor) *AutoPayService {
	return &AutoPayService{DB: db, Repo: r, Executor: exec}
}

// CreateRule validates the spec, assigns identity, and stores the rule.
// Enabled defaults to true when unset.
func (s *AutoPayService) CreateRule(ctx context.Context, spec RuleSpec) (*domain.AutoPayRule, error) {
	if strings.TrimSpace(spec.FarmerAddress) == "" {
		return nil, ErrInvalidAddress
	}
	if !domain.ValidTrigger(spec.Trigger) {
		return nil, ErrInvalidTrigger
	}
	if strings.TrimSpace(spec.Action) == "" {
		return nil, ErrInvalidAction
	}
	if spec.Amount != "" {
		if _, err := chain.ParseMATIC(spec.Amount); err != nil {
			return nil, ErrInvalidAmount
		}
	}
	enabled := true
	if spec.Enabled != nil {
		enabled = *spec.Enabled
	}
	rule := &domain.AutoPayRule{
		ID:            uuid.NewString(),
		FarmerAddress: spec.FarmerAddress,
		Trigger:       spec.Trigger,
		Condition:     spec.Condition,
		Action:        spec.Action,
		Amount:        spec.Amount,
		Enabled:       enabled,
	}
	if err := s.Repo.CreateRule(ctx, s.DB, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// UpdateRule applies a partial merge onto an existing rule and returns the
// updated rule. Identity and execution metadata are not caller-writable.
func (s *AutoPayService) UpdateRule(ctx context.Context, id string, upd RuleUpdate) (*domain.AutoPayRule, error) {
	fields := map[string]any{}
	if upd.FarmerAddress != nil {
		if strings.TrimSpace(*upd.FarmerAddress) == "" {
			return nil, ErrInvalidAddress
		}
		fields["farmer_address"] = *upd.FarmerAddress
	}
	if upd.Trigger != nil {
		if !domain.ValidTrigger(*upd.Trigger) {
			return nil, ErrInvalidTrigger
		}
		fields["trigger"] = *upd.Trigger
	}
	if upd.Condition != nil {
		fields["condition"] = upd.Condition
	}
	if upd.Action != nil {
		fields["action"] = *upd.Action
	}
	if upd.Amount != nil {
		if *upd.Amount != "" {
			if _, err := chain.ParseMATIC(*upd.Amount); err != nil {
				return nil, ErrInvalidAmount
			}
		}
		fields["amount"] = *upd.Amount
	}
	if upd.Enabled != nil {
		fields["enabled"] = *upd.Enabled
	}
	if len(fields) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	rule, err := s.Repo.UpdateRuleFields(ctx, s.DB, id, fields)
	if err == repo.ErrNotFound {
		return nil, ErrRuleNotFound
	}
	return rule, err
}

// DeleteRule removes a rule. The bool reports whether a rule was removed,
// so a second delete of the same ID yields false.
func (s *AutoPayService) DeleteRule(ctx context.Context, id string) (bool, error) {
	return s.Repo.DeleteRule(ctx, s.DB, id)
}

// Rules returns every rule in the store.
func (s *AutoPayService) Rules(ctx context.Context) ([]domain.AutoPayRule, error) {
	return s.Repo.ListRules(ctx, s.DB)
}

// RulesForFarmer returns all rules (enabled or not) belonging to a producer.
func (s *AutoPayService) RulesForFarmer(ctx context.Context, farmer string) ([]domain.AutoPayRule, error) {
	return s.Repo.ListRulesByFarmer(ctx, s.DB, farmer)
}

// Stats aggregates rule counts and cumulative executions.
func (s *AutoPayService) Stats(ctx context.Context) (repo.RuleStats, error) {
	return s.Repo.GetRuleStats(ctx, s.DB)
}

// ProcessEvent matches an inbound event against the enabled rules of the
// event's producer and runs one payment attempt per match. It never returns
// an error; all failure information is data in the result records. A call
// arriving while another pass is running returns an empty slice.
func (s *AutoPayService) ProcessEvent(ctx context.Context, eventType domain.EventType, data EventData) []RuleResult {
	if !s.mu.TryLock() {
		log.Warn().Str("event", string(eventType)).Msg("autopay pass already in flight, dropping event")
		return []RuleResult{}
	}
	defer s.mu.Unlock()

	results := []RuleResult{}
	if !domain.ValidEvent(eventType) || strings.TrimSpace(data.FarmerAddress) == "" {
		return results
	}

	active, err := s.Repo.ListActiveRules(ctx, s.DB)
	if err != nil {
		log.Error().Err(err).Msg("autopay: listing active rules failed")
		return results
	}

	for i := range active {
		rule := &active[i]
		if !strings.EqualFold(rule.FarmerAddress, data.FarmerAddress) {
			continue
		}
		if !matchRule(rule, eventType, data) {
			continue
		}
		results = append(results, s.executeRule(ctx, rule))
	}
	return results
}

// executeRule runs one payment attempt and records the outcome.
func (s *AutoPayService) executeRule(ctx context.Context, rule *domain.AutoPayRule) RuleResult {
	payment, err := s.Executor.ExecutePayment(ctx, rule.FarmerAddress, rule.Action, rule.Amount)
	if err != nil {
		ruleExecutions.WithLabelValues("failed").Inc()
		log.Warn().Err(err).
			Str("rule_id", rule.ID).
			Str("action", rule.Action).
			Msg("autopay rule execution failed")
		return RuleResult{RuleID: rule.ID, Executed: false, Error: err.Error()}
	}

	if err := s.Repo.MarkExecuted(ctx, s.DB, rule.ID, time.Now().UTC()); err != nil {
		// The payment went through; losing the bookkeeping update is logged
		// but does not turn the result into a failure.
		log.Error().Err(err).Str("rule_id", rule.ID).Msg("autopay: recording execution failed")
	}
	ruleExecutions.WithLabelValues("executed").Inc()
	return RuleResult{RuleID: rule.ID, Executed: true, TxHash: payment.TxHash}
}

// matchRule implements the trigger/event matching table. Conditions gate
// only when set; a nil condition field always passes.
func matchRule(rule *domain.AutoPayRule, eventType domain.EventType, data EventData) bool {
	switch eventType {
	case domain.EventDocumentValidated:
		return rule.Trigger == domain.TriggerDocumentValidated
	case domain.EventVerificationCompleted:
		if rule.Trigger != domain.TriggerVerificationCompleted {
			return false
		}
		if rule.Condition == nil || rule.Condition.VerificationStep == nil {
			return true
		}
		return data.VerificationStep != nil && *data.VerificationStep == *rule.Condition.VerificationStep
	case domain.EventCertificationAdded:
		return rule.Trigger == domain.TriggerCertificationAdded
	case domain.EventReputationUpdated:
		if rule.Trigger != domain.TriggerReputationThreshold {
			return false
		}
		if rule.Condition == nil || rule.Condition.MinReputation == nil {
			return true
		}
		return data.ReputationScore != nil && *data.ReputationScore >= *rule.Condition.MinReputation
	}
	return false
}
