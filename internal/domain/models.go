// Package domain defines the persistence models for AutoPay rules, uploaded
// documents, executed micropayments, and lot traceability events. These types
// are mapped with GORM and form the core data layer of the AgriTrust backend.
//
// Wire format note: the public API uses camelCase JSON field names (the
// dashboard and existing integrations expect them), so the JSON tags here
// deliberately differ from the snake_case GORM column names.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// TriggerType enumerates the domain events an AutoPay rule can wait for.
type TriggerType string

// Rule triggers. TriggerReputationThreshold is matched by reputation_updated
// events (the trigger and event enumerations overlap only partially).
const (
	TriggerDocumentValidated     TriggerType = "document_validated"
	TriggerVerificationCompleted TriggerType = "verification_completed"
	TriggerCertificationAdded    TriggerType = "certification_added"
	TriggerReputationThreshold   TriggerType = "reputation_threshold"
)

// ValidTrigger reports whether t is a member of the trigger enumeration.
func ValidTrigger(t TriggerType) bool {
	switch t {
	case TriggerDocumentValidated, TriggerVerificationCompleted,
		TriggerCertificationAdded, TriggerReputationThreshold:
		return true
	}
	return false
}

// EventType enumerates inbound domain events submitted for rule matching.
type EventType string

const (
	EventDocumentValidated     EventType = "document_validated"
	EventVerificationCompleted EventType = "verification_completed"
	EventCertificationAdded    EventType = "certification_added"
	EventReputationUpdated     EventType = "reputation_updated"
)

// ValidEvent reports whether e is a member of the event enumeration.
func ValidEvent(e EventType) bool {
	switch e {
	case EventDocumentValidated, EventVerificationCompleted,
		EventCertificationAdded, EventReputationUpdated:
		return true
	}
	return false
}

// RuleCondition is the optional structured predicate attached to a rule.
// Which field is meaningful depends on the rule's trigger:
//   - verification_completed: VerificationStep must equal the event's step.
//   - reputation_threshold:   MinReputation must be <= the event's score.
//
// Nil fields impose no constraint.
type RuleCondition struct {
	MinReputation    *float64 `json:"minReputation,omitempty"`
	VerificationStep *int     `json:"verificationStep,omitempty"`
}

// AutoPayRule is a stored predicate + action pair. When an incoming event
// satisfies the rule's trigger (and condition, if any) for the rule's
// producer, the configured payment action is attempted.
//
// Fields:
//   - ID: stable UUID primary key, assigned internally; never accepted from
//     the caller on create.
//   - FarmerAddress: beneficiary wallet address; compared case-insensitively
//     against event payloads.
//   - Trigger / Condition: see TriggerType and RuleCondition.
//   - Action: opaque payment action identifier forwarded to the executor
//     (e.g. document_validation, certification_check).
//   - Amount: optional MATIC amount override as a decimal string; empty means
//     the executor's default rate for Action applies.
//   - Enabled: disabled rules are never matched.
//   - LastExecuted: set after each successful payment execution.
//   - ExecutionCount: number of successful executions (failed payment
//     attempts do not increment it).
type AutoPayRule struct {
	ID            string         `json:"id"            gorm:"type:char(36);primaryKey"`
	FarmerAddress string         `json:"farmerAddress" gorm:"type:varchar(64);not null;index:idx_farmer_rules"`
	Trigger       TriggerType    `json:"trigger"       gorm:"type:varchar(32);not null"`
	Condition     *RuleCondition `json:"condition,omitempty" gorm:"serializer:json"`
	Action        string         `json:"action"        gorm:"type:varchar(64);not null"`
	Amount        string         `json:"amount,omitempty" gorm:"type:varchar(32)"`
	Enabled       bool           `json:"enabled"       gorm:"not null"`

	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"-"`
	LastExecuted   *time.Time     `json:"lastExecuted,omitempty"`
	ExecutionCount int64          `json:"executionCount" gorm:"not null;default:0"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for AutoPayRule.
func (AutoPayRule) TableName() string { return "autopay_rules" }

// Document records an uploaded producer document: its content hash, detected
// type, and the outcome of the on-chain registration attempt.
//
// Registered is false when the chain transaction failed; RegisterError then
// carries a human-readable reason. The file itself lives on disk under the
// configured upload directory (StoragePath).
type Document struct {
	ID            string `json:"id"            gorm:"type:char(36);primaryKey"`
	FarmerAddress string `json:"farmerAddress" gorm:"type:varchar(64);not null;index:idx_farmer_docs"`
	Filename      string `json:"filename"      gorm:"type:varchar(255);not null"`
	Hash          string `json:"hash"          gorm:"type:char(64);not null;index"`
	DocType       string `json:"docType"       gorm:"type:varchar(32);not null"`
	SizeBytes     int64  `json:"size"          gorm:"not null"`
	StoragePath   string `json:"-"             gorm:"type:varchar(512);not null"`
	TxHash        string `json:"txHash,omitempty" gorm:"type:varchar(80)"`
	Registered    bool   `json:"registered"    gorm:"not null"`
	RegisterError string `json:"error,omitempty" gorm:"type:text"`

	CreatedAt time.Time      `json:"uploadedAt"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }

// Payment statuses.
const (
	PaymentConfirmed = "confirmed"
	PaymentFailed    = "failed"
)

// Payment records one executed (or failed) x402 micropayment.
//
// AmountWei is the exact transferred value in wei as a decimal string (no
// float drift); Amount is the derived MATIC figure served to clients.
type Payment struct {
	ID            string `json:"id"            gorm:"type:char(36);primaryKey"`
	FarmerAddress string `json:"farmerAddress" gorm:"type:varchar(64);not null;index:idx_farmer_payments"`
	Action        string `json:"action"        gorm:"type:varchar(64);not null"`
	AmountWei     string `json:"-"             gorm:"type:varchar(40);not null"`
	Amount        string `json:"amount"        gorm:"type:varchar(40);not null"`
	TxHash        string `json:"txHash,omitempty" gorm:"type:varchar(80);index"`
	Status        string `json:"status"        gorm:"type:varchar(16);not null;check:status IN ('confirmed','failed')"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Payment.
func (Payment) TableName() string { return "payments" }

// LotEventType enumerates supply-chain events the lot ledger accepts.
type LotEventType string

const (
	LotEventHarvest LotEventType = "HARVEST"
	LotEventShipped LotEventType = "SHIPPED"
	LotEventStorage LotEventType = "STORAGE"
)

// ValidLotEvent reports whether e is a member of the lot event enumeration.
func ValidLotEvent(e LotEventType) bool {
	switch e {
	case LotEventHarvest, LotEventShipped, LotEventStorage:
		return true
	}
	return false
}

// LotEvent records one harvest/shipment/storage event for a produce lot,
// mirrored locally after it has been submitted to the on-chain executor.
type LotEvent struct {
	ID          string       `json:"id"        gorm:"type:char(36);primaryKey"`
	LotID       string       `json:"lotId"     gorm:"type:varchar(64);not null;index:idx_lot_events,priority:1"`
	EventType   LotEventType `json:"eventType" gorm:"type:varchar(16);not null"`
	TxHash      string       `json:"txHash"    gorm:"type:varchar(80);not null"`
	BlockNumber uint64       `json:"blockNumber" gorm:"not null"`

	CreatedAt time.Time      `json:"recordedAt" gorm:"index:idx_lot_events,priority:2"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for LotEvent.
func (LotEvent) TableName() string { return "lot_events" }
