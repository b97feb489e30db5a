// Package services defines the business logic for automatic payments,
// documents, verification, reputation, wallets, and the supply-chain lot
// ledger. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Rule-related errors.
var (
	// ErrRuleNotFound indicates that the requested automatic payment rule
	// does not exist.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrInvalidTrigger is returned when a rule names a trigger outside the
	// supported set.
	ErrInvalidTrigger = errors.New("invalid trigger type")

	// ErrInvalidEventType is returned when a submitted event names a type
	// outside the supported set.
	ErrInvalidEventType = errors.New("invalid event type")

	// ErrInvalidAction is returned when a rule or payment request names an
	// empty action.
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidAmount is returned when a rule amount is not a positive
	// decimal MATIC figure.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNoFieldsToUpdate is returned when a rule update carries no
	// changeable fields.
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

// Address and chain errors.
var (
	// ErrInvalidAddress is returned when a value is not a hex EVM address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrWalletNotConfigured is returned by money-moving operations when no
	// signing key was configured.
	ErrWalletNotConfigured = errors.New("wallet not configured")

	// ErrContractNotConfigured is returned when a contract operation is
	// requested but no CONTRACT_ADDRESS was configured.
	ErrContractNotConfigured = errors.New("contract not configured")

	// ErrInsufficientFunds is returned when the backend wallet holds less
	// than the payment amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrFarmerNotRegistered indicates the farmer has no on-chain record.
	ErrFarmerNotRegistered = errors.New("farmer not registered")

	// ErrInvalidScore is returned when a reputation score is outside 0..100.
	ErrInvalidScore = errors.New("score must be between 0 and 100")

	// ErrInvalidStep is returned when a verification step is outside 1..4.
	ErrInvalidStep = errors.New("step must be between 1 and 4")
)

// Document and lot errors.
var (
	// ErrNoFiles is returned when a document upload carries no files.
	ErrNoFiles = errors.New("no files uploaded")

	// ErrFileTooLarge is returned when an uploaded file exceeds the
	// configured size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidDocType is returned when a declared document type is not in
	// the recognized set.
	ErrInvalidDocType = errors.New("invalid document type")

	// ErrInvalidLotEvent is returned when a lot event type is outside
	// HARVEST, SHIPPED, STORAGE.
	ErrInvalidLotEvent = errors.New("invalid lot event type")

	// ErrUnknownWallet is returned when an agent wallet name is not
	// recognized.
	ErrUnknownWallet = errors.New("unknown wallet")
)
