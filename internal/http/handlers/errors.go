// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror common HTTP status
// semantics; domain-specific codes cover business failures that a status
// alone cannot convey (payment execution, chain configuration). Handlers
// select the most specific matching code and pass it to fail() along with
// the corresponding HTTP status and message.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeCreateFailed      = "create_failed"
	ErrCodeListFailed        = "list_failed"
	ErrCodeUpdateFailed      = "update_failed"
	ErrCodePaymentFailed     = "payment_failed"
	ErrCodeUploadFailed      = "upload_failed"
	ErrCodeChainUnavailable  = "chain_unavailable"
	ErrCodeWalletUnavailable = "wallet_unavailable"
	ErrCodeNotRegistered     = "farmer_not_registered"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)
