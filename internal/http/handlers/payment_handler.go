// Payment HTTP handlers.
//
// This file exposes REST endpoints for x402 micropayments:
//   - POST /payments          (execute one)
//   - POST /payments/batch    (execute many, independent outcomes)
//   - GET  /payments          (history for a producer, paginated)
//   - GET  /payments/balance  (backend wallet balance)
//   - GET  /payments/rates    (default per-action rates)
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
	"github.com/agritrust/go-agritrust-backend/internal/http/middleware"
	"github.com/agritrust/go-agritrust-backend/internal/repo"
	"github.com/agritrust/go-agritrust-backend/internal/services"
)

// ExecutePaymentRequest is the JSON payload for a single payment.
type ExecutePaymentRequest struct {
	FarmerAddress string `json:"farmerAddress" binding:"required" example:"0xA1b2C3d4E5f6A7b8C9d0E1f2A3b4C5d6E7f8A9b0"`
	Action        string `json:"action" binding:"required" example:"document_validation"`
	Amount        string `json:"amount,omitempty" example:"0.001"`
}

// BatchPaymentRequest is the JSON payload for a payment batch.
type BatchPaymentRequest struct {
	Payments []services.BatchItem `json:"payments" binding:"required"`
}

// BatchPaymentResponse summarizes a batch run.
type BatchPaymentResponse struct {
	Executed int                    `json:"executed"`
	Failed   int                    `json:"failed"`
	Results  []services.BatchResult `json:"results"`
}

// BalanceResponse reports the backend wallet state.
type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Unit    string `json:"unit"`
}

// PaymentHistoryResponse wraps a page of payments.
type PaymentHistoryResponse struct {
	Payments   []domain.Payment `json:"payments"`
	Pagination Pagination       `json:"pagination"`
}

// ExecutePayment godoc
// @ID          executePayment
// @Summary     Execute a micropayment
// @Description Transfers the resolved amount to the producer and records the payment. Honors the Idempotency-Key header.
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false  "Safe-retry key"
// @Param       body             body    handlers.ExecutePaymentRequest  true  "Payment request"
//
// @Success     200  {object}  services.PaymentResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Payment failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Wallet not configured"
// @Router      /payments [post]
func (h *Handlers) ExecutePayment(c *gin.Context) {
	var req ExecutePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	idemKey, hasKey := middleware.GetIdempotencyKey(c)

	// Replay: a completed payment with this key must not pay again. The
	// stored record points at the original transfer's receipt row.
	if hasKey && middleware.IsReplay(c) {
		if svc, okSvc := h.payments.(*services.PaymentService); okSvc && svc.DB != nil {
			rec, err := repo.GetIdempotency(ctx, svc.DB, c.FullPath(), idemKey, time.Now().UTC())
			if err == nil && rec != nil {
				if prev, perr := repo.GetPaymentByTxHash(ctx, svc.DB, rec.RefID); perr == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, rec.Status, services.PaymentResult{
						TxHash:        prev.TxHash,
						Amount:        prev.Amount,
						Action:        prev.Action,
						FarmerAddress: prev.FarmerAddress,
						Status:        prev.Status,
					})
					return
				}
			}
		}
	}

	result, err := h.payments.ExecutePayment(ctx, req.FarmerAddress, req.Action, req.Amount)
	switch {
	case errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrInvalidAmount):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrWalletNotConfigured):
		fail(c, http.StatusServiceUnavailable, ErrCodeWalletUnavailable, err.Error())
		return
	case errors.Is(err, services.ErrInsufficientFunds):
		fail(c, http.StatusBadGateway, ErrCodePaymentFailed, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodePaymentFailed, err.Error())
		return
	}

	// Best effort: a failed store only means a retry pays twice, which is
	// the behavior without the header anyway.
	if hasKey {
		if svc, okSvc := h.payments.(*services.PaymentService); okSvc && svc.DB != nil {
			_, _ = repo.CreateIdempotency(ctx, svc.DB, c.FullPath(), idemKey, result.TxHash, http.StatusOK, h.idemTTL)
		}
	}
	ok(c, http.StatusOK, result)
}

// ExecuteBatchPayments godoc
// @ID          executeBatchPayments
// @Summary     Execute a batch of micropayments
// @Description Runs each payment independently; one failure does not stop the rest.
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.BatchPaymentRequest  true  "Batch request"
//
// @Success     200  {object}  handlers.BatchPaymentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /payments/batch [post]
func (h *Handlers) ExecuteBatchPayments(c *gin.Context) {
	var req BatchPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Payments) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "payments array required")
		return
	}

	results := h.payments.ExecuteBatch(c.Request.Context(), req.Payments)
	resp := BatchPaymentResponse{Results: results}
	for _, r := range results {
		if r.Executed {
			resp.Executed++
		} else {
			resp.Failed++
		}
	}
	ok(c, http.StatusOK, resp)
}

// PaymentHistory godoc
// @ID          paymentHistory
// @Summary     Payment history for a producer
// @Description Returns a page of a producer's payments, newest first.
// @Tags        Payments
// @Produce     json
//
// @Param       farmerAddress  query  string  true   "Producer address"
// @Param       page           query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.PaymentHistoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /payments [get]
func (h *Handlers) PaymentHistory(c *gin.Context) {
	farmer := strings.TrimSpace(c.Query("farmerAddress"))
	if farmer == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "farmerAddress is required")
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.payments.History(c.Request.Context(), farmer, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Payment{}
	}
	ok(c, http.StatusOK, PaymentHistoryResponse{
		Payments:   items,
		Pagination: paginate(page, pageSize, total),
	})
}

// WalletBalance godoc
// @ID          walletBalance
// @Summary     Backend wallet balance
// @Description Returns the paying wallet's address and MATIC balance.
// @Tags        Payments
// @Produce     json
//
// @Success     200  {object}  handlers.BalanceResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Chain unavailable"
// @Failure     503  {object}  handlers.ErrorResponse  "Wallet not configured"
// @Router      /payments/balance [get]
func (h *Handlers) WalletBalance(c *gin.Context) {
	balance, err := h.payments.Balance(c.Request.Context())
	switch {
	case errors.Is(err, services.ErrWalletNotConfigured):
		fail(c, http.StatusServiceUnavailable, ErrCodeWalletUnavailable, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeChainUnavailable, err.Error())
		return
	}
	ok(c, http.StatusOK, BalanceResponse{
		Address: h.payments.WalletAddress(),
		Balance: balance,
		Unit:    "MATIC",
	})
}

// PaymentRates godoc
// @ID          paymentRates
// @Summary     Default payment rates
// @Description Returns the default MATIC amount per payment action.
// @Tags        Payments
// @Produce     json
//
// @Success     200  {object}  map[string]string
// @Router      /payments/rates [get]
func (h *Handlers) PaymentRates(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"rates": h.payments.Rates(),
		"unit":  "MATIC",
	})
}
