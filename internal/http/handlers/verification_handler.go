// Verification HTTP handlers.
//
// This file exposes endpoints for the validation pipeline:
//   - POST /verifications      (queue a verification request)
//   - POST /verifications/run  (run the four-step pipeline now)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agritrust/go-agritrust-backend/internal/services"
)

// RequestVerificationRequest is the JSON payload for queuing a verification.
type RequestVerificationRequest struct {
	FarmerAddress  string   `json:"farmerAddress" binding:"required"`
	DocumentHashes []string `json:"documentHashes" binding:"required"`
}

// RunValidationRequest is the JSON payload for an immediate pipeline run.
// Each field carries the document text for its step; empty fields skip the
// step.
type RunValidationRequest struct {
	FarmerAddress string                  `json:"farmerAddress" binding:"required"`
	Documents     services.ValidationDocs `json:"documents" binding:"required"`
}

// RequestVerification godoc
// @ID          requestVerification
// @Summary     Queue a document verification
// @Description Validates the producer's on-chain registration and queues the documents for agent processing.
// @Tags        Verifications
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RequestVerificationRequest  true  "Verification request"
//
// @Success     202  {object}  services.VerificationTicket
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     422  {object}  handlers.ErrorResponse  "Farmer not registered"
// @Failure     502  {object}  handlers.ErrorResponse  "Chain unavailable"
// @Router      /verifications [post]
func (h *Handlers) RequestVerification(c *gin.Context) {
	var req RequestVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ticket, err := h.verify.RequestVerification(c.Request.Context(), req.FarmerAddress, req.DocumentHashes)
	switch {
	case errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrNoFiles):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrFarmerNotRegistered):
		fail(c, http.StatusUnprocessableEntity, ErrCodeNotRegistered, err.Error())
		return
	case errors.Is(err, services.ErrContractNotConfigured):
		fail(c, http.StatusServiceUnavailable, ErrCodeChainUnavailable, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeChainUnavailable, err.Error())
		return
	}
	ok(c, http.StatusAccepted, ticket)
}

// RunValidation godoc
// @ID          runValidation
// @Summary     Run the validation pipeline
// @Description Executes the identity, certification, warehouse, and crop steps for which document text was supplied. Each step analyzes the text, logs the verdict on-chain, and pays the step reward; per-step chain failures are reported in the step records.
// @Tags        Verifications
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RunValidationRequest  true  "Pipeline input"
//
// @Success     200  {object}  services.ValidationResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /verifications/run [post]
func (h *Handlers) RunValidation(c *gin.Context) {
	var req RunValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	result, err := h.verify.RunValidation(c.Request.Context(), req.FarmerAddress, req.Documents)
	if errors.Is(err, services.ErrInvalidAddress) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, result)
}
