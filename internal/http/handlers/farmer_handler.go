// Farmer HTTP handlers.
//
// This file exposes endpoints for producer status and reputation:
//   - GET  /farmers/{address}/status      (aggregated on-chain state)
//   - POST /farmers/{address}/reputation  (set score, fires autopay rules)
//   - POST /farmers                       (register on-chain)
//   - POST /farmers/{address}/report      (trust report)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agritrust/go-agritrust-backend/internal/services"
)

// RegisterFarmerRequest is the JSON payload for registering a producer.
type RegisterFarmerRequest struct {
	Address  string `json:"address" binding:"required"`
	FarmerID string `json:"farmerId" binding:"required"`
}

// UpdateReputationRequest is the JSON payload for a reputation change.
type UpdateReputationRequest struct {
	NewScore *int `json:"newScore" binding:"required"`
}

// FarmerStatus godoc
// @ID          farmerStatus
// @Summary     Producer status
// @Description Aggregates the producer's on-chain record, documents, verifications, and certifications. Unregistered producers yield a zeroed status.
// @Tags        Farmers
// @Produce     json
//
// @Param       address  path  string  true  "Producer address"
//
// @Success     200  {object}  services.FarmerStatus
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Chain unavailable"
// @Router      /farmers/{address}/status [get]
func (h *Handlers) FarmerStatus(c *gin.Context) {
	status, err := h.farmers.Status(c.Request.Context(), c.Param("address"))
	switch {
	case errors.Is(err, services.ErrInvalidAddress):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrContractNotConfigured):
		fail(c, http.StatusServiceUnavailable, ErrCodeChainUnavailable, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeChainUnavailable, err.Error())
		return
	}
	ok(c, http.StatusOK, status)
}

// RegisterFarmer godoc
// @ID          registerFarmer
// @Summary     Register a producer
// @Description Creates the on-chain farmer record. Owner-only contract call.
// @Tags        Farmers
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterFarmerRequest  true  "Producer record"
//
// @Success     201  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Chain unavailable"
// @Router      /farmers [post]
func (h *Handlers) RegisterFarmer(c *gin.Context) {
	var req RegisterFarmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	txHash, err := h.farmers.Register(c.Request.Context(), req.Address, req.FarmerID)
	switch {
	case errors.Is(err, services.ErrInvalidAddress):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrContractNotConfigured):
		fail(c, http.StatusServiceUnavailable, ErrCodeChainUnavailable, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeChainUnavailable, err.Error())
		return
	}
	ok(c, http.StatusCreated, gin.H{
		"address":  req.Address,
		"farmerId": req.FarmerID,
		"txHash":   txHash,
	})
}

// UpdateReputation godoc
// @ID          updateReputation
// @Summary     Update a producer's reputation
// @Description Sets the score (0-100) on-chain and feeds a reputation_updated event into the automatic payment engine; matched rule outcomes are included in the response.
// @Tags        Farmers
// @Accept      json
// @Produce     json
//
// @Param       address  path  string  true  "Producer address"
// @Param       body     body  handlers.UpdateReputationRequest  true  "New score"
//
// @Success     200  {object}  services.ReputationChange
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Chain unavailable"
// @Failure     503  {object}  handlers.ErrorResponse  "Wallet not configured"
// @Router      /farmers/{address}/reputation [post]
func (h *Handlers) UpdateReputation(c *gin.Context) {
	var req UpdateReputationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NewScore == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "newScore is required")
		return
	}

	change, err := h.farmers.UpdateReputation(c.Request.Context(), c.Param("address"), *req.NewScore)
	switch {
	case errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrInvalidScore):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrContractNotConfigured):
		fail(c, http.StatusServiceUnavailable, ErrCodeChainUnavailable, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeChainUnavailable, err.Error())
		return
	}
	ok(c, http.StatusOK, change)
}

// GenerateReport godoc
// @ID          generateReport
// @Summary     Generate a trust report
// @Description Builds the agricultural trust report from the on-chain record and charges the report fee (best effort).
// @Tags        Farmers
// @Produce     json
//
// @Param       address  path  string  true  "Producer address"
//
// @Success     200  {object}  services.TrustReport
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Chain unavailable"
// @Router      /farmers/{address}/report [post]
func (h *Handlers) GenerateReport(c *gin.Context) {
	report, err := h.reports.Generate(c.Request.Context(), c.Param("address"))
	switch {
	case errors.Is(err, services.ErrInvalidAddress):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrContractNotConfigured):
		fail(c, http.StatusServiceUnavailable, ErrCodeChainUnavailable, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeChainUnavailable, err.Error())
		return
	}
	ok(c, http.StatusOK, report)
}
