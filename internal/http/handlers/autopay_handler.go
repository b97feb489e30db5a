// AutoPay HTTP handlers.
//
// This file exposes REST endpoints for automatic payment rules:
//   - POST   /autopay/rules        (create)
//   - GET    /autopay/rules        (list, optionally by farmer)
//   - PUT    /autopay/rules/{id}   (partial update)
//   - DELETE /autopay/rules/{id}   (delete)
//   - POST   /autopay/events       (process a domain event)
//   - GET    /autopay/stats        (aggregate counters)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
	"github.com/agritrust/go-agritrust-backend/internal/services"
)

// ProcessEventRequest is the JSON payload for submitting a domain event.
type ProcessEventRequest struct {
	EventType domain.EventType   `json:"eventType" binding:"required" example:"document_validated"`
	Data      services.EventData `json:"data" binding:"required"`
}

// ProcessEventResponse summarizes one event-processing pass.
type ProcessEventResponse struct {
	EventType domain.EventType      `json:"eventType"`
	Processed int                   `json:"processed"`
	Executed  int                   `json:"executed"`
	Failed    int                   `json:"failed"`
	Results   []services.RuleResult `json:"results"`
}

// ListRulesResponse wraps the rule list.
type ListRulesResponse struct {
	Rules []domain.AutoPayRule `json:"rules"`
	Count int                  `json:"count"`
}

// CreateAutoPayRule godoc
// @ID          createAutoPayRule
// @Summary     Create an automatic payment rule
// @Description Registers a rule pairing a trigger with a payment action for a producer.
// @Tags        AutoPay
// @Accept      json
// @Produce     json
//
// @Param       body  body  services.RuleSpec  true  "Rule definition"
//
// @Success     201  {object}  domain.AutoPayRule
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /autopay/rules [post]
func (h *Handlers) CreateAutoPayRule(c *gin.Context) {
	var spec services.RuleSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	rule, err := h.autopay.CreateRule(c.Request.Context(), spec)
	switch {
	case errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrInvalidTrigger),
		errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrInvalidAmount):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, rule)
}

// ListAutoPayRules godoc
// @ID          listAutoPayRules
// @Summary     List automatic payment rules
// @Description Returns all rules, or only the rules of one producer when farmerAddress is given (matched case-insensitively).
// @Tags        AutoPay
// @Produce     json
//
// @Param       farmerAddress  query  string  false  "Filter by producer address"  example(0xA1b2C3d4E5f6A7b8C9d0E1f2A3b4C5d6E7f8A9b0)
//
// @Success     200  {object}  handlers.ListRulesResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /autopay/rules [get]
func (h *Handlers) ListAutoPayRules(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		rules []domain.AutoPayRule
		err   error
	)
	if farmer := strings.TrimSpace(c.Query("farmerAddress")); farmer != "" {
		rules, err = h.autopay.RulesForFarmer(ctx, farmer)
	} else {
		rules, err = h.autopay.Rules(ctx)
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if rules == nil {
		rules = []domain.AutoPayRule{}
	}
	ok(c, http.StatusOK, ListRulesResponse{Rules: rules, Count: len(rules)})
}

// UpdateAutoPayRule godoc
// @ID          updateAutoPayRule
// @Summary     Update an automatic payment rule
// @Description Applies a partial merge to an existing rule; absent fields are left untouched.
// @Tags        AutoPay
// @Accept      json
// @Produce     json
//
// @Param       id    path  string               true  "Rule ID"
// @Param       body  body  services.RuleUpdate  true  "Fields to change"
//
// @Success     200  {object}  domain.AutoPayRule
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Rule not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /autopay/rules/{id} [put]
func (h *Handlers) UpdateAutoPayRule(c *gin.Context) {
	var upd services.RuleUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	rule, err := h.autopay.UpdateRule(c.Request.Context(), c.Param("id"), upd)
	switch {
	case errors.Is(err, services.ErrRuleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "rule not found")
		return
	case errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrInvalidTrigger),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrNoFieldsToUpdate):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, rule)
}

// DeleteAutoPayRule godoc
// @ID          deleteAutoPayRule
// @Summary     Delete an automatic payment rule
// @Description Removes a rule. Deleting an unknown ID yields 404.
// @Tags        AutoPay
// @Produce     json
//
// @Param       id  path  string  true  "Rule ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Rule not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /autopay/rules/{id} [delete]
func (h *Handlers) DeleteAutoPayRule(c *gin.Context) {
	removed, err := h.autopay.DeleteRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if !removed {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "rule not found")
		return
	}
	noContent(c)
}

// ProcessAutoPayEvent godoc
// @ID          processAutoPayEvent
// @Summary     Process a domain event
// @Description Matches the event against enabled rules of the event's producer and executes one payment per match. Per-rule failures are reported as data, never as an HTTP error.
// @Tags        AutoPay
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ProcessEventRequest  true  "Event payload"
//
// @Success     200  {object}  handlers.ProcessEventResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /autopay/events [post]
func (h *Handlers) ProcessAutoPayEvent(c *gin.Context) {
	var req ProcessEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if !domain.ValidEvent(req.EventType) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid event type")
		return
	}
	if strings.TrimSpace(req.Data.FarmerAddress) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "farmerAddress is required")
		return
	}

	results := h.autopay.ProcessEvent(c.Request.Context(), req.EventType, req.Data)

	resp := ProcessEventResponse{
		EventType: req.EventType,
		Processed: len(results),
		Results:   results,
	}
	for _, r := range results {
		if r.Executed {
			resp.Executed++
		} else {
			resp.Failed++
		}
	}
	ok(c, http.StatusOK, resp)
}

// AutoPayStats godoc
// @ID          autoPayStats
// @Summary     Automatic payment statistics
// @Description Returns total rules, enabled rules, and cumulative successful executions.
// @Tags        AutoPay
// @Produce     json
//
// @Success     200  {object}  repo.RuleStats
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /autopay/stats [get]
func (h *Handlers) AutoPayStats(c *gin.Context) {
	stats, err := h.autopay.Stats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}
