// Supply-chain lot ledger HTTP handlers.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
	"github.com/agritrust/go-agritrust-backend/internal/http/middleware"
	"github.com/agritrust/go-agritrust-backend/internal/repo"
	"github.com/agritrust/go-agritrust-backend/internal/services"
)

// RegisterLotEventRequest is the JSON payload for anchoring a lot event.
type RegisterLotEventRequest struct {
	LotID     string `json:"lotId" binding:"required"`
	EventType string `json:"eventType" binding:"required"`
}

// LotEventsResponse wraps a lot's event history.
type LotEventsResponse struct {
	LotID  string            `json:"lotId"`
	Events []domain.LotEvent `json:"events"`
	Count  int               `json:"count"`
}

// RegisterLotEvent godoc
// @ID          registerLotEvent
// @Summary     Anchor a lot event
// @Description Records a supply-chain event (HARVEST, SHIPPED, STORAGE) on-chain through the EVVM executor and persists the receipt. The chain anchor is authoritative: if it fails, nothing is stored. Honors the Idempotency-Key header.
// @Tags        Lots
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false  "Safe-retry key"
// @Param       body             body    handlers.RegisterLotEventRequest  true  "Lot event"
//
// @Success     201  {object}  domain.LotEvent
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Chain anchor failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Wallet not configured"
// @Router      /lots/events [post]
func (h *Handlers) RegisterLotEvent(c *gin.Context) {
	var req RegisterLotEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lotId and eventType are required")
		return
	}

	ctx := c.Request.Context()
	idemKey, hasKey := middleware.GetIdempotencyKey(c)

	// Replay: an already-anchored event with this key must not anchor again.
	if hasKey && middleware.IsReplay(c) {
		if svc, okSvc := h.lots.(*services.LotService); okSvc && svc.DB != nil {
			rec, err := repo.GetIdempotency(ctx, svc.DB, c.FullPath(), idemKey, time.Now().UTC())
			if err == nil && rec != nil {
				if prev, perr := repo.GetLotEvent(ctx, svc.DB, rec.RefID); perr == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, rec.Status, prev)
					return
				}
			}
		}
	}

	event, err := h.lots.RegisterEvent(ctx, req.LotID, domain.LotEventType(req.EventType))
	switch {
	case errors.Is(err, services.ErrInvalidLotEvent):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrWalletNotConfigured):
		fail(c, http.StatusServiceUnavailable, ErrCodeWalletUnavailable, err.Error())
		return
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeChainUnavailable, err.Error())
		return
	}

	if hasKey {
		if svc, okSvc := h.lots.(*services.LotService); okSvc && svc.DB != nil {
			_, _ = repo.CreateIdempotency(ctx, svc.DB, c.FullPath(), idemKey, event.ID, http.StatusCreated, h.idemTTL)
		}
	}
	ok(c, http.StatusCreated, event)
}

// LotEvents godoc
// @ID          lotEvents
// @Summary     Lot event history
// @Description Lists the anchored events of a lot in chronological order.
// @Tags        Lots
// @Produce     json
//
// @Param       lotId  path  string  true  "Lot identifier"
//
// @Success     200  {object}  handlers.LotEventsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /lots/{lotId}/events [get]
func (h *Handlers) LotEvents(c *gin.Context) {
	lotID := c.Param("lotId")
	events, err := h.lots.Events(c.Request.Context(), lotID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list lot events")
		return
	}
	if events == nil {
		events = []domain.LotEvent{}
	}
	ok(c, http.StatusOK, LotEventsResponse{LotID: lotID, Events: events, Count: len(events)})
}
