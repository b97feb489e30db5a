package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
	"github.com/agritrust/go-agritrust-backend/internal/services"
)

// Flexible lot service stub; unset funcs return fixed values.
type stubLotSvc struct {
	register func(context.Context, string, domain.LotEventType) (*domain.LotEvent, error)
	events   func(context.Context, string) ([]domain.LotEvent, error)
}

func (s stubLotSvc) RegisterEvent(ctx context.Context, lotID string, et domain.LotEventType) (*domain.LotEvent, error) {
	if s.register != nil {
		return s.register(ctx, lotID, et)
	}
	return &domain.LotEvent{ID: "e1", LotID: lotID, EventType: et, TxHash: "0xanchor", BlockNumber: 42}, nil
}

func (s stubLotSvc) Events(ctx context.Context, lotID string) ([]domain.LotEvent, error) {
	if s.events != nil {
		return s.events(ctx, lotID)
	}
	return nil, nil
}

func newLotRouter(svc LotService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(nil, nil, nil, nil, nil, nil, nil, svc, 10<<20, 0)
	r := gin.New()
	r.POST("/lots/events", h.RegisterLotEvent)
	r.GET("/lots/:lotId/events", h.LotEvents)
	return r
}

func TestRegisterLotEvent(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		r := newLotRouter(stubLotSvc{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/lots/events", bytes.NewBufferString(`{"lotId":"LOT-1"}`)))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("missing eventType -> %d", w.Code)
		}
	})

	t.Run("status mapping", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			want int
		}{
			{"invalid event", services.ErrInvalidLotEvent, http.StatusBadRequest},
			{"no signer", services.ErrWalletNotConfigured, http.StatusServiceUnavailable},
			{"anchor failure", context.DeadlineExceeded, http.StatusBadGateway},
		}
		for _, tc := range cases {
			r := newLotRouter(stubLotSvc{
				register: func(context.Context, string, domain.LotEventType) (*domain.LotEvent, error) {
					return nil, tc.err
				},
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/lots/events",
				bytes.NewBufferString(`{"lotId":"LOT-1","eventType":"HARVEST"}`)))
			if w.Code != tc.want {
				t.Fatalf("%s -> %d, want %d", tc.name, w.Code, tc.want)
			}
		}
	})

	t.Run("anchored", func(t *testing.T) {
		r := newLotRouter(stubLotSvc{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/lots/events",
			bytes.NewBufferString(`{"lotId":"LOT-1","eventType":"HARVEST"}`)))
		if w.Code != http.StatusCreated {
			t.Fatalf("register -> %d (%s)", w.Code, w.Body.String())
		}
		var event domain.LotEvent
		if err := json.Unmarshal(w.Body.Bytes(), &event); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if event.TxHash != "0xanchor" || event.EventType != domain.LotEventHarvest {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}

func TestLotEvents(t *testing.T) {
	t.Run("nil becomes empty array", func(t *testing.T) {
		r := newLotRouter(stubLotSvc{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lots/LOT-1/events", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("events -> %d", w.Code)
		}
		var resp LotEventsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.LotID != "LOT-1" || resp.Events == nil || resp.Count != 0 {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("lists events", func(t *testing.T) {
		r := newLotRouter(stubLotSvc{
			events: func(_ context.Context, lotID string) ([]domain.LotEvent, error) {
				return []domain.LotEvent{{ID: "e1", LotID: lotID}, {ID: "e2", LotID: lotID}}, nil
			},
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lots/LOT-1/events", nil))
		var resp LotEventsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Count != 2 {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("repo failure", func(t *testing.T) {
		r := newLotRouter(stubLotSvc{
			events: func(context.Context, string) ([]domain.LotEvent, error) {
				return nil, context.DeadlineExceeded
			},
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lots/LOT-1/events", nil))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("repo failure -> %d", w.Code)
		}
	})
}
