package event

import (
	"context"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor *errors.Actor, dto CreateEventDTO) (*Event, error)
	Get(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context, label string) (string, []*Event, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     service,
	}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateEventDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	created, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	e, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	year, events, err := h.Service.List(r.Context(), r.URL.Query().Get("year"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if events == nil {
		events = []*Event{}
	}

	h.WriteJSON(w, http.StatusOK, EventsResponse{FiscalYear: year, Events: events})
}
