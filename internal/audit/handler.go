package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, f Filter) ([]*Entry, error)
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

// ListEntries serves GET /admin/audit-logs.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Action:     q.Get("action"),
		TargetType: q.Get("target_type"),
	}

	for param, dst := range map[string]**int64{"target_id": &f.TargetID, "actor_id": &f.ActorID} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.HandleServiceError(w, errors.NewInvalidArgumentError(param+" must be an integer", errors.ErrCodeInvalidReportFilter))
			return
		}
		*dst = &id
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = l
	}
	if o, err := strconv.Atoi(q.Get("offset")); err == nil {
		f.Offset = o
	}

	entries, err := h.Service.List(r.Context(), f)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"limit":   f.Limit,
		"offset":  f.Offset,
	})
}
