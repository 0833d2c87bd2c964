package expense

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/transport"
)

type ServiceAPI interface {
	Submit(ctx context.Context, actor *errors.Actor, dto SubmitExpenseDTO) (*Expense, error)
	CreateAdministrative(ctx context.Context, actor *errors.Actor, dto AdministrativeExpenseDTO) (*Expense, error)
	Get(ctx context.Context, actor *errors.Actor, id int64) (*Expense, error)
	List(ctx context.Context, actor *errors.Actor, f Filter) ([]*Expense, error)
	Transition(ctx context.Context, actor *errors.Actor, id int64, cmd Command) (*Expense, error)
	Purge(ctx context.Context, actor *errors.Actor, id int64) error
	CloseFiscalYear(ctx context.Context, actor *errors.Actor, label string) (int64, error)
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

func (h *Handler) SubmitExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto SubmitExpenseDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	expense, err := h.Service.Submit(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SubmitExpense: expense submitted",
		"expense_id", expense.ID,
		"member_id", actor.ID,
		"amount", expense.Amount.String())

	h.WriteJSON(w, http.StatusCreated, expense)
}

func (h *Handler) CreateAdministrativeExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto AdministrativeExpenseDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	expense, err := h.Service.CreateAdministrative(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, expense)
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	expense, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expense)
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit := 20
	offset := 0

	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if o, err := strconv.Atoi(q.Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	filter, err := ListQuery{
		MemberID:   q.Get("member_id"),
		EventID:    q.Get("event_id"),
		Status:     q.Get("status"),
		Category:   q.Get("category"),
		FiscalYear: q.Get("fiscal_year"),
		DateFrom:   q.Get("from"),
		DateTo:     q.Get("to"),
		Limit:      limit,
		Offset:     offset,
	}.ToFilter()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	expenses, err := h.Service.List(r.Context(), actor, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request) (Command, bool) {
		return Approve{}, true
	})
}

func (h *Handler) RejectExpense(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request) (Command, bool) {
		var dto RejectExpenseDTO
		if !h.DecodeJSON(w, r, &dto) {
			return nil, false
		}
		return Reject{Reason: dto.Reason}, true
	})
}

func (h *Handler) ReimburseExpense(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request) (Command, bool) {
		var dto ReimburseExpenseDTO
		if !h.DecodeJSON(w, r, &dto) {
			return nil, false
		}
		return Reimburse{Reference: dto.Reference}, true
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, decode func(*http.Request) (Command, bool)) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	cmd, ok := decode(r)
	if !ok {
		return
	}

	expense, err := h.Service.Transition(r.Context(), actor, id, cmd)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("expense status changed",
		"expense_id", id,
		"action", cmd.Action(),
		"status", expense.Status,
		"actor_id", actor.ID)

	h.WriteJSON(w, http.StatusOK, expense)
}

func (h *Handler) PurgeExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Purge(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CloseFiscalYear(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	year := chi.URLParam(r, "year")
	archived, err := h.Service.CloseFiscalYear(r.Context(), actor, year)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CloseFiscalYearResponse{FiscalYear: year, Archived: archived})
}
