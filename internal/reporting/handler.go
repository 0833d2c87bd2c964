package reporting

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/transport"
)

type ServiceAPI interface {
	Rollup(ctx context.Context, year string, dim Dimension) ([]Rollup, error)
	Summary(ctx context.Context, year string) (StatusTotals, error)
	TopContributors(ctx context.Context, year string, limit int) ([]Contributor, error)
	Leaderboard(ctx context.Context, year string) ([]Contributor, error)
	BudgetVariance(ctx context.Context, year string) ([]Variance, error)
	Dashboard(ctx context.Context, year string) (*Dashboard, error)
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

func (h *Handler) GetRollup(w http.ResponseWriter, r *http.Request) {
	year := r.URL.Query().Get("year")
	dim, err := ParseDimension(r.URL.Query().Get("dimension"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	rollups, err := h.Service.Rollup(r.Context(), year, dim)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dimension": dim,
		"year":      year,
		"rollups":   rollups,
	})
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Service.Summary(r.Context(), r.URL.Query().Get("year"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, totals)
}

func (h *Handler) GetTopContributors(w http.ResponseWriter, r *http.Request) {
	limit := TopContributorsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil {
			h.HandleServiceError(w, errors.NewInvalidArgumentError("limit must be an integer", errors.ErrCodeInvalidReportFilter))
			return
		}
		limit = l
	}

	contributors, err := h.Service.TopContributors(r.Context(), r.URL.Query().Get("year"), limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"contributors": contributors})
}

// GetLeaderboard is public and always returns the top 20.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	contributors, err := h.Service.Leaderboard(r.Context(), r.URL.Query().Get("year"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": contributors})
}

// GetBudgetVariance lists estimated budget minus spent for each event of the
// year. Rejected expenses are not counted as spent.
func (h *Handler) GetBudgetVariance(w http.ResponseWriter, r *http.Request) {
	variances, err := h.Service.BudgetVariance(r.Context(), r.URL.Query().Get("year"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": variances})
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Service.Dashboard(r.Context(), r.URL.Query().Get("year"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dash)
}
