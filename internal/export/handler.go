package export

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/transport"
)

const (
	rateLimit  = 10
	rateWindow = time.Minute
)

type ServiceAPI interface {
	PDF(ctx context.Context, label string) (*File, error)
	Spreadsheet(ctx context.Context, label string) (*File, error)
	Bills(ctx context.Context, label string) (*File, error)
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

// RateLimiter limits exports per member, or per client address for
// anonymous callers.
func (h *Handler) RateLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			h.HandleServiceError(w, errors.NewRateLimitedError("export rate limit exceeded, retry later"))
		}),
	)
}

func rateLimitKey(r *http.Request) (string, error) {
	if actor, ok := errors.ActorFromContext(r.Context()); ok {
		return "member:" + strconv.FormatInt(actor.ID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, h.Service.PDF)
}

func (h *Handler) ExportSpreadsheet(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, h.Service.Spreadsheet)
}

func (h *Handler) ExportBills(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, h.Service.Bills)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request, build func(context.Context, string) (*File, error)) {
	year := strings.TrimSpace(r.URL.Query().Get("year"))
	file, err := build(r.Context(), year)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+file.Name+"\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.Logger.Warn("export: client went away", "file", file.Name, "error", err)
	}
}
