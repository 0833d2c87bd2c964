package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/club-ledger/internal/audit"
	"github.com/frahmantamala/club-ledger/internal/auth"
	"github.com/frahmantamala/club-ledger/internal/category"
	"github.com/frahmantamala/club-ledger/internal/event"
	"github.com/frahmantamala/club-ledger/internal/expense"
	"github.com/frahmantamala/club-ledger/internal/export"
	"github.com/frahmantamala/club-ledger/internal/member"
	"github.com/frahmantamala/club-ledger/internal/reporting"
	"github.com/frahmantamala/club-ledger/internal/transport/middleware"
	"github.com/frahmantamala/club-ledger/internal/transport/swagger"
)

// Handlers groups the HTTP handlers mounted under /api/v1. A nil handler
// leaves its routes unmounted.
type Handlers struct {
	Health    *HealthHandler
	Auth      *auth.Handler
	Member    *member.Handler
	Event     *event.Handler
	Category  *category.Handler
	Expense   *expense.Handler
	Reporting *reporting.Handler
	Export    *export.Handler
	Audit     *audit.Handler
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, authService *auth.Service, logger *slog.Logger) {
	rbac := authService.RBACAuthorization()

	// Apply global middleware
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// OpenAPI document and Swagger UI live outside the API prefix
	router.Get("/openapi.yml", swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		// Public routes
		if h.Category != nil {
			r.Get("/categories", h.Category.GetCategories)
			r.Get("/categories/{name}", h.Category.GetCategory)
		}
		if h.Reporting != nil {
			r.Get("/reports/leaderboard", h.Reporting.GetLeaderboard)
		}

		if h.Auth == nil {
			return
		}

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.MemberContext)

			if h.Member != nil {
				pr.Get("/members/me", h.Member.GetCurrentMember)
				pr.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireAdmin())
					ar.Post("/members", h.Member.RegisterMember)
					ar.Get("/members", h.Member.ListMembers)
					ar.Get("/members/{id}", h.Member.GetMember)
				})
			}

			if h.Event != nil {
				pr.Get("/events", h.Event.ListEvents)
				pr.Get("/events/{id}", h.Event.GetEvent)
				pr.With(rbac.RequireApprover()).Post("/events", h.Event.CreateEvent)
			}

			if h.Expense != nil {
				pr.Route("/expenses", func(er chi.Router) {
					er.Post("/", h.Expense.SubmitExpense)
					er.Get("/", h.Expense.ListExpenses)
					er.Get("/{id}", h.Expense.GetExpense)

					er.Group(func(mr chi.Router) {
						mr.Use(rbac.RequireApprover())
						mr.Post("/{id}/approve", h.Expense.ApproveExpense)
						mr.Post("/{id}/reject", h.Expense.RejectExpense)
						mr.Post("/{id}/reimburse", h.Expense.ReimburseExpense)
					})

					er.Group(func(ar chi.Router) {
						ar.Use(rbac.RequireAdmin())
						ar.Post("/administrative", h.Expense.CreateAdministrativeExpense)
						ar.Delete("/{id}", h.Expense.PurgeExpense)
					})
				})

				pr.With(rbac.RequireAdmin()).Post("/fiscal-years/{year}/close", h.Expense.CloseFiscalYear)
			}

			if h.Reporting != nil {
				pr.Route("/reports", func(rr chi.Router) {
					rr.Get("/rollup", h.Reporting.GetRollup)
					rr.Get("/summary", h.Reporting.GetSummary)
					rr.Get("/top-contributors", h.Reporting.GetTopContributors)
					rr.Get("/budget-variance", h.Reporting.GetBudgetVariance)
					rr.Get("/dashboard", h.Reporting.GetDashboard)

					if h.Export != nil {
						rr.Group(func(xr chi.Router) {
							xr.Use(rbac.RequireApprover())
							xr.Use(h.Export.RateLimiter())
							xr.Get("/export/pdf", h.Export.ExportPDF)
							xr.Get("/export/spreadsheet", h.Export.ExportSpreadsheet)
							xr.Get("/export/bills", h.Export.ExportBills)
						})
					}
				})
			}

			if h.Audit != nil {
				pr.With(rbac.RequireAdmin()).Get("/admin/audit-logs", h.Audit.ListEntries)
			}
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"NOT_FOUND","code":"ROUTE_NOT_FOUND","message":"route not found"}}`))
	})
}
