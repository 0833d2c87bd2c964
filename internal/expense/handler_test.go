package expense_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/expense"
)

var _ = Describe("Expense Handler", func() {
	var (
		repo   *mockExpenseRepository
		router chi.Router
		actor  *errors.Actor
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = newMockExpenseRepository()
		now := time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)
		service := expense.NewService(repo, expense.Collaborators{}, time.Second, func() time.Time { return now }, logger)
		handler := expense.NewHandler(service, logger)
		actor = &errors.Actor{ID: 9, Role: errors.RoleTreasurer}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if actor != nil {
					r = r.WithContext(errors.ContextWithActor(r.Context(), actor))
				}
				next.ServeHTTP(w, r)
			})
		})
		router.Post("/expenses", handler.SubmitExpense)
		router.Get("/expenses/{id}", handler.GetExpense)
		router.Post("/expenses/{id}/approve", handler.ApproveExpense)
		router.Post("/expenses/{id}/reject", handler.RejectExpense)
		router.Get("/expenses", handler.ListExpenses)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req.WithContext(context.Background()))
		return w
	}

	errorCode := func(w *httptest.ResponseRecorder) string {
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body.Error.Code
	}

	It("creates an expense from a JSON body", func() {
		w := do(http.MethodPost, "/expenses",
			`{"event_id":1,"category":"travel_expense","amount":"1500","date":"2026-10-01","payment_mode":"upi"}`)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var created expense.Expense
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Status).To(Equal(expense.StatusPending))
		Expect(created.Amount.Equal(decimal.NewFromInt(1500))).To(BeTrue())
	})

	It("answers 401 without an authenticated member", func() {
		actor = nil
		w := do(http.MethodGet, "/expenses/1", "")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("answers 400 for a rejection without reason", func() {
		id := repo.seed(expense.StatusPending)
		w := do(http.MethodPost, "/expenses/"+itoa(id)+"/reject", `{"reason":""}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal(string(errors.ErrCodeValidationFailed)))
	})

	It("answers 422 for an illegal transition", func() {
		id := repo.seed(expense.StatusRejected)
		w := do(http.MethodPost, "/expenses/"+itoa(id)+"/approve", "")

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(errorCode(w)).To(Equal(string(errors.ErrCodeInvalidExpenseStatus)))
	})

	It("answers 409 when the store reports a lost race", func() {
		id := repo.seed(expense.StatusPending)
		repo.updateError = errors.ErrTransitionConflict
		w := do(http.MethodPost, "/expenses/"+itoa(id)+"/approve", "")

		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("answers 404 for unknown expenses", func() {
		w := do(http.MethodGet, "/expenses/12345", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("answers 400 for malformed list filters", func() {
		w := do(http.MethodGet, "/expenses?status=lost", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal(string(errors.ErrCodeInvalidReportFilter)))
	})
})

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
