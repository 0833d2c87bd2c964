package export_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/core/fiscal"
	"github.com/frahmantamala/club-ledger/internal/expense"
	"github.com/frahmantamala/club-ledger/internal/export"
	"github.com/frahmantamala/club-ledger/internal/reporting"
)

type fakeReports struct {
	err error
}

func (f *fakeReports) Dashboard(_ context.Context, label string) (*reporting.Dashboard, error) {
	if f.err != nil {
		return nil, f.err
	}
	return sampleDashboard(), nil
}

func (f *fakeReports) Records(_ context.Context, label string) (fiscal.Year, []*expense.Expense, error) {
	if f.err != nil {
		return fiscal.Year{}, nil, f.err
	}
	year, err := fiscal.Parse("2026-2027")
	return year, sampleRecords(), err
}

type fakeRenderer struct {
	payload export.ReportPayload
	err     error
}

func (f *fakeRenderer) Render(_ context.Context, payload export.ReportPayload) ([]byte, error) {
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF"), nil
}

var _ = Describe("Export Service", func() {
	var (
		reports  *fakeReports
		renderer *fakeRenderer
		service  *export.Service
		now      = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		reports = &fakeReports{}
		renderer = &fakeRenderer{}
		service = export.NewService(reports, renderer, memoryBills{}, "Rotaract Club", time.Second,
			func() time.Time { return now }, logger)
	})

	It("renders the dashboard as pdf", func() {
		file, err := service.PDF(context.Background(), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(file.Name).To(Equal("report-2026-2027.pdf"))
		Expect(file.ContentType).To(Equal("application/pdf"))
		Expect(renderer.payload.ClubName).To(Equal("Rotaract Club"))
		Expect(renderer.payload.GeneratedAt).To(Equal(now))
	})

	It("wraps plain renderer failures", func() {
		renderer.err = stderrors.New("connection refused")
		_, err := service.PDF(context.Background(), "")
		appErr, ok := errors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(errors.ErrCodeRenderFailed))
	})

	It("passes report errors through", func() {
		reports.err = errors.NewInvalidArgumentError("bad year", errors.ErrCodeInvalidFiscalYear)
		_, err := service.Spreadsheet(context.Background(), "20x")
		Expect(errors.IsErrorType(err, errors.ErrorTypeInvalidArgument)).To(BeTrue())
	})

	It("names the spreadsheet and the archive after the year", func() {
		sheet, err := service.Spreadsheet(context.Background(), "2026-2027")
		Expect(err).NotTo(HaveOccurred())
		Expect(sheet.Name).To(Equal("ledger-2026-2027.csv"))

		bills, err := service.Bills(context.Background(), "2026-2027")
		Expect(err).NotTo(HaveOccurred())
		Expect(bills.Name).To(Equal("bills-2026-2027.zip"))
		Expect(bills.Data).NotTo(BeEmpty())
	})

	It("refuses pdf exports without a renderer", func() {
		service = export.NewService(reports, nil, nil, "", time.Second, time.Now,
			slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		_, err := service.PDF(context.Background(), "")
		Expect(errors.IsErrorType(err, errors.ErrorTypePreconditionFailed)).To(BeTrue())
	})
})

var _ = Describe("Export Handler", func() {
	var router chi.Router

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := export.NewService(&fakeReports{}, &fakeRenderer{}, memoryBills{}, "", time.Second, time.Now, logger)
		handler := export.NewHandler(service, logger)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := errors.ContextWithActor(r.Context(), &errors.Actor{ID: 2, Role: errors.RoleTreasurer})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Group(func(r chi.Router) {
			r.Use(handler.RateLimiter())
			r.Get("/reports/export/pdf", handler.ExportPDF)
			r.Get("/reports/export/spreadsheet", handler.ExportSpreadsheet)
		})
	})

	It("sends the file as an attachment", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/export/spreadsheet?year=2026-2027", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(HavePrefix("text/csv"))
		Expect(w.Header().Get("Content-Disposition")).To(ContainSubstring("ledger-2026-2027.csv"))
	})

	It("limits exports per member", func() {
		var last *httptest.ResponseRecorder
		for i := 0; i < 11; i++ {
			last = httptest.NewRecorder()
			router.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/reports/export/pdf", nil))
		}

		Expect(last.Code).To(Equal(http.StatusTooManyRequests))
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(last.Body).Decode(&body)).To(Succeed())
		Expect(body.Error.Code).To(Equal(string(errors.ErrCodeRateLimited)))
	})
})
