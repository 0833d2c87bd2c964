package reporting_test

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/expense"
	"github.com/frahmantamala/club-ledger/internal/reporting"
)

type fakeLedger struct {
	mu      sync.Mutex
	records []*expense.Expense
	reads   int
	err     error
}

func (l *fakeLedger) Find(_ context.Context, f expense.Filter) ([]*expense.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reads++
	if l.err != nil {
		return nil, l.err
	}
	var out []*expense.Expense
	for _, r := range l.records {
		if f.FiscalYear != "" && r.FiscalYear != f.FiscalYear {
			continue
		}
		if len(f.EventIDs) > 0 && !containsID(f.EventIDs, r.EventID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (l *fakeLedger) readCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

type fakeEvents map[string][]reporting.EventBudget

func (e fakeEvents) Budgets(_ context.Context, fiscalYear string) ([]reporting.EventBudget, error) {
	return e[fiscalYear], nil
}

func (e fakeEvents) EventNames(_ context.Context, ids []int64) (map[int64]string, error) {
	names := map[int64]string{}
	for _, budgets := range e {
		for _, b := range budgets {
			if containsID(ids, b.EventID) {
				names[b.EventID] = b.Name
			}
		}
	}
	return names, nil
}

type fakeMembers map[int64]string

func (m fakeMembers) Names(_ context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	for _, id := range ids {
		out[id] = m[id]
	}
	return out, nil
}

func ledgerRecord(memberID, eventID int64, category expense.Category, status expense.Status, amount int64) *expense.Expense {
	return &expense.Expense{
		MemberID:   memberID,
		EventID:    eventID,
		Category:   category,
		Status:     status,
		Amount:     decimal.NewFromInt(amount),
		Date:       time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC),
		FiscalYear: "2026-2027",
	}
}

var _ = Describe("Reporting Service", func() {
	var (
		ledger  *fakeLedger
		service *reporting.Service
		ctx     context.Context
		logger  *slog.Logger
		clock   = func() time.Time { return time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC) }
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ledger = &fakeLedger{records: []*expense.Expense{
			ledgerRecord(1, 1, expense.CategoryEventMaterial, expense.StatusApproved, 7000),
			ledgerRecord(2, 1, expense.CategoryFoodRefreshments, expense.StatusReimbursed, 5000),
			ledgerRecord(2, 2, expense.CategoryTravelExpense, expense.StatusPending, 800),
			ledgerRecord(3, 2, expense.CategoryDonation, expense.StatusRejected, 300),
		}}
		old := ledgerRecord(1, 3, expense.CategoryDonation, expense.StatusPaid, 99999)
		old.FiscalYear = "2025-2026"
		ledger.records = append(ledger.records, old)

		events := fakeEvents{
			"2025-2026": {
				{EventID: 3, Name: "Farewell gala", EstimatedBudget: decimal.NewFromInt(100000)},
			},
			"2026-2027": {
				{EventID: 1, Name: "Blood donation camp", EstimatedBudget: decimal.NewFromInt(10000)},
				{EventID: 2, Name: "Installation", EstimatedBudget: decimal.NewFromInt(2000)},
			},
		}
		members := fakeMembers{1: "Asha", 2: "Ravi", 3: "Meera"}
		service = reporting.NewService(ledger, events, members, nil, clock, logger)
		ctx = context.Background()
	})

	It("defaults to the current fiscal year", func() {
		totals, err := service.Summary(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(totals.Count).To(Equal(4))
		Expect(totals.TotalExpenses.Equal(decimal.NewFromInt(13100))).To(BeTrue())
		Expect(totals.TotalPaid.IsZero()).To(BeTrue())
	})

	It("reports an explicit fiscal year", func() {
		totals, err := service.Summary(ctx, "2025-2026")
		Expect(err).NotTo(HaveOccurred())
		Expect(totals.Count).To(Equal(1))
		Expect(totals.TotalPaid.Equal(decimal.NewFromInt(99999))).To(BeTrue())
	})

	It("rejects malformed fiscal years", func() {
		_, err := service.Summary(ctx, "2025/26")
		appErr, ok := errors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidFiscalYear))
	})

	It("labels member rollups with names", func() {
		rollups, err := service.Rollup(ctx, "2026-2027", reporting.DimensionMember)
		Expect(err).NotTo(HaveOccurred())
		Expect(rollups[0].GroupKey).To(Equal("1"))
		Expect(rollups[0].Label).To(Equal("Asha"))
	})

	It("labels event rollups with names", func() {
		rollups, err := service.Rollup(ctx, "2026-2027", reporting.DimensionEvent)
		Expect(err).NotTo(HaveOccurred())
		Expect(rollups).To(HaveLen(2))
		Expect(rollups[0].Label).To(Equal("Blood donation camp"))
		Expect(rollups[0].TotalAmount.Equal(decimal.NewFromInt(12000))).To(BeTrue())
	})

	It("rejects unknown dimensions before reading the ledger", func() {
		_, err := service.Rollup(ctx, "", reporting.Dimension("weekday"))
		Expect(errors.IsErrorType(err, errors.ErrorTypeInvalidArgument)).To(BeTrue())
		Expect(ledger.readCount()).To(BeZero())
	})

	It("bounds the contributor limit", func() {
		_, err := service.TopContributors(ctx, "", 0)
		Expect(errors.IsErrorType(err, errors.ErrorTypeInvalidArgument)).To(BeTrue())
		_, err = service.TopContributors(ctx, "", 21)
		Expect(errors.IsErrorType(err, errors.ErrorTypeInvalidArgument)).To(BeTrue())
	})

	It("names the leaderboard", func() {
		board, err := service.Leaderboard(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(board).To(HaveLen(2))
		Expect(board[0].Name).To(Equal("Asha"))
		Expect(board[0].Rank).To(Equal(1))
		Expect(board[1].Name).To(Equal("Ravi"))
	})

	It("reports the budget variance per event", func() {
		variance, err := service.BudgetVariance(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(variance).To(HaveLen(2))

		byEvent := map[int64]reporting.Variance{}
		for _, v := range variance {
			byEvent[v.EventID] = v
		}
		Expect(byEvent[1].Variance.Equal(decimal.NewFromInt(-2000))).To(BeTrue())
		Expect(byEvent[1].Overspent()).To(BeTrue())
		Expect(byEvent[2].Spent.Equal(decimal.NewFromInt(800))).To(BeTrue())
	})

	Context("when expenses are filed after the fiscal year boundary", func() {
		BeforeEach(func() {
			late := ledgerRecord(2, 3, expense.CategoryEventMaterial, expense.StatusApproved, 1500)
			late.FiscalYear = "2026-2027"
			ledger.records = append(ledger.records, late)
		})

		It("charges them to the event's own year", func() {
			variance, err := service.BudgetVariance(ctx, "2025-2026")
			Expect(err).NotTo(HaveOccurred())
			Expect(variance).To(HaveLen(1))
			Expect(variance[0].EventID).To(Equal(int64(3)))
			Expect(variance[0].Count).To(Equal(2))
			Expect(variance[0].Spent.Equal(decimal.NewFromInt(101499))).To(BeTrue())
			Expect(variance[0].Variance.Equal(decimal.NewFromInt(-1499))).To(BeTrue())
		})

		It("keeps the later year's variance to its own events", func() {
			variance, err := service.BudgetVariance(ctx, "2026-2027")
			Expect(err).NotTo(HaveOccurred())
			Expect(variance).To(HaveLen(2))
			for _, v := range variance {
				Expect(v.EventID).NotTo(Equal(int64(3)))
			}
		})

		It("still names the earlier event in the later year's rollup", func() {
			rollups, err := service.Rollup(ctx, "2026-2027", reporting.DimensionEvent)
			Expect(err).NotTo(HaveOccurred())
			labels := map[string]string{}
			for _, r := range rollups {
				labels[r.GroupKey] = r.Label
			}
			Expect(labels).To(HaveKeyWithValue("3", "Farewell gala"))
		})
	})

	It("builds the dashboard from every report", func() {
		dash, err := service.Dashboard(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(dash.FiscalYear).To(Equal("2026-2027"))
		Expect(dash.Summary.Count).To(Equal(4))
		Expect(dash.ByCategory).To(HaveLen(4))
		Expect(dash.ByMonth).To(HaveLen(1))
		Expect(dash.TopContributors).To(HaveLen(2))
		Expect(dash.BudgetVariance).To(HaveLen(2))
	})

	It("fails the dashboard when the ledger is unavailable", func() {
		ledger.err = errors.NewStoreFailureError("expense store unavailable", stderrors.New("connection refused"))
		_, err := service.Dashboard(ctx, "")
		Expect(errors.IsErrorType(err, errors.ErrorTypeStoreFailure)).To(BeTrue())
	})

	Context("with a redis cache", func() {
		var (
			mr    *miniredis.Miniredis
			cache *reporting.Cache
		)

		BeforeEach(func() {
			mr = miniredis.RunT(GinkgoT())
			cache = reporting.NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
			service = reporting.NewService(ledger, nil, nil, cache, clock, logger)
		})

		It("reads the ledger once until invalidated", func() {
			_, err := service.Summary(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Summary(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(ledger.readCount()).To(Equal(1))

			Expect(cache.Invalidate(ctx)).To(Succeed())
			_, err = service.Summary(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(ledger.readCount()).To(Equal(2))
		})

		It("computes directly while redis is down", func() {
			mr.Close()
			totals, err := service.Summary(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(totals.Count).To(Equal(4))
		})
	})
})
