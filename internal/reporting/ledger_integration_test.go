package reporting_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	errors "github.com/frahmantamala/club-ledger/internal"
	eventDatamodel "github.com/frahmantamala/club-ledger/internal/core/datamodel/event"
	expenseDatamodel "github.com/frahmantamala/club-ledger/internal/core/datamodel/expense"
	"github.com/frahmantamala/club-ledger/internal/event"
	eventPostgres "github.com/frahmantamala/club-ledger/internal/event/postgres"
	"github.com/frahmantamala/club-ledger/internal/expense"
	expensePostgres "github.com/frahmantamala/club-ledger/internal/expense/postgres"
	"github.com/frahmantamala/club-ledger/internal/reporting"
)

var _ = Describe("Reporting over the ledger store", func() {
	var (
		db       *gorm.DB
		events   *event.Service
		expenses *expense.Service
		reports  *reporting.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&eventDatamodel.Event{}, &expenseDatamodel.Expense{})).To(Succeed())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		clock := func() time.Time { return time.Date(2026, time.July, 3, 11, 0, 0, 0, time.UTC) }

		events = event.NewService(eventPostgres.NewEventRepository(db), time.Second, clock, logger)
		expenses = expense.NewService(expensePostgres.NewExpenseRepository(db), expense.Collaborators{Events: events}, time.Second, clock, logger)
		reports = reporting.NewService(expenses, events, nil, nil, clock, logger)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("counts bills settled in July against a June event", func() {
		treasurer := &errors.Actor{ID: 2, Role: errors.RoleTreasurer}
		gala, err := events.Create(ctx, treasurer, event.CreateEventDTO{
			Name: "Farewell gala", Date: "2026-06-28", EstimatedBudget: decimal.NewFromInt(10000),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(gala.FiscalYear).To(Equal("2025-2026"))

		filed, err := expenses.Submit(ctx, &errors.Actor{ID: 5, Role: errors.RoleMember}, expense.SubmitExpenseDTO{
			EventID:     gala.ID,
			Category:    string(expense.CategoryEventMaterial),
			Amount:      decimal.NewFromInt(12000),
			Date:        "2026-06-28",
			PaymentMode: string(expense.PaymentModeUPI),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(filed.FiscalYear).To(Equal("2026-2027"))

		variance, err := reports.BudgetVariance(ctx, "2025-2026")
		Expect(err).NotTo(HaveOccurred())
		Expect(variance).To(HaveLen(1))
		Expect(variance[0].Spent.Equal(decimal.NewFromInt(12000))).To(BeTrue())
		Expect(variance[0].Variance.Equal(decimal.NewFromInt(-2000))).To(BeTrue())
		Expect(variance[0].Count).To(Equal(1))

		later, err := reports.BudgetVariance(ctx, "2026-2027")
		Expect(err).NotTo(HaveOccurred())
		Expect(later).To(BeEmpty())

		rollups, err := reports.Rollup(ctx, "2026-2027", reporting.DimensionEvent)
		Expect(err).NotTo(HaveOccurred())
		Expect(rollups).To(HaveLen(1))
		Expect(rollups[0].Label).To(Equal("Farewell gala"))
	})
})
