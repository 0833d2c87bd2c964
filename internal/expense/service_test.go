package expense_test

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/audit"
	"github.com/frahmantamala/club-ledger/internal/core/events"
	"github.com/frahmantamala/club-ledger/internal/expense"
)

func TestExpense(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Expense Service Suite")
}

// mockExpenseRepository mirrors the store contract: Update only applies
// while the record is still in the transition's source status.
type mockExpenseRepository struct {
	mu          sync.Mutex
	expenses    map[int64]*expense.Expense
	nextID      int64
	insertError error
	findError   error
	updateError error
	updateCalls int
}

func newMockExpenseRepository() *mockExpenseRepository {
	return &mockExpenseRepository{
		expenses: make(map[int64]*expense.Expense),
		nextID:   1,
	}
}

func (m *mockExpenseRepository) Insert(ctx context.Context, e *expense.Expense) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertError != nil {
		return 0, m.insertError
	}
	id := m.nextID
	m.nextID++
	stored := *e
	stored.ID = id
	m.expenses[id] = &stored
	return id, nil
}

func (m *mockExpenseRepository) FindByID(ctx context.Context, id int64) (*expense.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findError != nil {
		return nil, m.findError
	}
	e, ok := m.expenses[id]
	if !ok {
		return nil, errors.ErrExpenseNotFound
	}
	out := *e
	return &out, nil
}

func (m *mockExpenseRepository) FindByFilter(ctx context.Context, f expense.Filter) ([]*expense.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*expense.Expense
	for _, e := range m.expenses {
		if f.MemberID != nil && e.MemberID != *f.MemberID {
			continue
		}
		copied := *e
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockExpenseRepository) Update(ctx context.Context, id int64, t expense.Transition) (*expense.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateError != nil {
		return nil, m.updateError
	}
	e, ok := m.expenses[id]
	if !ok {
		return nil, errors.ErrExpenseNotFound
	}
	if e.Status != t.From || e.Archived {
		return nil, errors.ErrTransitionConflict
	}
	m.expenses[id] = t.Apply(e)
	out := *m.expenses[id]
	return &out, nil
}

func (m *mockExpenseRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expenses, id)
	return nil
}

func (m *mockExpenseRepository) ArchiveFiscalYear(ctx context.Context, fiscalYear string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.expenses {
		if e.FiscalYear == fiscalYear && !e.Archived {
			e.Archived = true
			n++
		}
	}
	return n, nil
}

// seed stores a record directly, bypassing Submit.
func (m *mockExpenseRepository) seed(status expense.Status) int64 {
	id, _ := m.Insert(context.Background(), &expense.Expense{
		MemberID:    3,
		EventID:     1,
		Category:    expense.CategoryTravelExpense,
		Amount:      decimal.NewFromInt(1500),
		PaymentMode: expense.PaymentModeUPI,
		Status:      status,
		FiscalYear:  "2026-2027",
	})
	return id
}

type mockEventLookup struct {
	known map[int64]bool
}

func (m *mockEventLookup) EventExists(ctx context.Context, id int64) (bool, error) {
	return m.known[id], nil
}

type mockAuditRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
	err     error
}

func (m *mockAuditRecorder) Record(ctx context.Context, entry audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []events.Event
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	return m.err
}

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.published))
	for i, e := range m.published {
		out[i] = e.EventType()
	}
	return out
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

func appErrorOf(err error) *errors.AppError {
	appErr, ok := errors.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	return appErr
}

var _ = Describe("ExpenseService", func() {
	var (
		service   *expense.Service
		repo      *mockExpenseRepository
		recorder  *mockAuditRecorder
		publisher *mockPublisher
		cache     *countingInvalidator
		ctx       context.Context
		now       time.Time
		member    *errors.Actor
		treasurer *errors.Actor
	)

	BeforeEach(func() {
		repo = newMockExpenseRepository()
		recorder = &mockAuditRecorder{}
		publisher = &mockPublisher{}
		cache = &countingInvalidator{}
		now = time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		service = expense.NewService(repo, expense.Collaborators{
			Events:    &mockEventLookup{known: map[int64]bool{1: true}},
			Audit:     recorder,
			Publisher: publisher,
			Cache:     cache,
		}, time.Second, func() time.Time { return now }, logger)

		ctx = context.Background()
		member = &errors.Actor{ID: 3, Role: errors.RoleMember}
		treasurer = &errors.Actor{ID: 9, Role: errors.RoleTreasurer}
	})

	submitDTO := func() expense.SubmitExpenseDTO {
		return expense.SubmitExpenseDTO{
			EventID:     1,
			Category:    string(expense.CategoryTravelExpense),
			Amount:      decimal.NewFromInt(1500),
			Description: "Train tickets",
			Date:        "2026-10-01",
			PaymentMode: string(expense.PaymentModeUPI),
		}
	}

	Describe("Submit", func() {
		It("records a pending expense in the current fiscal year", func() {
			// When
			result, err := service.Submit(ctx, member, submitDTO())

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ID).To(BeNumerically(">", 0))
			Expect(result.Status).To(Equal(expense.StatusPending))
			Expect(result.MemberID).To(Equal(member.ID))
			Expect(result.FiscalYear).To(Equal("2026-2027"))
			Expect(publisher.types()).To(ConsistOf(events.EventTypeExpenseSubmitted))
			Expect(cache.calls).To(Equal(1))
		})

		It("rejects amounts below one unit", func() {
			dto := submitDTO()
			dto.Amount = decimal.RequireFromString("0.99")

			_, err := service.Submit(ctx, member, dto)
			Expect(appErrorOf(err).Type).To(Equal(errors.ErrorTypeValidation))
			Expect(repo.expenses).To(BeEmpty())
		})

		It("rejects unknown categories and payment modes", func() {
			dto := submitDTO()
			dto.Category = "gadgets"
			dto.PaymentMode = "crypto"

			_, err := service.Submit(ctx, member, dto)
			Expect(appErrorOf(err).Type).To(Equal(errors.ErrorTypeValidation))
		})

		It("rejects future expense dates", func() {
			dto := submitDTO()
			dto.Date = "2026-10-17"

			_, err := service.Submit(ctx, member, dto)
			Expect(appErrorOf(err).Type).To(Equal(errors.ErrorTypeValidation))
		})

		It("fails with not found for unknown events", func() {
			dto := submitDTO()
			dto.EventID = 99

			_, err := service.Submit(ctx, member, dto)
			Expect(err).To(Equal(errors.ErrEventNotFound))
		})

		It("propagates store failures", func() {
			repo.insertError = errors.NewStoreFailureError("expense store unavailable", stderrors.New("dial tcp"))

			_, err := service.Submit(ctx, member, submitDTO())
			Expect(appErrorOf(err).Type).To(Equal(errors.ErrorTypeStoreFailure))
			Expect(publisher.published).To(BeEmpty())
		})
	})

	Describe("CreateAdministrative", func() {
		It("records a paid expense without approval metadata", func() {
			dto := expense.AdministrativeExpenseDTO{SubmitExpenseDTO: submitDTO(), MemberID: 5, Status: "paid"}

			result, err := service.CreateAdministrative(ctx, &errors.Actor{ID: 1, Role: errors.RoleAdmin}, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(expense.StatusPaid))
			Expect(result.MemberID).To(Equal(int64(5)))
			Expect(result.ApprovedBy).To(BeNil())
			Expect(result.ReimbursedBy).To(BeNil())
		})

		It("refuses statuses other than pending and paid", func() {
			dto := expense.AdministrativeExpenseDTO{SubmitExpenseDTO: submitDTO(), MemberID: 5, Status: "approved"}

			_, err := service.CreateAdministrative(ctx, &errors.Actor{ID: 1, Role: errors.RoleAdmin}, dto)
			Expect(appErrorOf(err).Type).To(Equal(errors.ErrorTypeValidation))
		})
	})

	Describe("Transition", func() {
		commands := map[string]expense.Command{
			"approve":   expense.Approve{},
			"reject":    expense.Reject{Reason: "no bill attached"},
			"reimburse": expense.Reimburse{Reference: "UTR123"},
		}

		DescribeTable("only the documented transitions succeed",
			func(from expense.Status, action string, expected expense.Status) {
				id := repo.seed(from)

				result, err := service.Transition(ctx, treasurer, id, commands[action])

				if expected == "" {
					appErr := appErrorOf(err)
					Expect(appErr.Type).To(Equal(errors.ErrorTypeInvalidTransition))
					Expect(appErr.Details).To(Equal(errors.TransitionDetails{CurrentStatus: string(from), Action: action}))
					stored, _ := repo.FindByID(ctx, id)
					Expect(stored.Status).To(Equal(from))
					return
				}
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Status).To(Equal(expected))
			},
			Entry("pending approve", expense.StatusPending, "approve", expense.StatusApproved),
			Entry("pending reject", expense.StatusPending, "reject", expense.StatusRejected),
			Entry("pending reimburse", expense.StatusPending, "reimburse", expense.Status("")),
			Entry("approved approve", expense.StatusApproved, "approve", expense.Status("")),
			Entry("approved reject", expense.StatusApproved, "reject", expense.Status("")),
			Entry("approved reimburse", expense.StatusApproved, "reimburse", expense.StatusReimbursed),
			Entry("rejected approve", expense.StatusRejected, "approve", expense.Status("")),
			Entry("rejected reimburse", expense.StatusRejected, "reimburse", expense.Status("")),
			Entry("reimbursed reject", expense.StatusReimbursed, "reject", expense.Status("")),
			Entry("reimbursed approve", expense.StatusReimbursed, "approve", expense.Status("")),
			Entry("paid approve", expense.StatusPaid, "approve", expense.Status("")),
			Entry("paid reimburse", expense.StatusPaid, "reimburse", expense.Status("")),
		)

		It("requires a rejection reason before touching the store", func() {
			id := repo.seed(expense.StatusPending)

			_, err := service.Reject(ctx, treasurer, id, "   ")

			appErr := appErrorOf(err)
			Expect(appErr.Type).To(Equal(errors.ErrorTypeValidation))
			Expect(repo.updateCalls).To(BeZero())
			stored, _ := repo.FindByID(ctx, id)
			Expect(stored.Status).To(Equal(expense.StatusPending))
		})

		It("requires a reimbursement reference", func() {
			id := repo.seed(expense.StatusApproved)

			_, err := service.Reimburse(ctx, treasurer, id, "")
			Expect(appErrorOf(err).Type).To(Equal(errors.ErrorTypeValidation))
			Expect(repo.updateCalls).To(BeZero())
		})

		It("refuses to move archived records", func() {
			id := repo.seed(expense.StatusPending)
			_, err := repo.ArchiveFiscalYear(ctx, "2026-2027")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Approve(ctx, treasurer, id)
			appErr := appErrorOf(err)
			Expect(appErr.Type).To(Equal(errors.ErrorTypeInvalidTransition))
			Expect(appErr.Code).To(Equal(errors.ErrCodeExpenseArchived))
		})

		It("reports terminal records as final", func() {
			for _, status := range []expense.Status{expense.StatusRejected, expense.StatusReimbursed, expense.StatusPaid} {
				Expect(status.Terminal()).To(BeTrue(), string(status))
				_, err := expense.Plan(&expense.Expense{Status: status}, expense.Approve{}, 9, time.Now())
				appErr := appErrorOf(err)
				Expect(appErr.Type).To(Equal(errors.ErrorTypeInvalidTransition))
				Expect(appErr.Message).To(ContainSubstring("can no longer change"))
			}

			_, err := expense.Plan(&expense.Expense{Status: expense.StatusApproved}, expense.Approve{}, 9, time.Now())
			Expect(appErrorOf(err).Message).To(Equal("cannot approve expense in status approved"))
		})

		It("returns not found for unknown records", func() {
			_, err := service.Approve(ctx, treasurer, 404)
			Expect(err).To(Equal(errors.ErrExpenseNotFound))
		})

		It("surfaces store failures as their own kind", func() {
			id := repo.seed(expense.StatusPending)
			repo.updateError = errors.NewStoreFailureError("expense store timed out", context.DeadlineExceeded)

			_, err := service.Approve(ctx, treasurer, id)
			Expect(appErrorOf(err).Type).To(Equal(errors.ErrorTypeStoreFailure))
		})

		It("lets exactly one of two concurrent approvals win", func() {
			id := repo.seed(expense.StatusPending)
			approvers := []*errors.Actor{
				{ID: 20, Role: errors.RoleTreasurer},
				{ID: 21, Role: errors.RolePresident},
			}

			results := make(chan error, len(approvers))
			var wg sync.WaitGroup
			for _, approver := range approvers {
				wg.Add(1)
				go func(a *errors.Actor) {
					defer wg.Done()
					_, err := service.Approve(ctx, a, id)
					results <- err
				}(approver)
			}
			wg.Wait()
			close(results)

			var successes, conflicts, invalid int
			for err := range results {
				switch {
				case err == nil:
					successes++
				case errors.IsErrorType(err, errors.ErrorTypeConflict):
					conflicts++
				case errors.IsErrorType(err, errors.ErrorTypeInvalidTransition):
					// the loser read the record after the winner committed
					invalid++
				}
			}
			Expect(successes).To(Equal(1))
			Expect(conflicts + invalid).To(Equal(1))

			stored, _ := repo.FindByID(ctx, id)
			Expect(*stored.ApprovedBy).To(BeElementOf(int64(20), int64(21)))
		})

		It("keeps the transition when audit and notification fail", func() {
			id := repo.seed(expense.StatusPending)
			recorder.err = stderrors.New("audit store down")
			publisher.err = stderrors.New("broker down")

			result, err := service.Approve(ctx, treasurer, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(expense.StatusApproved))
		})

		It("records an audit entry with the change set", func() {
			id := repo.seed(expense.StatusPending)

			_, err := service.Reject(ctx, treasurer, id, "duplicate claim")
			Expect(err).NotTo(HaveOccurred())

			Expect(recorder.entries).To(HaveLen(1))
			entry := recorder.entries[0]
			Expect(entry.Action).To(Equal("expense_reject"))
			Expect(entry.ActorID).To(Equal(treasurer.ID))
			Expect(entry.TargetID).To(Equal(id))
			Expect(entry.ChangeSet).To(HaveKeyWithValue("reason", "duplicate claim"))
			Expect(publisher.types()).To(ConsistOf(events.EventTypeExpenseRejected))
		})

		It("walks the full lifecycle", func() {
			// Given
			submitted, err := service.Submit(ctx, member, submitDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(submitted.Status).To(Equal(expense.StatusPending))

			// When
			approved, err := service.Approve(ctx, treasurer, submitted.ID)
			Expect(err).NotTo(HaveOccurred())
			reimbursed, err := service.Reimburse(ctx, treasurer, submitted.ID, "UTR123")
			Expect(err).NotTo(HaveOccurred())

			// Then
			Expect(approved.Status).To(Equal(expense.StatusApproved))
			Expect(*approved.ApprovedBy).To(Equal(treasurer.ID))
			Expect(approved.ApprovedAt).NotTo(BeNil())
			Expect(reimbursed.Status).To(Equal(expense.StatusReimbursed))
			Expect(*reimbursed.ReimbursementReference).To(Equal("UTR123"))

			_, err = service.Reject(ctx, treasurer, submitted.ID, "too late")
			Expect(appErrorOf(err).Type).To(Equal(errors.ErrorTypeInvalidTransition))

			Expect(publisher.types()).To(Equal([]string{
				events.EventTypeExpenseSubmitted,
				events.EventTypeExpenseApproved,
				events.EventTypeExpenseReimbursed,
			}))
		})
	})

	Describe("Get", func() {
		It("lets the owner and approvers read a record", func() {
			id := repo.seed(expense.StatusPending)

			_, err := service.Get(ctx, member, id)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Get(ctx, treasurer, id)
			Expect(err).NotTo(HaveOccurred())
		})

		It("hides records from other members", func() {
			id := repo.seed(expense.StatusPending)

			_, err := service.Get(ctx, &errors.Actor{ID: 77, Role: errors.RoleMember}, id)
			Expect(err).To(Equal(errors.ErrUnauthorizedAccess))
		})
	})

	Describe("List", func() {
		It("restricts members to their own records", func() {
			repo.seed(expense.StatusPending)
			other := &expense.Expense{MemberID: 50, Status: expense.StatusPending}
			_, _ = repo.Insert(ctx, other)

			own, err := service.List(ctx, member, expense.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(own).To(HaveLen(1))

			all, err := service.List(ctx, treasurer, expense.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})
	})

	Describe("CloseFiscalYear", func() {
		It("archives the year's records", func() {
			repo.seed(expense.StatusPending)
			repo.seed(expense.StatusApproved)

			n, err := service.CloseFiscalYear(ctx, &errors.Actor{ID: 1, Role: errors.RoleAdmin}, "2026-2027")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(2)))
			Expect(recorder.entries).To(HaveLen(1))
			Expect(recorder.entries[0].Action).To(Equal("fiscal_year_closed"))
		})

		It("rejects malformed and future years", func() {
			admin := &errors.Actor{ID: 1, Role: errors.RoleAdmin}

			_, err := service.CloseFiscalYear(ctx, admin, "2026")
			Expect(appErrorOf(err).Type).To(Equal(errors.ErrorTypeInvalidArgument))

			_, err = service.CloseFiscalYear(ctx, admin, "2027-2028")
			Expect(appErrorOf(err).Type).To(Equal(errors.ErrorTypePreconditionFailed))
		})
	})

	Describe("Purge", func() {
		It("deletes the record and audits it", func() {
			id := repo.seed(expense.StatusRejected)

			Expect(service.Purge(ctx, &errors.Actor{ID: 1, Role: errors.RoleAdmin}, id)).To(Succeed())
			_, err := repo.FindByID(ctx, id)
			Expect(err).To(Equal(errors.ErrExpenseNotFound))
			Expect(recorder.entries[0].Action).To(Equal("expense_purged"))
		})
	})
})
