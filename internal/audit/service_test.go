package audit_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/club-ledger/internal/audit"
)

func TestAudit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Suite")
}

type mockAuditRepository struct {
	entries   []*audit.Entry
	lastLimit int
	err       error
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	if m.err != nil {
		return m.err
	}
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepository) List(ctx context.Context, f audit.Filter) ([]*audit.Entry, error) {
	m.lastLimit = f.Limit
	return m.entries, m.err
}

var _ = Describe("AuditService", func() {
	var (
		repo    *mockAuditRepository
		service *audit.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = &mockAuditRepository{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = audit.NewService(repo, time.Second, logger)
		ctx = context.Background()
	})

	It("stamps entries without a creation time", func() {
		Expect(service.Record(ctx, audit.Entry{Action: "expense_approve", TargetID: 1})).To(Succeed())
		Expect(repo.entries).To(HaveLen(1))
		Expect(repo.entries[0].CreatedAt).NotTo(BeZero())
	})

	It("returns store failures to the caller", func() {
		repo.err = errors.New("connection refused")
		Expect(service.Record(ctx, audit.Entry{Action: "expense_reject"})).To(MatchError("connection refused"))
	})

	It("clamps the page size", func() {
		_, err := service.List(ctx, audit.Filter{Limit: 10000})
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.lastLimit).To(Equal(50))
	})
})
