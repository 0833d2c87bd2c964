package postgres

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/club-ledger/internal/audit"
	auditDatamodel "github.com/frahmantamala/club-ledger/internal/core/datamodel/audit"
)

func TestAuditRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "AuditRepository Suite")
}

var _ = Describe("AuditRepository", func() {
	var (
		db   *gorm.DB
		repo *AuditRepository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&auditDatamodel.Entry{})).To(Succeed())

		repo = NewAuditRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("stores the change set as JSON and reads it back", func() {
		entry := &audit.Entry{
			Action:      "expense_approve",
			ActorID:     2,
			TargetType:  audit.TargetExpense,
			TargetID:    11,
			Description: "expense 11 moved from pending to approved",
			ChangeSet:   map[string]interface{}{"from": "pending", "to": "approved"},
		}
		Expect(repo.Create(ctx, entry)).To(Succeed())
		Expect(entry.ID).To(BeNumerically(">", 0))

		entries, err := repo.List(ctx, audit.Filter{TargetType: audit.TargetExpense})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].ChangeSet).To(HaveKeyWithValue("to", "approved"))
	})

	It("filters by target and actor", func() {
		for i, target := range []int64{1, 1, 2} {
			Expect(repo.Create(ctx, &audit.Entry{
				Action:     "expense_submitted",
				ActorID:    int64(10 + i),
				TargetType: audit.TargetExpense,
				TargetID:   target,
			})).To(Succeed())
		}

		target := int64(1)
		entries, err := repo.List(ctx, audit.Filter{TargetID: &target})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))

		actor := int64(12)
		entries, err = repo.List(ctx, audit.Filter{ActorID: &actor})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].TargetID).To(Equal(int64(2)))
	})
})
