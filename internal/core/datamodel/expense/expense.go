package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID                     int64           `gorm:"primaryKey"`
	MemberID               int64           `gorm:"column:member_id;not null;index:idx_expenses_member"`
	EventID                int64           `gorm:"column:event_id;not null;index:idx_expenses_event"`
	Category               string          `gorm:"column:category;not null"`
	Amount                 decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Description            string          `gorm:"column:description"`
	ExpenseDate            time.Time       `gorm:"column:expense_date;type:date;not null"`
	PaymentMode            string          `gorm:"column:payment_mode;not null"`
	Status                 string          `gorm:"column:status;not null;default:pending;index:idx_expenses_status"`
	BillFileName           *string         `gorm:"column:bill_filename"`
	ApprovedBy             *int64          `gorm:"column:approved_by"`
	ApprovedAt             *time.Time      `gorm:"column:approved_at"`
	RejectedBy             *int64          `gorm:"column:rejected_by"`
	RejectedAt             *time.Time      `gorm:"column:rejected_at"`
	RejectionReason        *string         `gorm:"column:rejection_reason"`
	ReimbursedBy           *int64          `gorm:"column:reimbursed_by"`
	ReimbursedAt           *time.Time      `gorm:"column:reimbursed_at"`
	ReimbursementReference *string         `gorm:"column:reimbursement_reference"`
	FiscalYear             string          `gorm:"column:fiscal_year;not null;index:idx_expenses_fiscal_year"`
	Archived               bool            `gorm:"column:archived;not null;default:false"`
	SubmittedAt            time.Time       `gorm:"column:submitted_at"`
	CreatedAt              time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string {
	return "expenses"
}
