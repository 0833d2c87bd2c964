package expense

import (
	"time"

	"github.com/shopspring/decimal"

	expenseDatamodel "github.com/frahmantamala/club-ledger/internal/core/datamodel/expense"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusReimbursed Status = "reimbursed"
	StatusPaid       Status = "paid"
)

var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusReimbursed, StatusPaid}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal statuses have no outgoing transition.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusReimbursed || s == StatusPaid
}

// Contributing statuses count towards member contribution totals.
func (s Status) Contributing() bool {
	return s == StatusApproved || s == StatusReimbursed || s == StatusPaid
}

type Category string

const (
	CategoryDonation             Category = "donation"
	CategoryPersonalContribution Category = "personal_contribution"
	CategoryTravelExpense        Category = "travel_expense"
	CategoryAccommodation        Category = "accommodation"
	CategoryEventMaterial        Category = "event_material"
	CategoryFoodRefreshments     Category = "food_refreshments"
	CategoryMiscellaneous        Category = "miscellaneous"
)

var Categories = []Category{
	CategoryDonation,
	CategoryPersonalContribution,
	CategoryTravelExpense,
	CategoryAccommodation,
	CategoryEventMaterial,
	CategoryFoodRefreshments,
	CategoryMiscellaneous,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type PaymentMode string

const (
	PaymentModeUPI          PaymentMode = "upi"
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
	PaymentModeCheque       PaymentMode = "cheque"
)

var PaymentModes = []PaymentMode{PaymentModeUPI, PaymentModeCash, PaymentModeBankTransfer, PaymentModeCheque}

func (p PaymentMode) Valid() bool {
	for _, v := range PaymentModes {
		if p == v {
			return true
		}
	}
	return false
}

// MinimumAmount is the smallest amount a record may carry.
var MinimumAmount = decimal.NewFromInt(1)

// Expense is a ledger record. Status and the approval metadata only change
// through Service.Transition.
type Expense struct {
	ID                     int64           `json:"id"`
	MemberID               int64           `json:"member_id"`
	EventID                int64           `json:"event_id"`
	Category               Category        `json:"category"`
	Amount                 decimal.Decimal `json:"amount"`
	Description            string          `json:"description,omitempty"`
	Date                   time.Time       `json:"date"`
	PaymentMode            PaymentMode     `json:"payment_mode"`
	Status                 Status          `json:"status"`
	BillFileName           *string         `json:"bill_filename,omitempty"`
	ApprovedBy             *int64          `json:"approved_by,omitempty"`
	ApprovedAt             *time.Time      `json:"approved_at,omitempty"`
	RejectedBy             *int64          `json:"rejected_by,omitempty"`
	RejectedAt             *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason        *string         `json:"rejection_reason,omitempty"`
	ReimbursedBy           *int64          `json:"reimbursed_by,omitempty"`
	ReimbursedAt           *time.Time      `json:"reimbursed_at,omitempty"`
	ReimbursementReference *string         `json:"reimbursement_reference,omitempty"`
	FiscalYear             string          `json:"fiscal_year"`
	Archived               bool            `json:"archived"`
	SubmittedAt            time.Time       `json:"submitted_at"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// Filter narrows FindByFilter. Zero values match everything; DateFrom and
// DateTo are inclusive calendar dates.
type Filter struct {
	MemberID   *int64
	EventID    *int64
	EventIDs   []int64
	Status     *Status
	Category   *Category
	FiscalYear string
	DateFrom   *time.Time
	DateTo     *time.Time
	Archived   *bool
	Limit      int
	Offset     int
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:                     e.ID,
		MemberID:               e.MemberID,
		EventID:                e.EventID,
		Category:               string(e.Category),
		Amount:                 e.Amount,
		Description:            e.Description,
		ExpenseDate:            e.Date,
		PaymentMode:            string(e.PaymentMode),
		Status:                 string(e.Status),
		BillFileName:           e.BillFileName,
		ApprovedBy:             e.ApprovedBy,
		ApprovedAt:             e.ApprovedAt,
		RejectedBy:             e.RejectedBy,
		RejectedAt:             e.RejectedAt,
		RejectionReason:        e.RejectionReason,
		ReimbursedBy:           e.ReimbursedBy,
		ReimbursedAt:           e.ReimbursedAt,
		ReimbursementReference: e.ReimbursementReference,
		FiscalYear:             e.FiscalYear,
		Archived:               e.Archived,
		SubmittedAt:            e.SubmittedAt,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	return &Expense{
		ID:                     e.ID,
		MemberID:               e.MemberID,
		EventID:                e.EventID,
		Category:               Category(e.Category),
		Amount:                 e.Amount,
		Description:            e.Description,
		Date:                   e.ExpenseDate,
		PaymentMode:            PaymentMode(e.PaymentMode),
		Status:                 Status(e.Status),
		BillFileName:           e.BillFileName,
		ApprovedBy:             e.ApprovedBy,
		ApprovedAt:             e.ApprovedAt,
		RejectedBy:             e.RejectedBy,
		RejectedAt:             e.RejectedAt,
		RejectionReason:        e.RejectionReason,
		ReimbursedBy:           e.ReimbursedBy,
		ReimbursedAt:           e.ReimbursedAt,
		ReimbursementReference: e.ReimbursementReference,
		FiscalYear:             e.FiscalYear,
		Archived:               e.Archived,
		SubmittedAt:            e.SubmittedAt,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func FromDataModelSlice(expenses []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(expenses))
	for i, e := range expenses {
		result[i] = FromDataModel(e)
	}
	return result
}
