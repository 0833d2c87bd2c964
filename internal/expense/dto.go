package expense

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/core/common/validation"
	"github.com/frahmantamala/club-ledger/internal/core/fiscal"
)

const dateLayout = "2006-01-02"

// SubmitExpenseDTO is the member-facing submission payload.
type SubmitExpenseDTO struct {
	EventID      int64           `json:"event_id" validate:"required,gt=0"`
	Category     string          `json:"category" validate:"required,oneof=donation personal_contribution travel_expense accommodation event_material food_refreshments miscellaneous"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description" validate:"max=500"`
	Date         string          `json:"date" validate:"required,datetime=2006-01-02"`
	PaymentMode  string          `json:"payment_mode" validate:"required,oneof=upi cash bank_transfer cheque"`
	BillFileName *string         `json:"bill_filename,omitempty"`
}

// Validate checks the payload against today's date as seen by now.
func (dto SubmitExpenseDTO) Validate(now time.Time) error {
	if appErr := validation.Struct(dto); appErr != nil {
		return appErr
	}
	return dto.validateValues(now)
}

func (dto SubmitExpenseDTO) validateValues(now time.Time) error {
	if appErr := validation.ValidateExpenseAmount(dto.Amount); appErr != nil {
		return appErr
	}
	if appErr := validation.ValidateExpenseDate(dto.ParsedDate(), now); appErr != nil {
		return appErr
	}
	return nil
}

// ParsedDate returns Date as a UTC calendar date. Call after Validate.
func (dto SubmitExpenseDTO) ParsedDate() time.Time {
	date, _ := time.Parse(dateLayout, dto.Date)
	return date
}

// AdministrativeExpenseDTO records an expense on behalf of a member. Only
// pending and paid may be set; paid records carry no approval metadata.
type AdministrativeExpenseDTO struct {
	SubmitExpenseDTO
	MemberID int64  `json:"member_id" validate:"required,gt=0"`
	Status   string `json:"status" validate:"omitempty,oneof=pending paid"`
}

func (dto AdministrativeExpenseDTO) Validate(now time.Time) error {
	if appErr := validation.Struct(dto); appErr != nil {
		return appErr
	}
	return dto.SubmitExpenseDTO.validateValues(now)
}

func (dto AdministrativeExpenseDTO) InitialStatus() Status {
	if dto.Status == "" {
		return StatusPending
	}
	return Status(dto.Status)
}

type RejectExpenseDTO struct {
	Reason string `json:"reason"`
}

type ReimburseExpenseDTO struct {
	Reference string `json:"reference"`
}

type CloseFiscalYearResponse struct {
	FiscalYear string `json:"fiscal_year"`
	Archived   int64  `json:"archived"`
}

// ListQuery is the raw query string form of Filter.
type ListQuery struct {
	MemberID   string
	EventID    string
	Status     string
	Category   string
	FiscalYear string
	DateFrom   string
	DateTo     string
	Limit      int
	Offset     int
}

// ToFilter converts q into a Filter, reporting malformed values as
// INVALID_ARGUMENT.
func (q ListQuery) ToFilter() (Filter, error) {
	f := Filter{Limit: q.Limit, Offset: q.Offset}

	if q.MemberID != "" {
		id, err := parsePositive(q.MemberID)
		if err != nil {
			return f, errors.NewInvalidArgumentError("member_id must be a positive integer", errors.ErrCodeInvalidReportFilter)
		}
		f.MemberID = &id
	}
	if q.EventID != "" {
		id, err := parsePositive(q.EventID)
		if err != nil {
			return f, errors.NewInvalidArgumentError("event_id must be a positive integer", errors.ErrCodeInvalidReportFilter)
		}
		f.EventID = &id
	}
	if q.Status != "" {
		s := Status(q.Status)
		if !s.Valid() {
			return f, errors.NewInvalidArgumentError("unknown status "+q.Status, errors.ErrCodeInvalidReportFilter)
		}
		f.Status = &s
	}
	if q.Category != "" {
		c := Category(q.Category)
		if !c.Valid() {
			return f, errors.NewInvalidArgumentError("unknown category "+q.Category, errors.ErrCodeInvalidReportFilter)
		}
		f.Category = &c
	}
	if q.FiscalYear != "" {
		if _, err := fiscal.Parse(q.FiscalYear); err != nil {
			return f, errors.NewInvalidArgumentError(err.Error(), errors.ErrCodeInvalidFiscalYear)
		}
		f.FiscalYear = q.FiscalYear
	}
	if q.DateFrom != "" {
		d, err := time.Parse(dateLayout, q.DateFrom)
		if err != nil {
			return f, errors.NewInvalidArgumentError("from must be YYYY-MM-DD", errors.ErrCodeInvalidReportFilter)
		}
		f.DateFrom = &d
	}
	if q.DateTo != "" {
		d, err := time.Parse(dateLayout, q.DateTo)
		if err != nil {
			return f, errors.NewInvalidArgumentError("to must be YYYY-MM-DD", errors.ErrCodeInvalidReportFilter)
		}
		f.DateTo = &d
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return f, errors.NewInvalidArgumentError("from must not be after to", errors.ErrCodeInvalidReportFilter)
	}
	return f, nil
}

func parsePositive(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
