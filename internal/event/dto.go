package event

import (
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/core/common/validation"
)

const dateLayout = "2006-01-02"

type CreateEventDTO struct {
	Name            string          `json:"name" validate:"required,max=150"`
	Description     string          `json:"description" validate:"max=1000"`
	Venue           string          `json:"venue" validate:"max=150"`
	Date            string          `json:"date" validate:"required,datetime=2006-01-02"`
	EstimatedBudget decimal.Decimal `json:"estimated_budget"`
}

func (dto CreateEventDTO) Validate() error {
	if appErr := validation.Struct(dto); appErr != nil {
		return appErr
	}
	if dto.EstimatedBudget.IsNegative() {
		return errors.NewValidationFieldError("estimated_budget", "estimated budget cannot be negative", errors.ErrCodeInvalidBudget)
	}
	if !dto.EstimatedBudget.Equal(dto.EstimatedBudget.Round(2)) {
		return errors.NewValidationFieldError("estimated_budget", "estimated budget has more than two decimal places", errors.ErrCodeInvalidBudget)
	}
	return nil
}

// ParsedDate returns Date as a UTC calendar date. Call after Validate.
func (dto CreateEventDTO) ParsedDate() time.Time {
	date, _ := time.Parse(dateLayout, dto.Date)
	return date
}

type EventsResponse struct {
	FiscalYear string   `json:"fiscal_year"`
	Events     []*Event `json:"events"`
}
