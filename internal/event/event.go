package event

import (
	"time"

	"github.com/shopspring/decimal"

	eventDatamodel "github.com/frahmantamala/club-ledger/internal/core/datamodel/event"
)

// Event is a club activity that expenses are booked against.
type Event struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Venue           string          `json:"venue,omitempty"`
	Date            time.Time       `json:"date"`
	EstimatedBudget decimal.Decimal `json:"estimated_budget"`
	FiscalYear      string          `json:"fiscal_year"`
	CreatedBy       int64           `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func ToDataModel(e *Event) *eventDatamodel.Event {
	return &eventDatamodel.Event{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		Venue:           e.Venue,
		EventDate:       e.Date,
		EstimatedBudget: e.EstimatedBudget,
		FiscalYear:      e.FiscalYear,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func FromDataModel(e *eventDatamodel.Event) *Event {
	return &Event{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		Venue:           e.Venue,
		Date:            e.EventDate,
		EstimatedBudget: e.EstimatedBudget,
		FiscalYear:      e.FiscalYear,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}
