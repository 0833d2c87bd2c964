package event

import (
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	ID              int64           `gorm:"primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	Description     string          `gorm:"column:description"`
	Venue           string          `gorm:"column:venue"`
	EventDate       time.Time       `gorm:"column:event_date;type:date;not null"`
	EstimatedBudget decimal.Decimal `gorm:"column:estimated_budget;type:numeric(14,2);not null;default:0"`
	FiscalYear      string          `gorm:"column:fiscal_year;not null;index:idx_events_fiscal_year"`
	CreatedBy       int64           `gorm:"column:created_by"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Event) TableName() string {
	return "events"
}
