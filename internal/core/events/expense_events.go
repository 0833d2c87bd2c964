package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeExpenseSubmitted  = "expense_submitted"
	EventTypeExpenseApproved   = "expense_approved"
	EventTypeExpenseRejected   = "expense_rejected"
	EventTypeExpenseReimbursed = "expense_reimbursed"
)

// ExpenseEventTypes lists every ledger event in emission order of the lifecycle.
var ExpenseEventTypes = []string{
	EventTypeExpenseSubmitted,
	EventTypeExpenseApproved,
	EventTypeExpenseRejected,
	EventTypeExpenseReimbursed,
}

// ExpenseEvent is emitted after a ledger mutation has been committed.
type ExpenseEvent struct {
	BaseEvent
	ExpenseID   int64           `json:"expense_id"`
	MemberID    int64           `json:"member_id"`
	Amount      decimal.Decimal `json:"amount"`
	ClubEventID int64           `json:"event_id"`
	NewStatus   string          `json:"new_status"`
}

func NewExpenseEvent(eventType string, expenseID, memberID int64, amount decimal.Decimal, eventID int64, newStatus string) *ExpenseEvent {
	return &ExpenseEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"expense_id": expenseID,
				"member_id":  memberID,
				"amount":     amount.StringFixed(2),
				"event_id":   eventID,
				"new_status": newStatus,
			},
		},
		ExpenseID:   expenseID,
		MemberID:    memberID,
		Amount:      amount,
		ClubEventID: eventID,
		NewStatus:   newStatus,
	}
}
