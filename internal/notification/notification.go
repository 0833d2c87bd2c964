package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/club-ledger/internal/core/events"
)

// Notification is the message delivered to dashboards and mailers after a
// ledger change.
type Notification struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	ExpenseID  int64           `json:"expense_id"`
	MemberID   int64           `json:"member_id"`
	EventID    int64           `json:"event_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewStatus  string          `json:"new_status"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func FromEvent(event events.Event) (Notification, error) {
	e, ok := event.(*events.ExpenseEvent)
	if !ok {
		return Notification{}, fmt.Errorf("expected ExpenseEvent, got %T", event)
	}
	return Notification{
		ID:         e.EventID(),
		Type:       e.EventType(),
		ExpenseID:  e.ExpenseID,
		MemberID:   e.MemberID,
		EventID:    e.ClubEventID,
		Amount:     e.Amount,
		NewStatus:  e.NewStatus,
		OccurredAt: e.OccurredAt(),
	}, nil
}

// Publisher delivers a notification to its transport.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}

// LogPublisher only logs notifications. It is used when no broker is
// configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) Publish(ctx context.Context, n Notification) error {
	p.Logger.InfoContext(ctx, "notification",
		"type", n.Type,
		"notification_id", n.ID,
		"expense_id", n.ExpenseID,
		"member_id", n.MemberID,
		"amount", n.Amount.StringFixed(2),
		"new_status", n.NewStatus)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
