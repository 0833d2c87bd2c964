package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/club-ledger/internal/core/events"
	"github.com/frahmantamala/club-ledger/internal/notification"
	"github.com/frahmantamala/club-ledger/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Publish synthetic expense events to exercise the notification pipeline.`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a synthetic expense event",
	Long:      `Publish a synthetic expense event through the event bus to the configured notification publisher.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{events.EventTypeExpenseSubmitted, events.EventTypeExpenseApproved, events.EventTypeExpenseRejected, events.EventTypeExpenseReimbursed},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventExpenseID int64
	eventAmount    string
)

func publishTestEvent(eventType string) error {
	config, err := loadConfig(".")
	if err != nil {
		return err
	}

	logger := logger.LoggerWrapper()

	amount, err := decimal.NewFromString(eventAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", eventAmount, err)
	}

	var publisher notification.Publisher = &notification.LogPublisher{Logger: logger}
	if config.AMQP.Enabled {
		amqpPublisher, err := notification.NewAMQPPublisher(config.AMQP.URL, config.AMQP.Exchange, config.AMQP.Queue)
		if err != nil {
			return fmt.Errorf("failed to connect to amqp: %w", err)
		}
		publisher = amqpPublisher
	}

	defer publisher.Close()

	eventBus := events.NewEventBus(logger)
	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		n, err := notification.FromEvent(event)
		if err != nil {
			return err
		}
		return publisher.Publish(ctx, n)
	})

	evt := events.NewExpenseEvent(eventType, eventExpenseID, 0, amount, 0, "")
	logger.Info("publishing test event", "event_type", eventType, "event_id", evt.EventID())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := eventBus.PublishSync(ctx, evt); err != nil {
		return err
	}

	logger.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventExpenseID, "expense-id", 1, "Expense id carried by the event")
	publishEventCmd.Flags().StringVar(&eventAmount, "amount", "100.00", "Amount carried by the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
