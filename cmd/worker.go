package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/club-ledger/internal/notification"
	"github.com/frahmantamala/club-ledger/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that consume the ledger's asynchronous queues.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Consume expense notifications from the broker",
	Long:  `Consume expense notifications published to the AMQP queue and hand them to the configured sink.`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

var (
	amqpURL   string
	queueName string
)

func startNotificationWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	url := getStringFlag(amqpURL, config.AMQP.URL)
	queue := getStringFlag(queueName, config.AMQP.Queue)

	consumer, err := notification.NewAMQPPublisher(url, config.AMQP.Exchange, queue)
	if err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	sink := &notification.LogPublisher{Logger: logger}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("notification worker is running. Press Ctrl+C to stop.",
		"exchange", config.AMQP.Exchange,
		"queue", queue)

	if err := consumer.Consume(ctx, logger, sink.Publish); err != nil && ctx.Err() == nil {
		logger.Error("notification consumer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("notification worker shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	notificationWorkerCmd.Flags().StringVar(&amqpURL, "amqp-url", "", "Broker URL (overrides config)")
	notificationWorkerCmd.Flags().StringVar(&queueName, "queue", "", "Queue to consume (overrides config)")

	workerCmd.AddCommand(notificationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
