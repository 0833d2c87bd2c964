package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/club-ledger/pkg/logger"
)

var fiscalCmd = &cobra.Command{
	Use:   "fiscal",
	Short: "Fiscal year maintenance",
}

var fiscalCloseCmd = &cobra.Command{
	Use:   "close [year]",
	Short: "Archive every expense of a past fiscal year",
	Long:  `Archive every expense of a completed fiscal year, e.g. "club-ledger fiscal close 2024-2025". Archived records no longer change status.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(".")
		if err != nil {
			return err
		}

		app, err := newApp(cfg, logger.LoggerWrapper())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		defer app.Close(ctx)

		archived, err := app.Expenses.CloseFiscalYear(ctx, systemActor, args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "fiscal year %s closed, %d expenses archived\n", args[0], archived)
		return nil
	},
}

func init() {
	fiscalCmd.AddCommand(fiscalCloseCmd)
	rootCmd.AddCommand(fiscalCmd)
}
