package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/event"
	"github.com/frahmantamala/club-ledger/internal/expense"
	"github.com/frahmantamala/club-ledger/internal/member"
	"github.com/frahmantamala/club-ledger/pkg/logger"
)

// systemActor performs maintenance operations started from the CLI.
var systemActor = &errors.Actor{ID: 0, Name: "system", Role: errors.RoleAdmin}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample members, events and expenses for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		app, err := newApp(cfg, logger.LoggerWrapper())
		if err != nil {
			log.Fatalf("failed to init app: %v", err)
		}
		ctx := context.Background()
		defer app.Close(ctx)

		if clearData {
			for _, table := range []string{"audit_logs", "expenses", "events", "members"} {
				if err := app.Gorm.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		const password = "password123"
		seeded := map[string]*member.Member{}
		for _, m := range []member.RegisterMemberDTO{
			{Name: "Club Admin", Email: "admin@club.org", Password: password, Role: errors.RoleAdmin},
			{Name: "Tara Treasurer", Email: "treasurer@club.org", Password: password, Role: errors.RoleTreasurer},
			{Name: "Manu Member", Email: "member@club.org", Password: password, Role: errors.RoleMember},
		} {
			created, err := app.Members.Register(ctx, systemActor, m)
			if err != nil {
				if errors.IsErrorType(err, errors.ErrorTypeConflict) {
					fmt.Println("member already exists:", m.Email)
					existing, err := app.Members.Authenticate(ctx, m.Email, m.Password)
					if err != nil {
						log.Fatalf("failed to load existing member %s: %v", m.Email, err)
					}
					seeded[m.Role] = existing
					continue
				}
				log.Fatalf("failed to seed member %s: %v", m.Email, err)
			}
			seeded[m.Role] = created
			fmt.Println("Seeded member:", m.Email)
		}

		treasurer := seeded[errors.RoleTreasurer].Actor()
		today := time.Now().UTC()
		_, existing, err := app.Events.List(ctx, "")
		if err != nil {
			log.Fatalf("failed to list events: %v", err)
		}
		if len(existing) > 0 {
			fmt.Println("events already seeded for the current fiscal year")
			return
		}

		installation, err := app.Events.Create(ctx, treasurer, event.CreateEventDTO{
			Name:            "Installation Ceremony",
			Venue:           "Community Hall",
			Date:            today.Format("2006-01-02"),
			EstimatedBudget: decimal.NewFromInt(12000),
		})
		if err != nil {
			log.Fatalf("failed to seed event: %v", err)
		}
		fmt.Println("Seeded event:", installation.Name)

		memberActor := seeded[errors.RoleMember].Actor()
		samples := []expense.SubmitExpenseDTO{
			{EventID: installation.ID, Category: string(expense.CategoryEventMaterial), Amount: decimal.NewFromInt(4500), Description: "Banners and stage decor", Date: today.Format("2006-01-02"), PaymentMode: string(expense.PaymentModeUPI)},
			{EventID: installation.ID, Category: string(expense.CategoryFoodRefreshments), Amount: decimal.RequireFromString("2750.50"), Description: "Snacks for guests", Date: today.Format("2006-01-02"), PaymentMode: string(expense.PaymentModeCash)},
		}
		for i, dto := range samples {
			submitted, err := app.Expenses.Submit(ctx, memberActor, dto)
			if err != nil {
				log.Fatalf("failed to seed expense: %v", err)
			}
			if i == 0 {
				if _, err := app.Expenses.Approve(ctx, treasurer, submitted.ID); err != nil {
					log.Fatalf("failed to approve seeded expense: %v", err)
				}
			}
		}

		fmt.Println("Sample expenses seeded successfully")
	},
}
