package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/audit"
	auditPostgres "github.com/frahmantamala/club-ledger/internal/audit/postgres"
	"github.com/frahmantamala/club-ledger/internal/core/events"
	"github.com/frahmantamala/club-ledger/internal/event"
	eventPostgres "github.com/frahmantamala/club-ledger/internal/event/postgres"
	"github.com/frahmantamala/club-ledger/internal/expense"
	expensePostgres "github.com/frahmantamala/club-ledger/internal/expense/postgres"
	"github.com/frahmantamala/club-ledger/internal/export"
	"github.com/frahmantamala/club-ledger/internal/member"
	memberPostgres "github.com/frahmantamala/club-ledger/internal/member/postgres"
	"github.com/frahmantamala/club-ledger/internal/notification"
	"github.com/frahmantamala/club-ledger/internal/reporting"
)

// App holds the services shared by the server and the maintenance commands.
type App struct {
	Config *internal.Config
	Logger *slog.Logger

	DB    *sqlx.DB
	Gorm  *gorm.DB
	Redis *redis.Client

	EventBus   *events.EventBus
	Dispatcher *notification.Dispatcher

	Audit     *audit.Service
	Members   *member.Service
	Events    *event.Service
	Expenses  *expense.Service
	Reporting *reporting.Service
	Exports   *export.Service
}

func newApp(cfg *internal.Config, logger *slog.Logger) (*App, error) {
	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Gorm:     gormDB,
		EventBus: events.NewEventBus(logger),
	}

	var cache *reporting.Cache
	if cfg.Redis.Enabled {
		app.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = reporting.NewCache(app.Redis, cfg.Redis.CacheTTL)
	}

	timeout := cfg.Store.OperationTimeout
	clock := time.Now

	app.Audit = audit.NewService(auditPostgres.NewAuditRepository(gormDB), timeout, logger)
	app.Members = member.NewService(memberPostgres.NewMemberRepository(gormDB), cfg.Security.BCryptCost, timeout, logger)
	app.Events = event.NewService(eventPostgres.NewEventRepository(gormDB), timeout, clock, logger)
	app.Expenses = expense.NewService(expensePostgres.NewExpenseRepository(gormDB), expense.Collaborators{
		Events:    app.Events,
		Members:   app.Members,
		Audit:     app.Audit,
		Publisher: app.EventBus,
		Cache:     cache,
	}, timeout, clock, logger)
	app.Reporting = reporting.NewService(app.Expenses, app.Events, app.Members, cache, clock, logger)

	formatter, err := export.NewCurrencyFormatter(cfg.Report.Currency, cfg.Report.Locale)
	if err != nil {
		logger.Warn("currency formatting disabled", "currency", cfg.Report.Currency, "locale", cfg.Report.Locale, "error", err)
		formatter = nil
	}
	var renderer export.Renderer
	if cfg.Report.GotenbergURL != "" {
		renderer = &export.PDFRenderer{
			Endpoint: cfg.Report.GotenbergURL,
			Client:   &http.Client{Timeout: 30 * time.Second},
			Currency: formatter,
		}
	}
	app.Exports = export.NewService(app.Reporting, renderer, export.DirBillStore{Dir: cfg.Report.BillsDir},
		cfg.Report.ClubName, 30*time.Second, clock, logger)

	return app, nil
}

// StartNotifications wires ledger events to the notification worker pool.
func (a *App) StartNotifications() error {
	var publisher notification.Publisher = &notification.LogPublisher{Logger: a.Logger}
	if a.Config.AMQP.Enabled {
		amqpPublisher, err := notification.NewAMQPPublisher(a.Config.AMQP.URL, a.Config.AMQP.Exchange, a.Config.AMQP.Queue)
		if err != nil {
			return fmt.Errorf("failed to connect to amqp: %w", err)
		}
		publisher = amqpPublisher
	}

	a.Dispatcher = notification.NewDispatcher(publisher, notification.Config{
		MaxWorkers:   a.Config.Notification.MaxWorkers,
		JobQueueSize: a.Config.Notification.JobQueueSize,
	}, a.Logger)
	a.Dispatcher.RegisterEventHandlers(a.EventBus)
	return nil
}

// Close drains background work before releasing connections.
func (a *App) Close(ctx context.Context) {
	drained := make(chan struct{})
	go func() {
		a.EventBus.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		a.Logger.Warn("event handlers still running at shutdown", "error", ctx.Err())
	}
	if a.Dispatcher != nil {
		a.Dispatcher.Shutdown()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("redis close error", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("database close error", "error", err)
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
