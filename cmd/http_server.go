package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/club-ledger/internal/audit"
	"github.com/frahmantamala/club-ledger/internal/auth"
	"github.com/frahmantamala/club-ledger/internal/category"
	"github.com/frahmantamala/club-ledger/internal/event"
	"github.com/frahmantamala/club-ledger/internal/expense"
	"github.com/frahmantamala/club-ledger/internal/export"
	"github.com/frahmantamala/club-ledger/internal/member"
	"github.com/frahmantamala/club-ledger/internal/reporting"
	"github.com/frahmantamala/club-ledger/internal/transport/rest"
	"github.com/frahmantamala/club-ledger/internal/transport/swagger"
	"github.com/frahmantamala/club-ledger/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Configure(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	log := logger.LoggerWrapper()

	if _, err := swagger.Load(context.Background()); err != nil {
		log.Error("invalid OpenAPI document", "error", err)
		os.Exit(1)
	}

	app, err := newApp(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	if err := app.StartNotifications(); err != nil {
		log.Error("notifications disabled", "error", err)
	}

	tokenGenerator := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(app.Members, tokenGenerator, log)

	var cacheClient redis.UniversalClient
	if app.Redis != nil {
		cacheClient = app.Redis
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Health:    rest.NewHealthHandler(app.DB, cacheClient),
		Auth:      auth.NewHandler(authService, log),
		Member:    member.NewHandler(app.Members, log),
		Event:     event.NewHandler(app.Events, log),
		Category:  category.NewHandler(category.NewService(log), log),
		Expense:   expense.NewHandler(app.Expenses, log),
		Reporting: reporting.NewHandler(app.Reporting, log),
		Export:    export.NewHandler(app.Exports, log),
		Audit:     audit.NewHandler(app.Audit, log),
	}, authService, log)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down...", "signal", sig)
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			app.Close(context.Background())
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", "error", err)
	}
	app.Close(ctx)

	log.Info("Server stopped")
}
