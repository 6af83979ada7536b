package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/kingbrown/caesarstudy/internal/auth"
	"github.com/kingbrown/caesarstudy/internal/config"
	"github.com/kingbrown/caesarstudy/internal/database"
	"github.com/kingbrown/caesarstudy/internal/generator"
	"github.com/kingbrown/caesarstudy/internal/handler/health"
	"github.com/kingbrown/caesarstudy/internal/history"
	"github.com/kingbrown/caesarstudy/internal/migrations"
	"github.com/kingbrown/caesarstudy/internal/server"
	"github.com/kingbrown/caesarstudy/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Store ---
	var (
		db       *sql.DB
		provider auth.Provider
		checks   = map[string]health.Checker{}
	)
	if cfg.Configured() {
		db, err = database.Open(ctx, cfg.StoreURL, cfg.StoreAuthToken)
		if err != nil {
			return fmt.Errorf("connecting to store: %w", err)
		}
		defer db.Close()

		if err := migrations.Run(ctx, db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to store")

		provider = auth.NewAccountStore(db)
		checks["store"] = health.DB(db)
	} else {
		logger.Warn("store not configured, serving configuration instructions only",
			"required", config.RequiredKeys)
	}
	hist := history.NewStore(db, logger)

	// --- Generator ---
	model, err := generator.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, content generation will fail")
	}

	// --- Sessions ---
	broker := session.NewBroker()
	clients := session.NewRegistry(session.Deps{
		Provider:  provider,
		Generator: generator.NewAdapter(model, logger),
		Saver:     hist,
		Broker:    broker,
		SaveDelay: cfg.HistorySaveDelay,
		Logger:    logger,
	})
	defer clients.Close()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Options{
		Configured:    cfg.Configured(),
		RequiredKeys:  config.RequiredKeys,
		SessionCookie: cfg.SessionCookie,
		SPADir:        cfg.SPADir,
		Clients:       clients,
		Broker:        broker,
		History:       hist,
		Checks:        checks,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return clients.RunEviction(gctx, cfg.ClientIdleAfter)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
