package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/progress"
	"github.com/starford/raido/internal/remote"
	"github.com/starford/raido/internal/state"
	syncengine "github.com/starford/raido/internal/sync"
	"github.com/starford/raido/internal/vault"
)

// brokerRunner wires sync progress lines into the SSE broker.
type brokerRunner struct {
	engine *syncengine.Engine
	broker *progress.Broker
}

func (r *brokerRunner) Run(ctx context.Context, opts syncengine.Options) (*syncengine.Result, error) {
	prev := opts.Progress
	opts.Progress = func(line string) {
		r.broker.PublishLine(line)
		if prev != nil {
			prev(line)
		}
	}
	return r.engine.Run(ctx, opts)
}

// Serve starts the long-running mode: vault watcher, object index, and
// the HTTP API for status, sync triggering, and progress streaming.
func Serve(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("index_path", cfg.Index.Path),
		slog.String("project", cfg.Sync.Project),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	store, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}

	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial scan.
	if err := index.Scan(db, store, logger); err != nil {
		logger.Warn("initial scan failed", slog.String("error", err.Error()))
	}

	states, err := state.NewStore(cfg.Sync.StateDir)
	if err != nil {
		return fmt.Errorf("init state store: %w", err)
	}

	broker := progress.NewBroker()
	defer broker.Close()

	engine := syncengine.New(syncengine.EngineConfig{
		Repo:       remote.NewClient(cfg.Remote.URL),
		Vault:      store,
		Index:      db,
		States:     states,
		Logger:     logger,
		Project:    cfg.Sync.Project,
		Identifier: cfg.Remote.Identifier,
		Password:   cfg.Remote.Password,
	})
	runner := &brokerRunner{engine: engine, broker: broker}

	h := api.NewHandler(runner, states, cfg.Sync.Project)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// Cancel on SIGINT/SIGTERM so the watcher and server goroutines all
	// unwind through the same context.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	// Start vault watcher with SSE callback.
	g.Go(func() error {
		return index.Watch(gCtx, db, store, store.Root(), logger, func(kind, path string) {
			broker.PublishObjectEvent(kind, path)
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown.
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
