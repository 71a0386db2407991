// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/veleda/othala/internal/api"
	"github.com/veleda/othala/internal/defaults"
	"github.com/veleda/othala/internal/engine"
	"github.com/veleda/othala/internal/expr"
	"github.com/veleda/othala/internal/presetstore"
	"github.com/veleda/othala/internal/sse"
	"github.com/veleda/othala/internal/storage"
	"github.com/veleda/othala/internal/templates"
)

// TemplatesPath resolves the templates directory against the vault root.
func (c *VaultConfig) TemplatesPath() string {
	if filepath.IsAbs(c.TemplatesDir) {
		return c.TemplatesDir
	}
	return filepath.Join(c.Path, c.TemplatesDir)
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
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
		slog.String("templates_path", cfg.Vault.TemplatesPath()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("expressions_enabled", cfg.Expression.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault and templates directories exist.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Vault.TemplatesPath(), 0o755); err != nil {
		return fmt.Errorf("create templates dir: %w", err)
	}

	// Initialize vault storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize preset store.
	db, err := presetstore.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init preset store: %w", err)
	}
	defer db.Close()

	// Scan templates.
	registry, err := templates.NewRegistry(cfg.Vault.TemplatesPath())
	if err != nil {
		return fmt.Errorf("init templates: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build the merge engine.
	eng := NewEngine(cfg, store, db, registry, broker.PublishApplied)

	// Build API router.
	h := api.NewHandler(db, eng, registry, broker)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

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

	g, gCtx := errgroup.WithContext(ctx)

	// Start templates watcher with SSE callback.
	g.Go(func() error {
		if err := registry.Watch(gCtx, logger, broker.PublishTemplateChanged); err != nil {
			logger.Warn("templates watcher error", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

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

// NewEngine builds the merge engine from configuration and collaborators.
// onApplied may be nil when no event surface is wired.
func NewEngine(cfg *Config, store storage.Provider, db *presetstore.DB, registry *templates.Registry, onApplied engine.AppliedCallback) *engine.Service {
	resolver := defaults.NewResolver(defaults.Config{
		Enabled:    cfg.Expression.Enabled,
		DateLayout: cfg.Expression.DateLayout,
		TimeLayout: cfg.Expression.TimeLayout,
	})

	opts := []engine.Option{
		engine.WithTemplates(registry),
		engine.WithRecorder(db),
		engine.WithEvaluatorFactory(func(doc *defaults.DocumentContext) defaults.Evaluator {
			return expr.New(doc)
		}),
	}
	if onApplied != nil {
		opts = append(opts, engine.WithAppliedCallback(onApplied))
	}

	return engine.New(store, db, resolver, opts...)
}
