// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/pinpoint/internal/api"
	"github.com/starford/pinpoint/internal/mcpserver"
	"github.com/starford/pinpoint/internal/presenter"
	"github.com/starford/pinpoint/internal/sse"
	"github.com/starford/pinpoint/internal/storage"
	"github.com/starford/pinpoint/internal/watch"
)

type appRuntime struct {
	cfg    *Config
	logger *slog.Logger
	store  *storage.FS
	svc    *presenter.Service
}

func setup(opts []Option) (*appRuntime, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config
	if app.deckPath != "" {
		cfg.Deck.Path = app.deckPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var out io.Writer = os.Stdout
	if app.logOutput != nil {
		out = app.logOutput
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("deck_path", cfg.Deck.Path),
		slog.Float64("canvas_width", float64(cfg.Canvas.Width)),
		slog.Float64("canvas_height", float64(cfg.Canvas.Height)),
		slog.Int("workers", cfg.Resolve.Workers),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize storage rooted at the presentation directory.
	store, err := storage.NewFS(cfg.Deck.Dir())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	svc := presenter.NewService(store, cfg.Deck.File(), cfg.Canvas.Layout(), cfg.Resolve.Workers, logger)

	return &appRuntime{cfg: cfg, logger: logger, store: store, svc: svc}, nil
}

// Run starts the HTTP server and deck watcher with the given options.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	cfg, logger, svc := rt.cfg, rt.logger, rt.svc

	// SSE broker.
	broker := sse.NewBroker(0)
	defer broker.Close()

	// Initial load. A broken or missing deck is not fatal: the watcher
	// picks up the fix and /health/ready reports 503 until then.
	if _, err := svc.Load(ctx); err != nil {
		logger.Warn("initial load failed", slog.String("error", err.Error()))
		broker.PublishError(err)
	}

	apiRouter := api.NewRouter(svc, rt.store, api.RouterConfig{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
		Notify:      broker,
	})

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
		if !svc.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"no deck loaded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// SSE streams never end on their own.
	httpServer.RegisterOnShutdown(broker.Close)

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		err := watch.Watch(gCtx, rt.store.Root(), svc.DeckPath(), watch.DefaultDebounce, logger, func(kind, path string) {
			switch kind {
			case watch.KindDeck:
				reloadDeck(gCtx, svc, broker, logger)
			case watch.KindAssetChanged, watch.KindAssetRemoved:
				broker.PublishAsset(path, kind == watch.KindAssetRemoved)
			}
		})
		if err != nil {
			return fmt.Errorf("watcher: %w", err)
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
		defer signal.Stop(quit)

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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown stops the errgroup so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// reloadDeck is the watcher callback for deck changes.
func reloadDeck(ctx context.Context, svc *presenter.Service, broker *sse.Broker, logger *slog.Logger) {
	changed, err := svc.Load(ctx)
	if err != nil {
		logger.Error("watcher: reload failed", slog.String("error", err.Error()))
		broker.PublishError(err)
		return
	}
	if !changed {
		return
	}
	snap, err := svc.Snapshot()
	if err != nil {
		return
	}
	broker.PublishReload(snap.Checksum, len(snap.Resolved.Slides))
}

// RunMCP loads the deck and serves the MCP tools on stdin/stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	rt, err := setup(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	if _, err := rt.svc.Load(ctx); err != nil {
		rt.logger.Warn("initial load failed", slog.String("error", err.Error()))
	}
	rt.logger.Info("MCP server starting", slog.String("deck", rt.cfg.Deck.Path))
	return mcpserver.New(rt.svc, rt.store).ServeStdio()
}
