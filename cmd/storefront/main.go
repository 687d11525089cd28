// Storefront serves catalog browsing and a reconciled cart over REST and MCP.
// One process owns one cart session, restored from the configured session store at boot.
package main

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

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
)

const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 60 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg)
	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("store_domain", cfg.Store.Domain),
		slog.String("api_version", cfg.Store.APIVersion),
		slog.String("session_backend", cfg.Session.Backend),
		slog.Bool("demo", cfg.Demo),
	)

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Catalog routes keep working when the cart cannot be set up; cart routes answer 503.
	if err := deps.Cart.Initialize(ctx); err != nil {
		logger.Error("cart unavailable, serving catalog only", slog.Any("error", err))
	} else if err := deps.Cart.Refresh(ctx); err != nil {
		// A restored session has no lines until the first refresh; requests retry it.
		logger.Warn("initial cart refresh failed", slog.Any("error", err))
	} else {
		logger.Info("cart ready", slog.String("cart_id", deps.Cart.Snapshot().Session.ID))
	}

	mux := http.NewServeMux()
	handler.New(deps.Catalog, deps.Cart, logger).RegisterRoutes(mux)

	// Request id first so recovery and logging can both report it.
	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: middleware.Chain(
			middleware.RequestID(),
			middleware.Recovery(logger),
			middleware.Logging(logger),
		)(mux),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return serve(ctx, server, logger)
}

// serve runs the server until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		server.Close()
		return fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// newLogger returns JSON output in production and text elsewhere.
// Debug level also records the source location.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
