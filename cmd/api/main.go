// Package main is the entry point for the appstarter API server.
//
// It loads configuration from the environment (every integration optional),
// builds the lazily initialized service registry, wires the HTTP handlers
// onto the core chassis, and serves until a shutdown signal arrives.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
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

	"appstarter/internal/api/handlers"
	"appstarter/internal/auth"
	"appstarter/internal/config"
	"appstarter/internal/core"
	"appstarter/internal/external"
	"appstarter/internal/registry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("appstarter API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"database_configured", cfg.HasDatabase(),
		"auth_configured", cfg.HasAuth(),
		"cache_configured", cfg.HasCache(),
		"media_configured", cfg.HasMedia(),
	)

	reg := registry.New(cfg, logger)
	defer func() {
		if err := reg.Close(); err != nil {
			logger.Error("registry shutdown error", "error", err)
		}
	}()

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	authenticator := auth.NewVerifier(cfg.Auth.SecretKey.Unmask())

	pingHandler := handlers.NewPingHandler(cfg, reg, logger)
	statsHandler := handlers.NewStatsHandler(cfg, reg, logger)
	uploadHandler := handlers.NewUploadHandler(cfg, authenticator, reg, logger)
	webhookHandler := handlers.NewIdentityWebhookHandler(
		external.NewSignedEventVerifier(),
		reg,
		cfg.Auth.WebhookSecret,
		logger,
	)

	srv.MountRoutes(
		pingHandler.RegisterRoutes,
		statsHandler.RegisterRoutes,
		uploadHandler.RegisterRoutes,
		webhookHandler.RegisterRoutes,
	)

	return runHTTPServer(srv, cfg, logger)
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}
