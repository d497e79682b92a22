package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorequest/internal/app"
	"github.com/dukerupert/chorequest/internal/docstore"
	"github.com/dukerupert/chorequest/internal/identity"
	"github.com/dukerupert/chorequest/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().String("port", "", "listen port")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, logger := opts.cfg, opts.logger

	docs, err := docstore.Open(docstore.Config{Driver: cfg.Store.Driver, Path: cfg.Store.Path}, logger.With("component", "docstore"))
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer docs.Close()

	stores := app.NewStores(docs)
	if n, err := stores.Badges.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed badges: %w", err)
	} else if n > 0 {
		logger.Info("seeded default badges", "count", n)
	}

	if cfg.Auth.TokenKey == "" {
		logger.Warn("no token key configured; sessions will not survive a restart")
	}
	tokens, err := identity.NewTokenIssuer(cfg.Auth.TokenKey, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	dir := identity.NewDirectory(docs, tokens, cfg.Auth.BcryptCost, logger.With("component", "identity"))

	registry := app.NewRegistry(dir, stores, app.NotifyConfig{
		DefaultTimeout: cfg.Notify.DefaultTimeout,
		ErrorTimeout:   cfg.Notify.ErrorTimeout,
	}, logger)
	defer registry.Close()

	srv := server.New(registry, server.Config{
		TokenTTL:  cfg.Auth.TokenTTL,
		RateRPS:   cfg.RateLimit.RPS,
		RateBurst: cfg.RateLimit.Burst,
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runCleanup(ctx, cfg.Server.CleanupInterval, registry, srv, opts)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chorequest running", "addr", httpServer.Addr, "store", cfg.Store.Driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// runCleanup periodically drops expired sessions and idle rate-limit keys.
func runCleanup(ctx context.Context, interval time.Duration, registry *app.Registry, srv *server.Server, opts *rootOptions) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sessions := registry.Cleanup(now)
			keys := srv.RateLimiter().Cleanup(interval)
			opts.logger.Debug("cleanup", "sessions", sessions, "rate_keys", keys)
		}
	}
}
