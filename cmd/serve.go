// Package cmd wires the parapet subcommands: the long-running serve
// loop plus the small operational helpers around it.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parapet-sh/parapet/internal/api"
	"github.com/parapet-sh/parapet/internal/audit"
	"github.com/parapet-sh/parapet/internal/config"
	"github.com/parapet-sh/parapet/internal/events"
	"github.com/parapet-sh/parapet/internal/gateway"
	"github.com/parapet-sh/parapet/internal/logging"
	"github.com/parapet-sh/parapet/internal/session"
)

const shutdownGrace = 10 * time.Second

// RunServe runs the dashboard service until SIGINT/SIGTERM.
func RunServe(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logging.SetDefault(logging.New(logging.Config{
		Level: logging.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	}))
	log := logging.WithComponent("serve")

	var opts []gateway.Option
	if cfg.Gateway.APIKey != "" {
		opts = append(opts, gateway.WithAPIKey(cfg.Gateway.APIKey))
	}
	if d := cfg.GatewayTimeout(); d > 0 {
		opts = append(opts, gateway.WithTimeout(d))
	}
	gw := gateway.NewHTTPClient(cfg.Gateway.URL, opts...)

	hub := events.NewHub()

	var auditStore *audit.Store
	if cfg.Audit != nil && cfg.Audit.Path != "" {
		auditStore, err = audit.NewStore(cfg.Audit.Path, cfg.Audit.RetentionDays)
		if err != nil {
			// The dashboard is still useful without its audit trail.
			log.Warn("audit store unavailable, continuing without it", "path", cfg.Audit.Path, "error", err)
		} else {
			defer auditStore.Close()
		}
	}

	store := session.New(gw, session.Options{
		Hub:      hub,
		Audit:    auditStore,
		Display:  cfg.DisplayConfig(),
		ErrorTTL: cfg.ErrorTTL(),
	})

	// Initial load is best-effort: the gateway may not be up yet, and
	// every view reports a retryable not-loaded state until a refresh
	// succeeds.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.Load(ctx, "startup"); err != nil {
		log.Warn("initial policy load failed", "gateway", cfg.Gateway.URL, "error", err)
	}

	srv := api.New(api.Options{
		Config: cfg,
		Store:  store,
		Hub:    hub,
		Audit:  auditStore,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Listen, "gateway", cfg.Gateway.URL)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// RunCheck validates the configuration file and prints a summary.
func RunCheck(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Configuration valid!\n")
	fmt.Fprintf(os.Stdout, "Listen:  %s\n", cfg.Listen)
	fmt.Fprintf(os.Stdout, "Gateway: %s\n", cfg.Gateway.URL)
	if cfg.Audit != nil && cfg.Audit.Path != "" {
		fmt.Fprintf(os.Stdout, "Audit:   %s (%dd retention)\n", cfg.Audit.Path, cfg.Audit.RetentionDays)
	}
	return nil
}
