package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/c0ncepT23/Travelbuddy-sub005/internal/adapter/http"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/observability"
)

func newServeCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the import HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), c)
		},
	}
}

func runServe(parent context.Context, c *commandContext) error {
	cfg, logger := c.cfg, c.logger
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()
	logger.Info("store ready", "driver", cfg.StoreDriver)

	svc, err := newServices(ctx, cfg, store, logger, metrics)
	if err != nil {
		return err
	}

	notifier, closeNotifier := newNotifier(cfg, logger)
	confirmer, err := newConfirmer(cfg, notifier, logger)
	if err != nil {
		return err
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:     store,
		Trips:     store,
		Extractor: svc.agent,
		Importer:  svc.importer,
		Confirmer: confirmer,
	}, logger)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		if runErr != nil {
			logger.Error("http server error", "error", runErr)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := closeNotifier(); err != nil {
		logger.Error("notifier close error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}
