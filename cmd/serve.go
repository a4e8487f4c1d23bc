package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"sitepaths/internal/api"
	"sitepaths/internal/api/handler/v1handler"
	"sitepaths/internal/config"
	"sitepaths/internal/crawler"
	"sitepaths/internal/tracker"
	"sitepaths/internal/worker"
	"sitepaths/pkg/logger"
	"sitepaths/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startServer serves the API in the background. The returned func shuts it down.
func startServer(ctx context.Context, cfg *config.Config, deps api.Deps) (func(ctx context.Context), error) {
	server, err := api.NewServer(deps, api.NewOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("could not create webserver: %w", err)
	}

	go func() {
		logger.Info(ctx, "webserver listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "webserver stopped unexpectedly", zap.Error(err))
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}, nil
}

// startMetrics installs the Prometheus backed meter provider. The returned func
// flushes and shuts it down.
func startMetrics(ctx context.Context) (func(ctx context.Context), error) {
	mp, err := metrics.Setup(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("could not set up metrics: %w", err)
	}

	return func(ctx context.Context) {
		if err := mp.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "could not shut down meter provider", zap.Error(err))
		}
	}, nil
}

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the API server and the background crawl workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stopMetrics, err := startMetrics(ctx)
			if err != nil {
				return err
			}

			strg, closeStrg, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStrg()

			crwl, err := crawler.New(strg, crawler.NewOptions(cfg))
			if err != nil {
				return fmt.Errorf("could not create crawler: %w", err)
			}

			// jobs outlive the signal context so they can drain during shutdown
			riverClient, err := worker.Start(context.WithoutCancel(ctx), strg.Pool, crwl, worker.NewOptions(cfg))
			if err != nil {
				return fmt.Errorf("could not start workers: %w", err)
			}

			stopWebserver, err := startServer(ctx, cfg, api.Deps{Deps: v1handler.Deps{
				Tracker: tracker.New(strg, tracker.NewOptions(cfg)),
			}})
			if err != nil {
				_ = riverClient.StopAndCancel(context.WithoutCancel(ctx))

				return err
			}

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)

			logger.Info(ctx, "stopping workers")
			if err := riverClient.Stop(shutdownCtx); err != nil {
				logger.Warn(ctx, "workers did not stop in time, cancelling running crawls", zap.Error(err))
				cancelCtx, cancelStop := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
				defer cancelStop()
				if err := riverClient.StopAndCancel(cancelCtx); err != nil {
					logger.Error(ctx, "could not stop workers", zap.Error(err))
				}
			}

			stopMetrics(shutdownCtx)

			return nil
		},
	}
}
