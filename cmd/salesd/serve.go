package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grocery-sales/internal/metrics"
	"grocery-sales/internal/ml"
	"grocery-sales/internal/server"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var noWarmup bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the prediction HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadSettings(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			loader, closeLoader, err := buildLoader(c)
			if err != nil {
				return err
			}
			defer closeLoader()

			m := metrics.New()
			predictor := ml.NewWithMetrics(loader, metrics.NewWrapper(m), c.LoadTimeout)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if !noWarmup {
				go func() {
					if err := predictor.Load(ctx); err != nil {
						log.Warn().Err(err).Msg("Model warm-up failed, will retry on first request")
					}
				}()
			}

			srv := server.New(predictor, m, server.Options{
				Addr:           c.Addr(),
				RequestTimeout: c.RequestTimeout,
				AllowedOrigins: c.AllowedOrigins,
			})

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			return waitForShutdown(ctx, cancel, srv, errCh)
		},
	}

	cmd.Flags().BoolVar(&noWarmup, "no-warmup", false, "Load the model on the first request instead of at startup")
	return cmd
}

// waitForShutdown blocks until a signal arrives or the server fails, then
// drains in-flight requests.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, srv *server.Server, errCh <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("Context canceled")
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	}

	log.Info().Msg("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Shutdown timeout, forcing exit")
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
