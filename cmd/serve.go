package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pagehound/pagehound/internal/api"
)

func newServeCmd() *cobra.Command {
	var (
		addr     string
		snapshot string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API over HTTP",
		Long: `Loads the index (snapshot first, document store as fallback) and
serves /v1/search, /v1/stats, /v1/documents/{id}, health checks, and
Prometheus metrics until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, snapshot)
			if err != nil {
				return err
			}
			defer a.close()

			// An empty index is servable; searches just return nothing.
			if err := a.restoreIndex(ctx); err != nil {
				a.logger.Warn("starting with an empty index", zap.Error(err))
			}

			if addr == "" {
				addr = fmt.Sprintf(":%d", a.cfg.Server.Port)
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(a.engine, a.cfg, a.logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			a.logger.Info("http server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to :server.port)")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "index snapshot path override")
	return cmd
}
