package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"navi/pkg/logging"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run navi as a long-lived process",
		Long: `Keeps the runtime alive: watches the credential file so cache
invalidation happens on reconnects, and serves Prometheus metrics on
/metrics. Stops on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.WatchCredentials(ctx); err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{Addr: listen, Handler: mux}

			errCh := make(chan error, 1)
			go func() {
				logging.Info("Serve", "Listening on %s", listen)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("metrics server failed: %w", err)
				}
			case <-ctx.Done():
				logging.Info("Serve", "Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":9464", "Address for the metrics endpoint")
	return cmd
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}
