package cli

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

	"github.com/example/upkeep/internal/config"
)

// ServeCmd returns the serve command running the JSON API server.
func ServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upkeep API server",
		Long: `Run the JSON API server with the background sweeps.

The server reads its configuration from ` + "`~/.upkeep/config.yaml`" + ` and
UPKEEP_* environment variables. Caller identity arrives in the
X-Upkeep-User and X-Upkeep-Role headers; authentication itself happens
at the gateway in front of this service.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := application(ctx)
			if err != nil {
				return err
			}
			if addr != "" {
				app.Config.HTTP.ListenAddr = addr
			}

			// First run: materialize the defaults so operators have a
			// file to edit.
			if !app.Config.Exist() {
				if err := config.DefaultConfig().WriteConfig(); err != nil {
					return fmt.Errorf("write config file: %w", err)
				}
			}

			sweeper := app.NewSweeper()
			if err := sweeper.Start(ctx); err != nil {
				return err
			}
			defer sweeper.Stop()

			srv := &http.Server{
				Addr:              app.Config.HTTP.ListenAddr,
				Handler:           app.NewRouter(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("api server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				app.Logger.Info("shutting down", "signal", sig)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return app.Close()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
