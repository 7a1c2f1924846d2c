package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderramin/dealboard/internal/api"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the deal API over the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLocal("serve"); err != nil {
				return err
			}
			if app.Config.JWTSecret == "" {
				return fmt.Errorf("jwt_secret is required to serve (--jwt-secret or DEALBOARD_JWT_SECRET)")
			}

			e := api.NewServer(api.Services{Pipelines: app.Pipelines, Deals: app.Deals},
				api.NewAuth(app.Config.JWTSecret), app.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				app.Logger.WithField("addr", app.Config.Addr).Info("serving deal API")
				errCh <- e.Start(app.Config.Addr)
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")

	return cmd
}
