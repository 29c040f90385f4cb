package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	blog "github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/internal/logging"
)

const readHeaderTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		address string
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			module, cfg, err := opts.openModule(ctx, func(cfg *blog.Config) {
				if address != "" {
					cfg.Server.Address = address
				}
				if migrate {
					cfg.Database.Migrate = true
				}
			})
			if err != nil {
				return err
			}
			defer module.Close()

			logger := logging.ModuleLogger(module.Container().LoggerProvider(), "blog.server")

			handler, err := module.Handler()
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              cfg.Server.Address,
				Handler:           handler,
				ReadHeaderTimeout: readHeaderTimeout,
				ReadTimeout:       cfg.Server.ReadTimeout.Std(),
				WriteTimeout:      cfg.Server.WriteTimeout.Std(),
			}

			if err := module.Start(ctx); err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server.listening", "address", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("server.shutting_down", "timeout", cfg.Server.ShutdownTimeout.Std().String())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server.shutdown_failed", "error", err)
				return err
			}
			logger.Info("server.stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "addr", "", "listen address (defaults to server.address)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}
