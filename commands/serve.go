package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"realestate-agent/config"
	"realestate-agent/scheduler"
	"realestate-agent/server"
)

func serveCmd(o *config.Overrides) *cobra.Command {
	var (
		port    string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, o)
			if err != nil {
				return err
			}
			defer a.close()

			if port == "" {
				port = a.cfg.HTTPPort
			}

			if refresh {
				r := scheduler.New(a.store, a.pipeline, a.cfg.RefreshSchedule, a.cfg.RefreshSearches, a.logger)
				if err := r.Start(ctx); err != nil {
					return err
				}
				defer r.Stop()
			}

			h := server.NewHandler(a.pipeline, a.store, a.healthChecker(), a.logger)
			srv := server.New(port, h, a.logger)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			// ── Graceful shutdown ────────────────────────────────────────────
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			cancel()
			if err := srv.Shutdown(10 * time.Second); err != nil {
				a.logger.Warn("[server] Shutdown error: %v", err)
			}
			a.logger.Info("[server] Stopped.")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides HTTP_PORT)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "periodically re-run recent searches to keep the cache warm")
	return cmd
}
