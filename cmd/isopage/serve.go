package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/isopage"
	"github.com/vango-dev/isopage/pkg/telemetry"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		listen    string
		staticDir string
		debug     bool
		metrics   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo pages",
		Long: `Serve the demo pages over HTTP with live sessions enabled.

Examples:
  isopage serve
  isopage serve --listen=:8080 --static=public
  ISOPAGE_CACHE_REDIS_ADDR=localhost:6379 isopage serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if staticDir != "" {
				cfg.Static.Dir = staticDir
			}
			if debug {
				cfg.Debug = true
			}
			if metrics {
				cfg.Metrics.Enabled = true
			}

			logger := newLogger(cfg.Debug)
			app, err := isopage.New(cfg,
				isopage.WithLogger(logger),
				isopage.WithTracer(telemetry.NewTracer()),
			)
			if err != nil {
				return err
			}
			defer app.Close()
			registerDemo(app)

			srv := &http.Server{
				Addr:              cfg.Listen,
				Handler:           app,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			success("Listening on %s", cfg.Listen)
			if cfg.Metrics.Enabled {
				info("Metrics at %s", cfg.Metrics.Path)
			}

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			app.Live().Close()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&staticDir, "static", "", "Directory of static assets")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging and error details")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Expose Prometheus metrics")

	return cmd
}
