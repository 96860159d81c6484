package main

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

	"runtimed/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(opts *options) *cobra.Command {
	var (
		addr          string
		waitEngine    time.Duration
		ensureOnStart bool
		ensureTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the runtime lifecycle HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if addr != "" {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("ensure-on-start") {
				cfg.EnsureOnStart = ensureOnStart
			}
			log := opts.log

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := openDeps(cfg, log)
			if err != nil {
				return err
			}
			defer deps.Close()

			if waitEngine > 0 {
				wctx, cancel := context.WithTimeout(ctx, waitEngine)
				err := deps.engine.WaitReady(wctx)
				cancel()
				if err != nil {
					return fmt.Errorf("container engine not ready: %w", err)
				}
			}

			mgr := newManager(cfg, deps, log, nil)
			httpapi.SetBaseContext(ctx)
			httpapi.SetEnsureTimeout(ensureTimeout)
			httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)
			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           httpapi.NewMux(mgr),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Str("image", cfg.Image).Str("data_dir", cfg.DataDir).Msg("runtimed listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			if cfg.EnsureOnStart {
				go func() {
					if _, err := mgr.EnsureRuntimeReady(ctx); err != nil {
						log.Error().Err(err).Msg("ensure on start failed")
					}
				}()
			}

			select {
			case err := <-errc:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				log.Warn().Err(err).Msg("graceful shutdown error")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config and RUNTIMED_ADDR)")
	cmd.Flags().DurationVar(&waitEngine, "wait-engine", 0, "Wait up to this long for the container engine before serving")
	cmd.Flags().BoolVar(&ensureOnStart, "ensure-on-start", false, "Reconcile the runtime container once at startup")
	cmd.Flags().DurationVar(&ensureTimeout, "ensure-timeout", 0, "Max time a POST /runtime/ensure caller waits (0 = unbounded)")
	return cmd
}
