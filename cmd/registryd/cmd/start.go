package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/paw-chain/modelreg/api"
	"github.com/paw-chain/modelreg/api/health"
	"github.com/paw-chain/modelreg/x/registry/keeper"
	"github.com/paw-chain/modelreg/x/registry/txindex"
)

// StartCmd runs the API gateway and the telemetry server until interrupted.
func StartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Serve registry queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := getRunContext(cmd)
			if err != nil {
				return err
			}
			cfg, logger := rc.config, rc.logger
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			n, err := openNode(ctx, cfg, rc.home, logger)
			if err != nil {
				return err
			}
			defer n.Close()

			if err := startMetrics(cfg); err != nil {
				return fmt.Errorf("failed to start metrics: %w", err)
			}
			provider, err := startTracing(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := provider.Shutdown(context.Background()); err != nil {
					logger.Error("telemetry shutdown failed", "error", err)
				}
			}()

			checker := health.NewHealthChecker(api.Version)
			checker.RegisterCheck("tracing", tracingCheck(provider))
			if pg, ok := n.txIndex.(*txindex.Postgres); ok {
				checker.RegisterCheck("tx_index", health.DatabaseCheck(pg.Ping))
			}

			server, err := api.NewServer(keeper.NewQueryServerImpl(n.keeper), checker, logger, &cfg.API)
			if err != nil {
				return err
			}
			telemetrySrv := newTelemetryServer(cfg.Telemetry.Address, checker)

			errCh := make(chan error, 2)
			go func() {
				logger.Info("starting telemetry server", "addr", telemetrySrv.Addr)
				if err := telemetrySrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- fmt.Errorf("telemetry server: %w", err)
				}
			}()
			go func() {
				errCh <- server.Start(ctx)
			}()

			logger.Info("registry serving", "chain_id", cfg.ChainID, "height", n.keeper.LatestHeight())

			select {
			case err = <-errCh:
				cancel()
			case <-ctx.Done():
				err = <-errCh
			}

			shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
			defer stop()
			if serr := telemetrySrv.Shutdown(shutdownCtx); serr != nil {
				logger.Error("telemetry server shutdown failed", "error", serr)
			}

			return err
		},
	}
}
