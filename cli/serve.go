package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service/metrics"
	"github.com/elC0mpa/ami-rotator/service/scheduler"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *model.Flags) *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cycle on a cron schedule and expose Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := loadRuntime(cmd, flags)
			if err != nil {
				return err
			}

			orch, err := newOrchestrator(ctx, cfg, logger)
			if err != nil {
				return err
			}

			recorder := metrics.NewRecorder()
			mux := http.NewServeMux()
			mux.Handle("/metrics", recorder.Handler())
			server := &http.Server{
				Addr:              cfg.MetricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				logger.WithField("addr", cfg.MetricsAddr).Info("Serving metrics")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
					stop()
				}
			}()

			job := func(ctx context.Context) {
				report, err := orch.Orchestrate(ctx)
				recorder.Record(report, err)
				if err != nil {
					logger.WithError(err).Error("Run failed")
					return
				}
				totals := report.Totals()
				logger.WithField("created", totals.ImagesCreated).
					WithField("deregistered", totals.ImagesDeregistered).
					WithField("snapshotsDeleted", totals.SnapshotsDeleted).
					WithField("errors", len(totals.Errors)).
					Info("Run finished")
			}

			if err := scheduler.Run(ctx, cfg.Schedule, job, logger, scheduler.Options{RunOnStart: runOnStart}); err != nil {
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetricsServer(shutdownCtx, server, logger)

			select {
			case err := <-serverErr:
				return err
			default:
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&flags.Schedule, "schedule", "", "Cron schedule (standard 5-field syntax, overrides the config file)")
	cmd.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", "", "Listen address of the metrics endpoint")
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run once immediately on startup")

	return cmd
}

func shutdownMetricsServer(ctx context.Context, server *http.Server, logger *logrus.Entry) {
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("Metrics server did not shut down cleanly")
	}
}
