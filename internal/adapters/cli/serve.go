package cli

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/printforge/printforge/internal/adapters/events"
	"github.com/printforge/printforge/internal/adapters/metrics"
	"github.com/printforge/printforge/internal/application/common"
	"github.com/printforge/printforge/internal/infrastructure/config"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the background worker",
		Long: `Run the long-lived process: the replanning worker fed by NATS events,
and the Prometheus metrics endpoint. CLI commands against the same
database keep working while serve runs; their events arrive here and
trigger coalesced planning runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	return cmd
}

func runServe() error {
	var publisher *events.Publisher

	// The daemon publishes events for its own operations, so a planning run
	// it triggers is observable like any other.
	a, err := newAppForServe(&publisher)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	worker := a.newTriggerWorker()
	group.Go(func() error {
		err := worker.Start(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	if a.cfg.Events.Enabled {
		subscriber, err := events.NewSubscriber(a.cfg.Events.URL, a.cfg.Events.SubjectPrefix, worker, a.logger)
		if err != nil {
			return fmt.Errorf("failed to connect event subscriber: %w", err)
		}
		defer subscriber.Close()
		if err := subscriber.Start(); err != nil {
			return fmt.Errorf("failed to start event subscriber: %w", err)
		}
	} else {
		a.logger.Warn("events disabled; planning reruns only on demand")
	}

	if a.cfg.Metrics.Enabled {
		server := &http.Server{
			Addr:              a.cfg.Metrics.Address,
			Handler:           metricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		group.Go(func() error {
			a.logger.WithField("address", server.Addr).Info("metrics endpoint listening")
			if err := server.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	a.logger.Info("printforge worker running")
	err = group.Wait()
	if publisher != nil {
		publisher.Close()
	}
	if err != nil && err != context.Canceled {
		return err
	}
	a.logger.Info("printforge worker stopped")
	return nil
}

// newAppForServe wires the app with a NATS publisher when events are enabled
func newAppForServe(publisher **events.Publisher) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Events.Enabled {
		return newApp(nil, nil, nil)
	}

	logger := common.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	p, err := events.NewPublisher(cfg.Events.URL, cfg.Events.SubjectPrefix, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	*publisher = p
	return newApp(p, p, p)
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintln(w, "ok")
	})
	return mux
}
