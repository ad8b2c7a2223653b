package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/ghinbox/internal/log"
	"github.com/spiffcs/ghinbox/internal/scheduler"
	"github.com/spiffcs/ghinbox/internal/store"
	"github.com/spiffcs/ghinbox/internal/tui"
)

// NewCmdWatch creates the watch command.
func NewCmdWatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the inbox in sync and browse it interactively",
		Long: `Runs sync passes in the background, respecting the server's poll
interval and backing off after failures.

On a terminal the interactive inbox is shown and refreshes as passes land.
Otherwise every pass is logged. Use --metrics-addr to expose Prometheus
metrics for the sync loop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	addViewFlags(cmd, opts)
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable the interactive inbox (default: auto-detect)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *Options) error {
	q, err := opts.Query()
	if err != nil {
		return err
	}

	useTUI := shouldUseTUI(opts)
	if useTUI {
		// Logs would interleave with the inbox
		log.Initialize(opts.Verbosity, io.Discard)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	settings := rt.cfg.SyncSettings()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	registerBuildInfo(reg)

	sched := scheduler.New(rt.store,
		scheduler.WithInterval(settings.Interval),
		scheduler.WithBackoffMax(settings.BackoffMax),
		scheduler.WithLogger(log.Logger()),
		scheduler.WithMetrics(scheduler.NewMetrics(reg)),
		scheduler.WithObserver(func(res store.SyncResult, err error) {
			rt.recordPass(res, err)
			if err == nil {
				log.Info("sync pass", log.Pass(res.PassID), "pages", res.Pages, "created", res.Created,
					"updated", res.Updated, "stale", res.Stale, "not_modified", res.NotModified)
			}
		}),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})

	if opts.MetricsAddr != "" {
		srv := newMetricsServer(opts.MetricsAddr, reg, sched.Status)
		g.Go(func() error {
			log.Info("metrics listening", "addr", opts.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 3*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if useTUI {
		g.Go(func() error {
			// Quitting the inbox ends the watch
			defer cancel()
			return tui.Run(gctx, rt.store,
				tui.WithQuery(q),
				tui.WithSyncStatus(sched.Status),
				tui.WithSyncTrigger(sched.TriggerNow),
			)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newMetricsServer serves reg on /metrics. /healthz fails while the last
// sync pass is failing.
func newMetricsServer(addr string, reg *prometheus.Registry, status func() scheduler.Status) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if status().LastError != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}
