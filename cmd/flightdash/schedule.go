package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/flightdash/internal/dashboard"
	"github.com/nao1215/flightdash/internal/metrics"
	"github.com/nao1215/flightdash/internal/pipeline"
	"github.com/nao1215/flightdash/internal/scheduler"
)

// NewScheduleCmd creates the schedule command.
func NewScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the complete pipeline on a cron schedule",
		Long: `Schedule keeps running and performs a complete run (like 'flightdash run')
every time the cron expression fires. The expression is evaluated in the
configured time zone; the default fires at 00:00 and 12:00.

A failed run is logged and the scheduler waits for the next trigger. A
trigger that fires while a run is still in progress is skipped.

With --metrics-addr run counts, step durations and the last minimum
price are exposed in the Prometheus format on /metrics.

Examples:
  # Twice a day, Asia/Kolkata
  flightdash schedule

  # Every six hours, run immediately, expose metrics
  flightdash schedule --cron "@every 6h" --run-now --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: runScheduleCmd,
	}

	cmd.Flags().String("cron", "", "Cron expression (default \"0 0,12 * * *\")")
	cmd.Flags().Bool("run-now", false, "Run once immediately before waiting for the schedule")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	addOutputFlags(cmd)
	return cmd
}

func runScheduleCmd(cmd *cobra.Command, _ []string) error {
	runNow, err := cmd.Flags().GetBool("run-now")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext(cmd)
	defer stop()

	m := metrics.New()
	p, err := a.buildPipeline(ctx, pipeline.StageAll, pipeline.WithMetrics(m))
	if err != nil {
		return err
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	sched, err := scheduler.New(a.cfg.Schedule, loc,
		func(ctx context.Context) error {
			_, err := p.Run(ctx)
			return err
		},
		scheduler.WithLogger(a.logger),
		scheduler.WithRunOnStart(runNow),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %q in %s, next run at %s\n",
		a.cfg.Schedule, loc, sched.Next(time.Now()).Format(dashboard.TimestampLayout))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	if a.cfg.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, a.cfg.MetricsAddr, m, a.logger)
		})
	}
	return g.Wait()
}
