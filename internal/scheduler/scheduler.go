// Package scheduler runs the pipeline on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule is returned for an expression cron cannot parse.
var ErrInvalidSchedule = errors.New("invalid schedule")

// parser accepts standard 5-field expressions and descriptors such as
// @daily or @every 6h.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is one scheduled execution.
type Job func(ctx context.Context) error

// Scheduler triggers a Job on a cron schedule in a fixed time zone.
// A trigger that fires while the previous execution is still running is
// skipped.
type Scheduler struct {
	expr       string
	schedule   cron.Schedule
	location   *time.Location
	job        Job
	logger     *slog.Logger
	runOnStart bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithRunOnStart runs the job once before waiting for the first trigger.
func WithRunOnStart(run bool) Option {
	return func(s *Scheduler) {
		s.runOnStart = run
	}
}

// ParseSchedule parses expr.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, expr, err)
	}
	return sched, nil
}

// New creates a Scheduler running job on expr, evaluated in loc.
// A nil loc means UTC.
func New(expr string, loc *time.Location, job Job, opts ...Option) (*Scheduler, error) {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}

	s := &Scheduler{
		expr:     expr,
		schedule: sched,
		location: loc,
		job:      job,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Next returns the first trigger after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// Run triggers the job until ctx is cancelled, then waits for a running
// execution to return. Job errors are logged and do not stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithParser(parser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() { s.execute(ctx) }))

	if s.runOnStart {
		s.execute(ctx)
	}

	c.Start()
	s.logger.Info("scheduler started",
		"schedule", s.expr,
		"timezone", s.location.String(),
		"next", s.Next(time.Now()),
	)

	<-ctx.Done()
	s.logger.Info("scheduler stopping, waiting for a running job")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) execute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err, "elapsed", time.Since(start))
		return
	}
	s.logger.Info("scheduled run finished", "elapsed", time.Since(start), "next", s.Next(time.Now()))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
