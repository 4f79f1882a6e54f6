package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/flightdash/internal/metrics"
	"github.com/nao1215/flightdash/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Do executes the step, reading from and adding to run.
	Do(ctx context.Context, run *model.Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Finalizer runs after the steps, whether they succeeded or not.
type Finalizer interface {
	// Finalize receives the finished run. Its error is logged only.
	Finalize(ctx context.Context, run *model.Run) error

	// Name returns the finalizer's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps      []Step
	finalizers []Finalizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics records step durations and run outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// AddFinalizer appends a finalizer.
func (p *Pipeline) AddFinalizer(f Finalizer) {
	p.finalizers = append(p.finalizers, f)
}

// Execute runs the steps in order and stops at the first error.
// Cancellation is checked before each step; steps handle their own
// timeouts. Completed steps are listed in run.PerformedSteps.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			return err
		}

		p.logger.Info("executing step", "step", step.Name(), "run", run.ID)

		start := time.Now()
		err := step.Do(ctx, run)
		elapsed := time.Since(start)
		p.metrics.ObserveStep(step.Name(), elapsed, err)

		if err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"run", run.ID,
				"error", err,
			)
			return fmt.Errorf("%s: %w", step.Name(), err)
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"run", run.ID,
			"elapsed", elapsed,
		)
		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}
	return nil
}

// Run creates a run, executes the steps, finishes the run and hands it
// to the finalizers. The returned error is the step error, if any.
func (p *Pipeline) Run(ctx context.Context) (*model.Run, error) {
	run := model.NewRun()
	err := p.Execute(ctx, run)
	run.Finish(err)
	p.metrics.ObserveRun(run)

	// Finalizers record the outcome even when the run was cancelled.
	finalCtx := context.WithoutCancel(ctx)
	for _, f := range p.finalizers {
		if ferr := f.Finalize(finalCtx, run); ferr != nil {
			p.logger.Warn("finalizer failed",
				"finalizer", f.Name(),
				"run", run.ID,
				"error", ferr,
			)
		}
	}

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	p.logger.Log(finalCtx, level, "run finished",
		"run", run.ID,
		"status", run.Status,
		"elapsed", run.Duration(),
		"steps", run.PerformedSteps,
	)
	return run, err
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
