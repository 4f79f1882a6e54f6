package pipeline

import (
	"errors"
	"log/slog"

	"github.com/nao1215/flightdash/internal/config"
	"github.com/nao1215/flightdash/internal/history"
	"github.com/nao1215/flightdash/internal/notify"
	"github.com/nao1215/flightdash/internal/publish"
	"github.com/nao1215/flightdash/internal/summarize"
)

// ErrNoSearcher is returned when a fetching pipeline has no API client.
var ErrNoSearcher = errors.New("fetch stage requires an API client")

// Stage selects the steps of a pipeline built by Build.
type Stage uint8

// Stages in execution order.
const (
	StageFetch Stage = 1 << iota
	StageProcess
	StageRender
	StagePublish
	StageAlert

	// StageAll is a complete run.
	StageAll = StageFetch | StageProcess | StageRender | StagePublish | StageAlert
)

// Has reports whether s includes stage.
func (s Stage) Has(stage Stage) bool {
	return s&stage != 0
}

// Dependencies are the collaborators of the default steps.
// Nil members disable the steps that need them, except Searcher, which
// StageFetch requires.
type Dependencies struct {
	Searcher Searcher
	History  history.Store
	Notifier notify.Notifier
	Recorder RunRecorder
	Logger   *slog.Logger
}

// Build creates a pipeline with the steps of stages configured from cfg.
// StagePublish is skipped when cfg.PublishDir is empty and StageAlert
// when there is no notifier or threshold.
func Build(cfg *config.Config, deps Dependencies, stages Stage, opts ...Option) (*Pipeline, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	p := New(append([]Option{WithLogger(logger)}, opts...)...)

	if stages.Has(StageFetch) {
		if deps.Searcher == nil {
			return nil, ErrNoSearcher
		}
		p.AddStep(NewFetchStep(deps.Searcher, cfg.QueryFile, cfg.RawFile(),
			WithFetchLogger(logger)))
	}

	if stages.Has(StageProcess) {
		p.AddStep(NewProcessStep(cfg.RawFile(), cfg.SummaryFile(),
			WithProcessHistory(deps.History),
			WithProcessOptions(summarize.Options{
				OfferWindow: cfg.OfferWindow,
				TopPerStop:  cfg.TopPerStop,
				TopOverall:  cfg.TopOverall,
			}),
			WithProcessLogger(logger)))
	}

	if stages.Has(StageRender) {
		p.AddStep(NewRenderStep(cfg.DashboardDir,
			WithRenderInputs(cfg.QueryFile, cfg.SummaryFile(), cfg.RawFile()),
			WithRenderHistory(deps.History),
			WithRenderLocation(loc),
			WithRenderCurrency(cfg.CurrencySymbol),
			WithRenderTopPerStop(cfg.TopPerStop),
			WithRenderMarkdown(cfg.MarkdownReport),
			WithRenderJSON(cfg.JSONReport),
			WithRenderLogger(logger)))
	}

	if stages.Has(StagePublish) && cfg.PublishDir != "" {
		p.AddStep(NewPublishStep(publish.New(cfg.DashboardDir, cfg.PublishDir, publish.WithLogger(logger))))
	}

	if stages.Has(StageAlert) && deps.Notifier != nil && cfg.AlertThreshold > 0 {
		p.AddStep(NewAlertStep(deps.Notifier, int64(cfg.AlertThreshold), cfg.CurrencySymbol, logger))
	}

	if deps.Recorder != nil {
		p.AddFinalizer(NewRecordStep(deps.Recorder))
	}
	return p, nil
}
