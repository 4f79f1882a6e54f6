package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/nao1215/flightdash/internal/config"
	"github.com/nao1215/flightdash/internal/dashboard"
	"github.com/nao1215/flightdash/internal/history"
	"github.com/nao1215/flightdash/internal/model"
	"github.com/nao1215/flightdash/internal/notify"
	"github.com/nao1215/flightdash/internal/summarize"
)

// Files written into the dashboard directory.
const (
	HTMLFile     = "index.html"
	MarkdownFile = "summary.md"
	JSONFile     = "dashboard.json"
)

// Searcher performs a flight search and returns the raw JSON body.
type Searcher interface {
	SearchFlights(ctx context.Context, params url.Values) (json.RawMessage, error)
}

// FetchStep calls the flight search API with the query file's parameters
// and stores the response envelope.
type FetchStep struct {
	client    Searcher
	queryFile string
	rawFile   string
	now       func() time.Time
	logger    *slog.Logger
}

// FetchStepOption configures a FetchStep.
type FetchStepOption func(*FetchStep)

// WithFetchLogger sets a custom logger for the fetch step.
func WithFetchLogger(logger *slog.Logger) FetchStepOption {
	return func(s *FetchStep) {
		s.logger = logger
	}
}

// WithFetchClock sets the clock used for meta.fetched_at.
func WithFetchClock(now func() time.Time) FetchStepOption {
	return func(s *FetchStep) {
		s.now = now
	}
}

// NewFetchStep creates a fetch step reading queryFile and writing rawFile.
func NewFetchStep(client Searcher, queryFile, rawFile string, opts ...FetchStepOption) *FetchStep {
	s := &FetchStep{
		client:    client,
		queryFile: queryFile,
		rawFile:   rawFile,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, run *model.Run) error {
	query, err := config.LoadQuery(s.queryFile)
	if err != nil {
		return err
	}
	params := query.BuildParams()
	s.logger.Debug("searching flights", "params", params)

	body, err := s.client.SearchFlights(ctx, params)
	if err != nil {
		return err
	}

	raw := model.NewRawResponse(body, s.now())
	data, err := raw.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode raw response: %w", err)
	}
	if err := writeFile(s.rawFile, data); err != nil {
		return err
	}

	s.logger.Info("saved raw response", "path", s.rawFile, "bytes", len(data))
	run.Raw = raw
	run.AddArtifact(s.rawFile)
	return nil
}

// ProcessStep turns the raw response into a summary and appends the
// minimum price to the history.
type ProcessStep struct {
	rawFile     string
	summaryFile string
	store       history.Store
	options     summarize.Options
	now         func() time.Time
	logger      *slog.Logger
}

// ProcessStepOption configures a ProcessStep.
type ProcessStepOption func(*ProcessStep)

// WithProcessHistory appends price points to store.
func WithProcessHistory(store history.Store) ProcessStepOption {
	return func(s *ProcessStep) {
		s.store = store
	}
}

// WithProcessOptions sets the extraction limits.
func WithProcessOptions(opts summarize.Options) ProcessStepOption {
	return func(s *ProcessStep) {
		s.options = opts
	}
}

// WithProcessClock sets the clock used for history timestamps.
func WithProcessClock(now func() time.Time) ProcessStepOption {
	return func(s *ProcessStep) {
		s.now = now
	}
}

// WithProcessLogger sets a custom logger for the process step.
func WithProcessLogger(logger *slog.Logger) ProcessStepOption {
	return func(s *ProcessStep) {
		s.logger = logger
	}
}

// NewProcessStep creates a process step reading rawFile and writing summaryFile.
func NewProcessStep(rawFile, summaryFile string, opts ...ProcessStepOption) *ProcessStep {
	s := &ProcessStep{
		rawFile:     rawFile,
		summaryFile: summaryFile,
		options:     summarize.DefaultOptions(),
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ProcessStep) Name() string {
	return "process"
}

// Do executes the process step. A history failure is logged and does not
// fail the step.
func (s *ProcessStep) Do(ctx context.Context, run *model.Run) error {
	raw := run.Raw
	if raw == nil {
		loaded, err := loadRaw(s.rawFile)
		if err != nil {
			return err
		}
		raw = loaded
		run.Raw = raw
	}

	res, err := summarize.FromRaw(raw, s.options)
	if err != nil {
		return err
	}
	if res.Skipped > 0 {
		s.logger.Warn("skipped malformed offers", "skipped", res.Skipped, "examined", res.Examined)
	}

	data, err := res.Summary.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := writeFile(s.summaryFile, data); err != nil {
		return err
	}
	s.logger.Info("saved summary", "path", s.summaryFile, "offers", len(res.Summary.TopOffers))
	run.Summary = res.Summary
	run.AddArtifact(s.summaryFile)

	if s.store == nil {
		return nil
	}
	if p := res.Summary.MinPrice; p != nil {
		point := model.PricePoint{RecordedAt: s.now(), MinPrice: *p}
		if err := s.store.Append(ctx, point); err != nil {
			s.logger.Warn("failed to append price history", "error", err)
		}
	}
	points, err := s.store.List(ctx)
	if err != nil {
		s.logger.Warn("failed to read price history", "error", err)
		return nil
	}
	run.History = points
	return nil
}

// RenderStep writes the dashboard page, plus the optional Markdown and
// JSON reports.
type RenderStep struct {
	dir            string
	queryFile      string
	summaryFile    string
	rawFile        string
	store          history.Store
	location       *time.Location
	currencySymbol string
	topPerStop     int
	markdown       bool
	json           bool
	now            func() time.Time
	logger         *slog.Logger
}

// RenderStepOption configures a RenderStep.
type RenderStepOption func(*RenderStep)

// WithRenderInputs sets the files read when the run does not carry the data.
func WithRenderInputs(queryFile, summaryFile, rawFile string) RenderStepOption {
	return func(s *RenderStep) {
		s.queryFile = queryFile
		s.summaryFile = summaryFile
		s.rawFile = rawFile
	}
}

// WithRenderHistory reads the price history from store.
func WithRenderHistory(store history.Store) RenderStepOption {
	return func(s *RenderStep) {
		s.store = store
	}
}

// WithRenderLocation sets the zone of displayed timestamps.
func WithRenderLocation(loc *time.Location) RenderStepOption {
	return func(s *RenderStep) {
		s.location = loc
	}
}

// WithRenderCurrency sets the currency symbol.
func WithRenderCurrency(symbol string) RenderStepOption {
	return func(s *RenderStep) {
		s.currencySymbol = symbol
	}
}

// WithRenderTopPerStop sets the count shown in table titles.
func WithRenderTopPerStop(n int) RenderStepOption {
	return func(s *RenderStep) {
		s.topPerStop = n
	}
}

// WithRenderMarkdown also writes summary.md.
func WithRenderMarkdown(enabled bool) RenderStepOption {
	return func(s *RenderStep) {
		s.markdown = enabled
	}
}

// WithRenderJSON also writes dashboard.json.
func WithRenderJSON(enabled bool) RenderStepOption {
	return func(s *RenderStep) {
		s.json = enabled
	}
}

// WithRenderClock sets the clock used for the generation time.
func WithRenderClock(now func() time.Time) RenderStepOption {
	return func(s *RenderStep) {
		s.now = now
	}
}

// WithRenderLogger sets a custom logger for the render step.
func WithRenderLogger(logger *slog.Logger) RenderStepOption {
	return func(s *RenderStep) {
		s.logger = logger
	}
}

// NewRenderStep creates a render step writing into dir.
func NewRenderStep(dir string, opts ...RenderStepOption) *RenderStep {
	s := &RenderStep{
		dir:            dir,
		queryFile:      config.DefaultQueryFile,
		location:       time.UTC,
		currencySymbol: config.DefaultCurrencySymbol,
		topPerStop:     config.DefaultTopPerStop,
		now:            time.Now,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *RenderStep) Name() string {
	return "render"
}

// Do executes the render step.
func (s *RenderStep) Do(ctx context.Context, run *model.Run) error {
	if run.Summary == nil {
		summary, err := loadSummary(s.summaryFile)
		if err != nil {
			return err
		}
		run.Summary = summary
	}
	if run.History == nil && s.store != nil {
		points, err := s.store.List(ctx)
		if err != nil {
			s.logger.Warn("failed to read price history", "error", err)
		}
		run.History = points
	}

	query, err := loadQueryText(s.queryFile)
	if err != nil {
		return err
	}

	var fetchedAt time.Time
	switch {
	case run.Raw != nil:
		fetchedAt = run.Raw.Meta.FetchedAt
	case s.rawFile != "":
		if raw, err := loadRaw(s.rawFile); err == nil {
			fetchedAt = raw.Meta.FetchedAt
		}
	}

	view := dashboard.NewView(dashboard.Input{
		Query:          query,
		Summary:        run.Summary,
		History:        run.History,
		GeneratedAt:    s.now(),
		FetchedAt:      fetchedAt,
		Location:       s.location,
		CurrencySymbol: s.currencySymbol,
		TopPerStop:     s.topPerStop,
	})

	outputs := []struct {
		enabled bool
		file    string
		writer  func(io.Writer) dashboard.Writer
	}{
		{true, HTMLFile, func(w io.Writer) dashboard.Writer { return dashboard.NewHTMLWriter(w) }},
		{s.markdown, MarkdownFile, func(w io.Writer) dashboard.Writer { return dashboard.NewMarkdownWriter(w) }},
		{s.json, JSONFile, func(w io.Writer) dashboard.Writer {
			return dashboard.NewJSONWriter(w, dashboard.WithPrettyPrint())
		}},
	}
	for _, out := range outputs {
		if !out.enabled {
			continue
		}
		path := filepath.Join(s.dir, out.file)
		if err := dashboard.WriteFile(path, view, out.writer); err != nil {
			return err
		}
		run.AddArtifact(path)
	}

	s.logger.Info("dashboard generated", "path", filepath.Join(s.dir, HTMLFile), "new_low", view.NewLow)
	return nil
}

// Publisher copies the rendered site to its hosting directory.
type Publisher interface {
	Publish(ctx context.Context) ([]string, error)
}

// PublishStep publishes the rendered dashboard.
type PublishStep struct {
	publisher Publisher
}

// NewPublishStep creates a publish step.
func NewPublishStep(publisher Publisher) *PublishStep {
	return &PublishStep{publisher: publisher}
}

// Name returns the step name.
func (s *PublishStep) Name() string {
	return "publish"
}

// Do executes the publish step.
func (s *PublishStep) Do(ctx context.Context, run *model.Run) error {
	files, err := s.publisher.Publish(ctx)
	for _, f := range files {
		run.AddArtifact(f)
	}
	return err
}

// AlertStep notifies when the minimum price is at or below a threshold.
type AlertStep struct {
	notifier       notify.Notifier
	threshold      int64
	currencySymbol string
	logger         *slog.Logger
}

// NewAlertStep creates an alert step.
func NewAlertStep(notifier notify.Notifier, threshold int64, currencySymbol string, logger *slog.Logger) *AlertStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertStep{
		notifier:       notifier,
		threshold:      threshold,
		currencySymbol: currencySymbol,
		logger:         logger,
	}
}

// Name returns the step name.
func (s *AlertStep) Name() string {
	return "alert"
}

// Do executes the alert step.
func (s *AlertStep) Do(ctx context.Context, run *model.Run) error {
	price := run.MinPrice()
	if !notify.ShouldAlert(price, s.threshold) {
		s.logger.Debug("price above alert threshold", "threshold", s.threshold)
		return nil
	}

	alert := notify.Alert{
		RunID:          run.ID,
		RecordedAt:     run.StartedAt,
		MinPrice:       *price,
		Threshold:      s.threshold,
		CurrencySymbol: s.currencySymbol,
	}
	if offers := run.Summary.TopOffers; len(offers) > 0 {
		alert.Offer = &offers[0]
	}
	if err := s.notifier.Notify(ctx, alert); err != nil {
		return err
	}

	s.logger.Info("price alert sent", "min_price", *price, "threshold", s.threshold)
	run.AlertSent = true
	return nil
}

// RunRecorder stores finished runs.
type RunRecorder interface {
	SaveRun(ctx context.Context, run *model.Run) error
}

// RecordStep saves every finished run, failed ones included.
type RecordStep struct {
	recorder RunRecorder
}

// NewRecordStep creates a record finalizer.
func NewRecordStep(recorder RunRecorder) *RecordStep {
	return &RecordStep{recorder: recorder}
}

// Name returns the finalizer name.
func (s *RecordStep) Name() string {
	return "record"
}

// Finalize saves run.
func (s *RecordStep) Finalize(ctx context.Context, run *model.Run) error {
	if run.Status == model.RunRunning {
		return errors.New("run is not finished")
	}
	return s.recorder.SaveRun(ctx, run)
}
