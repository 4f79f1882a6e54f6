package model

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the outcome of a pipeline run.
type RunStatus string

const (
	// RunRunning means the run has started and not finished.
	RunRunning RunStatus = "running"

	// RunSucceeded means every step completed.
	RunSucceeded RunStatus = "succeeded"

	// RunFailed means a step returned an error or the run was cancelled.
	RunFailed RunStatus = "failed"
)

// Run carries the state of one pipeline execution from step to step.
//
// Steps fill in the fields they produce. A step that needs an input the
// run does not carry yet (for example ProcessStep without Raw) loads it
// from disk, so the fetch, process and generate commands also work on
// their own.
type Run struct {
	// ID identifies the run in logs and in the runs table.
	ID string `json:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended. Zero while running.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Status is the outcome of the run.
	Status RunStatus `json:"status"`

	// Raw is the fetched response envelope.
	Raw *RawResponse `json:"-"`

	// Summary is the processed response.
	Summary *Summary `json:"summary,omitempty"`

	// History is the price history known after processing.
	History []PricePoint `json:"-"`

	// Artifacts lists the files written by the run, in order.
	Artifacts []string `json:"artifacts,omitempty"`

	// AlertSent is true when a price alert was published.
	AlertSent bool `json:"alert_sent"`

	// PerformedSteps lists the steps that completed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the error that ended the run, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for storage.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewRun creates a run with a fresh ID.
func NewRun() *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Status:    RunRunning,
	}
}

// AddArtifact records a file written by the run.
func (r *Run) AddArtifact(path string) {
	r.Artifacts = append(r.Artifacts, path)
}

// Finish marks the run as done with err as its outcome.
func (r *Run) Finish(err error) {
	r.FinishedAt = time.Now()
	if err != nil {
		r.Status = RunFailed
		r.Error = err
		r.ErrorMessage = err.Error()
		return
	}
	r.Status = RunSucceeded
}

// Duration returns how long the run took, or has taken so far.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// MinPrice returns the minimum price of the run's summary, if any.
func (r *Run) MinPrice() *int64 {
	if r.Summary == nil {
		return nil
	}
	return r.Summary.MinPrice
}
