package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nao1215/flightdash/internal/model"
)

// TestObserveRun tests the run collectors.
func TestObserveRun(t *testing.T) {
	t.Parallel()

	m := New()

	ok := model.NewRun()
	ok.Summary = model.NewSummary()
	ok.Summary.MinPrice = model.Ptr[int64](4519)
	ok.Finish(nil)
	m.ObserveRun(ok)

	failed := model.NewRun()
	failed.Finish(errors.New("boom"))
	m.ObserveRun(failed)
	m.ObserveRun(nil)

	if got := testutil.ToFloat64(m.runs.WithLabelValues(string(model.RunSucceeded))); got != 1 {
		t.Errorf("succeeded runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues(string(model.RunFailed))); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.minPrice); got != 4519 {
		t.Errorf("min price = %v, want 4519", got)
	}
	if got := testutil.ToFloat64(m.lastSuccess); got != float64(ok.FinishedAt.Unix()) {
		t.Errorf("last success = %v, want %d", got, ok.FinishedAt.Unix())
	}
}

// TestObserveStep tests the step duration histogram.
func TestObserveStep(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveStep("fetch", 120*time.Millisecond, nil)
	m.ObserveStep("fetch", time.Second, errors.New("boom"))
	m.ObserveStep("render", 5*time.Millisecond, nil)

	if got := testutil.CollectAndCount(m.stepDuration); got != 3 {
		t.Errorf("expected 3 series, got %d", got)
	}

	expected := `
# HELP flightdash_runs_total Total number of pipeline runs by final status.
# TYPE flightdash_runs_total counter
flightdash_runs_total{status="succeeded"} 1
`
	run := model.NewRun()
	run.Finish(nil)
	m.ObserveRun(run)
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "flightdash_runs_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

// TestNilMetrics tests that a nil *Metrics records nothing.
func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveStep("fetch", time.Second, nil)
	m.ObserveRun(model.NewRun())
}

// TestHandler tests the exposition endpoint.
func TestHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveStep("fetch", time.Second, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `flightdash_step_duration_seconds_count{status="ok",step="fetch"} 1`) {
		t.Errorf("unexpected body:\n%s", rec.Body.String())
	}
}

// TestServe tests that the server answers and stops with its context.
func TestServe(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, addr, New(), slog.New(slog.DiscardHandler))
	}()

	var resp *http.Response
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err = http.Get("http://" + addr + "/metrics") //nolint:noctx // test helper
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("metrics endpoint not reachable: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
