// Package metrics exposes Prometheus collectors for pipeline runs.
//
// Collectors live on a private registry, so tests and several Metrics
// values never collide with each other or with the default registry.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/flightdash/internal/model"
)

const namespace = "flightdash"

// Metrics holds the run collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	minPrice     prometheus.Gauge
	lastSuccess  prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by final status.",
			},
			[]string{"status"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of pipeline steps in seconds.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"step", "status"},
		),
		minPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_min_price",
			Help:      "Minimum price found by the last successful run.",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStep records the duration of one step.
func (m *Metrics) ObserveStep(step string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stepDuration.WithLabelValues(step, status).Observe(d.Seconds())
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(run *model.Run) {
	if m == nil || run == nil {
		return
	}
	m.runs.WithLabelValues(string(run.Status)).Inc()
	if run.Status != model.RunSucceeded {
		return
	}
	m.lastSuccess.Set(float64(run.FinishedAt.Unix()))
	if p := run.MinPrice(); p != nil {
		m.minPrice.Set(float64(*p))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, m *Metrics, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil { //nolint:contextcheck // ctx is already done
			return fmt.Errorf("failed to stop metrics server: %w", err)
		}
		return nil
	}
}
