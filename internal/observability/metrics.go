// Package observability exports simulator activity as Prometheus metrics.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/rmsim/internal/sim"
)

const namespace = "rmsim"

// Metrics is a sim.RunObserver that records runs and steps.
type Metrics struct {
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	steps       *prometheus.CounterVec
	stepLatency *prometheus.HistogramVec
	inProgress  prometheus.Gauge

	mu       sync.Mutex
	model    string
	lastStep time.Time
}

var _ sim.RunObserver = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed simulation runs by outcome.",
			},
			[]string{"model", "outcome"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of simulation runs.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"model"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_total",
				Help:      "Integrated simulation steps.",
			},
			[]string{"model"},
		),
		stepLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Wall-clock time between recorded steps.",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"model"},
		),
		inProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_progress",
			Help:      "Simulation runs currently executing.",
		}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.runDuration, m.steps, m.stepLatency, m.inProgress} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) OnRunStart(model string, steps int) {
	m.mu.Lock()
	m.model = model
	m.lastStep = time.Now()
	m.mu.Unlock()

	m.inProgress.Inc()
}

func (m *Metrics) OnStep(step int, t float64, x []float64) {
	m.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(m.lastStep)
	m.lastStep = now
	model := m.model
	m.mu.Unlock()

	m.steps.WithLabelValues(model).Inc()
	m.stepLatency.WithLabelValues(model).Observe(elapsed.Seconds())
}

func (m *Metrics) OnRunEnd(model string, elapsed time.Duration, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "cancelled"
	case err != nil:
		outcome = "error"
	}

	m.inProgress.Dec()
	m.runs.WithLabelValues(model, outcome).Inc()
	m.runDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// Serve exposes g on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	return srv
}
