// internal/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/modbus-gateway/internal/event"
	"github.com/tamzrod/modbus-gateway/internal/poller"
	"github.com/tamzrod/modbus-gateway/internal/status"
	"github.com/tamzrod/modbus-gateway/internal/writer"
)

const namespace = "modbus_gateway"

// Metrics holds the gateway collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	cycles          prometheus.Counter
	commandFailures *prometheus.CounterVec
	fieldErrors     *prometheus.CounterVec
	events          *prometheus.CounterVec
	health          prometheus.Gauge
	secondsInError  prometheus.Gauge
	cycleDuration   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Poll cycles completed.",
		}),
		commandFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_failures_total",
			Help:      "Read commands that failed at transport level.",
		}, []string{"function_code"}),
		fieldErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_errors_total",
			Help:      "Fields without a value, by error type.",
		}, []string{"type"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events written to the sink, by type.",
		}, []string{"type"}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "device_health",
			Help:      "Device health code: 0 unknown, 1 ok, 2 error.",
		}),
		secondsInError: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "seconds_in_error",
			Help:      "Seconds since the device entered the error state.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time spent reading all commands of one cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.reg.MustRegister(
		m.cycles,
		m.commandFailures,
		m.fieldErrors,
		m.events,
		m.health,
		m.secondsInError,
		m.cycleDuration,
	)
	return m
}

// ObserveCycle records one finished poll cycle.
func (m *Metrics) ObserveCycle(snap poller.Snapshot, took time.Duration) {
	m.cycles.Inc()
	m.cycleDuration.Observe(took.Seconds())

	for _, r := range snap.Results {
		if r.Err != nil {
			m.commandFailures.WithLabelValues(strconv.Itoa(int(r.Command.FC))).Inc()
		}
	}
	for _, fe := range snap.Errors {
		m.fieldErrors.WithLabelValues(fe.Type).Inc()
	}
}

func (m *Metrics) ObserveEvent(t event.Type) {
	m.events.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) ObserveStatus(s status.Snapshot) {
	m.health.Set(float64(s.Health))
	m.secondsInError.Set(float64(s.SecondsInError))
}

// Wrap counts every event w accepts.
func (m *Metrics) Wrap(w writer.Writer) writer.Writer {
	return writer.Func(func(ev event.Event) error {
		if err := w.Write(ev); err != nil {
			return err
		}
		m.ObserveEvent(ev.Type)
		return nil
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
