package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several servers (and tests) can run
// in one process.
type Metrics struct {
	registry *prometheus.Registry

	commands       *prometheus.CounterVec
	commandLatency *prometheus.HistogramVec
	pendingSwaps   prometheus.Gauge
	outbox         *prometheus.CounterVec
	journalErrors  prometheus.Counter
	swept          prometheus.Counter
	rateLimited    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "junction",
			Name:      "commands_total",
			Help:      "Commands handled, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		commandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "junction",
			Name:      "command_duration_seconds",
			Help:      "Time from submission to durable commit.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"kind"}),
		pendingSwaps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "junction",
			Name:      "pending_swaps",
			Help:      "Swap requests currently holding escrow.",
		}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "junction",
			Name:      "outbox_messages_total",
			Help:      "Outbox deliveries, by route and result.",
		}, []string{"route", "result"}),
		journalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "junction",
			Name:      "journal_errors_total",
			Help:      "Journal appends or syncs that failed.",
		}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "junction",
			Name:      "swaps_expired_total",
			Help:      "Swap requests expired by the sweeper.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "junction",
			Name:      "rate_limited_total",
			Help:      "Calls rejected by the per-identity rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.commands,
		m.commandLatency,
		m.pendingSwaps,
		m.outbox,
		m.journalErrors,
		m.swept,
		m.rateLimited,
	)
	return m
}

func (m *Metrics) ObserveCommand(kind, outcome string, took time.Duration) {
	m.commands.WithLabelValues(kind, outcome).Inc()
	m.commandLatency.WithLabelValues(kind).Observe(took.Seconds())
}

func (m *Metrics) SetPending(n int) { m.pendingSwaps.Set(float64(n)) }

func (m *Metrics) OutboxDelivered(route string) { m.outbox.WithLabelValues(route, "acked").Inc() }

func (m *Metrics) OutboxFailed(route string) { m.outbox.WithLabelValues(route, "failed").Inc() }

func (m *Metrics) JournalError() { m.journalErrors.Inc() }

func (m *Metrics) Swept(n int) { m.swept.Add(float64(n)) }

func (m *Metrics) RateLimited() { m.rateLimited.Inc() }

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
