// Package metrics exposes Prometheus instruments for the assistant. All
// methods are safe on a nil *Metrics so callers can run without metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the assistant's instruments in a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	questions     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	sourceErrors  *prometheus.CounterVec
	subscriptions prometheus.Counter
	transactions  prometheus.Counter
}

// New registers every instrument in a fresh registry, so it can be called
// more than once in the same process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		questions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plaidask_questions_total",
				Help: "Questions handled, by route outcome.",
			},
			[]string{"route"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plaidask_stage_duration_seconds",
				Help:    "Duration of each pipeline stage.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		sourceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plaidask_source_errors_total",
				Help: "Errors returned by the transaction source.",
			},
			[]string{"operation"},
		),
		subscriptions: factory.NewCounter(prometheus.CounterOpts{
			Name: "plaidask_subscription_candidates_total",
			Help: "Recurring subscription candidates emitted.",
		}),
		transactions: factory.NewCounter(prometheus.CounterOpts{
			Name: "plaidask_transactions_classified_total",
			Help: "Transactions run through the tagger.",
		}),
	}
}

// IncQuestion counts a question by route outcome.
func (m *Metrics) IncQuestion(route string) {
	if m == nil {
		return
	}
	m.questions.WithLabelValues(route).Inc()
}

// ObserveStage records how long stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// IncSourceError counts a failed source call.
func (m *Metrics) IncSourceError(operation string) {
	if m == nil {
		return
	}
	m.sourceErrors.WithLabelValues(operation).Inc()
}

// AddSubscriptions counts emitted subscription candidates.
func (m *Metrics) AddSubscriptions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.subscriptions.Add(float64(n))
}

// AddTransactions counts classified transactions.
func (m *Metrics) AddTransactions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.transactions.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
