package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing,
// which keeps tests free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	liveTransitions   *prometheus.CounterVec
	resultsDeleted    *prometheus.CounterVec
	questionsUploaded prometheus.Counter
	storeCalls        *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec
}

// New builds collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		liveTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "liveclass_live_transitions_total", Help: "Live class start/end attempts"},
			[]string{"action", "outcome"},
		),
		resultsDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "liveclass_results_deleted_total", Help: "Student result deletes by outcome"},
			[]string{"outcome"},
		),
		questionsUploaded: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "liveclass_questions_uploaded_total", Help: "Questions stored"},
		),
		storeCalls: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "liveclass_store_call_duration_seconds",
				Help:    "Document store call latency",
				Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5},
			},
			[]string{"op"},
		),
		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "liveclass_store_errors_total", Help: "Failed document store calls"},
			[]string{"op"},
		),
	}
	m.registry.MustRegister(
		m.liveTransitions,
		m.resultsDeleted,
		m.questionsUploaded,
		m.storeCalls,
		m.storeErrors,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) LiveTransition(action string, err error) {
	if m == nil {
		return
	}
	m.liveTransitions.WithLabelValues(action, outcome(err)).Inc()
}

func (m *Metrics) ResultDeleted(err error) {
	if m == nil {
		return
	}
	m.resultsDeleted.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) QuestionUploaded() {
	if m == nil {
		return
	}
	m.questionsUploaded.Inc()
}

func (m *Metrics) ObserveStoreCall(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.storeCalls.WithLabelValues(op).Observe(time.Since(started).Seconds())
	if err != nil {
		m.storeErrors.WithLabelValues(op).Inc()
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
