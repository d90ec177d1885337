package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	gamesStarted    *prometheus.CounterVec
	answers         *prometheus.CounterVec
	scoresSubmitted prometheus.Counter
	httpDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		gamesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flagquiz",
			Name:      "games_started_total",
			Help:      "Games started, by mode.",
		}, []string{"mode"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flagquiz",
			Name:      "answers_total",
			Help:      "Answered questions, by correctness.",
		}, []string{"correct"}),
		scoresSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flagquiz",
			Name:      "scores_submitted_total",
			Help:      "Score records saved.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flagquiz",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.gamesStarted,
		m.answers,
		m.scoresSubmitted,
		m.httpDuration,
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Metrics) GameStarted(mode string) {
	m.gamesStarted.WithLabelValues(mode).Inc()
}

func (m *Metrics) AnswerRecorded(correct bool) {
	m.answers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) ScoreSubmitted() {
	m.scoresSubmitted.Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
