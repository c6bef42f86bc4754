package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	answersTotal          *prometheus.CounterVec
	answerDuration        *prometheus.HistogramVec
	fallbackFailuresTotal *prometheus.CounterVec
	corpusArticles        prometheus.Gauge
	feedbackTotal         *prometheus.CounterVec
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oka",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "oka",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "oka",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oka",
			Subsystem: "answers",
			Name:      "total",
			Help:      "Total synthesized answers by source kind.",
		},
		[]string{"service", "source"},
	)
	answerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "oka",
			Subsystem: "answers",
			Name:      "duration_seconds",
			Help:      "Answer synthesis duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)
	fallbackFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oka",
			Subsystem: "fallback",
			Name:      "failures_total",
			Help:      "Total failed generative fallback calls.",
		},
		[]string{"service"},
	)
	corpusArticles := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "oka",
			Subsystem: "corpus",
			Name:      "articles",
			Help:      "Article count observed at the last corpus refresh.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	feedbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oka",
			Subsystem: "feedback",
			Name:      "total",
			Help:      "Total recorded answer verdicts.",
		},
		[]string{"service", "verdict"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		answersTotal,
		answerDuration,
		fallbackFailuresTotal,
		corpusArticles,
		feedbackTotal,
	)

	return &Metrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		answersTotal:          answersTotal,
		answerDuration:        answerDuration,
		fallbackFailuresTotal: fallbackFailuresTotal,
		corpusArticles:        corpusArticles,
		feedbackTotal:         feedbackTotal,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// RecordAnswer notes one completed synthesis. Article-backed answers are
// folded into a single "article" source label to keep cardinality flat.
func (m *Metrics) RecordAnswer(service, source string, duration time.Duration) {
	switch source {
	case "generated", "not-found":
	default:
		source = "article"
	}
	m.answersTotal.WithLabelValues(service, source).Inc()
	m.answerDuration.WithLabelValues(service, source).Observe(duration.Seconds())
}

func (m *Metrics) RecordFallbackFailure(service string) {
	m.fallbackFailuresTotal.WithLabelValues(service).Inc()
}

func (m *Metrics) SetCorpusArticles(count int) {
	m.corpusArticles.Set(float64(count))
}

func (m *Metrics) RecordFeedback(service string, correct bool) {
	verdict := "incorrect"
	if correct {
		verdict = "correct"
	}
	m.feedbackTotal.WithLabelValues(service, verdict).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
