package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	ValidationsTotal   *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec
	CheckFaultsTotal   *prometheus.CounterVec

	SessionsInFlight      prometheus.Gauge
	SessionFailuresTotal  *prometheus.CounterVec
	SessionAcquireSeconds prometheus.Histogram

	RubricCacheHitsTotal   prometheus.Counter
	RubricCacheMissesTotal prometheus.Counter
	RubricReloadsTotal     *prometheus.CounterVec

	SubmissionsTotal   *prometheus.CounterVec
	RateLimitHitsTotal prometheus.Counter
}

var (
	defaultOnce sync.Once
	defaultM    *Metrics
)

// New регистрирует метрики в глобальном реестре. Повторные вызовы возвращают тот же набор,
// иначе promauto паникует на дубликатах (актуально для тестов).
func New() *Metrics {
	defaultOnce.Do(func() {
		defaultM = newMetrics(promauto.With(prometheus.DefaultRegisterer))
	})
	return defaultM
}

// NewWithRegistry - для тестов с отдельным реестром.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		ValidationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grader_validations_total",
				Help: "Total number of validations by stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		ValidationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "grader_validation_duration_seconds",
				Help:    "Validation duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"stage"},
		),
		CheckFaultsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grader_check_faults_total",
				Help: "Internal faults raised inside a check",
			},
			[]string{"exercise"},
		),

		SessionsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "grader_render_sessions_in_flight",
				Help: "Number of rendering sessions currently alive",
			},
		),
		SessionFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grader_render_session_failures_total",
				Help: "Rendering session failures by phase",
			},
			[]string{"phase"},
		),
		SessionAcquireSeconds: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "grader_render_session_acquire_seconds",
				Help:    "Time to start a rendering session",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),

		RubricCacheHitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "grader_rubric_cache_hits_total",
				Help: "Total number of rubric cache hits",
			},
		),
		RubricCacheMissesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "grader_rubric_cache_misses_total",
				Help: "Total number of rubric cache misses",
			},
		),
		RubricReloadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grader_rubric_reloads_total",
				Help: "Rubric catalog reloads by result",
			},
			[]string{"status"},
		),

		SubmissionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grader_submissions_total",
				Help: "Submissions recorded by the grading service",
			},
			[]string{"status"},
		),
		RateLimitHitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "grader_rate_limit_hits_total",
				Help: "Total number of rejected submissions due to rate limit",
			},
		),
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordValidation(stage, outcome string, duration time.Duration) {
	m.ValidationsTotal.WithLabelValues(stage, outcome).Inc()
	m.ValidationDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func (m *Metrics) RecordCheckFault(exerciseID string) {
	m.CheckFaultsTotal.WithLabelValues(exerciseID).Inc()
}

func (m *Metrics) RecordSessionAcquire(duration time.Duration) {
	m.SessionAcquireSeconds.Observe(duration.Seconds())
}

func (m *Metrics) RecordSessionFailure(phase string) {
	m.SessionFailuresTotal.WithLabelValues(phase).Inc()
}

func (m *Metrics) IncSessionsInFlight() {
	m.SessionsInFlight.Inc()
}

func (m *Metrics) DecSessionsInFlight() {
	m.SessionsInFlight.Dec()
}

func (m *Metrics) RecordCacheHit() {
	m.RubricCacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.RubricCacheMissesTotal.Inc()
}

func (m *Metrics) RecordRubricReload(status string) {
	m.RubricReloadsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordSubmission(status string) {
	m.SubmissionsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitsTotal.Inc()
}
