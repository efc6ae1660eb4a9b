package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Evaluations       *prometheus.CounterVec
	Forecasts         *prometheus.CounterVec
	DaySetCache       *prometheus.CounterVec
	IntervalMutations *prometheus.CounterVec
	EvaluationSeconds prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "staywatch_evaluations_total",
			Help: "Total compliance evaluations, by resulting risk tier",
		}, []string{"tier"}),
		Forecasts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "staywatch_forecasts_total",
			Help: "Total earliest-safe-entry forecasts, by outcome",
		}, []string{"outcome"}),
		DaySetCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "staywatch_dayset_cache_total",
			Help: "Day set cache lookups, by result",
		}, []string{"result"}),
		IntervalMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "staywatch_interval_mutations_total",
			Help: "Interval create/update/exclude operations",
		}, []string{"op"}),
		EvaluationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "staywatch_evaluation_seconds",
			Help:    "Wall time of a full status evaluation including store reads",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveEvaluation(tier string, seconds float64) {
	m.Evaluations.WithLabelValues(tier).Inc()
	m.EvaluationSeconds.Observe(seconds)
}

func (m *Metrics) IncForecast(outcome string) {
	m.Forecasts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncCache(result string) {
	m.DaySetCache.WithLabelValues(result).Inc()
}

func (m *Metrics) IncMutation(op string) {
	m.IntervalMutations.WithLabelValues(op).Inc()
}
