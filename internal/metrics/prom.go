package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pvbess-model/internal/model"
)

// Kinds of simulation recorded by the sink.
const (
	KindDispatch = "dispatch"
	KindLifetime = "lifetime"
	KindFinance  = "finance"
	KindScenario = "scenario"
)

// Recorder is what simulation callers report to. NopRecorder discards everything.
type Recorder interface {
	RecordRun(kind string, err error, elapsed time.Duration)
	RecordHours(n int)
}

type NopRecorder struct{}

func (NopRecorder) RecordRun(string, error, time.Duration) {}
func (NopRecorder) RecordHours(int)                        {}

// PromSink records simulation runs in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	hours    prometheus.Counter
}

// NewPromSink registers the simulation metrics on reg (DefaultRegisterer when nil).
// If the collectors are already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pvbess_simulations_total",
		Help: "Total number of simulation runs by kind and outcome",
	}, []string{"kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pvbess_simulation_duration_seconds",
		Help:    "Wall time of simulation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	hours := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pvbess_simulated_hours_total",
		Help: "Total number of simulated timeline hours",
	})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(hours); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			hours = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	return &PromSink{runs: runs, duration: duration, hours: hours}, nil
}

// Outcome classifies an error for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case model.IsConfigurationError(err):
		return "invalid_config"
	case model.IsInternalConsistencyError(err):
		return "internal_error"
	default:
		return "error"
	}
}

func (s *PromSink) RecordRun(kind string, err error, elapsed time.Duration) {
	s.runs.WithLabelValues(kind, Outcome(err)).Inc()
	s.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (s *PromSink) RecordHours(n int) {
	if n > 0 {
		s.hours.Add(float64(n))
	}
}
