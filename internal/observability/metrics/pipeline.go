package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

// pipelineCollectors observe stage outcomes and saves. Both the API and the
// worker embed them so every process reports the same series.
type pipelineCollectors struct {
	service       string
	stageOutcomes *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	savesTotal    *prometheus.CounterVec
	saveDuration  *prometheus.HistogramVec
}

func newPipelineCollectors(registry *prometheus.Registry, service string) pipelineCollectors {
	c := pipelineCollectors{
		service: service,
		stageOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "haiku",
				Subsystem: "stage",
				Name:      "outcomes_total",
				Help:      "Pipeline stage completions by outcome (ok, default, fallback, marker, empty).",
			},
			[]string{"service", "stage", "outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "haiku",
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Pipeline stage duration in seconds.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"service", "stage"},
		),
		savesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "haiku",
				Name:      "saves_total",
				Help:      "Artifact saves by status.",
			},
			[]string{"service", "status"},
		),
		saveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "haiku",
				Name:      "save_duration_seconds",
				Help:      "Artifact save duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service"},
		),
	}
	registry.MustRegister(c.stageOutcomes, c.stageDuration, c.savesTotal, c.saveDuration)
	return c
}

func (c pipelineCollectors) ObserveStage(stage domain.Stage, outcome domain.OutcomeKind, duration time.Duration) {
	c.stageOutcomes.WithLabelValues(c.service, string(stage), string(outcome)).Inc()
	c.stageDuration.WithLabelValues(c.service, string(stage)).Observe(duration.Seconds())
}

func (c pipelineCollectors) ObserveSave(ok bool, duration time.Duration) {
	status := "success"
	if !ok {
		status = "error"
	}
	c.savesTotal.WithLabelValues(c.service, status).Inc()
	c.saveDuration.WithLabelValues(c.service).Observe(duration.Seconds())
}
