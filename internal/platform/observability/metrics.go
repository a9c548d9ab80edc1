package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outage_passes_total",
		Help: "The total number of reconciliation passes by source and status",
	}, []string{"source", "status"})

	PassDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outage_pass_duration_seconds",
		Help:    "Duration in seconds of a full reconciliation pass",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"source"})

	MessagesDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outage_messages_dispatched_total",
		Help: "The total number of notifications dispatched by source and kind",
	}, []string{"source", "kind"})

	MessagesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outage_messages_skipped_total",
		Help: "The total number of notifications skipped as already published",
	}, []string{"source", "kind"})

	EmergenciesOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "outage_emergencies_open",
		Help: "Number of emergency records currently observed as open",
	}, []string{"source"})

	TranslationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outage_translation_failures_total",
		Help: "The total number of failed translation requests",
	})
)
