package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EntriesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "substanz_entries_created_total",
			Help: "Total diary entries created",
		},
	)

	HealthRowsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "substanz_health_rows_imported_total",
			Help: "Total health CSV rows successfully imported",
		},
		[]string{"source"},
	)

	RecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "substanz_records_dropped_total",
			Help: "Records dropped due to unparsable fields, by pipeline stage",
		},
		[]string{"stage"},
	)

	AnalysesRun = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "substanz_analyses_run_total",
			Help: "Total analysis pipeline runs",
		},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "substanz_analysis_duration_seconds",
			Help:    "Analysis pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	BackupsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "substanz_backups_created_total",
			Help: "Total JSON backups written",
		},
	)
)
