package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actiongen_runs_total",
		Help: "Total number of generation runs by outcome.",
	}, []string{"outcome"})

	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "actiongen_parsing_seconds",
		Help:    "Time spent parsing and binding the source files of a run.",
		Buckets: prometheus.DefBuckets,
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "actiongen_stage_seconds",
		Help:    "Time spent in each pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	SourceFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "actiongen_source_files",
		Help: "Number of source files analysed by the last run.",
	})

	ActionsDiscovered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "actiongen_actions_discovered",
		Help: "Number of actions discovered by the last run, by kind.",
	}, []string{"kind"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actiongen_diagnostics_total",
		Help: "Total number of diagnostics reported, by code.",
	}, []string{"code"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "actiongen_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
