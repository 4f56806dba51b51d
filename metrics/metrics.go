package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "status"},
	)

	TranscriptionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timeline_transcription_duration_seconds",
			Help:    "Time taken to transcribe audio upstream",
			Buckets: prometheus.DefBuckets,
		},
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timeline_extraction_duration_seconds",
			Help:    "Time taken to extract events from a transcript",
			Buckets: prometheus.DefBuckets,
		},
	)

	UpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_upstream_failures_total",
			Help: "Total number of failed upstream API calls",
		},
		[]string{"stage"},
	)

	EventsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeline_events_extracted_total",
			Help: "Total number of events extracted from transcripts",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeline_analyze_cache_hits_total",
			Help: "Total number of analyze results served from cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeline_analyze_cache_misses_total",
			Help: "Total number of analyze cache misses",
		},
	)
)
