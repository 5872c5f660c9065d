// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCanceled = "canceled"
)

var (
	IngestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lessonstream_ingests_total",
		Help: "Uploads accepted or rejected by the ingestion pipeline.",
	}, []string{"outcome"})

	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lessonstream_upload_bytes",
		Help:    "Size of stored uploads in bytes.",
		Buckets: prometheus.ExponentialBuckets(1<<20, 4, 8), // 1MiB .. 16GiB
	})

	TranscodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lessonstream_transcodes_total",
		Help: "Finished transcode tasks by outcome.",
	}, []string{"outcome"})

	TranscodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lessonstream_transcode_duration_seconds",
		Help:    "Wall time of transcode tasks.",
		Buckets: prometheus.ExponentialBuckets(5, 2, 12), // 5s .. ~3h
	})

	ActiveTranscodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lessonstream_active_transcodes",
		Help: "Transcode tasks currently running.",
	})

	ProgressUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lessonstream_progress_updates_total",
		Help: "Progress writes by kind.",
	}, []string{"kind"})

	CompletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lessonstream_completions_total",
		Help: "Progress records that transitioned to completed.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
