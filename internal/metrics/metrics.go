// Package metrics provides Prometheus metrics for the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgdrive_updates_total",
			Help: "Telegram updates received, by kind and authorization",
		},
		[]string{"kind", "authorized"},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgdrive_uploads_total",
			Help: "File ingestions, by attachment kind and result",
		},
		[]string{"kind", "result"},
	)

	uploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tgdrive_upload_bytes_total",
			Help: "Bytes recorded in the index",
		},
	)

	workflowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgdrive_folder_workflows_total",
			Help: "Folder resolution workflows, by outcome",
		},
		[]string{"outcome"},
	)

	selectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgdrive_folder_selections_total",
			Help: "Folder button presses, by result",
		},
		[]string{"result"},
	)

	pendingSelections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tgdrive_pending_selections",
			Help: "Folder menus waiting for a press",
		},
	)

	storeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tgdrive_store_duration_seconds",
			Help:    "Index store call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordUpdate(kind string, authorized bool) {
	a := "false"
	if authorized {
		a = "true"
	}
	updatesTotal.WithLabelValues(kind, a).Inc()
}

// RecordUpload counts an ingestion. size is only added on success.
func RecordUpload(kind, result string, size int64) {
	uploadsTotal.WithLabelValues(kind, result).Inc()
	if result == "ok" && size > 0 {
		uploadBytes.Add(float64(size))
	}
}

func RecordWorkflow(outcome string) {
	workflowsTotal.WithLabelValues(outcome).Inc()
}

func RecordSelection(result string) {
	selectionsTotal.WithLabelValues(result).Inc()
}

func SetPendingSelections(n int) {
	pendingSelections.Set(float64(n))
}

func ObserveStore(op string, seconds float64) {
	storeDuration.WithLabelValues(op).Observe(seconds)
}
