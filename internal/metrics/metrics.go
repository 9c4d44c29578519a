package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SyncDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_delivered_total", Help: "Total sync queue items delivered"},
	)
	SyncFailedAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_failed_attempts_total", Help: "Total failed delivery attempts"},
	)
	SyncGaveUp = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_gave_up_total", Help: "Total items dropped after the attempt cap"},
	)
	SyncQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "sync_queue_depth", Help: "Items currently waiting in the sync queue"},
	)
	StoreMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "store_mutations_total", Help: "Successful record store mutations"},
		[]string{"kind"},
	)
)

func Register() {
	prometheus.MustRegister(SyncDelivered, SyncFailedAttempts, SyncGaveUp, SyncQueueDepth, StoreMutations)
}
