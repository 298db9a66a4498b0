package keeper

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegistryMetrics holds all Prometheus metrics for the registry module
type RegistryMetrics struct {
	// Query metrics
	Queries       *prometheus.CounterVec
	QueryErrors   *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	// Proof metrics
	ProofsComposed       *prometheus.CounterVec
	ProofComposeTime     prometheus.Histogram
	HistoryEntriesProven prometheus.Histogram
	TxIndexMisses        prometheus.Counter

	// State metrics
	SnapshotHeight prometheus.Gauge
	ModelsImported prometheus.Counter
}

var (
	registryMetricsOnce sync.Once
	registryMetrics     *RegistryMetrics
)

// NewRegistryMetrics creates and registers registry metrics (singleton pattern)
func NewRegistryMetrics() *RegistryMetrics {
	registryMetricsOnce.Do(func() {
		registryMetrics = &RegistryMetrics{
			Queries: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "modelreg",
					Subsystem: "registry",
					Name:      "queries_total",
					Help:      "Total registry queries served",
				},
				[]string{"operation"},
			),
			QueryErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "modelreg",
					Subsystem: "registry",
					Name:      "query_errors_total",
					Help:      "Registry queries that returned an error, by status code",
				},
				[]string{"operation", "code"},
			),
			QueryDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "modelreg",
					Subsystem: "registry",
					Name:      "query_duration_seconds",
					Help:      "Registry query latency",
					Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
				},
				[]string{"operation"},
			),
			ProofsComposed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "modelreg",
					Subsystem: "registry",
					Name:      "proofs_composed_total",
					Help:      "Model info envelopes composed, by entry proof kind",
				},
				[]string{"kind"},
			),
			ProofComposeTime: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "modelreg",
					Subsystem: "registry",
					Name:      "proof_compose_seconds",
					Help:      "Time spent composing a model info envelope",
					Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
				},
			),
			HistoryEntriesProven: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "modelreg",
					Subsystem: "registry",
					Name:      "history_entries_proven",
					Help:      "History log length per composed envelope",
					Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
				},
			),
			TxIndexMisses: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "modelreg",
					Subsystem: "registry",
					Name:      "tx_index_misses_total",
					Help:      "History hashes that could not be resolved by the transaction index",
				},
			),
			SnapshotHeight: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "modelreg",
					Subsystem: "registry",
					Name:      "snapshot_height",
					Help:      "Height of the most recently opened snapshot",
				},
			),
			ModelsImported: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "modelreg",
					Subsystem: "registry",
					Name:      "models_imported_total",
					Help:      "Models written by genesis import",
				},
			),
		}
	})
	return registryMetrics
}
