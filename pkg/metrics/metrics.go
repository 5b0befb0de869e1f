// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SheetsParsedTotal tracks sheet uploads by kind and outcome
	SheetsParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "sheets",
			Name:      "parsed_total",
			Help:      "Total number of sheet uploads by kind and outcome",
		},
		[]string{"tenant_id", "kind", "outcome"},
	)

	// RowsParsedTotal tracks rows parsed vs skipped per sheet kind
	RowsParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "sheets",
			Name:      "rows_total",
			Help:      "Total number of rows processed by kind and result",
		},
		[]string{"kind", "result"},
	)

	// MergeRunsTotal tracks merge runs per tenant
	MergeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "merge",
			Name:      "runs_total",
			Help:      "Total number of merge runs",
		},
		[]string{"tenant_id"},
	)

	// MergeDuration tracks merge duration in seconds
	MergeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "merge",
			Name:      "duration_seconds",
			Help:      "Duration of merge runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// RecordsLinkedTotal tracks linked records by type and strategy
	RecordsLinkedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "merge",
			Name:      "records_linked_total",
			Help:      "Total number of records linked by record type and strategy",
		},
		[]string{"record_type", "strategy"},
	)

	// CommitsTotal tracks import commits by status
	CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "commit",
			Name:      "total",
			Help:      "Total number of import commits by status",
		},
		[]string{"tenant_id", "status"},
	)

	// CommitDuration tracks commit duration in seconds
	CommitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "commit",
			Name:      "duration_seconds",
			Help:      "Duration of import commits in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"tenant_id"},
	)

	// RecordsCommittedTotal tracks committed records by entity and result
	RecordsCommittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "commit",
			Name:      "records_total",
			Help:      "Total number of records committed by entity and result",
		},
		[]string{"entity", "result"},
	)

	// ChunksFailedTotal tracks failed upsert chunks by entity
	ChunksFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "commit",
			Name:      "chunks_failed_total",
			Help:      "Total number of failed bulk upsert chunks by entity",
		},
		[]string{"entity"},
	)

	// RecordsPurgedTotal tracks orphan purges by entity
	RecordsPurgedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "purge",
			Name:      "records_total",
			Help:      "Total number of orphaned records purged by entity",
		},
		[]string{"tenant_id", "entity"},
	)
)
