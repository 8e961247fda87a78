// Package metrics provides Prometheus metrics for arbor document stores.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the Prometheus collectors for a store. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	StaleWritesTotal  prometheus.Counter

	BlobSizeBytes prometheus.Gauge
	RecordsTotal  prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_store_operations_total",
				Help: "Total number of store operations",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbor_store_operation_duration_seconds",
				Help:    "Duration of store operations in seconds, including blob I/O",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		StaleWritesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "arbor_store_stale_writes_total",
				Help: "Total number of saves rejected because the collection changed since it was loaded",
			},
		),
		BlobSizeBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbor_store_blob_size_bytes",
				Help: "Size of the last saved collection blob in bytes",
			},
		),
		RecordsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbor_store_records_total",
				Help: "Number of records in the last saved collection",
			},
		),
	}
}

// RecordOperation records a finished operation.
func (m *Metrics) RecordOperation(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Observe records an operation that started at start and ended with err.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.RecordOperation(operation, status, time.Since(start))
}

// RecordStaleWrite counts a save rejected by an exchange token mismatch.
func (m *Metrics) RecordStaleWrite() {
	if m == nil {
		return
	}
	m.StaleWritesTotal.Inc()
}

// UpdateCollectionStats records the size of a saved collection.
func (m *Metrics) UpdateCollectionStats(sizeBytes int, records int) {
	if m == nil {
		return
	}
	m.BlobSizeBytes.Set(float64(sizeBytes))
	m.RecordsTotal.Set(float64(records))
}
