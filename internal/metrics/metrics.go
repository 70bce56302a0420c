// Package metrics provides Prometheus metrics for the LaPress data layer
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for one Site. A nil *Metrics
// records nothing.
type Metrics struct {
	// Meta metrics
	DecodeFallbacksTotal prometheus.Counter
	MetaWritesTotal      *prometheus.CounterVec

	// Menu metrics
	UnresolvedReferencesTotal *prometheus.CounterVec
	StructuralErrorsTotal     *prometheus.CounterVec
	MenuBuildsTotal           *prometheus.CounterVec

	// Database metrics
	DbOperationsTotal   *prometheus.CounterVec
	DbOperationDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them on reg. A nil reg uses a
// fresh private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	m := &Metrics{}

	m.DecodeFallbacksTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "lapress_meta_decode_fallbacks_total",
			Help: "Meta values that looked serialized but were kept as raw text",
		},
	)

	m.MetaWritesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lapress_meta_writes_total",
			Help: "Meta rows appended, by meta table and outcome",
		},
		[]string{"table", "status"},
	)

	m.UnresolvedReferencesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lapress_menu_unresolved_references_total",
			Help: "Menu items whose target could not be resolved",
		},
		[]string{"reason"},
	)

	m.StructuralErrorsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lapress_menu_structural_errors_total",
			Help: "Menu branches cut because of a cycle or excessive depth",
		},
		[]string{"kind"},
	)

	m.MenuBuildsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lapress_menu_builds_total",
			Help: "Menu tree builds, by cache outcome",
		},
		[]string{"source"},
	)

	m.DbOperationsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lapress_db_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	m.DbOperationDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lapress_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	return m
}

// DecodeFallback counts a meta value kept as raw text.
func (m *Metrics) DecodeFallback(key string, err error) {
	if m == nil {
		return
	}
	m.DecodeFallbacksTotal.Inc()
}

// UnresolvedReference counts a menu item rendered without a target.
func (m *Metrics) UnresolvedReference(reason string) {
	if m == nil {
		return
	}
	m.UnresolvedReferencesTotal.WithLabelValues(reason).Inc()
}

// StructuralError counts a menu branch cut for kind ("cycle", "depth").
func (m *Metrics) StructuralError(kind string) {
	if m == nil {
		return
	}
	m.StructuralErrorsTotal.WithLabelValues(kind).Inc()
}

// MenuBuild counts a menu tree served from source ("cache", "store").
func (m *Metrics) MenuBuild(source string) {
	if m == nil {
		return
	}
	m.MenuBuildsTotal.WithLabelValues(source).Inc()
}

// RecordMetaWrite counts one appended meta row.
func (m *Metrics) RecordMetaWrite(table string, err error) {
	if m == nil {
		return
	}
	m.MetaWritesTotal.WithLabelValues(table, status(err)).Inc()
}

// RecordDbOperation records a database operation
func (m *Metrics) RecordDbOperation(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.DbOperationsTotal.WithLabelValues(operation, status(err)).Inc()
	m.DbOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
