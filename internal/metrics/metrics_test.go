package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lapress/pkg/meta"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.DecodeFallback("_menu_item_classes", errors.New("bad"))
	m.UnresolvedReference("dangling")
	m.UnresolvedReference("dangling")
	m.StructuralError("cycle")
	m.MenuBuild("cache")
	m.RecordMetaWrite("postmeta", nil)
	m.RecordMetaWrite("postmeta", errors.New("locked"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFallbacksTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnresolvedReferencesTotal.WithLabelValues("dangling")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StructuralErrorsTotal.WithLabelValues("cycle")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StructuralErrorsTotal.WithLabelValues("depth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MenuBuildsTotal.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MetaWritesTotal.WithLabelValues("postmeta", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MetaWritesTotal.WithLabelValues("postmeta", "error")))
}

func TestRecordDbOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordDbOperation("fetch_meta", nil, 3*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DbOperationsTotal.WithLabelValues("fetch_meta", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DbOperationDuration, "lapress_db_operation_duration_seconds"))
}

func TestRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) }, "duplicate registration on one registry")
	assert.NotPanics(t, func() { New(nil) })
	assert.NotPanics(t, func() { New(nil) })
}

func TestObserverDuringBuild(t *testing.T) {
	m := New(nil)
	rows := []meta.Row{
		{ID: 1, OwnerID: 1, Key: "broken", Value: `a:2:{i:0;s:1:"x";`},
		{ID: 2, OwnerID: 1, Key: "plain", Value: "hello"},
	}

	c := meta.Build(rows, meta.WithObserver(m))

	require.Equal(t, 2, c.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFallbacksTotal))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.DecodeFallback("k", nil)
		m.UnresolvedReference("x")
		m.StructuralError("cycle")
		m.MenuBuild("store")
		m.RecordMetaWrite("usermeta", nil)
		m.RecordDbOperation("op", nil, time.Second)
	})
}
