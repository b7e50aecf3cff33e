package core

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsObserver(t *testing.T) {
	m := NewMetrics("tablehub_test", "core", prometheus.NewRegistry())

	m.CacheHit("employees")
	m.CacheHit("employees")
	m.CacheMiss("employees")
	m.Materialized("employees", nil)
	m.Materialized("projects", errors.New("boom"))
	m.RepairReported(true)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.registryLookup.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.registryLookup.WithLabelValues("miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.materialize.WithLabelValues("projects", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.repairedTables.WithLabelValues("repaired")))
}
