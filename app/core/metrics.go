package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/metrics"
)

var _ dyntable.Observer = (*Metrics)(nil)

type Metrics struct {
	apiResponseTime *prometheus.HistogramVec
	apiErrorCounter *prometheus.CounterVec
	registryLookup  *prometheus.CounterVec
	materialize     *prometheus.CounterVec
	repairedTables  *prometheus.CounterVec
	cachedHandles   *prometheus.GaugeVec
}

func NewMetrics(ns, system string, registry *prometheus.Registry) *Metrics {
	// setup metric
	metrics.SetupMetricsManager(ns, system, registry)

	m := &Metrics{
		apiResponseTime: metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter: metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		registryLookup:  metrics.NewCounterVec("registry_lookup", []string{"result"}),
		materialize:     metrics.NewCounterVec("materialize", []string{"table", "status"}),
		repairedTables:  metrics.NewCounterVec("repaired_tables", []string{"status"}),
		cachedHandles:   metrics.NewGaugeVec("cached_handles", nil),
	}

	return m
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) CacheHit(string) {
	m.registryLookup.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss(string) {
	m.registryLookup.WithLabelValues("miss").Inc()
}

func (m *Metrics) Materialized(table string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.materialize.WithLabelValues(table, status).Inc()
}

func (m *Metrics) RepairReported(repaired bool) {
	status := "skipped"
	if repaired {
		status = "repaired"
	}
	m.repairedTables.WithLabelValues(status).Inc()
}

func (m *Metrics) SetCachedHandles(n int) {
	m.cachedHandles.WithLabelValues().Set(float64(n))
}
