package metrics

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type manager struct {
	namespace string
	system    string
	registry  *prometheus.Registry
}

var (
	mu             sync.RWMutex
	defaultManager = &manager{
		namespace: "default",
		system:    "default",
		registry:  prometheus.NewRegistry(),
	}
)

// SetupMetricsManager sets the namespace, subsystem and registry used by the New* helpers.
func SetupMetricsManager(ns, system string, registry *prometheus.Registry) {
	mu.Lock()
	defer mu.Unlock()
	defaultManager = &manager{
		namespace: ns,
		system:    system,
		registry:  registry,
	}
	_ = registry.Register(collectors.NewGoCollector())
}

func current() *manager {
	mu.RLock()
	defer mu.RUnlock()
	return defaultManager
}

func emptyLabels(labels []string) []string {
	return make([]string, len(labels))
}

// register adds c to the registry, reusing an already registered equal collector.
func register[T prometheus.Collector](registry prometheus.Registerer, c T) T {
	if err := registry.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func NewCounterVec(name string, labels []string) *prometheus.CounterVec {
	m := current()
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: FmtFixer(m.namespace),
			Subsystem: FmtFixer(m.system),
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s count of /%s/%s", name, m.namespace, m.system),
		},
		labels,
	)
	vec = register(m.registry, vec)
	vec.WithLabelValues(emptyLabels(labels)...).Add(0)
	return vec
}

func NewHistogramVec(name string, labels []string) *prometheus.HistogramVec {
	m := current()
	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: FmtFixer(m.namespace),
			Subsystem: FmtFixer(m.system),
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s duration of /%s/%s", name, m.namespace, m.system),
		},
		labels,
	)
	return register(m.registry, vec)
}

func NewGaugeVec(name string, labels []string) *prometheus.GaugeVec {
	m := current()
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: FmtFixer(m.namespace),
			Subsystem: FmtFixer(m.system),
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s gauge of /%s/%s", name, m.namespace, m.system),
		},
		labels,
	)
	return register(m.registry, vec)
}

func DefaultExportHandler() gin.HandlerFunc {
	registry := current().registry
	h := promhttp.InstrumentMetricHandler(registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func FmtFixer(in string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(in)
}
