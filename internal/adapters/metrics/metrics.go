// Package metrics records cache and generation activity with Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/kiln/internal/core/ports"
)

// Prometheus implements ports.Metrics on a private registry.
type Prometheus struct {
	registry *prometheus.Registry

	cacheLookups   *prometheus.CounterVec
	cacheStores    *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec
	generations    *prometheus.CounterVec
	generationTime *prometheus.HistogramVec
}

var _ ports.Metrics = (*Prometheus)(nil)

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Prometheus{
		registry: reg,
		cacheLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiln_cache_lookups_total",
				Help: "Total number of cache lookups by backend and result",
			},
			[]string{"backend", "result"}, // result: "hit", "partial", "miss"
		),
		cacheStores: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiln_cache_stores_total",
				Help: "Total number of cache writes by backend",
			},
			[]string{"backend"},
		),
		cacheEvictions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiln_cache_evictions_total",
				Help: "Total number of entries evicted by backend",
			},
			[]string{"backend"},
		),
		generations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiln_generations_total",
				Help: "Total number of generation runs by mode and outcome",
			},
			[]string{"mode", "outcome"}, // outcome: "ok", "error"
		),
		generationTime: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "kiln_generation_duration_seconds",
				Help: "Duration of generation runs in seconds",
				Buckets: []float64{
					0.001, // 1ms - inline text
					0.01,
					0.05,
					0.1,
					0.5,
					1,
					5,
					30, // large directory trees
				},
			},
			[]string{"mode"},
		),
	}
}

// CacheLookup records a lookup against backend.
func (m *Prometheus) CacheLookup(backend, result string) {
	m.cacheLookups.WithLabelValues(backend, result).Inc()
}

// CacheStore records a write to backend.
func (m *Prometheus) CacheStore(backend string) {
	m.cacheStores.WithLabelValues(backend).Inc()
}

// CacheEviction records n evicted entries.
func (m *Prometheus) CacheEviction(backend string, n int) {
	if n <= 0 {
		return
	}
	m.cacheEvictions.WithLabelValues(backend).Add(float64(n))
}

// Generation records one generation run.
func (m *Prometheus) Generation(mode string, d time.Duration, err error) {
	m.generations.WithLabelValues(mode, outcome(err)).Inc()
	m.generationTime.WithLabelValues(mode).Observe(d.Seconds())
}

// Registry returns the registry the collectors are registered on.
func (m *Prometheus) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
