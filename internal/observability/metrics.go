// Package observability exposes Prometheus metrics for the pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the flood-risk pipeline.
type Metrics struct {
	RowsLoaded       prometheus.Counter
	RowsDropped      prometheus.Counter
	RegionsProduced  prometheus.Counter
	RegionsUnlocated prometheus.Counter
	PolygonsProduced prometheus.Counter
	RowsPersisted    prometheus.Counter
	Runs             *prometheus.CounterVec // labels: kind={tabular,raster}, outcome={ok,error}
}

// NewMetrics creates and registers all pipeline metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsLoaded,
		m.RowsDropped,
		m.RegionsProduced,
		m.RegionsUnlocated,
		m.PolygonsProduced,
		m.RowsPersisted,
		m.Runs,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "rows_loaded_total",
			Help:      "Rows accepted from source datasets after coercion.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "rows_dropped_total",
			Help:      "Rows discarded during per-row coercion.",
		}),
		RegionsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "regions_produced_total",
			Help:      "Region summaries produced across runs.",
		}),
		RegionsUnlocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "regions_unlocated_total",
			Help:      "Regions dropped because no centroid is known.",
		}),
		PolygonsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "polygons_produced_total",
			Help:      "Water polygons surviving the area filter.",
		}),
		RowsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "rows_persisted_total",
			Help:      "Rows appended to the spatial store.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "runs_total",
			Help:      "Pipeline runs by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}
