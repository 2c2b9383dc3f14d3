// Package metrics exposes Prometheus counters for pipeline runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "regatta_resume"

// Collector holds the run counters. A nil *Collector is a no-op.
type Collector struct {
	registry *prometheus.Registry

	regattasScraped prometheus.Counter
	sailorsAdded    prometheus.Counter
	resultsAdded    prometheus.Counter
	rowsHarvested   *prometheus.CounterVec
	pageDetails     *prometheus.CounterVec
	unitFailures    prometheus.Counter
	runs            *prometheus.CounterVec
}

// NewCollector registers the counters on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		regattasScraped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "regattas_scraped_total",
			Help: "Regattas processed successfully.",
		}),
		sailorsAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sailors_added_total",
			Help: "Sailors created in the store.",
		}),
		resultsAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "results_added_total",
			Help: "Results created in the store.",
		}),
		rowsHarvested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_harvested_total",
			Help: "Distinct rows harvested from results pages.",
		}, []string{"table_kind"}),
		pageDetails: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "page_details_total",
			Help: "Results pages by detail code.",
		}, []string{"detail"}),
		unitFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "unit_failures_total",
			Help: "Listings skipped after a failure.",
		}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Finished runs by status.",
		}, []string{"status"}),
	}
}

func (c *Collector) RegattaScraped() {
	if c != nil {
		c.regattasScraped.Inc()
	}
}

func (c *Collector) SailorAdded() {
	if c != nil {
		c.sailorsAdded.Inc()
	}
}

func (c *Collector) ResultAdded() {
	if c != nil {
		c.resultsAdded.Inc()
	}
}

func (c *Collector) RowsHarvested(kind string, n int) {
	if c != nil && n > 0 {
		c.rowsHarvested.WithLabelValues(kind).Add(float64(n))
	}
}

func (c *Collector) PageDetail(detail string) {
	if c != nil {
		c.pageDetails.WithLabelValues(detail).Inc()
	}
}

func (c *Collector) UnitFailed() {
	if c != nil {
		c.unitFailures.Inc()
	}
}

func (c *Collector) RunFinished(status string) {
	if c != nil {
		c.runs.WithLabelValues(status).Inc()
	}
}

// Registry exposes the underlying registry for gathering.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
