// Package metrics exposes Prometheus counters for the embedded-collection
// operations: how often each collection is mutated and why mutations are
// rejected.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the services report to. Tests can pass a Collector on a
// private registry or any other implementation.
type Recorder interface {
	// RecordMutation counts a successful change, e.g. ("like", "add").
	RecordMutation(collection, op string)
	// RecordRejection counts a refused change, e.g. ("experience", "capacity_exceeded").
	RecordRejection(collection, reason string)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	mutations  *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devconnector_collection_mutations_total",
			Help: "Successful sub-entity collection mutations by collection and operation.",
		}, []string{"collection", "op"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devconnector_collection_rejections_total",
			Help: "Rejected sub-entity collection mutations by collection and reason.",
		}, []string{"collection", "reason"}),
	}

	reg.MustRegister(c.mutations, c.rejections)
	return c
}

func (c *Collector) RecordMutation(collection, op string) {
	c.mutations.WithLabelValues(collection, op).Inc()
}

func (c *Collector) RecordRejection(collection, reason string) {
	c.rejections.WithLabelValues(collection, reason).Inc()
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
