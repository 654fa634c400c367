package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	dispatched *prometheus.CounterVec
	failed     *prometheus.CounterVec
	discarded  prometheus.Counter
	facades    prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vizq",
			Name:      "queries_dispatched_total",
			Help:      "Query documents sent to the search backend.",
		}, []string{"view"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vizq",
			Name:      "queries_failed_total",
			Help:      "Query documents the search backend did not answer.",
		}, []string{"view"}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vizq",
			Name:      "batches_discarded_total",
			Help:      "Query batches superseded before they completed.",
		}),
		facades: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vizq",
			Name:      "active_facades",
			Help:      "View facades currently applied.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.dispatched, m.failed, m.discarded, m.facades)
	}
	return m
}
