// Copyright 2025 Certen Protocol
//
// Package metrics registers the node's monotonic counters on a
// dedicated prometheus.Registry and serves them over /metrics.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every counter the node exports.
type Registry struct {
	reg *prometheus.Registry

	AnchorsReceivedTotal   prometheus.Counter
	AnchorsVerifiedTotal   prometheus.Counter
	InvalidEnvelopesTotal  prometheus.Counter
	LRUCacheEvictionsTotal prometheus.Counter
	FinalityEventsTotal    prometheus.Counter
	GossipsubRejectsTotal  prometheus.Counter
}

// New builds a fresh Registry with every counter registered at zero.
func New() *Registry {
	reg := prometheus.NewRegistry()

	m := &Registry{
		reg: reg,
		AnchorsReceivedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anchors_received_total",
			Help: "Total anchors received from peers over the transport.",
		}),
		AnchorsVerifiedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anchors_verified_total",
			Help: "Total anchors that passed the validity predicate.",
		}),
		InvalidEnvelopesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invalid_envelopes_total",
			Help: "Total envelopes dropped for schema, signature, size, or rate-limit violations.",
		}),
		LRUCacheEvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lrucache_evictions_total",
			Help: "Total evictions from the duplicate-envelope LRU cache.",
		}),
		FinalityEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finality_events_total",
			Help: "Total times the finality predicate transitioned to final for a new anchor sequence.",
		}),
		GossipsubRejectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gossipsub_rejects_total",
			Help: "Total envelopes rejected by the transport layer before reaching this node's validation.",
		}),
	}

	reg.MustRegister(
		m.AnchorsReceivedTotal,
		m.AnchorsVerifiedTotal,
		m.InvalidEnvelopesTotal,
		m.LRUCacheEvictionsTotal,
		m.FinalityEventsTotal,
		m.GossipsubRejectsTotal,
	)
	return m
}

// Handler returns the http.Handler to mount at /metrics.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
