// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quickly_score"

// Metrics holds the service collectors. A nil *Metrics records nothing, so
// services and tests can run without a registry.
type Metrics struct {
	submissions     *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	results         prometheus.Counter
	feedSubscribers prometheus.Gauge
	identities      *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Score submissions by role and outcome.",
		}, []string{"role", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_transitions_total",
			Help:      "Vote lifecycle transitions by kind and outcome.",
		}, []string{"transition", "outcome"}),
		results: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_computed_total",
			Help:      "Results computed for finished votes.",
		}),
		feedSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_subscribers",
			Help:      "Open live feed subscriptions.",
		}),
		identities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_resolutions_total",
			Help:      "Identity resolutions by resulting role.",
		}, []string{"role"}),
	}
	reg.MustRegister(m.submissions, m.transitions, m.results, m.feedSubscribers, m.identities)
	return m
}

// Submission records one submit attempt. outcome is "accepted" or an error code.
func (m *Metrics) Submission(role, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(role, outcome).Inc()
}

// Transition records one activate or finish attempt.
func (m *Metrics) Transition(transition, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition, outcome).Inc()
}

func (m *Metrics) ResultComputed() {
	if m == nil {
		return
	}
	m.results.Inc()
}

func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.feedSubscribers.Inc()
}

func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.feedSubscribers.Dec()
}

func (m *Metrics) IdentityResolved(role string) {
	if m == nil {
		return
	}
	m.identities.WithLabelValues(role).Inc()
}
