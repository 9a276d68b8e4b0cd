// Package metrics defines the domain counters exported at /metrics next to the HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PortsCreated counts stored ports by direction code
	PortsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigstone_ports_created_total",
		Help: "Ports created by direction",
	}, []string{"direction"})

	// VotesCast counts accepted votes by type
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigstone_votes_cast_total",
		Help: "Votes accepted by vote type",
	}, []string{"vote_type"})

	// StandardsResolved counts voting windows closed by outcome
	StandardsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigstone_standards_resolved_total",
		Help: "Standards resolved by outcome",
	}, []string{"outcome"})

	// StandardsMerged counts standards published to the wiki
	StandardsMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bigstone_standards_merged_total",
		Help: "Standards merged into the wiki",
	})

	// SessionEvents counts sign-in and sign-out events seen by the subscriber
	SessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigstone_session_events_total",
		Help: "Session events by type",
	}, []string{"type"})

	// ResolverRuns counts background resolver passes by result
	ResolverRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigstone_resolver_runs_total",
		Help: "Standards resolver passes by result",
	}, []string{"result"})
)
