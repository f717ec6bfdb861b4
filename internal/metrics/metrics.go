// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Interactions counts like/dislike calls by kind and outcome
	// (inserted, duplicate, match).
	Interactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaker_interactions_total",
			Help: "Like and dislike calls by outcome",
		},
		[]string{"kind", "outcome"},
	)

	// Matches counts matches created, by source.
	Matches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaker_matches_created_total",
			Help: "Matches created",
		},
		[]string{"source"},
	)

	Unmatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaker_matches_deleted_total",
			Help: "Matches deleted by unmatch, ban or account deletion",
		},
	)

	// CascadeFailures counts cascades that stopped after partially applying.
	CascadeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaker_cascade_failures_total",
			Help: "Cascades left partially applied",
		},
		[]string{"cascade"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaker_notifications_total",
			Help: "Notification deliveries by channel and result",
		},
		[]string{"channel", "kind", "result"},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaker_messages_sent_total",
			Help: "Chat messages stored",
		},
	)

	FeedCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaker_feed_candidates",
			Help:    "Candidates returned per feed request",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// HasMessagesRepairs counts pending matches found to have messages.
	HasMessagesRepairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaker_has_messages_repairs_total",
			Help: "Stale has_messages flags repaired on read",
		},
	)

	// RPCDuration observes gRPC calls by full method and status code.
	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchmaker_rpc_duration_seconds",
			Help:    "gRPC call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "code"},
	)

	AdminActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaker_admin_actions_total",
			Help: "Admin moderation actions",
		},
		[]string{"action"},
	)
)
