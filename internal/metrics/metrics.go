// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts posts that completed the creation workflow.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskgram_posts_created_total",
		Help: "Posts created successfully.",
	})

	// WorkflowFailures counts failed post creations by the last state reached.
	WorkflowFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskgram_post_workflow_failures_total",
		Help: "Failed post creations, labelled by the last state reached before failing.",
	}, []string{"state"})

	// CleanupWarnings counts best-effort deletions that failed.
	CleanupWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskgram_cleanup_warnings_total",
		Help: "Failed best-effort deletions of staged files or remote images.",
	}, []string{"resource"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskgram_rate_limited_total",
		Help: "Requests rejected with 429.",
	})
)
