// Package metrics defines and registers all custom Prometheus metrics for
// the accounts API. It is the single source of truth for metric names,
// labels, and help strings. Registration happens at import time via
// promauto against the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// SigninsTotal counts signin attempts.
// Label:
//   - result: "success" or "failure"
var SigninsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of signin attempts, by result.",
	},
	[]string{"result"},
)

// TokenValidationsTotal counts bearer-token validations. The externally
// visible response is a uniform 401; the label preserves the subtype for
// diagnosis (stale clients vs. attack attempts).
// Label:
//   - result: "ok", "invalid", "expired", "role_mismatch", "user_not_found", "inactive"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of token validations, by result subtype.",
	},
	[]string{"result"},
)

// UsersCreatedTotal counts created accounts (signup and privileged create).
// Label:
//   - role: role of the new account
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of user accounts created, by role.",
	},
	[]string{"role"},
)

// ReassignmentsTotal counts successful customer reassignments.
var ReassignmentsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reassignments_total",
		Help:      "Total number of customer-to-manager reassignments.",
	},
)

// RateLimitBlockedTotal counts requests rejected by the auth rate limiter.
var RateLimitBlockedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratelimit_blocked_total",
		Help:      "Total number of requests blocked by the auth rate limiter.",
	},
)

// AuditQueueDepth tracks pending entries per audit dispatcher worker.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
