// Package metrics registers the prometheus counters the approval workflow
// emits; /metrics is served from the main router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "approvals_requests_created_total",
		Help: "Purchase requests created",
	})

	ApprovalActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approvals_actions_total",
		Help: "Approval transitions that committed, labeled by action",
	}, []string{"action"})

	Escalations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "approvals_escalations_total",
		Help: "Approvals that advanced required_role instead of finalizing",
	})

	NotificationsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "approvals_notify_skipped_total",
		Help: "Notifications skipped because no recipient or fallback mailbox existed",
	})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "approvals_notify_failures_total",
		Help: "Notification sends that failed after a committed transition",
	})
)
