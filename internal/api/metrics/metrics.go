// Package metrics defines the custom Prometheus metrics of the recycling
// pickup API. It is the single source of truth for metric names, labels
// and help strings.
//
// Build one Metrics per registry with New and hand it to the handlers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recycling"

// Metrics groups the domain counters.
type Metrics struct {
	// RequestsCreatedTotal counts newly created pickup requests.
	// Label:
	//   - material: the request's material type (e.g. "glass")
	RequestsCreatedTotal *prometheus.CounterVec

	// IdempotentReplaysTotal counts submissions answered from an earlier
	// request because the Idempotency-Key had been seen.
	IdempotentReplaysTotal prometheus.Counter

	// StatusUpdatesTotal counts applied status changes.
	// Label:
	//   - status: the new status (pending, scheduled, completed)
	StatusUpdatesTotal *prometheus.CounterVec

	// RequestsDeletedTotal counts deleted pickup requests.
	RequestsDeletedTotal prometheus.Counter

	// LoginAttemptsTotal counts logins.
	// Label:
	//   - result: "success" or "failure"
	LoginAttemptsTotal *prometheus.CounterVec

	// RegistrationsTotal counts created accounts.
	// Label:
	//   - role: "user" or "admin"
	RegistrationsTotal *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsCreatedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pickup_requests_created_total",
				Help:      "Total number of pickup requests created, by material type.",
			},
			[]string{"material"},
		),
		IdempotentReplaysTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pickup_requests_replayed_total",
				Help:      "Total number of submissions answered by an idempotent replay.",
			},
		),
		StatusUpdatesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pickup_status_updates_total",
				Help:      "Total number of pickup request status updates, by new status.",
			},
			[]string{"status"},
		),
		RequestsDeletedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pickup_requests_deleted_total",
				Help:      "Total number of pickup requests deleted.",
			},
		),
		LoginAttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Total number of login attempts, by result.",
			},
			[]string{"result"},
		),
		RegistrationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total number of registered accounts, by role.",
			},
			[]string{"role"},
		),
	}
}
