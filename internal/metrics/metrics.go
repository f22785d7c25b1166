package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "course_reminder"

// Result labels for the broadcast and reminder counters.
const (
	ResultSucceeded = "succeeded"
	ResultEmpty     = "empty"
	ResultFailed    = "failed"
)

// Metrics holds the collectors the services update.
type Metrics struct {
	BroadcastRuns        prometheus.Counter
	BroadcastSubscribers *prometheus.CounterVec
	RemindersFired       *prometheus.CounterVec
	ReminderJobsPending  prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BroadcastRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_runs_total",
			Help:      "Number of daily broadcast runs started.",
		}),
		BroadcastSubscribers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_subscribers_total",
			Help:      "Subscribers processed by the daily broadcast, by result.",
		}, []string{"result"}),
		RemindersFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Reminder jobs fired, by delivery result.",
		}, []string{"result"}),
		ReminderJobsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reminder_jobs_pending",
			Help:      "Reminder jobs waiting to fire.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.BroadcastRuns, m.BroadcastSubscribers, m.RemindersFired, m.ReminderJobsPending)
	}
	return m
}
