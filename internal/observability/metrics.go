// Package observability exposes the prometheus metrics of the tracker.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	activitiesRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activitymap",
		Subsystem: "controller",
		Name:      "activities_recorded_total",
		Help:      "Activities accepted from the form, by kind.",
	}, []string{"kind"})
	submissionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activitymap",
		Subsystem: "controller",
		Name:      "submissions_rejected_total",
		Help:      "Form submissions rejected, by reason.",
	}, []string{"reason"})
	persistenceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activitymap",
		Subsystem: "persistence",
		Name:      "failures_total",
		Help:      "Failed blob store operations, by operation.",
	}, []string{"op"})
	storedActivities = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activitymap",
		Subsystem: "store",
		Name:      "activities",
		Help:      "Activities currently held in memory.",
	})
)

func init() {
	prometheus.MustRegister(activitiesRecorded, submissionsRejected, persistenceFailures, storedActivities)
}

// RecordActivity counts an accepted submission.
func RecordActivity(kind string) {
	activitiesRecorded.WithLabelValues(kind).Inc()
}

// RecordRejected counts a rejected submission.
func RecordRejected(reason string) {
	submissionsRejected.WithLabelValues(reason).Inc()
}

// RecordPersistenceFailure counts a failed save, restore or clear.
func RecordPersistenceFailure(op string) {
	persistenceFailures.WithLabelValues(op).Inc()
}

func SetStoredActivities(n int) {
	storedActivities.Set(float64(n))
}
