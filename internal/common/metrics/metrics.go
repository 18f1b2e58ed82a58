// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mergington-activities/internal/activities"
)

var (
	SignupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activities_signups_total",
			Help: "Total number of signup attempts by outcome",
		},
		[]string{"activity", "result"},
	)

	UnregistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activities_unregistrations_total",
			Help: "Total number of unregister attempts by outcome",
		},
		[]string{"activity", "result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HookFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_hook_failures_total",
			Help: "Total number of failed membership hook deliveries",
		},
		[]string{"hook"},
	)
)

// Result labels for the membership counters.
const (
	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// UnknownActivity is the activity label for names the registry does not hold,
// so caller-supplied names cannot grow the label set.
const UnknownActivity = "unknown"

// Lister is the read side of the activity registry.
type Lister interface {
	List() activities.Snapshot
}

// RegistryCollector reports participant counts and capacity per activity at
// scrape time.
type RegistryCollector struct {
	source       Lister
	participants *prometheus.Desc
	capacity     *prometheus.Desc
}

func NewRegistryCollector(source Lister) *RegistryCollector {
	return &RegistryCollector{
		source: source,
		participants: prometheus.NewDesc(
			"activities_participants",
			"Current number of participants per activity",
			[]string{"activity"}, nil,
		),
		capacity: prometheus.NewDesc(
			"activities_max_participants",
			"Advertised capacity per activity",
			[]string{"activity"}, nil,
		),
	}
}

func (c *RegistryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.participants
	ch <- c.capacity
}

func (c *RegistryCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.source.List()
	for _, name := range snap.Order {
		a := snap.Activities[name]
		ch <- prometheus.MustNewConstMetric(c.participants, prometheus.GaugeValue, float64(len(a.Participants)), name)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(a.MaxParticipants), name)
	}
}
