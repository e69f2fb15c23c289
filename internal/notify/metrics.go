package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts delivery outcomes of the async sink.
type Metrics struct {
	Delivered prometheus.Counter
	Failed    prometheus.Counter
	Dropped   prometheus.Counter
	Queued    prometheus.Gauge
}

// NewMetrics registers the delivery metrics on reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Delivered: f.NewCounter(prometheus.CounterOpts{
			Name: "kickoff_notifications_delivered_total",
			Help: "Total number of notifications handed to their channels successfully",
		}),
		Failed: f.NewCounter(prometheus.CounterOpts{
			Name: "kickoff_notifications_failed_total",
			Help: "Total number of notifications whose delivery failed",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "kickoff_notifications_dropped_total",
			Help: "Total number of notifications dropped because the queue was full or closed",
		}),
		Queued: f.NewGauge(prometheus.GaugeOpts{
			Name: "kickoff_notifications_queued",
			Help: "Number of notifications waiting for a delivery worker",
		}),
	}
}
