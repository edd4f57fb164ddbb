package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SessionStats gives the collector read-only access to live session-store
// state at scrape time.
type SessionStats interface {
	Len() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	stats SessionStats

	activeSessions *prometheus.Desc
}

// NewCollector creates a collector that reads the session store's live
// state at scrape time. stats may be nil (metrics will report 0).
func NewCollector(stats SessionStats) *Collector {
	return &Collector{
		stats: stats,
		activeSessions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "active_sessions"),
			"Current number of tracked sessions.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeSessions
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	n := 0
	if c.stats != nil {
		n = c.stats.Len()
	}
	ch <- prometheus.MustNewConstMetric(c.activeSessions, prometheus.GaugeValue, float64(n))
}
