// Package telemetry exposes optional Prometheus counters for the
// resolver and agent. It never starts an HTTP server or owns a registry
// of its own — callers register the Collector returned by NewCollector
// with whatever exporter their application already runs, keeping this
// module embeddable rather than opinionated about how metrics are served.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Collector reports resolver and agent activity as Prometheus metrics.
type Collector struct {
	QueriesSent      prometheus.Counter
	RepliesDecoded   prometheus.Counter
	Timeouts         prometheus.Counter
	DecodeErrors     prometheus.Counter
	PeersTracked     prometheus.Gauge
	QueriesThrottled prometheus.Counter
}

// NewCollector builds a Collector with the given namespace (typically the
// embedding application's name) as a metric name prefix.
func NewCollector(namespace string) *Collector {
	return &Collector{
		QueriesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dns", Name: "queries_sent_total",
			Help: "Number of DNS/mDNS queries sent.",
		}),
		RepliesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dns", Name: "replies_decoded_total",
			Help: "Number of DNS/mDNS reply messages successfully decoded.",
		}),
		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dns", Name: "receive_timeouts_total",
			Help: "Number of socket receive timeouts encountered while polling for replies.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dns", Name: "decode_errors_total",
			Help: "Number of inbound datagrams that failed to decode and were skipped.",
		}),
		PeersTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "dns", Name: "peers_tracked",
			Help: "Number of unexpired peers currently held by the service agent.",
		}),
		QueriesThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dns", Name: "queries_throttled_total",
			Help: "Number of inbound mDNS queries dropped by the agent's rate limiter.",
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.QueriesSent, c.RepliesDecoded, c.Timeouts, c.DecodeErrors,
		c.PeersTracked, c.QueriesThrottled,
	}
}
