package dht

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	pingsSent     prometheus.Counter
	pingResponses *prometheus.CounterVec
	nodesEvicted  *prometheus.CounterVec
	nodes         prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		pingsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meshcore",
			Subsystem: "dht",
			Name:      "pings_sent_total",
			Help:      "Ping requests sent to nodes in the routing table.",
		}),
		pingResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meshcore",
			Subsystem: "dht",
			Name:      "ping_responses_total",
			Help:      "Ping responses received, by validation result.",
		}, []string{"result"}),
		nodesEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meshcore",
			Subsystem: "dht",
			Name:      "nodes_evicted_total",
			Help:      "Nodes removed from a bucket, by reason.",
		}, []string{"reason"}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "meshcore",
			Subsystem: "dht",
			Name:      "nodes",
			Help:      "Nodes currently held in the routing table.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.pingsSent, m.pingResponses, m.nodesEvicted, m.nodes)
	}
	return m
}
