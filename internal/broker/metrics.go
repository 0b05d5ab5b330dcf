package broker

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks broker traffic. A nil *Metrics disables recording, so tests
// can build brokers without a registry.
type Metrics struct {
	subscribers prometheus.Gauge
	published   prometheus.Counter
	delivered   prometheus.Counter
	dropped     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mpoint_broker_subscribers",
			Help: "Current number of live chat stream subscriptions.",
		}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpoint_broker_published_total",
			Help: "Messages published to the broker since start.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpoint_broker_delivered_total",
			Help: "Message deliveries into subscriber buffers.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpoint_broker_dropped_total",
			Help: "Deliveries dropped because the subscriber buffer was full.",
		}),
	}

	reg.MustRegister(m.subscribers, m.published, m.delivered, m.dropped)
	return m
}

func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}

func (m *Metrics) Published() {
	if m == nil {
		return
	}
	m.published.Inc()
}

func (m *Metrics) Delivered() {
	if m == nil {
		return
	}
	m.delivered.Inc()
}

func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}
