package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics records delivery outcomes for the notification processor.
type OutboxMetrics struct {
	sent      prometheus.Counter
	failed    prometheus.Counter
	exhausted prometheus.Counter
}

// NewOutboxMetrics registers the outbox delivery metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	sent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notifications delivered successfully.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Notification delivery attempts that failed.",
	})
	exhausted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_exhausted_total",
		Help: "Notifications whose failure count reached the retry ceiling.",
	})
	reg.MustRegister(sent, failed, exhausted)
	return &OutboxMetrics{
		sent:      sent,
		failed:    failed,
		exhausted: exhausted,
	}
}

// IncSent increments the delivered counter.
func (o *OutboxMetrics) IncSent() {
	if o == nil || o.sent == nil {
		return
	}
	o.sent.Inc()
}

// IncFailed increments the failed attempt counter.
func (o *OutboxMetrics) IncFailed() {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.Inc()
}

// IncExhausted increments the retry-ceiling counter.
func (o *OutboxMetrics) IncExhausted() {
	if o == nil || o.exhausted == nil {
		return
	}
	o.exhausted.Inc()
}
