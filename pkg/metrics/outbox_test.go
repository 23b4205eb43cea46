package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOutboxMetrics(reg)

	metrics.IncSent()
	metrics.IncSent()
	metrics.IncFailed()
	metrics.IncExhausted()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	expected := map[string]float64{
		"notifications_sent_total":      2,
		"notifications_failed_total":    1,
		"notifications_exhausted_total": 1,
	}
	for name, want := range expected {
		mf := findMetricFamily(mfs, name)
		if mf == nil {
			t.Fatalf("metric %q not found", name)
		}
		if got := mf.GetMetric()[0].GetCounter().GetValue(); got != want {
			t.Fatalf("%s = %f, want %f", name, got, want)
		}
	}
}

func TestOutboxMetricsNilSafe(t *testing.T) {
	var metrics *OutboxMetrics
	metrics.IncSent()
	metrics.IncFailed()
	metrics.IncExhausted()
}
