package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := g.Write(metric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewComposeMetrics(t *testing.T) {
	m := NewComposeMetricsWithRegisterer(prometheus.NewRegistry())

	if m.draftsOpened == nil || m.saves == nil || m.sends == nil || m.supplierChanges == nil {
		t.Fatal("counter vectors should not be nil")
	}
	if m.itemsAdded == nil || m.staleResponses == nil || m.timelineEvents == nil || m.outboxEvents == nil {
		t.Fatal("counters should not be nil")
	}
	if m.activeSessions == nil || m.backendDuration == nil {
		t.Fatal("gauge and histogram should not be nil")
	}
}

func TestComposeMetrics_ReRegistrationReturnsExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewComposeMetricsWithRegisterer(reg)
	second := NewComposeMetricsWithRegisterer(reg)

	first.RecordItemAdded()
	second.RecordItemAdded()

	if got := counterValue(t, first.itemsAdded); got != 2 {
		t.Fatalf("expected shared counter value 2, got %f", got)
	}
}

func TestComposeMetrics_SessionsGauge(t *testing.T) {
	m := NewComposeMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordDraftOpened("new")
	m.RecordDraftOpened("edit")
	m.RecordDraftClosed()

	if got := gaugeValue(t, m.activeSessions); got != 1 {
		t.Fatalf("expected 1 active session, got %f", got)
	}
	if got := counterValue(t, m.draftsOpened.WithLabelValues("edit")); got != 1 {
		t.Fatalf("expected 1 edit session, got %f", got)
	}
}

func TestComposeMetrics_Labels(t *testing.T) {
	m := NewComposeMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordSave("created")
	m.RecordSave("updated")
	m.RecordSave("updated")
	m.RecordSend("email", "sent")
	m.RecordSupplierChange("awaiting_confirmation")
	m.RecordStaleResponse()
	m.ObserveBackendRequest("create_order", "ok", 15*time.Millisecond)
	m.RecordIdempotentReplay()

	if got := counterValue(t, m.saves.WithLabelValues("updated")); got != 2 {
		t.Fatalf("expected 2 updated saves, got %f", got)
	}
	if got := counterValue(t, m.sends.WithLabelValues("email", "sent")); got != 1 {
		t.Fatalf("expected 1 email send, got %f", got)
	}
	if got := counterValue(t, m.staleResponses); got != 1 {
		t.Fatalf("expected 1 stale response, got %f", got)
	}
	if got := counterValue(t, m.replays); got != 1 {
		t.Fatalf("expected 1 idempotent replay, got %f", got)
	}
}

func TestComposeMetrics_NilSafe(t *testing.T) {
	var m *ComposeMetrics
	m.RecordDraftOpened("new")
	m.RecordSave("created")
	m.ObserveBackendRequest("op", "ok", time.Second)
	m.RecordIdempotentReplay()
}
