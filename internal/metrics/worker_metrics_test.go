package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetrics(t *testing.T) {
	m := NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordPublish("sent")
	m.RecordPublish("sent")
	m.RecordPublish("failed")
	m.SetBacklog(3, 90*time.Second)

	if got := counterValue(t, m.publishAttempts.WithLabelValues("sent")); got != 2 {
		t.Fatalf("expected 2 sent attempts, got %f", got)
	}
	if got := gaugeValue(t, m.pending); got != 3 {
		t.Fatalf("expected pending 3, got %f", got)
	}
	if got := gaugeValue(t, m.oldestAge); got != 90 {
		t.Fatalf("expected oldest age 90s, got %f", got)
	}

	m.SetBacklog(0, -time.Second)
	if got := gaugeValue(t, m.oldestAge); got != 0 {
		t.Fatalf("negative age must clamp to 0, got %f", got)
	}
}

func TestCleanupMetrics(t *testing.T) {
	m := NewCleanupMetricsWithRegisterer(prometheus.NewRegistry())

	m.AddDeleted(4)
	m.AddDeleted(0)
	m.AddReleased(2)
	m.AddReleased(-1)
	m.RecordRun("ok", 4)
	m.RecordRun("error", 0)

	if got := counterValue(t, m.deleted); got != 4 {
		t.Fatalf("expected 4 deleted, got %f", got)
	}
	if got := counterValue(t, m.released); got != 2 {
		t.Fatalf("expected 2 released, got %f", got)
	}
	if got := gaugeValue(t, m.lastDeleted); got != 4 {
		t.Fatalf("expected last deleted 4, got %f", got)
	}
	if got := counterValue(t, m.runs.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed run, got %f", got)
	}
}

func TestWorkerMetrics_NilSafe(t *testing.T) {
	var outbox *OutboxMetrics
	var cleanup *CleanupMetrics

	outbox.RecordPublish("sent")
	outbox.SetBacklog(1, time.Second)
	cleanup.RecordRun("ok", 1)
	cleanup.AddDeleted(1)
	cleanup.AddReleased(1)
}
