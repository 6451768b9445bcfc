package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ComposeMetrics содержит метрики workflow составления заказа.
type ComposeMetrics struct {
	draftsOpened    *prometheus.CounterVec
	itemsAdded      prometheus.Counter
	saves           *prometheus.CounterVec
	sends           *prometheus.CounterVec
	staleResponses  prometheus.Counter
	supplierChanges *prometheus.CounterVec
	activeSessions  prometheus.Gauge

	backendDuration *prometheus.HistogramVec

	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter
	replays        prometheus.Counter
}

// NewComposeMetrics регистрирует метрики в DefaultRegisterer.
func NewComposeMetrics() *ComposeMetrics {
	return NewComposeMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewComposeMetricsWithRegisterer регистрирует метрики в переданном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewComposeMetricsWithRegisterer(registerer prometheus.Registerer) *ComposeMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ComposeMetrics{
		draftsOpened: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "abasta_drafts_opened_total",
			Help: "Total number of compose sessions opened grouped by mode",
		}, []string{"mode"}),
		itemsAdded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "abasta_draft_items_added_total",
			Help: "Total number of line items added to drafts",
		}),
		saves: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "abasta_draft_saves_total",
			Help: "Total number of draft saves grouped by result",
		}, []string{"result"}),
		sends: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "abasta_order_dispatches_total",
			Help: "Total number of order dispatches grouped by channel and result",
		}, []string{"channel", "result"}),
		staleResponses: registerCounter(registerer, prometheus.CounterOpts{
			Name: "abasta_catalog_stale_responses_total",
			Help: "Total number of superseded catalog responses discarded",
		}),
		supplierChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "abasta_supplier_changes_total",
			Help: "Total number of supplier change requests grouped by decision",
		}, []string{"decision"}),
		activeSessions: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "abasta_active_compose_sessions",
			Help: "Number of currently open compose sessions",
		}),
		backendDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "abasta_backend_request_duration_seconds",
			Help:    "Duration of REST backend requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"operation", "result"}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "abasta_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "abasta_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
		replays: registerCounter(registerer, prometheus.CounterOpts{
			Name: "abasta_idempotent_replays_total",
			Help: "Total number of save/send responses replayed from the idempotency cache",
		}),
	}
}

// RecordDraftOpened учитывает открытие сессии и увеличивает gauge активных.
func (m *ComposeMetrics) RecordDraftOpened(mode string) {
	if m == nil {
		return
	}
	m.draftsOpened.WithLabelValues(mode).Inc()
	m.activeSessions.Inc()
}

// RecordDraftClosed уменьшает gauge активных сессий.
func (m *ComposeMetrics) RecordDraftClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// RecordItemAdded увеличивает счётчик добавленных позиций.
func (m *ComposeMetrics) RecordItemAdded() {
	if m == nil {
		return
	}
	m.itemsAdded.Inc()
}

// RecordSave учитывает результат сохранения: created, updated, invalid, failed.
func (m *ComposeMetrics) RecordSave(result string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(result).Inc()
}

// RecordSend учитывает результат отправки по каналу.
func (m *ComposeMetrics) RecordSend(channel, result string) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(channel, result).Inc()
}

// RecordStaleResponse учитывает отброшенный устаревший ответ каталога.
func (m *ComposeMetrics) RecordStaleResponse() {
	if m == nil {
		return
	}
	m.staleResponses.Inc()
}

// RecordSupplierChange учитывает решение guard смены поставщика.
func (m *ComposeMetrics) RecordSupplierChange(decision string) {
	if m == nil {
		return
	}
	m.supplierChanges.WithLabelValues(decision).Inc()
}

// ObserveBackendRequest записывает длительность запроса к backend.
func (m *ComposeMetrics) ObserveBackendRequest(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.backendDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *ComposeMetrics) RecordTimelineEvent() {
	if m == nil {
		return
	}
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *ComposeMetrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEvents.Inc()
}

// RecordIdempotentReplay учитывает ответ, повторённый по idempotency-key.
func (m *ComposeMetrics) RecordIdempotentReplay() {
	if m == nil {
		return
	}
	m.replays.Inc()
}
