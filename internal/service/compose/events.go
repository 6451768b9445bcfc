package compose

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// Типы событий outbox для внешних потребителей.
const (
	EventOrderSaved     = "order.saved"
	EventOrderSent      = "order.sent"
	EventWhatsAppOpened = "order.whatsapp_opened"
)

// AggregateOrder: тип агрегата событий outbox.
const AggregateOrder = "order"

// enqueue кладёт событие заказа в outbox. Ошибка логируется вызывающим.
func (s *Service) enqueue(eventType, orderID string, payload map[string]any) error {
	if s.deps.Outbox == nil {
		return nil
	}
	if payload == nil {
		payload = make(map[string]any)
	}
	payload["order_id"] = orderID
	payload["occurred_at"] = s.now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	if _, err := s.deps.Outbox.Enqueue(domain.OutboxMessage{
		AggregateType: AggregateOrder,
		AggregateID:   orderID,
		EventType:     eventType,
		Payload:       data,
	}); err != nil {
		return fmt.Errorf("enqueue %s: %w", eventType, err)
	}
	s.metrics.RecordOutboxEvent()
	return nil
}

func (s *Service) emit(sess domain.ComposeSession, eventType string, extra map[string]any) {
	payload := map[string]any{
		"session_id":  sess.ID,
		"owner_id":    sess.OwnerID,
		"supplier_id": sess.Draft.SupplierID,
		"name":        sess.Draft.Name,
		"status":      sess.Draft.Status,
		"items":       len(sess.Draft.Items),
		"total":       sess.Draft.Total().String(),
	}
	for k, v := range extra {
		payload[k] = v
	}
	if err := s.enqueue(eventType, sess.Draft.OrderID, payload); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"session_id": sess.ID,
			"order_id":   sess.Draft.OrderID,
			"event":      eventType,
		}).Error("enqueue event failed")
	}
}

func (s *Service) record(sess domain.ComposeSession, eventType, reason string) {
	if s.deps.Timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		SessionID: sess.ID,
		OrderID:   sess.Draft.OrderID,
		Type:      eventType,
		Reason:    reason,
		Occurred:  s.now().UTC(),
	}
	if err := s.deps.Timeline.Append(event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"session_id": sess.ID,
			"event":      eventType,
		}).Warn("append timeline event failed")
		return
	}
	s.metrics.RecordTimelineEvent()
}
