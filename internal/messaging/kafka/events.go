package kafka

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

// Topics для Kafka
const (
	// TopicOrderEvents: события черновиков и заказов для внешних потребителей.
	TopicOrderEvents = "abasta.order.events"
	// TopicOrderStatus: изменения статусов заказов, публикуемые backend.
	TopicOrderStatus = "abasta.backend.order-status"
	// TopicDeadLetterQueue: сообщения, которые не удалось обработать или опубликовать.
	TopicDeadLetterQueue = "abasta.dlq"
)

// Kafka headers
const (
	HeaderEventType     = "x-event-type"
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// StatusEvent: изменение статуса заказа на стороне backend.
type StatusEvent struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// statusWire принимает оба варианта именования полей: snake_case и camelCase backend.
type statusWire struct {
	OrderID   string    `json:"order_id"`
	OrderUUID string    `json:"orderUuid"`
	UUID      string    `json:"uuid"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ParseStatusEvent парсит StatusEvent из сообщения.
func ParseStatusEvent(message *sarama.ConsumerMessage) (StatusEvent, error) {
	var wire statusWire
	if err := json.Unmarshal(message.Value, &wire); err != nil {
		return StatusEvent{}, fmt.Errorf("failed to unmarshal status event: %w", err)
	}

	event := StatusEvent{
		OrderID:   firstNonEmpty(wire.OrderID, wire.OrderUUID, wire.UUID, string(message.Key)),
		Status:    strings.ToUpper(strings.TrimSpace(wire.Status)),
		Timestamp: wire.Timestamp,
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = wire.UpdatedAt
	}
	if event.OrderID == "" || event.Status == "" {
		return StatusEvent{}, fmt.Errorf("status event requires order id and status")
	}
	return event, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func header(message *sarama.ConsumerMessage, key string) (string, bool) {
	for _, h := range message.Headers {
		if h != nil && string(h.Key) == key {
			return string(h.Value), true
		}
	}
	return "", false
}
