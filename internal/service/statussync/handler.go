// Package statussync применяет изменения статусов заказов с backend к открытым черновикам.
package statussync

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/messaging/kafka"
)

// OrderStatusSyncer обновляет статус заказа во всех его черновиках.
type OrderStatusSyncer interface {
	SyncOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (int, error)
}

// Handler разбирает события статусов и передаёт их в compose-сервис.
type Handler struct {
	syncer OrderStatusSyncer
	logger *log.Entry
}

// NewHandler создаёт обработчик.
func NewHandler(syncer OrderStatusSyncer, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "status-sync")
	}
	return &Handler{syncer: syncer, logger: logger}
}

// Handle обрабатывает одно сообщение. Некорректные сообщения помечаются как permanent и уходят в DLQ без повторов.
func (h *Handler) Handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	event, err := kafka.ParseStatusEvent(message)
	if err != nil {
		return kafka.Permanent(err)
	}
	status := domain.OrderStatus(event.Status)
	if !status.Valid() {
		return kafka.Permanent(fmt.Errorf("unknown order status %q", event.Status))
	}

	updated, err := h.syncer.SyncOrderStatus(ctx, event.OrderID, status)
	if err != nil {
		var validation *domain.ValidationError
		if errors.As(err, &validation) {
			return kafka.Permanent(err)
		}
		return fmt.Errorf("sync order %s: %w", event.OrderID, err)
	}

	h.logger.WithFields(log.Fields{
		"order_id": event.OrderID,
		"status":   status,
		"sessions": updated,
	}).Debug("order status synced")
	return nil
}

// MessageHandler возвращает обработчик в форме, которую ждёт kafka.Consumer.
func (h *Handler) MessageHandler() kafka.MessageHandler {
	return h.Handle
}
