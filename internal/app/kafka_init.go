package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/abasta/internal/service/statussync"
)

// initKafkaProducer создаёт producer, если брокеры заданы.
// Возвращает nil, nil для пустого списка; при ошибке сервис продолжает работу без Kafka.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// closeKafka закрывает producer, если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// outboxPublishers выбирает, куда outbox worker отдаёт события.
// Без producer события только логируются и помечаются отправленными.
func outboxPublishers(producer *kafka.Producer, topic string, logger *log.Entry) (domain.OutboxPublisher, domain.OutboxPublisher) {
	if producer == nil {
		return logPublisher{logger: logger}, nil
	}
	return kafka.NewOutboxPublisher(producer, topic), kafka.NewDLQPublisher(producer)
}

// logPublisher пишет события outbox в лог вместо брокера.
type logPublisher struct {
	logger *log.Entry
}

func (p logPublisher) Publish(event domain.OutboxMessage) error {
	p.logger.WithFields(log.Fields{
		"event_id":     event.ID,
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID,
	}).Info("outbox event (kafka disabled)")
	return nil
}

var _ domain.OutboxPublisher = logPublisher{}

// startStatusConsumer подписывает statussync на topic статусов backend.
// Ошибка создания consumer не останавливает сервис: статусы просто не синхронизируются.
func startStatusConsumer(cfg Config, syncer statussync.OrderStatusSyncer, dlq *kafka.Producer, logger *log.Entry) *kafka.Consumer {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return nil
	}

	handler := statussync.NewHandler(syncer, logger.WithField("component", "status-sync"))
	options := []kafka.ConsumerOption{
		kafka.WithConsumerLogger(logger.WithField("component", "kafka-consumer")),
		kafka.WithRetries(cfg.KafkaConsumerRetry, cfg.OutboxRetryDelay),
	}
	if dlq != nil {
		options = append(options, kafka.WithDLQ(dlq))
	}

	consumer, err := kafka.NewConsumer(brokers, cfg.KafkaGroupID, []string{cfg.KafkaStatusTopic}, handler.MessageHandler(), options...)
	if err != nil {
		logger.WithError(err).Warn("failed to create status consumer, order statuses will not sync")
		return nil
	}
	return consumer
}

// stopConsumer останавливает consumer, если он был создан.
func stopConsumer(consumer *kafka.Consumer, logger *log.Entry) {
	if consumer == nil {
		return
	}
	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Warn("failed to stop status consumer")
	}
}
