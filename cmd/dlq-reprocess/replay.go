package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/abasta/internal/service/outbox"
)

// headerReplayedFrom помечает повторно опубликованные сообщения.
const headerReplayedFrom = "x-replayed-from"

var (
	errNestedPayloadMissing = errors.New("outbox dlq payload does not contain original event payload")
	// errRejectedLetter: broker уже отклонил событие как невалидное, повтор ничего не изменит.
	errRejectedLetter = errors.New("event was rejected by broker")
)

type replayMessage struct {
	topic     string
	key       string
	value     []byte
	eventType string
}

type replayStats struct {
	processed int
	replayed  int
	skipped   int
}

func (s *replayStats) add(other replayStats) {
	s.processed += other.processed
	s.replayed += other.replayed
	s.skipped += other.skipped
}

func runReplay(ctx context.Context, cfg config, deps replayDeps, logger *log.Entry) (replayStats, error) {
	var total replayStats
	if deps.client == nil || deps.source == nil {
		return total, errors.New("kafka client and consumer are required")
	}
	if cfg.execute && deps.producer == nil {
		return total, errors.New("producer is required in execute mode")
	}

	partitions, err := deps.client.Partitions(cfg.sourceTopic)
	if err != nil {
		return total, fmt.Errorf("get partitions for topic %s: %w", cfg.sourceTopic, err)
	}
	if len(partitions) == 0 {
		logger.WithField("topic", cfg.sourceTopic).Warn("source topic has no partitions")
		return total, nil
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		if total.processed >= cfg.limit {
			break
		}
		stats, err := replayPartition(ctx, cfg, deps, partition, cfg.limit-total.processed, logger)
		total.add(stats)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func replayPartition(ctx context.Context, cfg config, deps replayDeps, partition int32, limit int, logger *log.Entry) (replayStats, error) {
	var stats replayStats
	if limit <= 0 {
		return stats, nil
	}

	oldest, err := deps.client.GetOffset(cfg.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return stats, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := deps.client.GetOffset(cfg.sourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return stats, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return stats, nil
	}

	start := oldest
	if cfg.fromNewest && newest-int64(limit) > oldest {
		start = newest - int64(limit)
	}

	pc, err := deps.source.ConsumePartition(cfg.sourceTopic, partition, start)
	if err != nil {
		return stats, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(cfg.idleTimeout)
	defer idle.Stop()

	for stats.processed < limit {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-idle.C:
			return stats, nil
		case cErr := <-pc.Errors():
			if cErr != nil {
				return stats, fmt.Errorf("partition %d consumer error: %w", partition, cErr)
			}
		case msg, ok := <-pc.Messages():
			if !ok || msg == nil || msg.Offset >= newest {
				return stats, nil
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(cfg.idleTimeout)

			stats.processed++
			entry := logger.WithFields(log.Fields{"partition": msg.Partition, "offset": msg.Offset})

			replay, ok, err := extractReplayMessage(msg, cfg.eventsTopic)
			switch {
			case err != nil:
				stats.skipped++
				entry.WithError(err).Warn("skip unsupported dlq message")
			case !ok, cfg.eventType != "" && replay.eventType != cfg.eventType:
				stats.skipped++
			case cfg.execute:
				if err := publishReplay(deps.producer, replay, cfg.sourceTopic); err != nil {
					return stats, fmt.Errorf("publish replay message: %w", err)
				}
				stats.replayed++
			default:
				entry.WithFields(log.Fields{
					"target_topic": replay.topic,
					"key":          replay.key,
					"event_type":   replay.eventType,
				}).Info("dlq replay candidate")
				stats.replayed++
			}

			if msg.Offset+1 >= newest {
				return stats, nil
			}
		}
	}
	return stats, nil
}

func publishReplay(producer replayProducer, msg replayMessage, sourceTopic string) error {
	if producer == nil {
		return errors.New("producer is nil")
	}
	headers := []sarama.RecordHeader{{Key: []byte(headerReplayedFrom), Value: []byte(sourceTopic)}}
	if msg.eventType != "" {
		headers = append(headers, sarama.RecordHeader{Key: []byte(kafka.HeaderEventType), Value: []byte(msg.eventType)})
	}
	_, _, err := producer.SendMessage(&sarama.ProducerMessage{
		Topic:     msg.topic,
		Key:       sarama.StringEncoder(msg.key),
		Value:     sarama.ByteEncoder(msg.value),
		Headers:   headers,
		Timestamp: time.Now().UTC(),
	})
	return err
}

// extractReplayMessage распознаёт два формата DLQ:
// сообщение consumer с заголовком x-original-topic и конверт outbox с вложенным событием.
// ok=false означает, что сообщение не относится ни к одному из них.
func extractReplayMessage(msg *sarama.ConsumerMessage, eventsTopic string) (replayMessage, bool, error) {
	if topic, ok := headerValue(msg, kafka.HeaderOriginalTopic); ok && strings.TrimSpace(topic) != "" {
		eventType, _ := headerValue(msg, kafka.HeaderEventType)
		return replayMessage{
			topic:     topic,
			key:       string(msg.Key),
			value:     msg.Value,
			eventType: eventType,
		}, true, nil
	}

	var envelope kafka.OutboxEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil || len(envelope.Payload) == 0 {
		return replayMessage{}, false, nil
	}

	var failed outbox.DeadLetter
	if err := json.Unmarshal(envelope.Payload, &failed); err != nil {
		return replayMessage{}, false, fmt.Errorf("decode outbox dlq payload: %w", err)
	}
	if payload := bytes.TrimSpace(failed.Payload); len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return replayMessage{}, false, errNestedPayloadMissing
	}
	if failed.Reason == outbox.ReasonRejected {
		return replayMessage{}, false, fmt.Errorf("outbox %s: %w: %s", failed.OutboxID, errRejectedLetter, failed.PublishError)
	}

	replay := kafka.OutboxEnvelope{
		ID:            firstNonEmpty(failed.OutboxID, envelope.ID),
		AggregateType: firstNonEmpty(failed.AggregateType, envelope.AggregateType),
		AggregateID:   firstNonEmpty(failed.OrderID, envelope.AggregateID),
		EventType:     firstNonEmpty(failed.EventType, envelope.EventType),
		Payload:       failed.Payload,
		PublishedAt:   time.Now().UTC(),
	}
	encoded, err := json.Marshal(replay)
	if err != nil {
		return replayMessage{}, false, fmt.Errorf("encode replay envelope: %w", err)
	}

	return replayMessage{
		topic:     eventsTopic,
		key:       firstNonEmpty(replay.AggregateID, replay.ID),
		value:     encoded,
		eventType: replay.EventType,
	}, true, nil
}

func headerValue(msg *sarama.ConsumerMessage, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h != nil && string(h.Key) == key {
			return string(h.Value), true
		}
	}
	return "", false
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
