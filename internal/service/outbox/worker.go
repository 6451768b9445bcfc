package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/metrics"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

// WorkerOptions задаёт параметры outbox worker.
type WorkerOptions struct {
	Logger         *log.Entry
	Metrics        *metrics.OutboxMetrics
	DLQPublisher   domain.OutboxPublisher
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики воркера.
func WithMetrics(m *metrics.OutboxMetrics) Option {
	return func(opts *WorkerOptions) {
		opts.Metrics = m
	}
}

// WithDLQPublisher задаёт publisher для отправки в DLQ после исчерпания retry.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(opts *WorkerOptions) {
		opts.DLQPublisher = publisher
	}
}

// WithPollInterval задаёт частоту опроса outbox.
func WithPollInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.PollInterval = interval
	}
}

// WithBatchSize задаёт размер батча из outbox.
func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) {
		opts.BatchSize = batchSize
	}
}

// WithMaxAttempts задаёт число попыток публикации перед failed/DLQ.
// Событие, отклонённое брокером (domain.ErrPublishRejected), уходит в DLQ после первой попытки.
func WithMaxAttempts(maxAttempts int) Option {
	return func(opts *WorkerOptions) {
		opts.MaxAttempts = maxAttempts
	}
}

// WithRetryBaseDelay задаёт базовый delay для exponential backoff.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.RetryBaseDelay = delay
	}
}

// Причины попадания события в DLQ.
const (
	ReasonRetriesExhausted = "retries_exhausted"
	ReasonRejected         = "rejected"
)

// DeadLetter: тело DLQ-сообщения для события черновика, которое не удалось опубликовать.
// Его читает cmd/dlq-reprocess.
type DeadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	OrderID       string          `json:"order_id"`
	SessionID     string          `json:"session_id,omitempty"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	Attempts      int             `json:"attempts"`
	PublishError  string          `json:"publish_error"`
	PublishedAt   time.Time       `json:"dlq_published_at"`
}

// Worker публикует pending-события черновиков (order.saved, order.sent, order.whatsapp_opened).
// События одного заказа публикуются по порядку: после ошибки остальные события этого заказа
// ждут следующего цикла, так что order.sent не обгоняет order.saved.
type Worker struct {
	repo           domain.OutboxRepository
	publisher      domain.OutboxPublisher
	dlqPublisher   domain.OutboxPublisher
	metrics        *metrics.OutboxMetrics
	logger         *log.Entry
	now            func() time.Time
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
}

// NewWorker создаёт outbox worker.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	opts := WorkerOptions{
		PollInterval:   defaultPollInterval,
		BatchSize:      defaultBatchSize,
		MaxAttempts:    defaultMaxAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "outbox-worker")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	opts.RetryBaseDelay = max(opts.RetryBaseDelay, 0)

	return &Worker{
		repo:           repo,
		publisher:      publisher,
		dlqPublisher:   opts.DLQPublisher,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		now:            time.Now,
		pollInterval:   opts.PollInterval,
		batchSize:      opts.BatchSize,
		maxAttempts:    opts.MaxAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
	}
}

// Run опрашивает outbox до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.ProcessOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessOnce выполняет один цикл публикации.
// Отмена ctx оставляет неопубликованные события в pending.
func (w *Worker) ProcessOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	defer w.refreshBacklogMetrics()

	events, err := w.repo.PullPending(w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return
	}

	held := make(map[string]struct{})
	for _, event := range events {
		if ctx.Err() != nil {
			return
		}
		if _, blocked := held[event.AggregateID]; blocked {
			w.metrics.RecordPublish("held")
			w.eventLogger(event).Debug("outbox event held behind a failed event of the same order")
			continue
		}

		attempts, err := w.publishWithRetry(ctx, event)
		switch {
		case err == nil:
			if err := w.repo.MarkSent(event.ID); err != nil {
				w.eventLogger(event).WithError(err).Warn("failed to mark outbox as sent")
			}
		case ctx.Err() != nil:
			return
		default:
			if event.AggregateID != "" {
				held[event.AggregateID] = struct{}{}
			}
			w.deadLetter(event, attempts, err)
		}
	}
}

// publishWithRetry возвращает число сделанных попыток и последнюю ошибку.
func (w *Worker) publishWithRetry(ctx context.Context, event domain.OutboxMessage) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.publisher.Publish(event)
		if err == nil {
			w.metrics.RecordPublish("sent")
			return attempt, nil
		}
		lastErr = err
		if errors.Is(err, domain.ErrPublishRejected) {
			w.metrics.RecordPublish("rejected")
			return attempt, err
		}
		w.metrics.RecordPublish("retry_error")
		if attempt == w.maxAttempts {
			break
		}

		if delay := w.retryBackoff(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return attempt, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return w.maxAttempts, fmt.Errorf("publish failed after %d attempts: %w", w.maxAttempts, lastErr)
}

// deadLetter отправляет событие в DLQ и помечает его failed.
func (w *Worker) deadLetter(event domain.OutboxMessage, attempts int, publishErr error) {
	reason := ReasonRetriesExhausted
	if errors.Is(publishErr, domain.ErrPublishRejected) {
		reason = ReasonRejected
	}
	logger := w.eventLogger(event).WithFields(log.Fields{"reason": reason, "attempts": attempts})
	logger.WithError(publishErr).Error("outbox publish failed")
	w.metrics.RecordPublish("failed")

	if err := w.publishToDLQ(newDeadLetter(event, reason, attempts, publishErr, w.now())); err != nil {
		logger.WithError(err).Warn("failed to publish to DLQ")
		w.metrics.RecordPublish("dlq_failed")
	}
	if err := w.repo.MarkFailed(event.ID); err != nil {
		logger.WithError(err).Warn("failed to mark outbox as failed")
	}
}

func newDeadLetter(event domain.OutboxMessage, reason string, attempts int, publishErr error, now time.Time) DeadLetter {
	var ref struct {
		SessionID string `json:"session_id"`
	}
	payload := json.RawMessage(event.Payload)
	if len(payload) > 0 && !json.Valid(payload) {
		// невалидный JSON кладётся строкой
		payload, _ = json.Marshal(string(event.Payload))
	} else {
		_ = json.Unmarshal(payload, &ref)
	}

	return DeadLetter{
		OutboxID:      event.ID,
		AggregateType: event.AggregateType,
		OrderID:       event.AggregateID,
		SessionID:     ref.SessionID,
		EventType:     event.EventType,
		Payload:       payload,
		Reason:        reason,
		Attempts:      attempts,
		PublishError:  publishErr.Error(),
		PublishedAt:   now.UTC(),
	}
}

func (w *Worker) publishToDLQ(letter DeadLetter) error {
	if w.dlqPublisher == nil {
		return nil
	}
	payload, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("marshal dlq payload: %w", err)
	}
	err = w.dlqPublisher.Publish(domain.OutboxMessage{
		ID:            letter.OutboxID,
		AggregateType: letter.AggregateType,
		AggregateID:   letter.OrderID,
		EventType:     letter.EventType,
		Payload:       payload,
	})
	if err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}

func (w *Worker) eventLogger(event domain.OutboxMessage) *log.Entry {
	return w.logger.WithFields(log.Fields{
		"outbox_id":  event.ID,
		"order_id":   event.AggregateID,
		"event_type": event.EventType,
	})
}

func (w *Worker) refreshBacklogMetrics() {
	stats, err := w.repo.Stats()
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}
	var age time.Duration
	if stats.PendingCount > 0 && !stats.OldestPendingAt.IsZero() {
		age = w.now().Sub(stats.OldestPendingAt)
	}
	w.metrics.SetBacklog(stats.PendingCount, age)
}

// retryBackoff удваивает базовую задержку на каждую попытку, без переполнения.
func (w *Worker) retryBackoff(attempt int) time.Duration {
	if w.retryBaseDelay <= 0 {
		return 0
	}
	const maxDuration = time.Duration(1<<63 - 1)
	delay := w.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > maxDuration/2 {
			return maxDuration
		}
		delay *= 2
	}
	return delay
}
