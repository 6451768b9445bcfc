package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/metrics"
	"github.com/vladislavdragonenkov/abasta/internal/storage/memory"
)

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	published      []domain.OutboxMessage
}

func (s *stubPublisher) Publish(event domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.published = append(s.published, event)
	if len(s.sequenceErrors) > 0 {
		err := s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
		return err
	}
	return s.err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

func (s *stubPublisher) last() domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published[len(s.published)-1]
}

var _ domain.OutboxPublisher = (*stubPublisher)(nil)

func quietLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

func enqueue(t *testing.T, repo *memory.OutboxRepository, orderID, eventType string) domain.OutboxMessage {
	t.Helper()
	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   orderID,
		EventType:     eventType,
		Payload:       []byte(`{"order_id":"` + orderID + `"}`),
	})
	require.NoError(t, err)
	return msg
}

func newTestWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	base := []Option{
		WithLogger(quietLogger()),
		WithMetrics(metrics.NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	}
	return NewWorker(repo, publisher, append(base, options...)...)
}

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	msg := enqueue(t, repo, "O1", "order.saved")
	publisher := &stubPublisher{}

	newTestWorker(repo, publisher).ProcessOnce(context.Background())

	assert.Equal(t, 1, publisher.calls())
	status, ok := repo.Status(msg.ID)
	require.True(t, ok)
	assert.Equal(t, "sent", status)
	assert.Empty(t, repo.AllPending())
}

func TestWorker_ProcessOnce_MarkFailedAndDLQAfterRetries(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	msg := enqueue(t, repo, "O2", "order.sent")
	publisher := &stubPublisher{err: errors.New("broker unavailable")}
	dlq := &stubPublisher{}

	newTestWorker(repo, publisher, WithDLQPublisher(dlq)).ProcessOnce(context.Background())

	assert.Equal(t, 3, publisher.calls())
	status, _ := repo.Status(msg.ID)
	assert.Equal(t, "failed", status)
	require.Equal(t, 1, dlq.calls())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(dlq.last().Payload, &payload))
	assert.Equal(t, msg.ID, payload["outbox_id"])
	assert.Equal(t, "O2", payload["order_id"])
	assert.Contains(t, payload["publish_error"], "broker unavailable")
	assert.Equal(t, ReasonRetriesExhausted, payload["reason"])
	assert.EqualValues(t, 3, payload["attempts"])
}

func TestWorker_ProcessOnce_RejectedGoesToDLQWithoutRetries(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "O6",
		EventType:     "order.saved",
		Payload:       []byte(`{"order_id":"O6","session_id":"sess-1"}`),
	})
	require.NoError(t, err)
	publisher := &stubPublisher{err: fmt.Errorf("send: %w", domain.ErrPublishRejected)}
	dlq := &stubPublisher{}

	newTestWorker(repo, publisher, WithDLQPublisher(dlq)).ProcessOnce(context.Background())

	assert.Equal(t, 1, publisher.calls())
	status, _ := repo.Status(msg.ID)
	assert.Equal(t, "failed", status)
	require.Equal(t, 1, dlq.calls())

	var letter DeadLetter
	require.NoError(t, json.Unmarshal(dlq.last().Payload, &letter))
	assert.Equal(t, ReasonRejected, letter.Reason)
	assert.Equal(t, 1, letter.Attempts)
	assert.Equal(t, "sess-1", letter.SessionID)
	assert.Equal(t, "O6", letter.OrderID)
	assert.JSONEq(t, `{"order_id":"O6","session_id":"sess-1"}`, string(letter.Payload))
	assert.False(t, letter.PublishedAt.IsZero())
}

// orderedPublisher отказывает в публикации событий одного заказа.
type orderedPublisher struct {
	stubPublisher
	failOrder string
}

func (p *orderedPublisher) Publish(event domain.OutboxMessage) error {
	err := p.stubPublisher.Publish(event)
	if event.AggregateID == p.failOrder {
		return errors.New("partition offline")
	}
	return err
}

func TestWorker_ProcessOnce_HoldsLaterEventsOfFailedOrder(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	saved := enqueue(t, repo, "O7", "order.saved")
	other := enqueue(t, repo, "O8", "order.saved")
	sent := enqueue(t, repo, "O7", "order.sent")
	publisher := &orderedPublisher{failOrder: "O7"}

	worker := newTestWorker(repo, publisher, WithMaxAttempts(2))
	worker.ProcessOnce(context.Background())

	status, _ := repo.Status(saved.ID)
	assert.Equal(t, "failed", status)
	status, _ = repo.Status(other.ID)
	assert.Equal(t, "sent", status)
	status, _ = repo.Status(sent.ID)
	assert.Equal(t, "pending", status, "order.sent must not overtake the failed order.saved")
	assert.Equal(t, 3, publisher.calls(), "two attempts for O7, one for O8, none for the held event")

	publisher.failOrder = ""
	worker.ProcessOnce(context.Background())
	status, _ = repo.Status(sent.ID)
	assert.Equal(t, "sent", status)
}

func TestWorker_ProcessOnce_CancelLeavesPending(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	msg := enqueue(t, repo, "O9", "order.saved")
	publisher := &stubPublisher{err: errors.New("broker unavailable")}
	dlq := &stubPublisher{}
	worker := newTestWorker(repo, publisher, WithDLQPublisher(dlq), WithRetryBaseDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.ProcessOnce(ctx)
	}()
	require.Eventually(t, func() bool { return publisher.calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	status, _ := repo.Status(msg.ID)
	assert.Equal(t, "pending", status)
	assert.Zero(t, dlq.calls())
}

func TestNewDeadLetter_InvalidPayload(t *testing.T) {
	t.Parallel()

	letter := newDeadLetter(domain.OutboxMessage{ID: "m1", AggregateID: "O1", Payload: []byte("{broken")},
		ReasonRetriesExhausted, 3, errors.New("boom"), time.Unix(0, 0))
	raw, err := json.Marshal(letter)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"payload":"{broken"`)
	assert.Empty(t, letter.SessionID)
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	msg := enqueue(t, repo, "O3", "order.whatsapp_opened")
	publisher := &stubPublisher{sequenceErrors: []error{errors.New("attempt 1"), errors.New("attempt 2"), nil}}

	newTestWorker(repo, publisher).ProcessOnce(context.Background())

	assert.Equal(t, 3, publisher.calls())
	status, _ := repo.Status(msg.ID)
	assert.Equal(t, "sent", status)
}

func TestWorker_ProcessOnce_RespectsBatchSize(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	for i := 0; i < 3; i++ {
		enqueue(t, repo, "O4", "order.saved")
	}
	publisher := &stubPublisher{}

	newTestWorker(repo, publisher, WithBatchSize(2)).ProcessOnce(context.Background())

	assert.Equal(t, 2, publisher.calls())
	assert.Len(t, repo.AllPending(), 1)
}

func TestWorker_RetryBackoff(t *testing.T) {
	t.Parallel()

	worker := newTestWorker(memory.NewOutboxRepository(), &stubPublisher{}, WithRetryBaseDelay(10*time.Millisecond))
	assert.Equal(t, 10*time.Millisecond, worker.retryBackoff(1))
	assert.Equal(t, 20*time.Millisecond, worker.retryBackoff(2))
	assert.Equal(t, 40*time.Millisecond, worker.retryBackoff(3))

	noDelay := newTestWorker(memory.NewOutboxRepository(), &stubPublisher{})
	assert.Zero(t, noDelay.retryBackoff(5))
}

func TestWorker_Run_DisabledWithoutPublisher(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewWorker(memory.NewOutboxRepository(), nil, WithLogger(quietLogger())).Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker without publisher must return immediately")
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueue(t, repo, "O5", "order.saved")
	publisher := &stubPublisher{}
	worker := newTestWorker(repo, publisher, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	require.Eventually(t, func() bool { return publisher.calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}
