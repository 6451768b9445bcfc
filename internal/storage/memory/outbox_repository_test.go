package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

func TestOutboxRepository_EnqueueAndPull(t *testing.T) {
	repo := NewOutboxRepository()

	saved, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "O1",
		EventType:     "order.saved",
		Payload:       []byte(`{"order_id":"O1"}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, saved.ID, pending[0].ID)
}

func TestOutboxRepository_PullPendingKeepsOrder(t *testing.T) {
	repo := NewOutboxRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first, err := repo.Enqueue(domain.OutboxMessage{ID: "b", EventType: "order.saved"})
	require.NoError(t, err)
	second, err := repo.Enqueue(domain.OutboxMessage{ID: "a", EventType: "order.sent"})
	require.NoError(t, err)

	pending, err := repo.PullPending(1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PendingCount)
	assert.Equal(t, base.Add(time.Second), stats.OldestPendingAt)

	require.NoError(t, repo.MarkSent(first.ID))
	stats, err = repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PendingCount)
	assert.Equal(t, []domain.OutboxMessage{second}, repo.AllPending())
}

func TestOutboxRepository_SameTimestampKeepsEnqueueOrder(t *testing.T) {
	repo := NewOutboxRepository()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	for _, id := range []string{"z-saved", "m-sent", "a-whatsapp"} {
		_, err := repo.Enqueue(domain.OutboxMessage{ID: id, AggregateID: "O5"})
		require.NoError(t, err)
	}

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "z-saved", pending[0].ID)
	assert.Equal(t, "m-sent", pending[1].ID)
	assert.Equal(t, "a-whatsapp", pending[2].ID)
}

func TestOutboxRepository_MarkSentAndFailed(t *testing.T) {
	repo := NewOutboxRepository()

	saved, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "order"})
	require.NoError(t, err)

	require.NoError(t, repo.MarkSent(saved.ID))
	status, ok := repo.Status(saved.ID)
	require.True(t, ok)
	assert.Equal(t, outboxStatusSent, status)

	require.NoError(t, repo.MarkFailed(saved.ID))
	status, _ = repo.Status(saved.ID)
	assert.Equal(t, outboxStatusFailed, status)

	require.ErrorIs(t, repo.MarkFailed("missing"), domain.ErrOutboxPublish)
}
