package memory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/storage/memory"
)

func TestIdempotencyRepository_CreateAndGet(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(2 * time.Hour).Round(time.Second)

	created, err := repo.CreateProcessing(" save-1 ", "hash-1", ttl)
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyStatusProcessing, created.Status)
	assert.Equal(t, "save-1", created.Key)

	got, err := repo.Get("save-1")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", got.RequestHash)
	assert.True(t, got.TTLAt.Equal(ttl))

	_, err = repo.Get("")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)
	_, err = repo.CreateProcessing("save-2", " ", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyRequestHashRequired)
}

func TestIdempotencyRepository_ConflictAndHashMismatch(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)

	_, err := repo.CreateProcessing("send-1", "hash-a", ttl)
	require.NoError(t, err)

	_, err = repo.CreateProcessing("send-1", "hash-a", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyAlreadyExists)

	_, err = repo.CreateProcessing("send-1", "hash-b", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)
}

func TestIdempotencyRepository_ExpiredKeyIsReused(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	_, err := repo.CreateProcessing("save-1", "hash-a", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)

	record, err := repo.CreateProcessing("save-1", "hash-b", time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "hash-b", record.RequestHash)
}

func TestIdempotencyRepository_MarkDoneAndDeleteExpired(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()

	_, err := repo.CreateProcessing("expired-old", "h1", now.Add(-2*time.Minute))
	require.NoError(t, err)
	_, err = repo.CreateProcessing("expired-new", "h2", now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = repo.CreateProcessing("active", "h3", now.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.MarkDone("active", []byte(`{"success":true}`), 0))
	require.ErrorIs(t, repo.MarkFailed("missing", nil, 3), domain.ErrIdempotencyKeyNotFound)

	active, err := repo.Get("active")
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyStatusDone, active.Status)
	assert.JSONEq(t, `{"success":true}`, string(active.ResponseBody))

	removed, err := repo.DeleteExpired(now, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = repo.Get("expired-old")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)

	removed, err = repo.DeleteExpired(now, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = repo.Get("active")
	require.NoError(t, err)
}

func TestIdempotencyRepository_ReleaseStale(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)

	for _, key := range []string{"stuck-1", "stuck-2", "finished"} {
		_, err := repo.CreateProcessing(key, "h", ttl)
		require.NoError(t, err)
	}
	require.NoError(t, repo.MarkFailed("finished", []byte(`{"error":"x"}`), 3))

	cutoff := time.Now().UTC().Add(time.Second)
	removed, err := repo.ReleaseStale(cutoff, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = repo.ReleaseStale(cutoff, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	record, err := repo.Get("finished")
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyStatusFailed, record.Status)

	removed, err = repo.ReleaseStale(time.Now().UTC().Add(-time.Hour), 0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
