package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

func TestIdempotencyRepository_PostgresCreateGetAndMarkDone(t *testing.T) {
	store := openPostgresStoreForIdempotencyTest(t)
	repo := NewIdempotencyRepository(store)

	key := "save-draft-key-done"
	hash := "req-hash-1"
	ttl := time.Now().UTC().Add(2 * time.Hour).Round(time.Second)

	created, err := repo.CreateProcessing(key, hash, ttl)
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusProcessing, created.Status)

	err = repo.MarkDone(key, []byte(`{"result":"ok"}`), 0)
	require.NoError(t, err)

	got, err := repo.Get(key)
	require.NoError(t, err)
	require.Equal(t, hash, got.RequestHash)
	require.Equal(t, domain.IdempotencyStatusDone, got.Status)
	require.Equal(t, 0, got.ResultCode)
	require.JSONEq(t, `{"result":"ok"}`, string(got.ResponseBody))
	require.True(t, got.TTLAt.Equal(ttl), "ttl mismatch: expected %s, got %s", ttl, got.TTLAt)
}

func TestIdempotencyRepository_PostgresConflictAndHashMismatch(t *testing.T) {
	store := openPostgresStoreForIdempotencyTest(t)
	repo := NewIdempotencyRepository(store)

	ttl := time.Now().UTC().Add(time.Hour)
	_, err := repo.CreateProcessing("idem-test-key-conflict", "req-hash-a", ttl)
	require.NoError(t, err)

	_, err = repo.CreateProcessing("idem-test-key-conflict", "req-hash-a", ttl)
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists))

	_, err = repo.CreateProcessing("idem-test-key-conflict", "req-hash-b", ttl)
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrIdempotencyHashMismatch))
}

func TestIdempotencyRepository_PostgresExpiredKeyIsReusable(t *testing.T) {
	store := openPostgresStoreForIdempotencyTest(t)
	repo := NewIdempotencyRepository(store)

	_, err := repo.CreateProcessing("send-order-key", "hash-old", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.MarkFailed("send-order-key", []byte(`{"error":"unavailable"}`), 14))

	created, err := repo.CreateProcessing("send-order-key", "hash-new", time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusProcessing, created.Status)

	got, err := repo.Get("send-order-key")
	require.NoError(t, err)
	require.Equal(t, "hash-new", got.RequestHash)
	require.Empty(t, got.ResponseBody)
	require.Equal(t, 0, got.ResultCode)
}

func TestIdempotencyRepository_PostgresMarkMissingKey(t *testing.T) {
	store := openPostgresStoreForIdempotencyTest(t)
	repo := NewIdempotencyRepository(store)

	require.ErrorIs(t, repo.MarkDone("missing-key", nil, 0), domain.ErrIdempotencyKeyNotFound)
	require.ErrorIs(t, repo.MarkDone(" ", nil, 0), domain.ErrIdempotencyKeyRequired)
}

func TestIdempotencyRepository_PostgresDeleteExpired(t *testing.T) {
	store := openPostgresStoreForIdempotencyTest(t)
	repo := NewIdempotencyRepository(store)

	now := time.Now().UTC()
	_, err := repo.CreateProcessing("idem-expired-1", "h1", now.Add(-5*time.Minute))
	require.NoError(t, err)
	_, err = repo.CreateProcessing("idem-expired-2", "h2", now.Add(-4*time.Minute))
	require.NoError(t, err)
	_, err = repo.CreateProcessing("idem-expired-3", "h3", now.Add(-3*time.Minute))
	require.NoError(t, err)
	_, err = repo.CreateProcessing("idem-active-1", "h4", now.Add(time.Hour))
	require.NoError(t, err)

	removed, err := repo.DeleteExpired(now, 2)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	removed, err = repo.DeleteExpired(now, 10)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = repo.Get("idem-active-1")
	require.NoError(t, err)
}

func TestIdempotencyRepository_PostgresReleaseStale(t *testing.T) {
	store := openPostgresStoreForIdempotencyTest(t)
	repo := NewIdempotencyRepository(store)

	ttl := time.Now().UTC().Add(time.Hour)
	_, err := repo.CreateProcessing("idem-stuck-1", "h1", ttl)
	require.NoError(t, err)
	_, err = repo.CreateProcessing("idem-stuck-2", "h2", ttl)
	require.NoError(t, err)
	_, err = repo.CreateProcessing("idem-done-1", "h3", ttl)
	require.NoError(t, err)
	require.NoError(t, repo.MarkDone("idem-done-1", []byte(`{}`), 0))

	cutoff := time.Now().UTC().Add(time.Second)
	removed, err := repo.ReleaseStale(cutoff, 1)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	removed, err = repo.ReleaseStale(cutoff, 0)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = repo.Get("idem-done-1")
	require.NoError(t, err)
	_, err = repo.Get("idem-stuck-2")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
}

func openPostgresStoreForIdempotencyTest(t *testing.T) *Store {
	t.Helper()

	store := openPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := store.DB().ExecContext(ctx, `TRUNCATE TABLE idempotency_keys`)
	require.NoError(t, err)

	return store
}
