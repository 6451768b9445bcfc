package memory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/storage/memory"
)

func newSession(id, owner string) domain.ComposeSession {
	now := time.Now().UTC()
	draft := domain.NewDraft()
	draft.SupplierID = "S1"
	_, _ = draft.AddItem(domain.Product{ID: "P1", Name: "Milk", Price: decimal.NewFromInt(10)})
	return domain.ComposeSession{
		ID:        id,
		OwnerID:   owner,
		Mode:      domain.ComposeModeNew,
		Draft:     draft,
		Catalog:   domain.NewCatalogQuery(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestDraftRepository_CreateGet(t *testing.T) {
	repo := memory.NewDraftRepository()
	sess := newSession("sess-1", "user-1")

	require.NoError(t, repo.Create(sess))
	require.ErrorIs(t, repo.Create(sess), domain.ErrSessionVersionConflict)

	stored, err := repo.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, stored.ID)
	assert.True(t, stored.Draft.Total().Equal(decimal.NewFromInt(10)))

	_, err = repo.Get("missing")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestDraftRepository_GetReturnsCopy(t *testing.T) {
	repo := memory.NewDraftRepository()
	require.NoError(t, repo.Create(newSession("sess-1", "user-1")))

	stored, err := repo.Get("sess-1")
	require.NoError(t, err)
	stored.Draft.Items[0].Quantity = 99

	again, err := repo.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Draft.Items[0].Quantity)
}

func TestDraftRepository_SaveVersion(t *testing.T) {
	repo := memory.NewDraftRepository()
	require.NoError(t, repo.Create(newSession("sess-1", "user-1")))

	stored, err := repo.Get("sess-1")
	require.NoError(t, err)
	stored.Draft.Name = "Order Acme"
	require.NoError(t, repo.Save(stored))

	updated, err := repo.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Order Acme", updated.Draft.Name)
	assert.Equal(t, stored.Version+1, updated.Version)

	// Повторное сохранение со старой версией: конфликт.
	require.ErrorIs(t, repo.Save(stored), domain.ErrSessionVersionConflict)
	require.ErrorIs(t, repo.Save(newSession("missing", "user-1")), domain.ErrSessionNotFound)
}

func TestDraftRepository_ListAndFind(t *testing.T) {
	repo := memory.NewDraftRepository()
	first := newSession("sess-1", "user-1")
	second := newSession("sess-2", "user-1")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	second.Draft.OrderID = "O1"
	other := newSession("sess-3", "user-2")
	for _, s := range []domain.ComposeSession{first, second, other} {
		require.NoError(t, repo.Create(s))
	}

	owned, err := repo.ListByOwner("user-1")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "sess-2", owned[0].ID)

	found, err := repo.FindByOrderID("O1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "sess-2", found[0].ID)

	none, err := repo.FindByOrderID("")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, repo.Delete("sess-1"))
	require.ErrorIs(t, repo.Delete("sess-1"), domain.ErrSessionNotFound)
}
