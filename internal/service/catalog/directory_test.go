package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

type stubSuppliers struct {
	listCalls    int
	profileCalls int
	err          error
}

func (s *stubSuppliers) GetSupplier(_ context.Context, _, id string) (domain.SupplierProfile, error) {
	s.profileCalls++
	return domain.SupplierProfile{ID: id, Name: "Dairy"}, s.err
}

func (s *stubSuppliers) ListSuppliers(_ context.Context, _ string, req domain.PageRequest, query string) (domain.Page[domain.Supplier], error) {
	s.listCalls++
	if s.err != nil {
		return domain.Page[domain.Supplier]{}, s.err
	}
	return domain.Page[domain.Supplier]{
		Content: []domain.Supplier{{ID: query, Name: query}},
		Number:  req.Page,
		Size:    req.Size,
	}, nil
}

func TestDirectory_CachesByPageAndQuery(t *testing.T) {
	suppliers := &stubSuppliers{}
	dir := NewDirectory(suppliers, 0)
	ctx := context.Background()

	first, err := dir.Search(ctx, "tok", 0, "dai")
	require.NoError(t, err)
	second, err := dir.Search(ctx, "tok", 0, "dai")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, suppliers.listCalls)

	_, err = dir.Search(ctx, "tok", 1, "dai")
	require.NoError(t, err)
	_, err = dir.Search(ctx, "tok", 0, "dair")
	require.NoError(t, err)
	assert.Equal(t, 3, suppliers.listCalls)
	assert.Equal(t, 3, dir.Cached())
	assert.Equal(t, "0-dai", cacheKey(0, "dai"))
}

func TestDirectory_ErrorsAreNotCached(t *testing.T) {
	suppliers := &stubSuppliers{err: errors.New("down")}
	dir := NewDirectory(suppliers, 10)

	_, err := dir.Search(context.Background(), "tok", 0, "x")
	require.Error(t, err)
	suppliers.err = nil
	_, err = dir.Search(context.Background(), "tok", 0, "x")
	require.NoError(t, err)
	assert.Equal(t, 2, suppliers.listCalls)
}

func TestDirectory_Profile(t *testing.T) {
	suppliers := &stubSuppliers{}
	dir := NewDirectory(suppliers, 10)

	_, err := dir.Profile(context.Background(), "tok", "")
	assert.ErrorIs(t, err, domain.ErrSupplierRequired)
	assert.Zero(t, suppliers.profileCalls)

	profile, err := dir.Profile(context.Background(), "tok", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", profile.ID)
}
