package orders

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

type mockOrderAPI struct {
	mock.Mock
}

func (m *mockOrderAPI) CreateOrder(ctx context.Context, token string, input domain.OrderInput) (domain.Order, error) {
	args := m.Called(ctx, token, input)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *mockOrderAPI) UpdateOrder(ctx context.Context, token, orderID string, input domain.OrderInput) (domain.Order, error) {
	args := m.Called(ctx, token, orderID, input)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *mockOrderAPI) SendOrder(ctx context.Context, token, orderID string) (domain.Order, error) {
	args := m.Called(ctx, token, orderID)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *mockOrderAPI) GetOrder(ctx context.Context, token, orderID string) (domain.Order, error) {
	args := m.Called(ctx, token, orderID)
	return args.Get(0).(domain.Order), args.Error(1)
}

var auth = domain.AuthSession{Token: "tok", UserID: "u1"}

func quietLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

func readyDraft() domain.Draft {
	d := domain.NewDraft()
	d.SupplierID = "s1"
	d.Name = "Order Dairy"
	_, _ = d.AddItem(domain.Product{ID: "p1", Name: "Milk", Price: decimal.NewFromInt(10)})
	return d
}

func TestAdapter_ValidationBeforeNetwork(t *testing.T) {
	cases := []struct {
		name string
		mut  func(d *domain.Draft)
		msg  string
	}{
		{name: "no supplier", mut: func(d *domain.Draft) { d.SupplierID = "" }, msg: "select a supplier"},
		{name: "no items", mut: func(d *domain.Draft) { d.Items = nil }, msg: "add at least one product"},
		{name: "not pending", mut: func(d *domain.Draft) { d.OrderID = "o1"; d.Status = domain.OrderStatusConfirmed }, msg: "only PENDING orders are editable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &mockOrderAPI{}
			adapter := NewAdapter(api, quietLogger())
			d := readyDraft()
			tc.mut(&d)

			res := adapter.Save(context.Background(), auth, &d, domain.NotificationEmail)
			assert.False(t, res.Success)
			assert.True(t, res.Validation())
			assert.Equal(t, tc.msg, res.Message)

			res = adapter.Send(context.Background(), auth, &d)
			assert.False(t, res.Success)
			assert.True(t, res.Validation())

			api.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
			api.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			api.AssertNotCalled(t, "SendOrder", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAdapter_SaveTwiceCreatesThenUpdates(t *testing.T) {
	api := &mockOrderAPI{}
	api.On("CreateOrder", mock.Anything, "tok", mock.MatchedBy(func(in domain.OrderInput) bool {
		return in.SupplierID == "s1" && len(in.Items) == 1 && in.Items[0].ProductID == "p1"
	})).Return(domain.Order{ID: "o1", Status: domain.OrderStatusPending}, nil).Once()
	api.On("UpdateOrder", mock.Anything, "tok", "o1", mock.AnythingOfType("domain.OrderInput")).
		Return(domain.Order{ID: "o1", Status: domain.OrderStatusPending}, nil).Once()

	adapter := NewAdapter(api, quietLogger())
	d := readyDraft()

	first := adapter.Save(context.Background(), auth, &d, domain.NotificationEmail)
	require.True(t, first.Success)
	assert.True(t, first.Created)
	assert.Equal(t, "o1", first.OrderID)
	assert.Equal(t, "o1", d.OrderID)

	second := adapter.Save(context.Background(), auth, &d, domain.NotificationEmail)
	require.True(t, second.Success)
	assert.False(t, second.Created)
	assert.Equal(t, MessageUpdated, second.Message)

	api.AssertExpectations(t)
	api.AssertNumberOfCalls(t, "CreateOrder", 1)
}

func TestAdapter_ServerFailureKeepsDraft(t *testing.T) {
	api := &mockOrderAPI{}
	api.On("CreateOrder", mock.Anything, "tok", mock.Anything).
		Return(domain.Order{}, &domain.RequestError{StatusCode: 422, Message: "supplier is inactive"}).Once()

	adapter := NewAdapter(api, quietLogger())
	d := readyDraft()
	before := d.Clone()

	res := adapter.Save(context.Background(), auth, &d, domain.NotificationEmail)
	assert.False(t, res.Success)
	assert.False(t, res.Validation())
	assert.Equal(t, "supplier is inactive", res.Message)
	assert.Empty(t, d.OrderID)
	assert.Equal(t, before.Items, d.Items)
}

func TestAdapter_CreateWithoutIDFails(t *testing.T) {
	api := &mockOrderAPI{}
	api.On("CreateOrder", mock.Anything, "tok", mock.Anything).Return(domain.Order{}, nil).Once()

	adapter := NewAdapter(api, quietLogger())
	d := readyDraft()

	res := adapter.Save(context.Background(), auth, &d, domain.NotificationEmail)
	assert.False(t, res.Success)
	assert.Empty(t, d.OrderID)
}

func TestAdapter_Send(t *testing.T) {
	api := &mockOrderAPI{}
	api.On("SendOrder", mock.Anything, "tok", "o1").
		Return(domain.Order{}, &domain.RequestError{StatusCode: 502}).Once()
	api.On("SendOrder", mock.Anything, "tok", "o1").
		Return(domain.Order{ID: "o1", Status: domain.OrderStatusSent}, nil).Once()

	adapter := NewAdapter(api, quietLogger())
	d := readyDraft()

	res := adapter.Send(context.Background(), auth, &d)
	assert.ErrorIs(t, res.Err, domain.ErrDispatchNotOpen)

	d.OrderID = "o1"
	res = adapter.Send(context.Background(), auth, &d)
	assert.False(t, res.Success)
	assert.Equal(t, domain.FallbackRequestMessage, res.Message)
	assert.Equal(t, "o1", d.OrderID, "failed send must keep the persisted id")
	assert.Equal(t, domain.OrderStatusPending, d.Status)

	res = adapter.Send(context.Background(), auth, &d)
	require.True(t, res.Success)
	assert.Equal(t, MessageSent, res.Message)
	assert.Equal(t, domain.OrderStatusSent, d.Status)
	api.AssertExpectations(t)
}
