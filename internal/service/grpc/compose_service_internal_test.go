package grpcsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/service/compose"
	"github.com/vladislavdragonenkov/abasta/internal/storage/memory"
	abastav1 "github.com/vladislavdragonenkov/abasta/proto/abasta/v1"
)

func quietService() *ComposeService {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return NewComposeService(nil, nil, memory.NewIdempotencyRepository(), nil, log.NewEntry(logger))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{"not editable", domain.ErrOrderNotEditable, codes.FailedPrecondition, domain.ErrOrderNotEditable.Message},
		{"validation", domain.ErrItemsRequired, codes.InvalidArgument, domain.ErrItemsRequired.Message},
		{"wrapped validation", fmt.Errorf("save: %w", domain.NewValidationError("bad %s", "input")), codes.InvalidArgument, "bad input"},
		{"unauthenticated", domain.ErrUnauthenticated, codes.Unauthenticated, domain.ErrUnauthenticated.Error()},
		{"forbidden", domain.ErrSessionForbidden, codes.PermissionDenied, domain.ErrSessionForbidden.Error()},
		{"not found", domain.ErrSessionNotFound, codes.NotFound, domain.ErrSessionNotFound.Error()},
		{"conflict", fmt.Errorf("store: %w", domain.ErrSessionVersionConflict), codes.Aborted, domain.ErrSessionVersionConflict.Error()},
		{"busy", domain.ErrOperationInProgress, codes.Aborted, domain.ErrOperationInProgress.Error()},
		{"backend message", &domain.RequestError{StatusCode: 500, Message: "supplier is blocked"}, codes.Unavailable, "supplier is blocked"},
		{"backend fallback", &domain.RequestError{Err: errors.New("dial tcp")}, codes.Unavailable, domain.FallbackRequestMessage},
		{"backend 401", &domain.RequestError{StatusCode: 401}, codes.Unauthenticated, domain.FallbackRequestMessage},
		{"backend 404", &domain.RequestError{StatusCode: 404, Message: "order not found"}, codes.NotFound, "order not found"},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded, "request deadline exceeded"},
		{"unknown", errors.New("boom"), codes.Internal, domain.FallbackRequestMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, msg := classify(tc.err)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.msg, msg)
		})
	}
}

func TestToStatusKeepsExistingStatus(t *testing.T) {
	s := quietService()
	original := status.Error(codes.InvalidArgument, "draft_id is required")
	assert.Equal(t, original, s.toStatus(original, "op"))
	assert.NoError(t, s.toStatus(nil, "op"))
}

func TestDecodeIdempotencyFailure(t *testing.T) {
	payload, err := json.Marshal(idempotencyErrorPayload{Code: int32(codes.Unavailable), Message: "backend down"})
	require.NoError(t, err)

	st := status.Convert(decodeIdempotencyFailure(domain.IdempotencyRecord{ResponseBody: payload}))
	assert.Equal(t, codes.Unavailable, st.Code())
	assert.Equal(t, "backend down", st.Message())

	st = status.Convert(decodeIdempotencyFailure(domain.IdempotencyRecord{ResultCode: int(codes.Aborted)}))
	assert.Equal(t, codes.Aborted, st.Code())

	st = status.Convert(decodeIdempotencyFailure(domain.IdempotencyRecord{ResponseBody: []byte("{"), ResultCode: 999}))
	assert.Equal(t, codes.Internal, st.Code())
}

func TestWithIdempotencyFailureReplay(t *testing.T) {
	s := quietService()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(idempotencyKeyHeader, "k-1"))
	req := &abastav1.DraftRequest{DraftID: "d-1"}

	calls := 0
	handler := func(context.Context) (*abastav1.SendOrderResponse, error) {
		calls++
		return nil, status.Error(codes.Unavailable, "backend down")
	}

	_, err := withIdempotency(s, ctx, abastav1.ComposeService_SendOrder_FullMethodName, "u1", req, handler)
	assert.Equal(t, codes.Unavailable, status.Code(err))

	_, err = withIdempotency(s, ctx, abastav1.ComposeService_SendOrder_FullMethodName, "u1", req, handler)
	st := status.Convert(err)
	assert.Equal(t, codes.Unavailable, st.Code())
	assert.Equal(t, "backend down", st.Message())
	assert.Equal(t, 1, calls)

	// Тот же ключ другого пользователя обрабатывается независимо.
	_, err = withIdempotency(s, ctx, abastav1.ComposeService_SendOrder_FullMethodName, "u2", req, handler)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, 2, calls)
}

func TestWithIdempotencyProcessing(t *testing.T) {
	s := quietService()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(idempotencyKeyHeader, "k-2"))
	req := &abastav1.DraftRequest{DraftID: "d-1"}

	hash, err := buildIdempotencyRequestHash(abastav1.ComposeService_SaveDraft_FullMethodName, req)
	require.NoError(t, err)
	_, err = s.idemRepo.CreateProcessing("u1:k-2", hash, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = withIdempotency(s, ctx, abastav1.ComposeService_SaveDraft_FullMethodName, "u1", req,
		func(context.Context) (*abastav1.SaveDraftResponse, error) {
			t.Fatal("handler must not run while the key is processing")
			return nil, nil
		})
	assert.Equal(t, codes.Aborted, status.Code(err))
}

func TestBuildIdempotencyRequestHash(t *testing.T) {
	a, err := buildIdempotencyRequestHash("m", &abastav1.DraftRequest{DraftID: "d-1"})
	require.NoError(t, err)
	b, err := buildIdempotencyRequestHash("m", &abastav1.DraftRequest{DraftID: "d-1"})
	require.NoError(t, err)
	c, err := buildIdempotencyRequestHash("other", &abastav1.DraftRequest{DraftID: "d-1"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = buildIdempotencyRequestHash("m", nil)
	assert.Error(t, err)
}

func TestToWireDraft(t *testing.T) {
	price := decimal.RequireFromString("2.5")
	view := compose.View{
		Session: domain.ComposeSession{
			ID:   "d-1",
			Mode: domain.ComposeModeEdit,
			Draft: domain.Draft{
				OrderID:    "O1",
				Name:       "Order Acme",
				SupplierID: "S1",
				Status:     domain.OrderStatusPending,
				Items: []domain.LineItem{{
					ProductID: "P2", ProductName: "Bread", Quantity: 3,
					UnitPrice: price, Subtotal: price.Mul(decimal.NewFromInt(3)),
				}},
			},
			Supplier: &domain.SupplierProfile{ID: "S1", Name: "Acme", Email: "a@test"},
			Dispatch: domain.DispatchState{Open: true, OrderID: "O1", Channel: domain.ChannelEmail},
			Catalog:  domain.NewCatalogQuery(),
		},
		Total:    decimal.RequireFromString("7.5"),
		Channels: map[domain.DispatchChannel]bool{domain.ChannelEmail: true, domain.ChannelWhatsApp: false},
	}

	out := toWireDraft(view)
	assert.Equal(t, "7.50", out.Total)
	assert.Equal(t, "2.50", out.Items[0].UnitPrice)
	assert.Equal(t, "7.50", out.Items[0].Subtotal)
	assert.Equal(t, string(domain.GuardIdle), out.Guard.State)
	require.NotNil(t, out.Dispatch)
	assert.Equal(t, map[string]bool{"email": true, "whatsapp": false}, out.Dispatch.Channels)
	assert.Equal(t, "listing", out.Catalog.Mode)
	assert.Nil(t, out.Catalog.Filter)
}
