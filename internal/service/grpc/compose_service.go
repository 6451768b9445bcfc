package grpcsvc

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/metrics"
	"github.com/vladislavdragonenkov/abasta/internal/service/compose"
	"github.com/vladislavdragonenkov/abasta/internal/session"
	abastav1 "github.com/vladislavdragonenkov/abasta/proto/abasta/v1"
)

const authorizationHeader = "authorization"

// ComposeService реализует gRPC API поверх команд compose.Service.
type ComposeService struct {
	abastav1.UnimplementedComposeServiceServer

	compose  *compose.Service
	sessions *session.Manager
	idemRepo domain.IdempotencyRepository
	metrics  *metrics.ComposeMetrics
	logger   *log.Entry
	now      func() time.Time
}

var _ abastav1.ComposeServiceServer = (*ComposeService)(nil)

// NewComposeService конструирует сервис. idemRepo=nil отключает кэш SaveDraft/SendOrder.
func NewComposeService(
	composeSvc *compose.Service,
	sessions *session.Manager,
	idemRepo domain.IdempotencyRepository,
	m *metrics.ComposeMetrics,
	logger *log.Entry,
) *ComposeService {
	if logger == nil {
		logger = log.New().WithField("component", "compose-grpc")
	}
	return &ComposeService{
		compose:  composeSvc,
		sessions: sessions,
		idemRepo: idemRepo,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// authenticate находит сессию по bearer-токену из metadata.
func (s *ComposeService) authenticate(ctx context.Context) (domain.AuthSession, error) {
	token := session.BearerToken(firstMetadata(ctx, authorizationHeader))
	if token == "" {
		return domain.AuthSession{}, status.Error(codes.Unauthenticated, "authorization metadata is required")
	}
	auth, err := s.sessions.Resolve(token)
	if err != nil {
		return domain.AuthSession{}, status.Error(codes.Unauthenticated, domain.ErrUnauthenticated.Error())
	}
	return auth, nil
}

func requireDraftID(id string) error {
	if strings.TrimSpace(id) == "" {
		return status.Error(codes.InvalidArgument, "draft_id is required")
	}
	return nil
}

// Login аутентифицирует пользователя на backend и выдаёт токен для metadata.
func (s *ComposeService) Login(ctx context.Context, req *abastav1.LoginRequest) (*abastav1.LoginResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sess, err := s.sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(err, "Login")
	}
	return &abastav1.LoginResponse{
		Token:  sess.Token,
		UserID: sess.UserID,
		Email:  sess.Email,
		Name:   sess.Name,
		Role:   sess.Role,
	}, nil
}

// Logout завершает сессию; черновики пользователя удаляются подписчиком менеджера.
func (s *ComposeService) Logout(ctx context.Context, _ *abastav1.LogoutRequest) (*abastav1.LogoutResponse, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Logout(ctx, auth.Token); err != nil && errors.Is(err, domain.ErrUnauthenticated) {
		return nil, s.toStatus(err, "Logout")
	}
	return &abastav1.LogoutResponse{}, nil
}

// OpenDraft открывает черновик в режиме new, edit или duplicate.
func (s *ComposeService) OpenDraft(ctx context.Context, req *abastav1.OpenDraftRequest) (*abastav1.DraftResponse, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	mode := domain.ComposeMode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if mode == "" {
		mode = domain.ComposeModeNew
	}
	if !mode.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown mode %q", req.Mode)
	}
	view, err := s.compose.Open(ctx, auth, compose.OpenRequest{Mode: mode, SourceOrderID: strings.TrimSpace(req.SourceOrderID)})
	if err != nil {
		return nil, s.toStatus(err, "OpenDraft")
	}
	return &abastav1.DraftResponse{Draft: toWireDraft(view)}, nil
}

// GetDraft возвращает черновик.
func (s *ComposeService) GetDraft(ctx context.Context, req *abastav1.DraftRequest) (*abastav1.DraftResponse, error) {
	return s.draftCommand(ctx, req, "GetDraft", s.compose.Get)
}

// ListDrafts возвращает черновики пользователя.
func (s *ComposeService) ListDrafts(ctx context.Context, _ *abastav1.ListDraftsRequest) (*abastav1.ListDraftsResponse, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	views, err := s.compose.List(ctx, auth)
	if err != nil {
		return nil, s.toStatus(err, "ListDrafts")
	}
	return &abastav1.ListDraftsResponse{Drafts: toWireDrafts(views)}, nil
}

// CloseDraft закрывает черновик без сохранения.
func (s *ComposeService) CloseDraft(ctx context.Context, req *abastav1.DraftRequest) (*abastav1.CloseDraftResponse, error) {
	auth, id, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.compose.Close(ctx, auth, id); err != nil {
		return nil, s.toStatus(err, "CloseDraft")
	}
	return &abastav1.CloseDraftResponse{}, nil
}

// GetTimeline возвращает события черновика.
func (s *ComposeService) GetTimeline(ctx context.Context, req *abastav1.DraftRequest) (*abastav1.TimelineResponse, error) {
	auth, id, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	events, err := s.compose.Timeline(ctx, auth, id)
	if err != nil {
		return nil, s.toStatus(err, "GetTimeline")
	}
	return &abastav1.TimelineResponse{Events: toWireTimeline(events)}, nil
}

// SelectSupplier запрашивает смену поставщика; при непустом черновике ждёт подтверждения.
func (s *ComposeService) SelectSupplier(ctx context.Context, req *abastav1.SelectSupplierRequest) (*abastav1.SupplierChangeResponse, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireDraftID(req.DraftID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.SupplierID) == "" {
		return nil, status.Error(codes.InvalidArgument, "supplier_id is required")
	}
	out, err := s.compose.SelectSupplier(ctx, auth, req.DraftID, strings.TrimSpace(req.SupplierID))
	if err != nil {
		return nil, s.toStatus(err, "SelectSupplier")
	}
	return toSupplierChange(out), nil
}

// ConfirmSupplierChange применяет ожидающую смену поставщика.
func (s *ComposeService) ConfirmSupplierChange(ctx context.Context, req *abastav1.DraftRequest) (*abastav1.SupplierChangeResponse, error) {
	auth, id, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := s.compose.ConfirmSupplierChange(ctx, auth, id)
	if err != nil {
		return nil, s.toStatus(err, "ConfirmSupplierChange")
	}
	return toSupplierChange(out), nil
}

func toSupplierChange(out compose.SupplierOutcome) *abastav1.SupplierChangeResponse {
	resp := &abastav1.SupplierChangeResponse{
		Draft:    toWireDraft(out.View),
		Decision: string(out.Decision),
	}
	switch {
	case out.ProductsErr != nil:
		resp.ProductsError = domain.UserMessage(out.ProductsErr)
	case out.Decision != domain.GuardAwaitingConfirmation:
		page := toWireProductPage(out.Products)
		resp.Products = &page
	}
	return resp
}

// CancelSupplierChange отменяет ожидающую смену поставщика.
func (s *ComposeService) CancelSupplierChange(ctx context.Context, req *abastav1.DraftRequest) (*abastav1.DraftResponse, error) {
	return s.draftCommand(ctx, req, "CancelSupplierChange", s.compose.CancelSupplierChange)
}

// SearchSuppliers ищет поставщиков для автокомплита.
func (s *ComposeService) SearchSuppliers(ctx context.Context, req *abastav1.SearchSuppliersRequest) (*abastav1.SupplierPage, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireDraftID(req.DraftID); err != nil {
		return nil, err
	}
	page, err := s.compose.SearchSuppliers(ctx, auth, req.DraftID, req.Page, strings.TrimSpace(req.Query))
	if err != nil {
		return nil, s.toStatus(err, "SearchSuppliers")
	}
	return toWireSupplierPage(page), nil
}

// BrowseProducts меняет состояние каталога и возвращает страницу товаров.
// Вытесненный более новым запросом вызов отвечает Stale с последней принятой страницей.
func (s *ComposeService) BrowseProducts(ctx context.Context, req *abastav1.BrowseProductsRequest) (*abastav1.BrowseProductsResponse, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireDraftID(req.DraftID); err != nil {
		return nil, err
	}
	filter, err := fromWireFilter(req.Filter)
	if err != nil {
		return nil, err
	}
	action := compose.BrowseAction(strings.ToLower(strings.TrimSpace(req.Action)))
	if action == "" {
		action = compose.BrowseRefresh
	}

	res, err := s.compose.BrowseProducts(ctx, auth, req.DraftID, compose.BrowseRequest{
		Action: action,
		Page:   req.Page,
		Size:   req.Size,
		Text:   req.Text,
		Filter: filter,
	})
	if errors.Is(err, domain.ErrStaleResponse) {
		current, _, curErr := s.compose.Products(ctx, auth, req.DraftID)
		if curErr != nil {
			return nil, s.toStatus(curErr, "BrowseProducts")
		}
		return &abastav1.BrowseProductsResponse{
			Products: toWireProductPage(current.Products),
			Query:    toWireCatalogQuery(current.Query),
			Stale:    true,
		}, nil
	}
	if err != nil {
		return nil, s.toStatus(err, "BrowseProducts")
	}
	return &abastav1.BrowseProductsResponse{
		Products: toWireProductPage(res.Products),
		Query:    toWireCatalogQuery(res.Query),
	}, nil
}

// GetProducts возвращает последнюю принятую страницу каталога без запроса к backend.
func (s *ComposeService) GetProducts(ctx context.Context, req *abastav1.DraftRequest) (*abastav1.BrowseProductsResponse, error) {
	auth, id, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	res, _, err := s.compose.Products(ctx, auth, id)
	if err != nil {
		return nil, s.toStatus(err, "GetProducts")
	}
	return &abastav1.BrowseProductsResponse{
		Products: toWireProductPage(res.Products),
		Query:    toWireCatalogQuery(res.Query),
	}, nil
}

// AddProduct добавляет товар текущей страницы каталога; повторное добавление не меняет черновик.
func (s *ComposeService) AddProduct(ctx context.Context, req *abastav1.ItemRequest) (*abastav1.AddProductResponse, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireItem(req); err != nil {
		return nil, err
	}
	view, added, err := s.compose.AddProduct(ctx, auth, req.DraftID, req.ProductID)
	if err != nil {
		return nil, s.toStatus(err, "AddProduct")
	}
	return &abastav1.AddProductResponse{Draft: toWireDraft(view), Added: added}, nil
}

// UpdateItem меняет количество и заметку позиции.
func (s *ComposeService) UpdateItem(ctx context.Context, req *abastav1.UpdateItemRequest) (*abastav1.DraftResponse, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireItem(&abastav1.ItemRequest{DraftID: req.DraftID, ProductID: req.ProductID}); err != nil {
		return nil, err
	}
	view, err := s.compose.UpdateItem(ctx, auth, req.DraftID, req.ProductID, domain.ItemPatch{Quantity: req.Quantity, Notes: req.Notes})
	if err != nil {
		return nil, s.toStatus(err, "UpdateItem")
	}
	return &abastav1.DraftResponse{Draft: toWireDraft(view)}, nil
}

// IncrementItem увеличивает количество позиции на 1.
func (s *ComposeService) IncrementItem(ctx context.Context, req *abastav1.ItemRequest) (*abastav1.DraftResponse, error) {
	return s.itemCommand(ctx, req, "IncrementItem", s.compose.IncrementItem)
}

// DecrementItem уменьшает количество позиции на 1, не ниже 1.
func (s *ComposeService) DecrementItem(ctx context.Context, req *abastav1.ItemRequest) (*abastav1.DraftResponse, error) {
	return s.itemCommand(ctx, req, "DecrementItem", s.compose.DecrementItem)
}

// RemoveItem удаляет позицию.
func (s *ComposeService) RemoveItem(ctx context.Context, req *abastav1.ItemRequest) (*abastav1.DraftResponse, error) {
	return s.itemCommand(ctx, req, "RemoveItem", s.compose.RemoveItem)
}

// SetNotes задаёт заметки заказа.
func (s *ComposeService) SetNotes(ctx context.Context, req *abastav1.SetNotesRequest) (*abastav1.DraftResponse, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireDraftID(req.DraftID); err != nil {
		return nil, err
	}
	view, err := s.compose.SetNotes(ctx, auth, req.DraftID, req.Notes)
	if err != nil {
		return nil, s.toStatus(err, "SetNotes")
	}
	return &abastav1.DraftResponse{Draft: toWireDraft(view)}, nil
}

// SetName задаёт имя заказа.
func (s *ComposeService) SetName(ctx context.Context, req *abastav1.SetNameRequest) (*abastav1.DraftResponse, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireDraftID(req.DraftID); err != nil {
		return nil, err
	}
	view, err := s.compose.SetName(ctx, auth, req.DraftID, req.Name)
	if err != nil {
		return nil, s.toStatus(err, "SetName")
	}
	return &abastav1.DraftResponse{Draft: toWireDraft(view)}, nil
}

// SaveDraft сохраняет черновик на backend. Требует idempotency-key.
// Отказ backend или локальной валидации возвращается в ответе с Success=false.
func (s *ComposeService) SaveDraft(ctx context.Context, req *abastav1.DraftRequest) (*abastav1.SaveDraftResponse, error) {
	auth, id, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, abastav1.ComposeService_SaveDraft_FullMethodName, auth.UserID, req,
		func(ctx context.Context) (*abastav1.SaveDraftResponse, error) {
			out, err := s.compose.Save(ctx, auth, id)
			if err != nil {
				return nil, s.toStatus(err, "SaveDraft")
			}
			return &abastav1.SaveDraftResponse{
				Draft:   toWireDraft(out.View),
				Success: out.Result.Success,
				Message: out.Result.Message,
				OrderID: out.Result.OrderID,
				Created: out.Result.Created,
			}, nil
		})
}

// OpenDispatch сохраняет черновик и открывает диалог выбора канала.
func (s *ComposeService) OpenDispatch(ctx context.Context, req *abastav1.DraftRequest) (*abastav1.OpenDispatchResponse, error) {
	auth, id, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := s.compose.OpenDispatch(ctx, auth, id)
	if err != nil {
		return nil, s.toStatus(err, "OpenDispatch")
	}
	return &abastav1.OpenDispatchResponse{
		Draft:   toWireDraft(out.View),
		Opened:  out.Opened,
		Success: out.Result.Success,
		Message: out.Result.Message,
		OrderID: out.Result.OrderID,
	}, nil
}

// SelectChannel выбирает канал отправки в открытом диалоге.
func (s *ComposeService) SelectChannel(ctx context.Context, req *abastav1.SelectChannelRequest) (*abastav1.DraftResponse, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireDraftID(req.DraftID); err != nil {
		return nil, err
	}
	channel := domain.DispatchChannel(strings.ToLower(strings.TrimSpace(req.Channel)))
	view, err := s.compose.SelectChannel(ctx, auth, req.DraftID, channel)
	if err != nil {
		return nil, s.toStatus(err, "SelectChannel")
	}
	return &abastav1.DraftResponse{Draft: toWireDraft(view)}, nil
}

// SendOrder отправляет заказ выбранным каналом. Требует idempotency-key.
func (s *ComposeService) SendOrder(ctx context.Context, req *abastav1.DraftRequest) (*abastav1.SendOrderResponse, error) {
	auth, id, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, abastav1.ComposeService_SendOrder_FullMethodName, auth.UserID, req,
		func(ctx context.Context) (*abastav1.SendOrderResponse, error) {
			out, err := s.compose.Send(ctx, auth, id)
			if err != nil {
				return nil, s.toStatus(err, "SendOrder")
			}
			return &abastav1.SendOrderResponse{
				Draft:     toWireDraft(out.View),
				Success:   out.Outcome.Success,
				Channel:   string(out.Outcome.Channel),
				OrderID:   out.Outcome.OrderID,
				Finalized: out.Outcome.Finalized,
				Redirect:  out.Outcome.Redirect,
				Link:      out.Outcome.Link,
				Message:   out.Outcome.Message,
			}, nil
		})
}

// GetWhatsAppLink строит wa.me ссылку сохранённого заказа.
func (s *ComposeService) GetWhatsAppLink(ctx context.Context, req *abastav1.DraftRequest) (*abastav1.WhatsAppLinkResponse, error) {
	auth, id, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	link, err := s.compose.WhatsAppLink(ctx, auth, id)
	if err != nil {
		return nil, s.toStatus(err, "GetWhatsAppLink")
	}
	return &abastav1.WhatsAppLinkResponse{Link: link}, nil
}

// begin аутентифицирует вызов и проверяет идентификатор черновика.
func (s *ComposeService) begin(ctx context.Context, req *abastav1.DraftRequest) (domain.AuthSession, string, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return domain.AuthSession{}, "", err
	}
	if req == nil {
		return domain.AuthSession{}, "", status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireDraftID(req.DraftID); err != nil {
		return domain.AuthSession{}, "", err
	}
	return auth, strings.TrimSpace(req.DraftID), nil
}

type draftFunc func(ctx context.Context, auth domain.AuthSession, id string) (compose.View, error)

func (s *ComposeService) draftCommand(ctx context.Context, req *abastav1.DraftRequest, operation string, fn draftFunc) (*abastav1.DraftResponse, error) {
	auth, id, err := s.begin(ctx, req)
	if err != nil {
		return nil, err
	}
	view, err := fn(ctx, auth, id)
	if err != nil {
		return nil, s.toStatus(err, operation)
	}
	return &abastav1.DraftResponse{Draft: toWireDraft(view)}, nil
}

type itemFunc func(ctx context.Context, auth domain.AuthSession, id, productID string) (compose.View, error)

func (s *ComposeService) itemCommand(ctx context.Context, req *abastav1.ItemRequest, operation string, fn itemFunc) (*abastav1.DraftResponse, error) {
	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireItem(req); err != nil {
		return nil, err
	}
	view, err := fn(ctx, auth, req.DraftID, req.ProductID)
	if err != nil {
		return nil, s.toStatus(err, operation)
	}
	return &abastav1.DraftResponse{Draft: toWireDraft(view)}, nil
}

func requireItem(req *abastav1.ItemRequest) error {
	if req == nil {
		return status.Error(codes.InvalidArgument, "request is required")
	}
	if err := requireDraftID(req.DraftID); err != nil {
		return err
	}
	if strings.TrimSpace(req.ProductID) == "" {
		return status.Error(codes.InvalidArgument, "product_id is required")
	}
	return nil
}
