package compose

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// OpenRequest описывает, как открыть черновик.
type OpenRequest struct {
	Mode          domain.ComposeMode
	SourceOrderID string
}

// Open создаёт сессию составления заказа: пустую, для редактирования или копию существующего заказа.
func (s *Service) Open(ctx context.Context, auth domain.AuthSession, req OpenRequest) (View, error) {
	if !auth.Valid() {
		return View{}, domain.ErrUnauthenticated
	}
	if req.Mode == "" {
		req.Mode = domain.ComposeModeNew
	}
	if !req.Mode.Valid() {
		return View{}, domain.NewValidationError("unknown compose mode %q", req.Mode)
	}

	draft := domain.NewDraft()
	if req.Mode != domain.ComposeModeNew {
		if req.SourceOrderID == "" {
			return View{}, domain.ErrSourceOrderRequired
		}
		order, err := s.deps.Orders.GetOrder(ctx, auth.Token, req.SourceOrderID)
		if err != nil {
			return View{}, err
		}
		if req.Mode == domain.ComposeModeEdit {
			draft = domain.DraftFromOrder(order)
		} else {
			draft = domain.DuplicateOrder(order)
		}
	}

	now := s.now().UTC()
	sess := domain.ComposeSession{
		ID:        s.newID(),
		OwnerID:   auth.UserID,
		Mode:      req.Mode,
		Draft:     draft,
		Guard:     domain.SupplierGuard{State: domain.GuardIdle},
		Catalog:   domain.NewCatalogQuery(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Mode != domain.ComposeModeNew {
		sess.SourceOrderID = req.SourceOrderID
	}
	sess.Catalog.Size = s.pageSize
	sess.Catalog.SupplierID = draft.SupplierID

	if draft.SupplierID != "" {
		profile, err := s.deps.Suppliers.GetSupplier(ctx, auth.Token, draft.SupplierID)
		if err != nil {
			// Без профиля черновик остаётся рабочим; профиль запрашивается повторно при отправке.
			s.logger.WithError(err).WithField("supplier_id", draft.SupplierID).Warn("load supplier profile failed")
		} else {
			sess.Supplier = &profile
			sess.Draft.DefaultName(profile.Name)
		}
	}

	if err := s.deps.Drafts.Create(sess); err != nil {
		return View{}, err
	}

	s.metrics.RecordDraftOpened(string(req.Mode))
	s.record(sess, domain.TimelineDraftOpened, string(req.Mode))
	s.logger.WithFields(log.Fields{
		"session_id": sess.ID,
		"mode":       sess.Mode,
		"order_id":   sess.Draft.OrderID,
	}).Info("compose session opened")
	return newView(sess), nil
}

// Get возвращает текущее состояние черновика.
func (s *Service) Get(_ context.Context, auth domain.AuthSession, id string) (View, error) {
	sess, _, err := s.snapshot(auth, id)
	if err != nil {
		return View{}, err
	}
	return newView(sess), nil
}

// List возвращает черновики пользователя.
func (s *Service) List(_ context.Context, auth domain.AuthSession) ([]View, error) {
	if !auth.Valid() {
		return nil, domain.ErrUnauthenticated
	}
	sessions, err := s.deps.Drafts.ListByOwner(auth.UserID)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, newView(sess))
	}
	return views, nil
}

// Close отбрасывает черновик без сохранения.
func (s *Service) Close(_ context.Context, auth domain.AuthSession, id string) error {
	rt := s.runtimeFor(id)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	sess, err := s.load(auth, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.dropRuntime(id)
		}
		return err
	}
	if rt.busy.Load() {
		return domain.ErrOperationInProgress
	}
	s.discard(sess, "closed")
	return nil
}

// discard удаляет сессию из хранилища и освобождает её runtime. Вызывается под rt.mu.
func (s *Service) discard(sess domain.ComposeSession, reason string) {
	if err := s.deps.Drafts.Delete(sess.ID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		s.logger.WithError(err).WithField("session_id", sess.ID).Error("delete compose session failed")
	}
	s.dropRuntime(sess.ID)
	s.metrics.RecordDraftClosed()
	s.record(sess, domain.TimelineDraftClosed, reason)
	s.logger.WithFields(log.Fields{
		"session_id": sess.ID,
		"reason":     reason,
	}).Info("compose session closed")
}

// DropOwner закрывает все черновики пользователя. Возвращает число закрытых сессий.
func (s *Service) DropOwner(_ context.Context, ownerID string) (int, error) {
	sessions, err := s.deps.Drafts.ListByOwner(ownerID)
	if err != nil {
		return 0, err
	}
	dropped := 0
	for _, sess := range sessions {
		rt := s.runtimeFor(sess.ID)
		rt.mu.Lock()
		s.discard(sess, "logout")
		rt.mu.Unlock()
		dropped++
	}
	return dropped, nil
}

// OnLogout закрывает черновики пользователя при выходе.
func (s *Service) OnLogout(ctx context.Context, auth domain.AuthSession) {
	dropped, err := s.DropOwner(ctx, auth.UserID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", auth.UserID).Error("drop drafts on logout failed")
		return
	}
	if dropped > 0 {
		s.logger.WithFields(log.Fields{"user_id": auth.UserID, "dropped": dropped}).Info("drafts dropped on logout")
	}
}

// Timeline возвращает события черновика.
func (s *Service) Timeline(_ context.Context, auth domain.AuthSession, id string) ([]domain.TimelineEvent, error) {
	if _, _, err := s.snapshot(auth, id); err != nil {
		return nil, err
	}
	if s.deps.Timeline == nil {
		return nil, nil
	}
	return s.deps.Timeline.List(id)
}
