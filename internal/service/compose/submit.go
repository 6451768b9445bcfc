package compose

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/service/dispatch"
	"github.com/vladislavdragonenkov/abasta/internal/service/orders"
)

// Результаты сохранения для метрик.
const (
	saveCreated = "created"
	saveUpdated = "updated"
	saveInvalid = "invalid"
	saveFailed  = "failed"
)

// SaveOutcome: результат сохранения. Ошибки сохранения лежат в Result, а не в error.
type SaveOutcome struct {
	View   View
	Result orders.Result
}

// DispatchOutcome: результат открытия диалога отправки.
type DispatchOutcome struct {
	View   View
	Result orders.Result
	// Opened: диалог открыт; только после успешного сохранения.
	Opened bool
}

// SendOutcome: результат отправки выбранным каналом.
type SendOutcome struct {
	View    View
	Outcome dispatch.Outcome
}

// Save сохраняет черновик на backend: create без OrderID, update с ним.
func (s *Service) Save(ctx context.Context, auth domain.AuthSession, id string) (SaveOutcome, error) {
	sess, rt, err := s.beginFlight(auth, id)
	if err != nil {
		return SaveOutcome{}, err
	}
	defer rt.busy.Store(false)

	saved, res, err := s.save(ctx, auth, sess)
	if err != nil {
		return SaveOutcome{}, err
	}
	return SaveOutcome{View: newView(saved), Result: res}, nil
}

// save выполняет сетевое сохранение вне блокировки сессии и переносит OrderID и статус
// в перечитанную сессию, не затирая правки, сделанные во время запроса.
func (s *Service) save(ctx context.Context, auth domain.AuthSession, sess domain.ComposeSession) (domain.ComposeSession, orders.Result, error) {
	draft := sess.Draft.Clone()
	method := domain.NotificationEmail
	if sess.Dispatch.Channel.Valid() {
		method = sess.Dispatch.Channel.NotificationMethod()
	}

	res := s.adapter.Save(ctx, auth, &draft, method)
	switch {
	case res.Success && res.Created:
		s.metrics.RecordSave(saveCreated)
	case res.Success:
		s.metrics.RecordSave(saveUpdated)
	case res.Validation():
		s.metrics.RecordSave(saveInvalid)
	default:
		s.metrics.RecordSave(saveFailed)
	}
	if !res.Success {
		return sess, res, nil
	}

	saved, err := s.mutate(auth, sess.ID, func(cur *domain.ComposeSession, _ *runtime) (bool, error) {
		cur.Draft.OrderID = draft.OrderID
		cur.Draft.Status = draft.Status
		return true, nil
	})
	if err != nil {
		return domain.ComposeSession{}, res, fmt.Errorf("store saved order id: %w", err)
	}

	reason := saveUpdated
	if res.Created {
		reason = saveCreated
	}
	s.record(saved, domain.TimelineDraftSaved, reason)
	s.emit(saved, EventOrderSaved, map[string]any{"created": res.Created})
	return saved, res, nil
}

// OpenDispatch сохраняет черновик и открывает диалог выбора канала.
// При ошибке сохранения диалог не открывается, сообщение возвращается в Result.
func (s *Service) OpenDispatch(ctx context.Context, auth domain.AuthSession, id string) (DispatchOutcome, error) {
	sess, rt, err := s.beginFlight(auth, id)
	if err != nil {
		return DispatchOutcome{}, err
	}
	defer rt.busy.Store(false)

	saved, res, err := s.save(ctx, auth, sess)
	if err != nil {
		return DispatchOutcome{}, err
	}
	if !res.Success {
		return DispatchOutcome{View: newView(saved), Result: res}, nil
	}

	var profile domain.SupplierProfile
	if saved.Supplier != nil && saved.Supplier.ID == saved.Draft.SupplierID {
		profile = *saved.Supplier
	} else {
		profile, err = rt.directory.Profile(ctx, auth.Token, saved.Draft.SupplierID)
		if err != nil {
			return DispatchOutcome{View: newView(saved), Result: res}, err
		}
		if profile.ID == "" {
			profile.ID = saved.Draft.SupplierID
		}
	}
	dialog, err := dispatch.NewDialog(saved.Draft.OrderID, profile)
	if err != nil {
		return DispatchOutcome{View: newView(saved), Result: res}, err
	}

	opened, err := s.mutate(auth, id, func(cur *domain.ComposeSession, _ *runtime) (bool, error) {
		if cur.Draft.OrderID != dialog.OrderID {
			return false, domain.ErrSessionVersionConflict
		}
		p := dialog.Supplier
		cur.Supplier = &p
		cur.Dispatch = domain.DispatchState{Open: true, OrderID: dialog.OrderID, Channel: dialog.Channel}
		return true, nil
	})
	if err != nil {
		return DispatchOutcome{View: newView(saved), Result: res}, err
	}
	return DispatchOutcome{View: newView(opened), Result: res, Opened: true}, nil
}

// SelectChannel выбирает канал в открытом диалоге. Недоступный канал не выбирается.
func (s *Service) SelectChannel(_ context.Context, auth domain.AuthSession, id string, channel domain.DispatchChannel) (View, error) {
	saved, err := s.mutate(auth, id, func(sess *domain.ComposeSession, _ *runtime) (bool, error) {
		dialog, err := dialogOf(*sess)
		if err != nil {
			return false, err
		}
		if err := dialog.Select(channel); err != nil {
			return false, err
		}
		if sess.Dispatch.Channel == dialog.Channel {
			return false, nil
		}
		sess.Dispatch.Channel = dialog.Channel
		return true, nil
	})
	if err != nil {
		return View{}, err
	}
	return newView(saved), nil
}

// Send отправляет сохранённый заказ выбранным каналом. Успешный email закрывает черновик,
// WhatsApp оставляет его открытым: внешнее действие не подтверждает доставку.
func (s *Service) Send(ctx context.Context, auth domain.AuthSession, id string) (SendOutcome, error) {
	sess, rt, err := s.beginFlight(auth, id)
	if err != nil {
		return SendOutcome{}, err
	}
	defer rt.busy.Store(false)

	dialog, err := dialogOf(sess)
	if err != nil {
		return SendOutcome{}, err
	}
	draft := sess.Draft.Clone()
	outcome := s.dispatcher.Dispatch(ctx, auth, dialog, &draft)

	result := "ok"
	if !outcome.Success {
		result = "failed"
	}
	s.metrics.RecordSend(string(dialog.Channel), result)

	logger := s.logger.WithFields(log.Fields{
		"session_id": id,
		"order_id":   dialog.OrderID,
		"channel":    dialog.Channel,
	})
	if !outcome.Success {
		logger.WithError(outcome.Err).Warn("dispatch failed")
		return SendOutcome{View: newView(sess), Outcome: outcome}, nil
	}

	if outcome.Finalized {
		final, err := s.finalize(auth, id, draft.Status)
		if err != nil {
			return SendOutcome{Outcome: outcome}, err
		}
		logger.Info("order sent by email, draft closed")
		return SendOutcome{View: newView(final), Outcome: outcome}, nil
	}

	s.record(sess, domain.TimelineWhatsAppOpened, outcome.Link)
	logger.Info("whatsapp link generated")
	return SendOutcome{View: newView(sess), Outcome: outcome}, nil
}

// finalize закрывает черновик после email-отправки и публикует order.sent.
func (s *Service) finalize(auth domain.AuthSession, id string, status domain.OrderStatus) (domain.ComposeSession, error) {
	rt := s.runtimeFor(id)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	sess, err := s.load(auth, id)
	if err != nil {
		return domain.ComposeSession{}, err
	}
	sess.Draft.Status = status
	sess.Dispatch.Open = false
	sess.Finalized = true

	s.record(sess, domain.TimelineOrderSent, string(domain.ChannelEmail))
	s.emit(sess, EventOrderSent, map[string]any{"channel": string(domain.ChannelEmail)})
	s.discard(sess, "sent")
	return sess, nil
}

// WhatsAppLink строит ссылку wa.me из открытого диалога отправки. Проверки те же, что у Send
// с каналом WhatsApp: сохранённый заказ, PENDING, непустой черновик, доступный канал.
func (s *Service) WhatsAppLink(ctx context.Context, auth domain.AuthSession, id string) (string, error) {
	sess, _, err := s.snapshot(auth, id)
	if err != nil {
		return "", err
	}
	dialog, err := dialogOf(sess)
	if err != nil {
		return "", err
	}
	if err := dialog.Select(domain.ChannelWhatsApp); err != nil {
		return "", err
	}

	draft := sess.Draft.Clone()
	outcome := s.dispatcher.Dispatch(ctx, auth, dialog, &draft)
	if !outcome.Success {
		s.metrics.RecordSend(string(domain.ChannelWhatsApp), "failed")
		return "", outcome.Err
	}
	s.metrics.RecordSend(string(domain.ChannelWhatsApp), "ok")
	s.record(sess, domain.TimelineWhatsAppOpened, outcome.Link)
	return outcome.Link, nil
}

// dialogOf восстанавливает диалог из сохранённого состояния.
func dialogOf(sess domain.ComposeSession) (dispatch.Dialog, error) {
	if !sess.Dispatch.Open || sess.Supplier == nil {
		return dispatch.Dialog{}, domain.ErrDispatchNotOpen
	}
	dialog, err := dispatch.NewDialog(sess.Dispatch.OrderID, *sess.Supplier)
	if err != nil {
		return dispatch.Dialog{}, err
	}
	if sess.Dispatch.Channel.Valid() {
		dialog.Channel = sess.Dispatch.Channel
	}
	return dialog, nil
}

// SyncOrderStatus применяет статус заказа с backend ко всем черновикам этого заказа.
// Возвращает число обновлённых сессий.
func (s *Service) SyncOrderStatus(_ context.Context, orderID string, status domain.OrderStatus) (int, error) {
	if orderID == "" {
		return 0, domain.NewValidationError("order id is required")
	}
	if !status.Valid() {
		return 0, domain.NewValidationError("unknown order status %q", status)
	}
	sessions, err := s.deps.Drafts.FindByOrderID(orderID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, found := range sessions {
		changed, err := s.syncOne(found.ID, orderID, status)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			return updated, err
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}

func (s *Service) syncOne(id, orderID string, status domain.OrderStatus) (bool, error) {
	rt := s.runtimeFor(id)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	sess, err := s.deps.Drafts.Get(id)
	if err != nil {
		return false, err
	}
	if sess.Draft.OrderID != orderID || sess.Draft.Status == status {
		return false, nil
	}
	sess.Draft.Status = status
	if !status.Editable() {
		sess.Dispatch.Open = false
	}
	saved, err := s.store(sess)
	if err != nil {
		return false, err
	}
	s.record(saved, domain.TimelineStatusSynced, string(status))
	s.logger.WithFields(log.Fields{
		"session_id": id,
		"order_id":   orderID,
		"status":     status,
	}).Info("order status synced")
	return true, nil
}
