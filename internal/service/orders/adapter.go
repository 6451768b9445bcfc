package orders

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// Сообщения об успехе, которые видит пользователь.
const (
	MessageCreated = "order saved successfully"
	MessageUpdated = "order updated successfully"
	MessageSent    = "order sent successfully"
)

// Result: итог сохранения или отправки. Ошибки не выходят за границу адаптера:
// Success=false и Message для пользователя, Err хранит классифицированную причину.
type Result struct {
	Success bool
	Message string
	OrderID string
	// Created: был выполнен create, а не update.
	Created bool
	Order   domain.Order
	Err     error
}

// Validation сообщает, что сохранение отклонено локально без сетевого вызова.
func (r Result) Validation() bool {
	return domain.IsValidation(r.Err)
}

func failure(err error) Result {
	return Result{Message: domain.UserMessage(err), Err: err}
}

// Adapter переводит черновик в create/update запросы к backend.
type Adapter struct {
	orders domain.OrderAPI
	logger *log.Entry
}

// NewAdapter создаёт адаптер.
func NewAdapter(orders domain.OrderAPI, logger *log.Entry) *Adapter {
	if logger == nil {
		logger = log.WithField("component", "order-adapter")
	}
	return &Adapter{orders: orders, logger: logger}
}

// Save создаёт заказ при пустом OrderID и обновляет его иначе.
// После успешного create идентификатор записывается в draft, поэтому повторный Save: это update.
func (a *Adapter) Save(ctx context.Context, auth domain.AuthSession, draft *domain.Draft, method domain.NotificationMethod) Result {
	if err := draft.ValidateForSave(); err != nil {
		return failure(err)
	}

	input := draft.Input(method)
	logger := a.logger.WithFields(log.Fields{
		"supplier_id": draft.SupplierID,
		"items":       len(input.Items),
	})

	if !draft.Persisted() {
		order, err := a.orders.CreateOrder(ctx, auth.Token, input)
		if err != nil {
			logger.WithError(err).Warn("create order failed")
			return failure(err)
		}
		if order.ID == "" {
			err := &domain.RequestError{Message: "backend did not return an order id"}
			logger.Warn("create order returned no id")
			return failure(err)
		}
		draft.OrderID = order.ID
		applyStatus(draft, order.Status)
		logger.WithField("order_id", order.ID).Info("order created")
		return Result{Success: true, Message: MessageCreated, OrderID: order.ID, Created: true, Order: order}
	}

	order, err := a.orders.UpdateOrder(ctx, auth.Token, draft.OrderID, input)
	if err != nil {
		logger.WithError(err).WithField("order_id", draft.OrderID).Warn("update order failed")
		return failure(err)
	}
	applyStatus(draft, order.Status)
	logger.WithField("order_id", draft.OrderID).Info("order updated")
	return Result{Success: true, Message: MessageUpdated, OrderID: draft.OrderID, Order: order}
}

// Send выполняет email-отправку сохранённого заказа.
// При ошибке черновик и его OrderID не меняются, повторная отправка не создаёт заказ заново.
func (a *Adapter) Send(ctx context.Context, auth domain.AuthSession, draft *domain.Draft) Result {
	if err := draft.ValidateForSave(); err != nil {
		return failure(err)
	}
	if !draft.Persisted() {
		return failure(domain.ErrDispatchNotOpen)
	}

	order, err := a.orders.SendOrder(ctx, auth.Token, draft.OrderID)
	if err != nil {
		a.logger.WithError(err).WithField("order_id", draft.OrderID).Warn("send order failed")
		return failure(err)
	}

	status := order.Status
	if !status.Valid() {
		status = domain.OrderStatusSent
	}
	draft.Status = status
	a.logger.WithFields(log.Fields{"order_id": draft.OrderID, "status": status}).Info("order sent")
	return Result{Success: true, Message: MessageSent, OrderID: draft.OrderID, Order: order}
}

func applyStatus(draft *domain.Draft, status domain.OrderStatus) {
	if status.Valid() {
		draft.Status = status
	}
}
