package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа поставщику на стороне backend.
type OrderStatus string

const (
	// OrderStatusPending: заказ создан и ещё может редактироваться и отправляться.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusSent: заказ отправлен поставщику.
	OrderStatusSent OrderStatus = "SENT"
	// OrderStatusConfirmed: поставщик подтвердил заказ.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	// OrderStatusRejected: поставщик отклонил заказ.
	OrderStatusRejected OrderStatus = "REJECTED"
	// OrderStatusCompleted: заказ получен и закрыт.
	OrderStatusCompleted OrderStatus = "COMPLETED"
	// OrderStatusCancelled: заказ отменён компанией.
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusDeleted: заказ удалён (soft delete).
	OrderStatusDeleted OrderStatus = "DELETED"
)

// Valid проверяет, что статус относится к известным значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusSent, OrderStatusConfirmed, OrderStatusRejected,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusDeleted:
		return true
	default:
		return false
	}
}

// Editable сообщает, можно ли редактировать и отправлять заказ в этом статусе.
func (s OrderStatus) Editable() bool {
	return s == OrderStatusPending
}

// NotificationMethod: канал, которым заказ доставляется поставщику.
type NotificationMethod string

const (
	NotificationEmail    NotificationMethod = "EMAIL"
	NotificationWhatsApp NotificationMethod = "WHATSAPP"
)

// OrderItem: позиция заказа в том виде, в котором её возвращает backend.
type OrderItem struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	Notes       string
}

// Order: проекция заказа из backend.
type Order struct {
	ID         string
	Name       string
	SupplierID string
	Status     OrderStatus
	Items      []OrderItem
	Notes      string
	Total      decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderItemInput: позиция в запросе на создание или обновление заказа.
type OrderItemInput struct {
	ProductID string
	Quantity  int
	Notes     string
}

// OrderInput: тело запроса create/update.
type OrderInput struct {
	Name               string
	SupplierID         string
	Items              []OrderItemInput
	Notes              string
	NotificationMethod NotificationMethod
}
