package domain

import (
	"context"
	"errors"
	"time"
)

// OrderAPI: операции backend над заказами. token, bearer-токен явной сессии пользователя.
type OrderAPI interface {
	CreateOrder(ctx context.Context, token string, input OrderInput) (Order, error)
	UpdateOrder(ctx context.Context, token, orderID string, input OrderInput) (Order, error)
	// SendOrder отправляет заказ по email; backend переводит его в SENT.
	SendOrder(ctx context.Context, token, orderID string) (Order, error)
	GetOrder(ctx context.Context, token, orderID string) (Order, error)
}

// SupplierAPI: чтение поставщиков.
type SupplierAPI interface {
	GetSupplier(ctx context.Context, token, supplierID string) (SupplierProfile, error)
	ListSuppliers(ctx context.Context, token string, req PageRequest, query string) (Page[Supplier], error)
}

// ProductCatalog: постраничный каталог товаров. Пустой supplierID снимает фильтр по поставщику.
type ProductCatalog interface {
	ListProducts(ctx context.Context, token, supplierID string, req PageRequest) (Page[Product], error)
	SearchProducts(ctx context.Context, token, supplierID, text string, req PageRequest) (Page[Product], error)
	FilterProducts(ctx context.Context, token, supplierID string, filter ProductFilter, req PageRequest) (Page[Product], error)
	GetProduct(ctx context.Context, token, productID string) (Product, error)
}

// AuthAPI: вход и выход на backend.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (AuthSession, error)
	Logout(ctx context.Context, token string) error
}

// DraftRepository хранит сессии составления заказа.
type DraftRepository interface {
	Create(session ComposeSession) error
	Get(id string) (ComposeSession, error)
	// Save перезаписывает сессию, проверяя Version (optimistic locking).
	Save(session ComposeSession) error
	Delete(id string) error
	ListByOwner(ownerID string) ([]ComposeSession, error)
	FindByOrderID(orderID string) ([]ComposeSession, error)
}

// ErrPublishRejected: брокер отклонил событие окончательно, повтор не поможет.
var ErrPublishRejected = errors.New("event rejected by broker")

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла черновика.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(sessionID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, resultCode int) error
	MarkFailed(key string, responseBody []byte, resultCode int) error
	DeleteExpired(before time.Time, limit int) (int, error)
	// ReleaseStale удаляет processing-записи, не обновлявшиеся с updatedBefore.
	ReleaseStale(updatedBefore time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
