package backend

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// envelope: стандартный конверт ответа backend.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type pageable struct {
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

type pageDTO[T any] struct {
	Content  []T      `json:"content"`
	Pageable pageable `json:"pageable"`
	// Некоторые эндпоинты отдают итоги на верхнем уровне страницы.
	TotalElements *int64 `json:"totalElements"`
	TotalPages    *int   `json:"totalPages"`
}

func toPage[T, R any](p pageDTO[T], convert func(T) R) domain.Page[R] {
	content := make([]R, 0, len(p.Content))
	for _, item := range p.Content {
		content = append(content, convert(item))
	}
	out := domain.Page[R]{
		Content:       content,
		Number:        p.Pageable.PageNumber,
		Size:          p.Pageable.PageSize,
		TotalElements: p.Pageable.TotalElements,
		TotalPages:    p.Pageable.TotalPages,
	}
	if p.TotalElements != nil {
		out.TotalElements = *p.TotalElements
	}
	if p.TotalPages != nil {
		out.TotalPages = *p.TotalPages
	}
	return out
}

type orderItemRequest struct {
	ProductUUID string `json:"productUuid"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
}

type orderRequest struct {
	Name               string             `json:"name"`
	SupplierUUID       string             `json:"supplierUuid"`
	Items              []orderItemRequest `json:"items"`
	Notes              string             `json:"notes,omitempty"`
	NotificationMethod string             `json:"notificationMethod"`
}

func newOrderRequest(in domain.OrderInput) orderRequest {
	items := make([]orderItemRequest, 0, len(in.Items))
	for _, item := range in.Items {
		items = append(items, orderItemRequest{
			ProductUUID: item.ProductID,
			Quantity:    item.Quantity,
			Notes:       item.Notes,
		})
	}
	method := in.NotificationMethod
	if method == "" {
		method = domain.NotificationEmail
	}
	return orderRequest{
		Name:               in.Name,
		SupplierUUID:       in.SupplierID,
		Items:              items,
		Notes:              in.Notes,
		NotificationMethod: string(method),
	}
}

type orderItemDTO struct {
	ProductUUID string          `json:"productUuid"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Notes       string          `json:"notes"`
}

type orderDTO struct {
	UUID         string          `json:"uuid"`
	Name         string          `json:"name"`
	SupplierUUID string          `json:"supplierUuid"`
	Status       string          `json:"status"`
	Items        []orderItemDTO  `json:"items"`
	Notes        string          `json:"notes"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (o orderDTO) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, domain.OrderItem{
			ProductID:   item.ProductUUID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
			Notes:       item.Notes,
		})
	}
	return domain.Order{
		ID:         o.UUID,
		Name:       o.Name,
		SupplierID: o.SupplierUUID,
		Status:     domain.OrderStatus(o.Status),
		Items:      items,
		Notes:      o.Notes,
		Total:      o.TotalAmount,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

type supplierDTO struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (s supplierDTO) toProfile() domain.SupplierProfile {
	return domain.SupplierProfile{ID: s.UUID, Name: s.Name, Email: s.Email, Phone: s.Phone}
}

func (s supplierDTO) toSupplier() domain.Supplier {
	return domain.Supplier{ID: s.UUID, Name: s.Name}
}

type productDTO struct {
	UUID         string          `json:"uuid"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Volume       string          `json:"volume"`
	Unit         string          `json:"unit"`
	SupplierUUID string          `json:"supplierUuid"`
}

func (p productDTO) toDomain() domain.Product {
	return domain.Product{
		ID:         p.UUID,
		Name:       p.Name,
		Category:   p.Category,
		Price:      p.Price,
		Volume:     p.Volume,
		Unit:       p.Unit,
		SupplierID: p.SupplierUUID,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userDTO struct {
	UUID  string `json:"uuid"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type loginDTO struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}
