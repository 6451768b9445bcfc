package backend

import (
	"context"
	"net/http"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// CreateOrder создаёт заказ и возвращает его серверную проекцию с uuid.
func (c *Client) CreateOrder(ctx context.Context, token string, input domain.OrderInput) (domain.Order, error) {
	var out orderDTO
	err := c.do(ctx, call{
		operation: "create_order",
		method:    http.MethodPost,
		path:      "/api/orders",
		token:     token,
		body:      newOrderRequest(input),
	}, &out)
	if err != nil {
		return domain.Order{}, err
	}
	return out.toDomain(), nil
}

// UpdateOrder перезаписывает заказ тем же телом, что и create.
func (c *Client) UpdateOrder(ctx context.Context, token, orderID string, input domain.OrderInput) (domain.Order, error) {
	var out orderDTO
	err := c.do(ctx, call{
		operation: "update_order",
		method:    http.MethodPut,
		path:      "/api/orders/" + escape(orderID),
		token:     token,
		body:      newOrderRequest(input),
	}, &out)
	if err != nil {
		return domain.Order{}, err
	}
	order := out.toDomain()
	if order.ID == "" {
		order.ID = orderID
	}
	return order, nil
}

// SendOrder вызывает email-отправку без тела запроса.
func (c *Client) SendOrder(ctx context.Context, token, orderID string) (domain.Order, error) {
	var out orderDTO
	err := c.do(ctx, call{
		operation: "send_order",
		method:    http.MethodPost,
		path:      "/api/orders/" + escape(orderID) + "/send",
		token:     token,
	}, &out)
	if err != nil {
		return domain.Order{}, err
	}
	order := out.toDomain()
	if order.ID == "" {
		order.ID = orderID
	}
	return order, nil
}

// GetOrder возвращает заказ с позициями.
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (domain.Order, error) {
	var out orderDTO
	err := c.do(ctx, call{
		operation: "get_order",
		method:    http.MethodGet,
		path:      "/api/orders/" + escape(orderID),
		token:     token,
	}, &out)
	if err != nil {
		return domain.Order{}, err
	}
	return out.toDomain(), nil
}

var _ domain.OrderAPI = (*Client)(nil)
