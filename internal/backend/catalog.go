package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// GetSupplier возвращает профиль поставщика.
func (c *Client) GetSupplier(ctx context.Context, token, supplierID string) (domain.SupplierProfile, error) {
	var out supplierDTO
	err := c.do(ctx, call{
		operation: "get_supplier",
		method:    http.MethodGet,
		path:      "/api/suppliers/" + escape(supplierID),
		token:     token,
	}, &out)
	if err != nil {
		return domain.SupplierProfile{}, err
	}
	profile := out.toProfile()
	if profile.ID == "" {
		profile.ID = supplierID
	}
	return profile, nil
}

// ListSuppliers возвращает страницу поставщиков, отфильтрованную по имени.
func (c *Client) ListSuppliers(ctx context.Context, token string, req domain.PageRequest, query string) (domain.Page[domain.Supplier], error) {
	params := pageQuery(req)
	if query != "" {
		params.Set("name", query)
	}
	var out pageDTO[supplierDTO]
	err := c.do(ctx, call{
		operation: "list_suppliers",
		method:    http.MethodGet,
		path:      "/api/suppliers",
		query:     params,
		token:     token,
	}, &out)
	if err != nil {
		return domain.Page[domain.Supplier]{}, err
	}
	return toPage(out, supplierDTO.toSupplier), nil
}

// ListProducts: листинг по умолчанию; сортировка берётся из req (name asc после Normalize).
func (c *Client) ListProducts(ctx context.Context, token, supplierID string, req domain.PageRequest) (domain.Page[domain.Product], error) {
	return c.products(ctx, "list_products", "/api/products", token, supplierID, pageQuery(req))
}

// SearchProducts выполняет свободный текстовый поиск.
func (c *Client) SearchProducts(ctx context.Context, token, supplierID, text string, req domain.PageRequest) (domain.Page[domain.Product], error) {
	params := pageQuery(req)
	params.Set("query", text)
	return c.products(ctx, "search_products", "/api/products/search", token, supplierID, params)
}

// FilterProducts применяет расширенный фильтр; пустые поля не передаются.
func (c *Client) FilterProducts(ctx context.Context, token, supplierID string, filter domain.ProductFilter, req domain.PageRequest) (domain.Page[domain.Product], error) {
	params := pageQuery(req)
	setIfNotEmpty(params, "name", filter.Name)
	setIfNotEmpty(params, "category", filter.Category)
	setIfNotEmpty(params, "volume", filter.Volume)
	setIfNotEmpty(params, "unit", filter.Unit)
	if filter.MinPrice != nil {
		params.Set("minPrice", filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		params.Set("maxPrice", filter.MaxPrice.String())
	}
	return c.products(ctx, "filter_products", "/api/products/filter", token, supplierID, params)
}

// GetProduct возвращает товар по идентификатору.
func (c *Client) GetProduct(ctx context.Context, token, productID string) (domain.Product, error) {
	var out productDTO
	err := c.do(ctx, call{
		operation: "get_product",
		method:    http.MethodGet,
		path:      "/api/products/" + escape(productID),
		token:     token,
	}, &out)
	if err != nil {
		return domain.Product{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) products(ctx context.Context, operation, path, token, supplierID string, params url.Values) (domain.Page[domain.Product], error) {
	setIfNotEmpty(params, "supplierUuid", supplierID)
	var out pageDTO[productDTO]
	err := c.do(ctx, call{
		operation: operation,
		method:    http.MethodGet,
		path:      path,
		query:     params,
		token:     token,
	}, &out)
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}
	return toPage(out, productDTO.toDomain), nil
}

func setIfNotEmpty(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

var (
	_ domain.SupplierAPI    = (*Client)(nil)
	_ domain.ProductCatalog = (*Client)(nil)
)
