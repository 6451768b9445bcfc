package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// Directory: поиск поставщиков для автокомплита в пределах одного черновика.
// Страницы кэшируются по ключу "page-query" без вытеснения.
type Directory struct {
	suppliers domain.SupplierAPI
	pageSize  int

	mu    sync.Mutex
	pages map[string]domain.Page[domain.Supplier]
}

// NewDirectory создаёт справочник с пустым кэшем.
func NewDirectory(suppliers domain.SupplierAPI, pageSize int) *Directory {
	if !domain.ValidPageSize(pageSize) {
		pageSize = domain.DefaultPageSize
	}
	return &Directory{
		suppliers: suppliers,
		pageSize:  pageSize,
		pages:     make(map[string]domain.Page[domain.Supplier]),
	}
}

// Profile загружает профиль поставщика; профили не кэшируются.
func (d *Directory) Profile(ctx context.Context, token, supplierID string) (domain.SupplierProfile, error) {
	if strings.TrimSpace(supplierID) == "" {
		return domain.SupplierProfile{}, domain.ErrSupplierRequired
	}
	return d.suppliers.GetSupplier(ctx, token, supplierID)
}

// Search возвращает страницу поставщиков из кэша или backend. Ошибки не кэшируются.
func (d *Directory) Search(ctx context.Context, token string, page int, query string) (domain.Page[domain.Supplier], error) {
	if page < 0 {
		page = 0
	}
	key := cacheKey(page, query)

	d.mu.Lock()
	cached, ok := d.pages[key]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	result, err := d.suppliers.ListSuppliers(ctx, token, domain.PageRequest{Page: page, Size: d.pageSize}, query)
	if err != nil {
		return domain.Page[domain.Supplier]{}, err
	}

	d.mu.Lock()
	d.pages[key] = result
	d.mu.Unlock()
	return result, nil
}

// Cached возвращает число закэшированных страниц.
func (d *Directory) Cached() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pages)
}

func cacheKey(page int, query string) string {
	return fmt.Sprintf("%d-%s", page, query)
}
