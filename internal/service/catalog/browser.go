package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// DefaultDebounce: окно склейки поисковых запросов.
const DefaultDebounce = 300 * time.Millisecond

// StaleRecorder учитывает отброшенные устаревшие ответы.
type StaleRecorder interface {
	RecordStaleResponse()
}

// Browser: постраничный каталог товаров одного черновика.
// Любое изменение supplier/page/size/mode порождает ровно один запрос для совокупного состояния.
// Каждый запрос помечается поколением; ответ не текущего поколения отбрасывается.
type Browser struct {
	catalog  domain.ProductCatalog
	debounce time.Duration
	stale    StaleRecorder
	logger   *log.Entry

	mu         sync.Mutex
	query      domain.CatalogQuery
	generation uint64
	current    domain.Page[domain.Product]
	loaded     bool
}

// NewBrowser создаёт браузер в режиме листинга первой страницы.
func NewBrowser(catalog domain.ProductCatalog, debounce time.Duration, stale StaleRecorder, logger *log.Entry) *Browser {
	if debounce < 0 {
		debounce = 0
	}
	if logger == nil {
		logger = log.WithField("component", "catalog-browser")
	}
	return &Browser{
		catalog:  catalog,
		debounce: debounce,
		stale:    stale,
		logger:   logger,
		query:    domain.NewCatalogQuery(),
	}
}

// Restore подставляет сохранённое состояние без запроса.
func (b *Browser) Restore(query domain.CatalogQuery) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !query.Mode.Valid() {
		query.Mode = domain.CatalogListing
	}
	if !domain.ValidPageSize(query.Size) {
		query.Size = domain.DefaultPageSize
	}
	if query.Page < 0 {
		query.Page = 0
	}
	b.query = query
	b.generation++
	b.loaded = false
}

// Query возвращает текущее состояние.
func (b *Browser) Query() domain.CatalogQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// Current возвращает последнюю принятую страницу.
func (b *Browser) Current() (domain.Page[domain.Product], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return clonePage(b.current), b.loaded
}

// Lookup ищет товар на принятой странице.
func (b *Browser) Lookup(productID string) (domain.Product, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, product := range b.current.Content {
		if product.ID == productID {
			return product, true
		}
	}
	return domain.Product{}, false
}

// Marked возвращает принятую страницу с отметкой товаров, уже лежащих в черновике.
func (b *Browser) Marked(draft *domain.Draft) domain.Page[domain.Product] {
	page, _ := b.Current()
	return Mark(page, draft)
}

// Mark помечает InDraft у товаров страницы.
func Mark(page domain.Page[domain.Product], draft *domain.Draft) domain.Page[domain.Product] {
	if draft == nil {
		return page
	}
	for i := range page.Content {
		page.Content[i].InDraft = draft.Contains(page.Content[i].ID)
	}
	return page
}

// Refresh повторяет запрос для текущего состояния.
func (b *Browser) Refresh(ctx context.Context, token string) (domain.Page[domain.Product], error) {
	return b.apply(ctx, token, false, func(*domain.CatalogQuery) error { return nil })
}

// SetSupplier меняет поставщика и сбрасывает страницу. Активный режим сохраняется.
func (b *Browser) SetSupplier(ctx context.Context, token, supplierID string) (domain.Page[domain.Product], error) {
	return b.apply(ctx, token, false, func(q *domain.CatalogQuery) error {
		q.SupplierID = supplierID
		q.Page = 0
		return nil
	})
}

// SetPage переходит на страницу (с нуля) в текущем режиме.
func (b *Browser) SetPage(ctx context.Context, token string, page int) (domain.Page[domain.Product], error) {
	return b.apply(ctx, token, false, func(q *domain.CatalogQuery) error {
		if page < 0 {
			page = 0
		}
		q.Page = page
		return nil
	})
}

// SetPageSize меняет размер страницы (10/20/50/100) и сбрасывает страницу.
func (b *Browser) SetPageSize(ctx context.Context, token string, size int) (domain.Page[domain.Product], error) {
	if !domain.ValidPageSize(size) {
		return domain.Page[domain.Product]{}, domain.ErrInvalidPageSize
	}
	return b.apply(ctx, token, false, func(q *domain.CatalogQuery) error {
		q.Size = size
		q.Page = 0
		return nil
	})
}

// Search переключает на текстовый поиск с задержкой debounce.
// Более новый вызов в пределах окна вытесняет этот, и он возвращает ErrStaleResponse без запроса.
// Пустой текст возвращает листинг по умолчанию.
func (b *Browser) Search(ctx context.Context, token, text string) (domain.Page[domain.Product], error) {
	text = strings.TrimSpace(text)
	return b.apply(ctx, token, true, func(q *domain.CatalogQuery) error {
		q.Page = 0
		q.Filter = domain.ProductFilter{}
		if text == "" {
			q.Mode = domain.CatalogListing
			q.Text = ""
			return nil
		}
		q.Mode = domain.CatalogSearch
		q.Text = text
		return nil
	})
}

// ApplyFilter переключает на расширенный фильтр. Пустой фильтр возвращает листинг.
func (b *Browser) ApplyFilter(ctx context.Context, token string, filter domain.ProductFilter) (domain.Page[domain.Product], error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return domain.Page[domain.Product]{}, domain.NewValidationError("min price must not exceed max price")
	}
	return b.apply(ctx, token, false, func(q *domain.CatalogQuery) error {
		q.Page = 0
		q.Text = ""
		if filter.Empty() {
			q.Mode = domain.CatalogListing
			q.Filter = domain.ProductFilter{}
			return nil
		}
		q.Mode = domain.CatalogFilter
		q.Filter = filter
		return nil
	})
}

// Reset возвращает листинг по умолчанию первой страницы, поставщик сохраняется.
func (b *Browser) Reset(ctx context.Context, token string) (domain.Page[domain.Product], error) {
	return b.apply(ctx, token, false, func(q *domain.CatalogQuery) error {
		supplierID, size := q.SupplierID, q.Size
		*q = domain.NewCatalogQuery()
		q.SupplierID = supplierID
		q.Size = size
		return nil
	})
}

func (b *Browser) apply(ctx context.Context, token string, debounced bool, mutate func(q *domain.CatalogQuery) error) (domain.Page[domain.Product], error) {
	b.mu.Lock()
	next := b.query
	if err := mutate(&next); err != nil {
		b.mu.Unlock()
		return domain.Page[domain.Product]{}, err
	}
	b.query = next
	b.generation++
	gen := b.generation
	b.mu.Unlock()

	if debounced && b.debounce > 0 {
		timer := time.NewTimer(b.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.Page[domain.Product]{}, ctx.Err()
		case <-timer.C:
		}
		if !b.isCurrent(gen) {
			b.discard(gen, "superseded before request")
			return domain.Page[domain.Product]{}, domain.ErrStaleResponse
		}
	}

	page, err := b.fetch(ctx, token, next)

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		b.discard(gen, "superseded response")
		return domain.Page[domain.Product]{}, domain.ErrStaleResponse
	}
	if err != nil {
		b.mu.Unlock()
		return domain.Page[domain.Product]{}, err
	}
	if page.Size == 0 {
		page.Size = next.Size
	}
	page.Number = next.Page
	b.current = page
	b.loaded = true
	out := clonePage(page)
	b.mu.Unlock()
	return out, nil
}

func (b *Browser) fetch(ctx context.Context, token string, q domain.CatalogQuery) (domain.Page[domain.Product], error) {
	if b.catalog == nil {
		return domain.Page[domain.Product]{}, errors.New("catalog is not configured")
	}
	req := q.PageRequest()
	switch q.Mode {
	case domain.CatalogSearch:
		return b.catalog.SearchProducts(ctx, token, q.SupplierID, q.Text, req)
	case domain.CatalogFilter:
		return b.catalog.FilterProducts(ctx, token, q.SupplierID, q.Filter, req)
	default:
		return b.catalog.ListProducts(ctx, token, q.SupplierID, req)
	}
}

func (b *Browser) isCurrent(gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return gen == b.generation
}

func (b *Browser) discard(gen uint64, reason string) {
	if b.stale != nil {
		b.stale.RecordStaleResponse()
	}
	b.logger.WithFields(log.Fields{"generation": gen, "reason": reason}).Debug("catalog response discarded")
}

func clonePage(page domain.Page[domain.Product]) domain.Page[domain.Product] {
	if page.Content != nil {
		content := make([]domain.Product, len(page.Content))
		copy(content, page.Content)
		page.Content = content
	}
	return page
}
