package domain

import (
	"github.com/shopspring/decimal"
)

// Product: товар из каталога поставщика.
type Product struct {
	ID         string
	Name       string
	Category   string
	Price      decimal.Decimal
	Volume     string
	Unit       string
	SupplierID string
	// InDraft помечает товары, уже добавленные в текущий черновик (только для отображения).
	InDraft bool
}

// ProductFilter: расширенный фильтр каталога.
type ProductFilter struct {
	Name     string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Volume   string
	Unit     string
}

// Empty возвращает true, если ни одно поле фильтра не задано.
func (f ProductFilter) Empty() bool {
	return f.Name == "" && f.Category == "" && f.MinPrice == nil && f.MaxPrice == nil &&
		f.Volume == "" && f.Unit == ""
}

// SortDirection: направление сортировки.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

const (
	// DefaultPageSize: размер страницы по умолчанию.
	DefaultPageSize = 10
	// DefaultSortField: поле сортировки листинга каталога.
	DefaultSortField = "name"
)

var allowedPageSizes = []int{10, 20, 50, 100}

// AllowedPageSizes возвращает допустимые размеры страницы.
func AllowedPageSizes() []int {
	out := make([]int, len(allowedPageSizes))
	copy(out, allowedPageSizes)
	return out
}

// ValidPageSize проверяет размер страницы.
func ValidPageSize(size int) bool {
	for _, allowed := range allowedPageSizes {
		if allowed == size {
			return true
		}
	}
	return false
}

// PageRequest описывает запрос страницы. Page нумеруется с нуля.
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir SortDirection
}

// Normalize подставляет значения по умолчанию.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 0 {
		r.Page = 0
	}
	if !ValidPageSize(r.Size) {
		r.Size = DefaultPageSize
	}
	if r.SortBy == "" {
		r.SortBy = DefaultSortField
	}
	if r.SortDir != SortDesc {
		r.SortDir = SortAsc
	}
	return r
}

// Page: страница результатов.
type Page[T any] struct {
	Content       []T
	Number        int
	Size          int
	TotalElements int64
	TotalPages    int
}

// CatalogMode: активный режим запроса каталога.
type CatalogMode string

const (
	// CatalogListing: листинг по умолчанию, сортировка по имени.
	CatalogListing CatalogMode = "listing"
	// CatalogSearch: свободный текстовый поиск.
	CatalogSearch CatalogMode = "search"
	// CatalogFilter: расширенный фильтр по полям.
	CatalogFilter CatalogMode = "filter"
)

// Valid проверяет режим.
func (m CatalogMode) Valid() bool {
	switch m {
	case CatalogListing, CatalogSearch, CatalogFilter:
		return true
	default:
		return false
	}
}

// CatalogQuery: совокупное состояние каталога, по которому строится ровно один запрос.
type CatalogQuery struct {
	SupplierID string
	Mode       CatalogMode
	Text       string
	Filter     ProductFilter
	Page       int
	Size       int
}

// NewCatalogQuery возвращает листинг первой страницы размера по умолчанию.
func NewCatalogQuery() CatalogQuery {
	return CatalogQuery{Mode: CatalogListing, Size: DefaultPageSize}
}

// PageRequest переводит состояние в параметры пагинации.
func (q CatalogQuery) PageRequest() PageRequest {
	return PageRequest{
		Page:    q.Page,
		Size:    q.Size,
		SortBy:  DefaultSortField,
		SortDir: SortAsc,
	}.Normalize()
}
