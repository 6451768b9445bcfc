package compose

import (
	"context"
	"errors"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/service/catalog"
)

// BrowseAction: изменение состояния каталога.
type BrowseAction string

const (
	BrowseRefresh  BrowseAction = "refresh"
	BrowsePage     BrowseAction = "page"
	BrowsePageSize BrowseAction = "size"
	BrowseSearch   BrowseAction = "search"
	BrowseFilter   BrowseAction = "filter"
	BrowseReset    BrowseAction = "reset"
)

// BrowseRequest: одна команда каталога; используются только поля своего действия.
type BrowseRequest struct {
	Action BrowseAction
	Page   int
	Size   int
	Text   string
	Filter domain.ProductFilter
}

// BrowseResult: принятая страница товаров с отметкой позиций черновика.
type BrowseResult struct {
	Products domain.Page[domain.Product]
	Query    domain.CatalogQuery
}

// BrowseProducts выполняет команду каталога и сохраняет его состояние в сессии.
// Устаревший ответ возвращает domain.ErrStaleResponse, принятая страница не меняется.
func (s *Service) BrowseProducts(ctx context.Context, auth domain.AuthSession, id string, req BrowseRequest) (BrowseResult, error) {
	_, rt, err := s.snapshot(auth, id)
	if err != nil {
		return BrowseResult{}, err
	}

	var page domain.Page[domain.Product]
	switch req.Action {
	case BrowseRefresh, "":
		page, err = rt.browser.Refresh(ctx, auth.Token)
	case BrowsePage:
		page, err = rt.browser.SetPage(ctx, auth.Token, req.Page)
	case BrowsePageSize:
		page, err = rt.browser.SetPageSize(ctx, auth.Token, req.Size)
	case BrowseSearch:
		page, err = rt.browser.Search(ctx, auth.Token, req.Text)
	case BrowseFilter:
		page, err = rt.browser.ApplyFilter(ctx, auth.Token, req.Filter)
	case BrowseReset:
		page, err = rt.browser.Reset(ctx, auth.Token)
	default:
		return BrowseResult{}, domain.NewValidationError("unknown catalog action %q", req.Action)
	}
	if errors.Is(err, domain.ErrStaleResponse) || domain.IsValidation(err) {
		return BrowseResult{}, err
	}

	saved, saveErr := s.persistCatalog(auth, id, rt)
	if saveErr != nil {
		return BrowseResult{}, saveErr
	}
	if err != nil {
		return BrowseResult{Query: saved.Catalog}, err
	}
	return BrowseResult{Products: catalog.Mark(page, &saved.Draft), Query: saved.Catalog}, nil
}

// persistCatalog записывает состояние браузера в сессию.
func (s *Service) persistCatalog(auth domain.AuthSession, id string, rt *runtime) (domain.ComposeSession, error) {
	return s.mutate(auth, id, func(sess *domain.ComposeSession, _ *runtime) (bool, error) {
		sess.Catalog = rt.browser.Query()
		return true, nil
	})
}

// Products возвращает последнюю принятую страницу без запроса к backend.
func (s *Service) Products(_ context.Context, auth domain.AuthSession, id string) (BrowseResult, bool, error) {
	sess, rt, err := s.snapshot(auth, id)
	if err != nil {
		return BrowseResult{}, false, err
	}
	page, loaded := rt.browser.Current()
	return BrowseResult{Products: catalog.Mark(page, &sess.Draft), Query: rt.browser.Query()}, loaded, nil
}

// SearchSuppliers ищет поставщиков для автокомплита через кэш сессии.
func (s *Service) SearchSuppliers(ctx context.Context, auth domain.AuthSession, id string, page int, query string) (domain.Page[domain.Supplier], error) {
	_, rt, err := s.snapshot(auth, id)
	if err != nil {
		return domain.Page[domain.Supplier]{}, err
	}
	return rt.directory.Search(ctx, auth.Token, page, query)
}
