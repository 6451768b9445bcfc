package compose

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/metrics"
	"github.com/vladislavdragonenkov/abasta/internal/service/catalog"
	"github.com/vladislavdragonenkov/abasta/internal/service/dispatch"
	"github.com/vladislavdragonenkov/abasta/internal/service/orders"
)

// Dependencies: внешние зависимости сервиса.
type Dependencies struct {
	Orders    domain.OrderAPI
	Suppliers domain.SupplierAPI
	Catalog   domain.ProductCatalog
	Drafts    domain.DraftRepository
	Timeline  domain.TimelineRepository
	Outbox    domain.OutboxRepository
}

// Options задаёт необязательные параметры сервиса.
type Options struct {
	Logger          *log.Entry
	Metrics         *metrics.ComposeMetrics
	SearchDebounce  time.Duration
	DefaultPageSize int
	Clock           func() time.Time
	IDGenerator     func() string
}

// Option настраивает Service.
type Option func(*Options)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики; без них сервис работает молча.
func WithMetrics(m *metrics.ComposeMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithSearchDebounce задаёт окно debounce поиска каталога.
func WithSearchDebounce(d time.Duration) Option {
	return func(opts *Options) {
		opts.SearchDebounce = d
	}
}

// WithDefaultPageSize задаёт размер страницы каталога для новых черновиков.
func WithDefaultPageSize(size int) Option {
	return func(opts *Options) {
		opts.DefaultPageSize = size
	}
}

// WithClock подменяет часы (для тестов).
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

// WithIDGenerator подменяет генератор идентификаторов сессий.
func WithIDGenerator(gen func() string) Option {
	return func(opts *Options) {
		opts.IDGenerator = gen
	}
}

// Service: команды экрана составления заказа. Каждая команда возвращает результат или ошибку.
type Service struct {
	deps       Dependencies
	adapter    *orders.Adapter
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.ComposeMetrics
	logger     *log.Entry
	debounce   time.Duration
	pageSize   int
	now        func() time.Time
	newID      func() string

	mu       sync.Mutex
	runtimes map[string]*runtime
}

// runtime: несохраняемое состояние сессии на этом экземпляре сервиса.
type runtime struct {
	// mu сериализует load-modify-save одной сессии.
	mu        sync.Mutex
	busy      atomic.Bool
	browser   *catalog.Browser
	directory *catalog.Directory
}

// NewService создаёт сервис.
func NewService(deps Dependencies, options ...Option) *Service {
	opts := Options{
		SearchDebounce:  catalog.DefaultDebounce,
		DefaultPageSize: domain.DefaultPageSize,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "compose-service")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}
	if !domain.ValidPageSize(opts.DefaultPageSize) {
		opts.DefaultPageSize = domain.DefaultPageSize
	}

	s := &Service{
		deps:     deps,
		adapter:  orders.NewAdapter(deps.Orders, opts.Logger.WithField("component", "order-adapter")),
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		debounce: opts.SearchDebounce,
		pageSize: opts.DefaultPageSize,
		now:      opts.Clock,
		newID:    opts.IDGenerator,
		runtimes: make(map[string]*runtime),
	}
	s.dispatcher = dispatch.NewDispatcher(s.adapter, whatsAppRecorder{svc: s}, opts.Logger.WithField("component", "dispatcher"))
	return s
}

// View: снимок черновика для клиента.
type View struct {
	Session domain.ComposeSession
	Total   decimal.Decimal
	// Channels заполняется, пока открыт диалог отправки.
	Channels map[domain.DispatchChannel]bool
}

func newView(sess domain.ComposeSession) View {
	v := View{Session: sess.Clone(), Total: sess.Draft.Total()}
	if sess.Dispatch.Open && sess.Supplier != nil {
		dialog := dispatch.Dialog{OrderID: sess.Dispatch.OrderID, Supplier: *sess.Supplier, Channel: sess.Dispatch.Channel}
		v.Channels = dialog.Channels()
	}
	return v
}

func (s *Service) runtimeFor(id string) *runtime {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.runtimes[id]
	if !ok {
		rt = &runtime{}
		s.runtimes[id] = rt
	}
	return rt
}

func (s *Service) dropRuntime(id string) {
	s.mu.Lock()
	delete(s.runtimes, id)
	s.mu.Unlock()
}

// prepare восстанавливает browser и directory из сохранённой сессии. Вызывается под rt.mu.
func (s *Service) prepare(rt *runtime, sess domain.ComposeSession) {
	if rt.browser == nil {
		var stale catalog.StaleRecorder
		if s.metrics != nil {
			stale = s.metrics
		}
		rt.browser = catalog.NewBrowser(s.deps.Catalog, s.debounce, stale, s.logger.WithField("component", "catalog-browser"))
		rt.browser.Restore(sess.Catalog)
	}
	if rt.directory == nil {
		rt.directory = catalog.NewDirectory(s.deps.Suppliers, s.pageSize)
	}
}

// load читает сессию и проверяет владельца. Вызывается под rt.mu.
func (s *Service) load(auth domain.AuthSession, id string) (domain.ComposeSession, error) {
	if !auth.Valid() {
		return domain.ComposeSession{}, domain.ErrUnauthenticated
	}
	sess, err := s.deps.Drafts.Get(id)
	if err != nil {
		return domain.ComposeSession{}, err
	}
	if sess.OwnerID != auth.UserID {
		return domain.ComposeSession{}, domain.ErrSessionForbidden
	}
	return sess, nil
}

// store сохраняет сессию с проверкой версии и возвращает её с новой версией.
func (s *Service) store(sess domain.ComposeSession) (domain.ComposeSession, error) {
	sess.UpdatedAt = s.now().UTC()
	if err := s.deps.Drafts.Save(sess); err != nil {
		return domain.ComposeSession{}, err
	}
	sess.Version++
	return sess, nil
}

// mutateFunc меняет сессию; changed=false пропускает сохранение.
type mutateFunc func(sess *domain.ComposeSession, rt *runtime) (changed bool, err error)

// mutate выполняет load-modify-save под блокировкой сессии.
func (s *Service) mutate(auth domain.AuthSession, id string, fn mutateFunc) (domain.ComposeSession, error) {
	rt := s.runtimeFor(id)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	sess, err := s.load(auth, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.dropRuntime(id)
		}
		return domain.ComposeSession{}, err
	}
	s.prepare(rt, sess)

	working := sess.Clone()
	changed, err := fn(&working, rt)
	if err != nil {
		return domain.ComposeSession{}, err
	}
	if !changed {
		return sess, nil
	}
	return s.store(working)
}

// snapshot читает сессию под блокировкой и отдаёт runtime для сетевых вызовов вне блокировки.
func (s *Service) snapshot(auth domain.AuthSession, id string) (domain.ComposeSession, *runtime, error) {
	rt := s.runtimeFor(id)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	sess, err := s.load(auth, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.dropRuntime(id)
		}
		return domain.ComposeSession{}, nil, err
	}
	s.prepare(rt, sess)
	return sess, rt, nil
}

// beginFlight помечает сессию занятой сохранением или отправкой.
func (s *Service) beginFlight(auth domain.AuthSession, id string) (domain.ComposeSession, *runtime, error) {
	sess, rt, err := s.snapshot(auth, id)
	if err != nil {
		return domain.ComposeSession{}, nil, err
	}
	if !rt.busy.CompareAndSwap(false, true) {
		return domain.ComposeSession{}, nil, domain.ErrOperationInProgress
	}
	return sess, rt, nil
}

// Busy сообщает, выполняется ли сохранение или отправка сессии.
func (s *Service) Busy(id string) bool {
	s.mu.Lock()
	rt, ok := s.runtimes[id]
	s.mu.Unlock()
	return ok && rt.busy.Load()
}

// whatsAppRecorder фиксирует открытую ссылку WhatsApp в outbox.
type whatsAppRecorder struct {
	svc *Service
}

func (r whatsAppRecorder) OpenLink(ctx context.Context, orderID, link string) error {
	return r.svc.enqueue(EventWhatsAppOpened, orderID, map[string]any{"link": link})
}
