package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// draftRepositoryInMemory: простая in-memory реализация DraftRepository.
type draftRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.ComposeSession
}

// NewDraftRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewDraftRepository() domain.DraftRepository {
	return &draftRepositoryInMemory{
		items: make(map[string]domain.ComposeSession),
	}
}

// Create сохраняет новую сессию, если ID ещё не занят.
func (r *draftRepositoryInMemory) Create(session domain.ComposeSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[session.ID]; exists {
		return domain.ErrSessionVersionConflict
	}
	// Храним копию, чтобы вызывающий не менял сохранённое состояние.
	r.items[session.ID] = session.Clone()
	return nil
}

// Get возвращает сессию или ErrSessionNotFound.
func (r *draftRepositoryInMemory) Get(id string) (domain.ComposeSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.items[id]
	if !ok {
		return domain.ComposeSession{}, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Save перезаписывает сессию, проверяя версию (optimistic locking).
func (r *draftRepositoryInMemory) Save(session domain.ComposeSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[session.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if current.Version != session.Version {
		return domain.ErrSessionVersionConflict
	}
	stored := session.Clone()
	stored.Version++
	r.items[session.ID] = stored
	return nil
}

// Delete удаляет сессию.
func (r *draftRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.items, id)
	return nil
}

// ListByOwner возвращает сессии пользователя, новые первыми.
func (r *draftRepositoryInMemory) ListByOwner(ownerID string) ([]domain.ComposeSession, error) {
	return r.filter(func(s domain.ComposeSession) bool { return s.OwnerID == ownerID }), nil
}

// FindByOrderID возвращает сессии, привязанные к заказу backend.
func (r *draftRepositoryInMemory) FindByOrderID(orderID string) ([]domain.ComposeSession, error) {
	if orderID == "" {
		return nil, nil
	}
	return r.filter(func(s domain.ComposeSession) bool { return s.Draft.OrderID == orderID }), nil
}

func (r *draftRepositoryInMemory) filter(match func(domain.ComposeSession) bool) []domain.ComposeSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.ComposeSession, 0)
	for _, session := range r.items {
		if match(session) {
			result = append(result, session.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

var _ domain.DraftRepository = (*draftRepositoryInMemory)(nil)
