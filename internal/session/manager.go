package session

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// LogoutListener уведомляется о завершении сессии пользователя.
type LogoutListener interface {
	OnLogout(ctx context.Context, sess domain.AuthSession)
}

// LogoutFunc адаптирует функцию к LogoutListener.
type LogoutFunc func(ctx context.Context, sess domain.AuthSession)

// OnLogout вызывает f.
func (f LogoutFunc) OnLogout(ctx context.Context, sess domain.AuthSession) {
	f(ctx, sess)
}

// Manager хранит явные сессии пользователей, полученные от backend.
type Manager struct {
	auth      domain.AuthAPI
	logger    *log.Entry
	now       func() time.Time
	ttl       time.Duration
	mu        sync.RWMutex
	sessions  map[string]domain.AuthSession
	listeners []LogoutListener
}

// NewManager создаёт менеджер. ttl<=0: сессии не истекают локально.
func NewManager(auth domain.AuthAPI, ttl time.Duration, logger *log.Entry) *Manager {
	if logger == nil {
		logger = log.WithField("component", "session-manager")
	}
	return &Manager{
		auth:     auth,
		logger:   logger,
		now:      time.Now,
		ttl:      ttl,
		sessions: make(map[string]domain.AuthSession),
	}
}

// Subscribe регистрирует получателя уведомлений о logout.
func (m *Manager) Subscribe(listener LogoutListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

// Login аутентифицирует пользователя на backend и запоминает сессию.
func (m *Manager) Login(ctx context.Context, email, password string) (domain.AuthSession, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.AuthSession{}, domain.NewValidationError("email and password are required")
	}

	sess, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return domain.AuthSession{}, err
	}
	if sess.UserID == "" {
		sess.UserID = sess.Email
	}
	if sess.UserID == "" {
		sess.UserID = email
	}
	if sess.IssuedAt.IsZero() {
		sess.IssuedAt = m.now().UTC()
	}

	m.mu.Lock()
	m.sessions[sess.Token] = sess
	m.mu.Unlock()

	m.logger.WithField("user_id", sess.UserID).Info("user logged in")
	return sess, nil
}

// Resolve возвращает сессию по токену.
func (m *Manager) Resolve(token string) (domain.AuthSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.AuthSession{}, domain.ErrUnauthenticated
	}

	m.mu.RLock()
	sess, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return domain.AuthSession{}, domain.ErrUnauthenticated
	}
	if m.expired(sess) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return domain.AuthSession{}, domain.ErrUnauthenticated
	}
	return sess, nil
}

// Logout удаляет сессию и вызывает logout на backend. Подписчики уведомляются только
// о последней живой сессии пользователя: черновики под другим токеном остаются.
// Ошибка backend не мешает локальному завершению сессии.
func (m *Manager) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	sess, ok := m.sessions[token]
	delete(m.sessions, token)
	var listeners []LogoutListener
	if ok && !m.hasLiveSessionLocked(sess.UserID) {
		listeners = make([]LogoutListener, len(m.listeners))
		copy(listeners, m.listeners)
	}
	m.mu.Unlock()

	if !ok {
		return domain.ErrUnauthenticated
	}

	backendErr := m.auth.Logout(ctx, token)
	if backendErr != nil {
		m.logger.WithError(backendErr).WithField("user_id", sess.UserID).Warn("backend logout failed")
	}

	for _, listener := range listeners {
		listener.OnLogout(ctx, sess)
	}

	m.logger.WithField("user_id", sess.UserID).Info("user logged out")
	return backendErr
}

// Active возвращает число активных сессий.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// hasLiveSessionLocked вызывается под m.mu.
func (m *Manager) hasLiveSessionLocked(userID string) bool {
	for _, other := range m.sessions {
		if other.UserID == userID && !m.expired(other) {
			return true
		}
	}
	return false
}

func (m *Manager) expired(sess domain.AuthSession) bool {
	if m.ttl <= 0 {
		return false
	}
	return m.now().Sub(sess.IssuedAt) > m.ttl
}
