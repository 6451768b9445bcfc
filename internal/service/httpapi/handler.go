// Package httpapi отдаёт черновики по HTTP: просмотр и переход по ссылке WhatsApp.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/service/compose"
	grpcsvc "github.com/vladislavdragonenkov/abasta/internal/service/grpc"
	"github.com/vladislavdragonenkov/abasta/internal/session"
)

// DraftReader: команды compose-сервиса, доступные по HTTP.
type DraftReader interface {
	Get(ctx context.Context, auth domain.AuthSession, id string) (compose.View, error)
	WhatsAppLink(ctx context.Context, auth domain.AuthSession, id string) (string, error)
}

// SessionResolver находит сессию пользователя по токену.
type SessionResolver interface {
	Resolve(token string) (domain.AuthSession, error)
}

// Handler обслуживает /v1/drafts.
type Handler struct {
	drafts   DraftReader
	sessions SessionResolver
	logger   *log.Entry
}

// NewHandler создаёт обработчик.
func NewHandler(drafts DraftReader, sessions SessionResolver, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	return &Handler{drafts: drafts, sessions: sessions, logger: logger}
}

// RegisterRoutes подключает маршруты к router.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/v1/drafts/{id}", h.handleGetDraft)
	router.Get("/v1/drafts/{id}/whatsapp", h.handleWhatsApp)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	view, err := h.drafts.Get(r.Context(), auth, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err, "get draft")
		return
	}
	respondWithJSON(w, http.StatusOK, grpcsvc.DraftMessage(view))
}

// handleWhatsApp перенаправляет на wa.me; клиент открывает ссылку в новом окне.
func (h *Handler) handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	link, err := h.drafts.WhatsAppLink(r.Context(), auth, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err, "whatsapp link")
		return
	}
	http.Redirect(w, r, link, http.StatusFound)
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (domain.AuthSession, bool) {
	token := session.BearerToken(r.Header.Get("Authorization"))
	auth, err := h.sessions.Resolve(token)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
		return domain.AuthSession{}, false
	}
	return auth, true
}

func (h *Handler) fail(w http.ResponseWriter, err error, operation string) {
	code, msg := statusFor(err)
	entry := h.logger.WithError(err).WithField("operation", operation)
	if code >= http.StatusInternalServerError {
		entry.Warn("http request failed")
	} else {
		entry.Debug("http request rejected")
	}
	respondWithError(w, code, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, domain.ErrUnauthenticated.Error()
	case errors.Is(err, domain.ErrSessionForbidden):
		return http.StatusForbidden, domain.ErrSessionForbidden.Error()
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, domain.ErrSessionNotFound.Error()
	case domain.IsValidation(err):
		return http.StatusUnprocessableEntity, domain.UserMessage(err)
	}
	if rErr, ok := domain.AsRequestError(err); ok {
		if rErr.NotFound() {
			return http.StatusNotFound, rErr.UserMessage()
		}
		return http.StatusBadGateway, rErr.UserMessage()
	}
	return http.StatusInternalServerError, domain.FallbackRequestMessage
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
