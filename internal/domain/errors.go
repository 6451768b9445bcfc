package domain

import (
	"errors"
	"fmt"
)

// ValidationError: локальная ошибка до обращения к сети. Сообщение показывается пользователю как есть.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError создаёт ошибку валидации с произвольным сообщением.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

var (
	// ErrNoSupplierSelected: попытка добавить товар без выбранного поставщика.
	ErrNoSupplierSelected = &ValidationError{Message: "no supplier selected"}
	// ErrSupplierRequired: сохранение или отправка без поставщика.
	ErrSupplierRequired = &ValidationError{Message: "select a supplier"}
	// ErrItemsRequired: сохранение или отправка пустого черновика.
	ErrItemsRequired = &ValidationError{Message: "add at least one product"}
	// ErrOrderNotEditable: редактирование заказа не в статусе PENDING.
	ErrOrderNotEditable = &ValidationError{Message: "only PENDING orders are editable"}
	// ErrInvalidPhone: у поставщика нет телефона, пригодного для WhatsApp.
	ErrInvalidPhone = &ValidationError{Message: "supplier has no valid phone number"}
	// ErrChannelUnavailable: выбранный канал отключён, у поставщика нет нужного контакта.
	ErrChannelUnavailable = &ValidationError{Message: "selected channel is not available for this supplier"}
	// ErrUnknownChannel: неизвестный канал отправки.
	ErrUnknownChannel = &ValidationError{Message: "unknown dispatch channel"}
	// ErrDispatchNotOpen: отправка без успешного сохранения и открытого диалога.
	ErrDispatchNotOpen = &ValidationError{Message: "save the order before sending it"}
	// ErrInvalidPageSize: размер страницы вне 10/20/50/100.
	ErrInvalidPageSize = &ValidationError{Message: "page size must be one of 10, 20, 50, 100"}
	// ErrInvalidQuantity: количество меньше 1.
	ErrInvalidQuantity = &ValidationError{Message: "quantity must be at least 1"}
	// ErrProductRequired: не указан идентификатор товара.
	ErrProductRequired = &ValidationError{Message: "product is required"}
	// ErrSourceOrderRequired: режим edit/duplicate без исходного заказа.
	ErrSourceOrderRequired = &ValidationError{Message: "source order is required"}
	// ErrNoPendingSupplierChange: подтверждение смены поставщика без запроса.
	ErrNoPendingSupplierChange = &ValidationError{Message: "no supplier change is awaiting confirmation"}
)

// IsValidation проверяет, относится ли ошибка к ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// FallbackRequestMessage показывается, когда backend не вернул собственного сообщения.
const FallbackRequestMessage = "unexpected error, please try again"

// RequestError: сетевая или серверная ошибка при обращении к backend.
type RequestError struct {
	// StatusCode: HTTP статус ответа; 0, если ответа не было.
	StatusCode int
	// Message: сообщение из тела ответа backend.
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	msg := e.UserMessage()
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("backend responded %d: %s", e.StatusCode, msg)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// UserMessage возвращает серверное сообщение или общий fallback.
func (e *RequestError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return FallbackRequestMessage
}

// NotFound сообщает, что backend ответил 404.
func (e *RequestError) NotFound() bool {
	return e.StatusCode == 404
}

// Unauthorized сообщает, что backend отверг токен.
func (e *RequestError) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// AsRequestError извлекает RequestError из цепочки.
func AsRequestError(err error) (*RequestError, bool) {
	var rErr *RequestError
	if errors.As(err, &rErr) {
		return rErr, true
	}
	return nil, false
}

// UserMessage формирует текст inline-ошибки для любой ошибки workflow.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	if rErr, ok := AsRequestError(err); ok {
		return rErr.UserMessage()
	}
	return FallbackRequestMessage
}

var (
	// ErrStaleResponse: ответ каталога устарел и отброшен, текущая страница не изменилась.
	ErrStaleResponse = errors.New("stale catalog response discarded")
	// ErrSessionNotFound возвращается, если черновик не найден.
	ErrSessionNotFound = errors.New("compose session not found")
	// ErrSessionVersionConflict сигнализирует о конфликте версий при сохранении черновика.
	ErrSessionVersionConflict = errors.New("compose session version conflict")
	// ErrSessionForbidden: черновик принадлежит другому пользователю.
	ErrSessionForbidden = errors.New("compose session belongs to another user")
	// ErrOperationInProgress: сохранение или отправка уже выполняется.
	ErrOperationInProgress = errors.New("another save or send is in progress")
	// ErrUnauthenticated: токен сессии не найден или истёк.
	ErrUnauthenticated = errors.New("session is not authenticated")
	// ErrOutboxPublish: ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrIdempotencyKeyRequired возвращается, если idempotency-key пустой.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired возвращается, если hash запроса пустой.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyNotFound возвращается, если запись по ключу не найдена.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrIdempotencyKeyAlreadyExists: ключ уже использован тем же запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch: ключ уже использован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrSessionVersionConflict)
}

// IsIdempotencyConflict проверяет, что ключ уже занят (тем же или другим запросом).
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}
