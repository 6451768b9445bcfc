package domain

import "time"

// IdempotencyStatus: состояние сохранённого результата команды SaveDraft/SendOrder.
type IdempotencyStatus string

const (
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	IdempotencyStatusDone       IdempotencyStatus = "done"
	IdempotencyStatusFailed     IdempotencyStatus = "failed"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal сообщает, что результат записан и его можно повторить клиенту.
func (s IdempotencyStatus) Terminal() bool {
	return s == IdempotencyStatusDone || s == IdempotencyStatusFailed
}

// IdempotencyRecord хранит ответ на повторяемую команду по ключу клиента.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	// ResponseBody: сериализованный ответ (JSON) для повтора.
	ResponseBody []byte
	// ResultCode: код gRPC статуса ответа.
	ResultCode int
	Status     IdempotencyStatus
	TTLAt      time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
