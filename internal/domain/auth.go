package domain

import "time"

// AuthSession: явный объект сессии пользователя, передаётся в каждую команду.
type AuthSession struct {
	Token    string
	UserID   string
	Email    string
	Name     string
	Role     string
	IssuedAt time.Time
}

// Valid сообщает, что сессия содержит токен и пользователя.
func (s AuthSession) Valid() bool {
	return s.Token != "" && s.UserID != ""
}
