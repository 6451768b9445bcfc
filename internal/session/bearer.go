package session

import "strings"

// BearerToken извлекает токен из значения заголовка Authorization ("Bearer <token>").
// Значение без схемы считается самим токеном.
func BearerToken(header string) string {
	parts := strings.Fields(header)
	switch {
	case len(parts) == 2 && strings.EqualFold(parts[0], "bearer"):
		return parts[1]
	case len(parts) == 1 && !strings.EqualFold(parts[0], "bearer"):
		return parts[0]
	default:
		return ""
	}
}
