package dispatch

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// Greeting: фиксированный заголовок сообщения поставщику.
const Greeting = "Hello, I would like to place the following order:"

const waBaseURL = "https://wa.me/"

// BuildMessage формирует текст заказа для WhatsApp.
func BuildMessage(draft domain.Draft) string {
	var b strings.Builder
	b.WriteString(Greeting)
	b.WriteString("\n")
	for _, item := range draft.Items {
		b.WriteString("\n• ")
		b.WriteString(item.ProductName)
		b.WriteString(" - Quantity: ")
		b.WriteString(strconv.Itoa(item.Quantity))
		if notes := strings.TrimSpace(item.Notes); notes != "" {
			b.WriteString(" *Notes:* ")
			b.WriteString(notes)
		}
	}
	if notes := strings.TrimSpace(draft.Notes); notes != "" {
		b.WriteString("\n\n*Notes:* ")
		b.WriteString(notes)
	}
	return b.String()
}

// SanitizePhone оставляет только цифры 0-9.
func SanitizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildLink строит https://wa.me/<digits>?text=<message>.
func BuildLink(phone, message string) (string, error) {
	digits := SanitizePhone(phone)
	if digits == "" {
		return "", domain.ErrInvalidPhone
	}
	return waBaseURL + digits + "?text=" + encodeText(message), nil
}

// encodeText кодирует текст как encodeURIComponent: пробел становится %20, а не +.
func encodeText(message string) string {
	return strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}
