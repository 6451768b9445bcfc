package domain

import "strings"

// SupplierProfile: read-only проекция поставщика, получаемая по идентификатору.
type SupplierProfile struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// HasEmail сообщает, доступен ли email-канал отправки.
func (p SupplierProfile) HasEmail() bool {
	return strings.TrimSpace(p.Email) != ""
}

// HasPhone сообщает, доступен ли WhatsApp-канал отправки.
func (p SupplierProfile) HasPhone() bool {
	return strings.TrimSpace(p.Phone) != ""
}

// Supplier: элемент списка поставщиков для автокомплита.
type Supplier struct {
	ID   string
	Name string
}
