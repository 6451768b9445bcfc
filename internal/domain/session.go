package domain

import "time"

// ComposeMode: как был открыт черновик.
type ComposeMode string

const (
	ComposeModeNew       ComposeMode = "new"
	ComposeModeEdit      ComposeMode = "edit"
	ComposeModeDuplicate ComposeMode = "duplicate"
)

// Valid проверяет режим.
func (m ComposeMode) Valid() bool {
	switch m {
	case ComposeModeNew, ComposeModeEdit, ComposeModeDuplicate:
		return true
	default:
		return false
	}
}

// DispatchChannel: канал доставки заказа поставщику.
type DispatchChannel string

const (
	ChannelEmail    DispatchChannel = "email"
	ChannelWhatsApp DispatchChannel = "whatsapp"
)

// Valid проверяет канал.
func (c DispatchChannel) Valid() bool {
	return c == ChannelEmail || c == ChannelWhatsApp
}

// NotificationMethod сопоставляет канал методу уведомления backend.
func (c DispatchChannel) NotificationMethod() NotificationMethod {
	if c == ChannelWhatsApp {
		return NotificationWhatsApp
	}
	return NotificationEmail
}

// DispatchState: сохранённое состояние диалога отправки.
type DispatchState struct {
	Open    bool
	OrderID string
	Channel DispatchChannel
}

// ComposeSession: черновик одного пользователя со всем состоянием экрана составления заказа.
type ComposeSession struct {
	ID      string
	OwnerID string
	Mode    ComposeMode
	// SourceOrderID: заказ, из которого открыт edit/duplicate.
	SourceOrderID string
	Draft         Draft
	Guard         SupplierGuard
	// Supplier: снимок профиля текущего поставщика; nil, пока поставщик не выбран.
	Supplier *SupplierProfile
	Dispatch DispatchState
	Catalog  CatalogQuery
	Version  int64
	// Finalized выставляется после успешной email-отправки.
	Finalized bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EditMode сообщает, редактируется ли существующий заказ.
func (s *ComposeSession) EditMode() bool {
	return s.Mode == ComposeModeEdit
}

// Clone возвращает глубокую копию сессии.
func (s ComposeSession) Clone() ComposeSession {
	out := s
	out.Draft = s.Draft.Clone()
	if s.Supplier != nil {
		profile := *s.Supplier
		out.Supplier = &profile
	}
	filter := s.Catalog.Filter
	if filter.MinPrice != nil {
		v := *filter.MinPrice
		filter.MinPrice = &v
	}
	if filter.MaxPrice != nil {
		v := *filter.MaxPrice
		filter.MaxPrice = &v
	}
	out.Catalog.Filter = filter
	return out
}
