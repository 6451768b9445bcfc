package domain

import "time"

// Типы событий timeline черновика.
const (
	TimelineDraftOpened     = "DraftOpened"
	TimelineSupplierChanged = "SupplierChanged"
	TimelineDraftSaved      = "DraftSaved"
	TimelineOrderSent       = "OrderSent"
	TimelineWhatsAppOpened  = "WhatsAppOpened"
	TimelineStatusSynced    = "StatusSynced"
	TimelineDraftClosed     = "DraftClosed"
)

// TimelineEvent описывает событие в жизни черновика.
type TimelineEvent struct {
	SessionID string
	OrderID   string
	Type      string
	Reason    string
	Occurred  time.Time
}
