package models

import "time"

// Payment provider constants used across purchase-related models.
const (
	PaymentProviderPayPal = "paypal"
)

const (
	PurchaseStatusPaid       = "paid"
	PurchaseStatusRefunded   = "refunded"
	PurchaseStatusChargeback = "chargeback"
)

// PurchaseEvent is the immutable audit log of a single provider-reported
// payment lifecycle event. Rows are written once per webhook delivery and
// never mutated; the unique (provider, provider_event_id) index makes
// redelivered webhooks a no-op.
type PurchaseEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Provider        string    `gorm:"type:varchar(20);not null;index:ux_purchase_events_provider_event,unique,priority:1;index" json:"provider"`
	ProviderEventID string    `gorm:"type:varchar(191);not null;default:'';index:ux_purchase_events_provider_event,unique,priority:2" json:"provider_event_id"`
	PurchaserEmail  string    `gorm:"type:varchar(200);not null;index" json:"purchaser_email"`
	AmountCents     int64     `gorm:"not null;default:0" json:"amount_cents"`
	Currency        string    `gorm:"type:varchar(8);not null;default:'usd'" json:"currency"`
	Status          string    `gorm:"type:varchar(20);not null;index" json:"status"`
	ProviderOrderID string    `gorm:"type:varchar(191);index" json:"provider_order_id"`
	RawPayloadJSON  string    `gorm:"type:text;not null" json:"raw_payload_json"`
	ProcessedAt     time.Time `gorm:"type:timestamp;not null" json:"processed_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
