package models

import "time"

const (
	PendingStatusPending   = "pending"
	PendingStatusCancelled = "cancelled"
)

// PendingEntitlement stages an access grant for a purchaser who has paid but
// has no user account yet. Resolution into a UserEntitlement happens at
// signup, outside this service. Rows are upserted per
// (purchaser_email, product_sku) so repeat purchases before signup do not
// accumulate duplicates.
type PendingEntitlement struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PurchaserEmail  string    `gorm:"type:varchar(200);not null;index:ux_pending_entitlements_email_sku,unique,priority:1" json:"purchaser_email"`
	ProductSKU      string    `gorm:"type:varchar(100);not null;index:ux_pending_entitlements_email_sku,unique,priority:2" json:"product_sku"`
	SourceProvider  string    `gorm:"type:varchar(20);not null" json:"source_provider"`
	SourceOrderID   string    `gorm:"type:varchar(191);index" json:"source_order_id"`
	PurchaseEventID uint      `gorm:"index" json:"purchase_event_id"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
