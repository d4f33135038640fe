package models

import "time"

const (
	EntitlementStatusActive     = "active"
	EntitlementStatusCancelled  = "cancelled"
	EntitlementStatusRefunded   = "refunded"
	EntitlementStatusChargeback = "chargeback"
)

// UserEntitlement is the current access grant of a known user to a product.
// At most one row exists per (user_id, product_sku); a repeat purchase of the
// same SKU refreshes the row instead of duplicating it.
type UserEntitlement struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index:ux_user_entitlements_user_sku,unique,priority:1" json:"user_id"`
	ProductSKU     string    `gorm:"type:varchar(100);not null;index:ux_user_entitlements_user_sku,unique,priority:2" json:"product_sku"`
	SourceProvider string    `gorm:"type:varchar(20);not null" json:"source_provider"`
	SourceOrderID  string    `gorm:"type:varchar(191);index" json:"source_order_id"`
	Status         string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
