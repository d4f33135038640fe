package models

import "time"

// ProductMapping translates a provider-specific item identifier into the
// internal product SKU. Rows are administrative data managed outside this
// service; the reconciler only reads them.
type ProductMapping struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Provider          string    `gorm:"type:varchar(20);not null;index:ux_product_mappings_provider_product,unique,priority:1" json:"provider"`
	ProviderProductID string    `gorm:"type:varchar(191);not null;index:ux_product_mappings_provider_product,unique,priority:2" json:"provider_product_id"`
	ProductSKU        string    `gorm:"type:varchar(100);not null;index" json:"product_sku"`
	IsActive          bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
