package payments

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vidpersona/payments/app/models"
)

// Repository provides the DB operations used by the reconciliation service.
type Repository interface {
	CreatePurchaseEventIfNotExists(event *models.PurchaseEvent) (bool, *models.PurchaseEvent, error)
	FindPurchaseEventByOrderID(provider, orderID string) (*models.PurchaseEvent, error)
	FindActiveProductMapping(provider, providerProductID string) (*models.ProductMapping, error)
	GetUserByEmail(email string) (*models.User, error)
	UpsertUserEntitlement(ent *models.UserEntitlement) error
	UpsertPendingEntitlement(ent *models.PendingEntitlement) error
	UpdateUserEntitlementStatusByOrder(provider, orderID, status string) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a reconciliation repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreatePurchaseEventIfNotExists(event *models.PurchaseEvent) (bool, *models.PurchaseEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PurchaseEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) FindPurchaseEventByOrderID(provider, orderID string) (*models.PurchaseEvent, error) {
	var event models.PurchaseEvent
	err := r.db.Where("provider = ? AND provider_order_id = ?", provider, orderID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *gormRepository) FindActiveProductMapping(provider, providerProductID string) (*models.ProductMapping, error) {
	var m models.ProductMapping
	err := r.db.
		Where("provider = ? AND provider_product_id = ? AND is_active = ?", provider, providerProductID, true).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) UpsertUserEntitlement(ent *models.UserEntitlement) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "product_sku"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"source_provider",
			"source_order_id",
			"status",
			"updated_at",
		}),
	}).Create(ent).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("user_id = ? AND product_sku = ?", ent.UserID, ent.ProductSKU).
		First(ent).Error
}

func (r *gormRepository) UpsertPendingEntitlement(ent *models.PendingEntitlement) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "purchaser_email"},
			{Name: "product_sku"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"source_provider",
			"source_order_id",
			"purchase_event_id",
			"status",
			"updated_at",
		}),
	}).Create(ent).Error; err != nil {
		return err
	}

	return r.db.Where("purchaser_email = ? AND product_sku = ?", ent.PurchaserEmail, ent.ProductSKU).
		First(ent).Error
}

func (r *gormRepository) UpdateUserEntitlementStatusByOrder(provider, orderID, status string) (int64, error) {
	tx := r.db.Model(&models.UserEntitlement{}).
		Where("source_provider = ? AND source_order_id = ?", provider, orderID).
		Update("status", status)
	return tx.RowsAffected, tx.Error
}
