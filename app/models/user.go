package models

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User is a read-only projection of the auth subsystem's user records. The
// reconciler only needs the email lookup to decide between a UserEntitlement
// and a PendingEntitlement; account management lives elsewhere.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;type:varchar(200)" json:"email"`
	Status    string    `gorm:"type:varchar(50);default:'active'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
