package models

import (
	"time"

	"github.com/google/uuid"
)

// SupplierModel is the read-mostly supplier master row used for notifications
// and the confirmed-order counter. Suppliers are maintained outside this service.
type SupplierModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID            uuid.UUID `gorm:"type:uuid;not null;index"`
	Code                string    `gorm:"type:varchar(50)"`
	Name                string    `gorm:"type:varchar(200);not null"`
	Email               string    `gorm:"type:varchar(200)"`
	ConfirmedOrderCount int64     `gorm:"not null;default:0"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}
