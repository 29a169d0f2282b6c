package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	appproc "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSupplierDirectory reads supplier contacts from the suppliers table
type GormSupplierDirectory struct {
	db *gorm.DB
}

// NewGormSupplierDirectory creates a new directory
func NewGormSupplierDirectory(db *gorm.DB) *GormSupplierDirectory {
	return &GormSupplierDirectory{db: db}
}

// ContactEmail returns the supplier's e-mail, or "" when the supplier is unknown
func (d *GormSupplierDirectory) ContactEmail(ctx context.Context, tenantID, supplierID uuid.UUID) (string, error) {
	var model models.SupplierModel
	err := d.db.WithContext(ctx).
		Select("email").
		Where("tenant_id = ? AND id = ?", tenantID, supplierID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load supplier %s: %w", supplierID, err)
	}
	return model.Email, nil
}

// IncrementOrderCount adds one to the supplier's confirmed order counter
func (d *GormSupplierDirectory) IncrementOrderCount(ctx context.Context, tenantID, supplierID uuid.UUID) error {
	result := d.db.WithContext(ctx).
		Model(&models.SupplierModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, supplierID).
		Updates(map[string]any{
			"confirmed_order_count": gorm.Expr("confirmed_order_count + 1"),
			"updated_at":            time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update supplier %s: %w", supplierID, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ appproc.SupplierDirectory = (*GormSupplierDirectory)(nil)
