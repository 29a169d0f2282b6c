package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSupplierDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:suppliers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SupplierModel{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func createTestSupplier(t *testing.T, db *gorm.DB, tenantID uuid.UUID, email string) models.SupplierModel {
	t.Helper()
	now := time.Now()
	s := models.SupplierModel{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Code:      "SUP-001",
		Name:      "Acme Fasteners",
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func TestGormSupplierDirectory_ContactEmail(t *testing.T) {
	db := newSupplierDB(t)
	dir := NewGormSupplierDirectory(db)
	ctx := context.Background()
	tenantID := uuid.New()
	supplier := createTestSupplier(t, db, tenantID, "orders@acme.example")

	tests := []struct {
		name       string
		tenantID   uuid.UUID
		supplierID uuid.UUID
		want       string
	}{
		{"known supplier", tenantID, supplier.ID, "orders@acme.example"},
		{"other tenant", uuid.New(), supplier.ID, ""},
		{"unknown supplier", tenantID, uuid.New(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := dir.ContactEmail(ctx, tt.tenantID, tt.supplierID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, email)
		})
	}
}

func TestGormSupplierDirectory_IncrementOrderCount(t *testing.T) {
	db := newSupplierDB(t)
	dir := NewGormSupplierDirectory(db)
	ctx := context.Background()
	tenantID := uuid.New()
	supplier := createTestSupplier(t, db, tenantID, "")

	require.NoError(t, dir.IncrementOrderCount(ctx, tenantID, supplier.ID))
	require.NoError(t, dir.IncrementOrderCount(ctx, tenantID, supplier.ID))

	var reloaded models.SupplierModel
	require.NoError(t, db.First(&reloaded, "id = ?", supplier.ID).Error)
	assert.Equal(t, int64(2), reloaded.ConfirmedOrderCount)

	err := dir.IncrementOrderCount(ctx, uuid.New(), supplier.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
