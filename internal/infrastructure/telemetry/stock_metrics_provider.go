package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockMetricsProvider reads stock gauges straight from the inventory_records table.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a provider backed by db.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

func (p *GormStockMetricsProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("inventory_records").
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}

func (p *GormStockMetricsProvider) GetReservedQuantityByWarehouse(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		WarehouseID uuid.UUID
		Reserved    decimal.Decimal
	}
	err := p.db.WithContext(ctx).
		Table("inventory_records").
		Select("warehouse_id, COALESCE(SUM(reserved_quantity), 0) AS reserved").
		Where("tenant_id = ?", tenantID).
		Group("warehouse_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.WarehouseID] = r.Reserved
	}
	return out, nil
}

func (p *GormStockMetricsProvider) GetLowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("inventory_records").
		Where("tenant_id = ? AND quantity > 0 AND reorder_level > 0 AND quantity <= reorder_level", tenantID).
		Count(&count).Error
	return count, err
}

var _ StockMetricsProvider = (*GormStockMetricsProvider)(nil)
