package inventory

import (
	"context"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionFilter narrows ledger history queries
type TransactionFilter struct {
	shared.Filter
	Type *TransactionType
	From *time.Time
	To   *time.Time
}

// InventoryRepository defines the interface for inventory record persistence.
// Saving a record also appends its pending ledger entries.
type InventoryRepository interface {
	// FindByIDForTenant finds a record by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*InventoryRecord, error)

	// FindByIDForUpdate finds a record and takes a row lock where the dialect supports it
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*InventoryRecord, error)

	// FindByProductAndWarehouse finds the record for a product-warehouse pair
	FindByProductAndWarehouse(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*InventoryRecord, error)

	// FindByProductAndWarehouseForUpdate is FindByProductAndWarehouse with a row lock
	FindByProductAndWarehouseForUpdate(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*InventoryRecord, error)

	// FindAllForTenant lists records. Filters: product_id, warehouse_id.
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]InventoryRecord, int64, error)

	// FindByStockStatus lists records in the given derived status
	FindByStockStatus(ctx context.Context, tenantID uuid.UUID, status StockStatus, filter shared.Filter) ([]InventoryRecord, int64, error)

	// FindExpiringBefore lists records with an expiry date on or before cutoff
	FindExpiringBefore(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, filter shared.Filter) ([]InventoryRecord, int64, error)

	// ListTransactions returns the ledger of a record, newest first
	ListTransactions(ctx context.Context, tenantID, inventoryID uuid.UUID, filter TransactionFilter) ([]InventoryTransaction, int64, error)

	// Create inserts a new record
	Create(ctx context.Context, record *InventoryRecord) error

	// SaveWithLock updates with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, record *InventoryRecord) error

	// GetOrCreate returns the existing record for the pair, or inserts a new one
	// seeded with unitCost. The returned record is locked for update.
	GetOrCreate(ctx context.Context, tenantID, productID, warehouseID uuid.UUID, unitCost decimal.Decimal) (*InventoryRecord, error)
}
