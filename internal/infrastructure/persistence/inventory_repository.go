package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRepository implements InventoryRepository using GORM.
// Saving a record appends its pending ledger entries in the same transaction.
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// FindByIDForTenant finds an inventory record by ID within a tenant
func (r *GormInventoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryRecord, error) {
	return r.findOne(r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByIDForUpdate finds an inventory record and locks its row
func (r *GormInventoryRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryRecord, error) {
	return r.findOne(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByProductAndWarehouse finds the record for a product-warehouse pair
func (r *GormInventoryRepository) FindByProductAndWarehouse(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*inventory.InventoryRecord, error) {
	return r.findOne(r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND warehouse_id = ?", tenantID, productID, warehouseID))
}

// FindByProductAndWarehouseForUpdate finds the record for a product-warehouse pair and locks its row
func (r *GormInventoryRepository) FindByProductAndWarehouseForUpdate(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*inventory.InventoryRecord, error) {
	return r.findOne(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND product_id = ? AND warehouse_id = ?", tenantID, productID, warehouseID))
}

func (r *GormInventoryRepository) findOne(query *gorm.DB) (*inventory.InventoryRecord, error) {
	var model models.InventoryRecordModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists inventory records with filtering and pagination
func (r *GormInventoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryRecord, int64, error) {
	return r.list(r.tenantQuery(ctx, tenantID, filter), filter, "created_at")
}

// FindByStockStatus lists records in the given derived status.
// The predicates mirror InventoryRecord.StockStatus.
func (r *GormInventoryRepository) FindByStockStatus(ctx context.Context, tenantID uuid.UUID, status inventory.StockStatus, filter shared.Filter) ([]inventory.InventoryRecord, int64, error) {
	query := r.tenantQuery(ctx, tenantID, filter)
	switch status {
	case inventory.StockStatusOutOfStock:
		query = query.Where("quantity = 0")
	case inventory.StockStatusOverstock:
		query = query.Where("quantity > 0 AND max_stock_level IS NOT NULL AND quantity >= max_stock_level")
	case inventory.StockStatusLowStock:
		query = query.Where("quantity > 0 AND quantity <= reorder_level").
			Where("max_stock_level IS NULL OR quantity < max_stock_level")
	case inventory.StockStatusInStock:
		query = query.Where("quantity > 0 AND quantity > reorder_level").
			Where("max_stock_level IS NULL OR quantity < max_stock_level")
	default:
		return nil, 0, shared.NewDomainErrorf(shared.CodeValidation, "Invalid stock status %q", status)
	}
	return r.list(query, filter, "quantity")
}

// FindExpiringBefore lists records with an expiry date on or before cutoff, soonest first
func (r *GormInventoryRepository) FindExpiringBefore(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, filter shared.Filter) ([]inventory.InventoryRecord, int64, error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "expiry_date"
		filter.OrderDir = "asc"
	}
	query := r.tenantQuery(ctx, tenantID, filter).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", cutoff)
	return r.list(query, filter, "expiry_date")
}

func (r *GormInventoryRepository) tenantQuery(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.InventoryRecordModel{}).Where("tenant_id = ?", tenantID)
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		}
	}
	return query
}

func (r *GormInventoryRepository) list(query *gorm.DB, filter shared.Filter, defaultSort string) ([]inventory.InventoryRecord, int64, error) {
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recModels []models.InventoryRecordModel
	if err := inventorySort.paginate(query, filter, defaultSort).Find(&recModels).Error; err != nil {
		return nil, 0, err
	}
	records := make([]inventory.InventoryRecord, len(recModels))
	for i := range recModels {
		records[i] = *recModels[i].ToDomain()
	}
	return records, total, nil
}

// ListTransactions returns the ledger of a record, newest first
func (r *GormInventoryRepository) ListTransactions(ctx context.Context, tenantID, inventoryID uuid.UUID, filter inventory.TransactionFilter) ([]inventory.InventoryTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryTransactionModel{}).
		Where("tenant_id = ? AND inventory_id = ?", tenantID, inventoryID)
	if filter.Type != nil {
		query = query.Where("transaction_type = ?", *filter.Type)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at <= ?", *filter.To)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Filter
	if page.OrderBy == "" {
		page.OrderBy = "occurred_at"
		page.OrderDir = "desc"
	}
	var txModels []models.InventoryTransactionModel
	if err := ledgerSort.paginate(query, page, "occurred_at").Find(&txModels).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]inventory.InventoryTransaction, len(txModels))
	for i := range txModels {
		entries[i] = txModels[i].ToDomain()
	}
	return entries, total, nil
}

// Create inserts a new record and any ledger entries it already carries
func (r *GormInventoryRepository) Create(ctx context.Context, record *inventory.InventoryRecord) error {
	model := models.InventoryRecordModelFromDomain(record)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return insertLedgerEntries(tx, record.PendingTransactions())
	})
	if err != nil {
		return err
	}
	record.ClearPendingTransactions()
	return nil
}

// SaveWithLock updates the record if its stored version still matches and
// appends the pending ledger entries. A stale version yields CONCURRENCY_CONFLICT.
func (r *GormInventoryRepository) SaveWithLock(ctx context.Context, record *inventory.InventoryRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	model := models.InventoryRecordModelFromDomain(record)
	nextVersion := record.Version + 1
	model.Version = nextVersion
	model.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(model).
			Where("tenant_id = ? AND version = ?", record.TenantID, record.Version).
			Select("*").
			Omit("id", "tenant_id", "created_at", "created_by", "product_id", "warehouse_id").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return insertLedgerEntries(tx, record.PendingTransactions())
	})
	if err != nil {
		return err
	}
	record.Version = nextVersion
	record.UpdatedAt = model.UpdatedAt
	record.ClearPendingTransactions()
	return nil
}

// GetOrCreate returns the locked record for the pair, inserting an empty one seeded
// with unitCost when none exists. A concurrent insert of the same pair is absorbed
// by the unique key and the winner's row is read back under lock.
func (r *GormInventoryRepository) GetOrCreate(ctx context.Context, tenantID, productID, warehouseID uuid.UUID, unitCost decimal.Decimal) (*inventory.InventoryRecord, error) {
	record, err := r.FindByProductAndWarehouseForUpdate(ctx, tenantID, productID, warehouseID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	record, err = inventory.NewInventoryRecord(tenantID, productID, warehouseID, unitCost)
	if err != nil {
		return nil, err
	}
	model := models.InventoryRecordModelFromDomain(record)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "product_id"}, {Name: "warehouse_id"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return r.FindByProductAndWarehouseForUpdate(ctx, tenantID, productID, warehouseID)
	}
	return record, nil
}

func insertLedgerEntries(tx *gorm.DB, entries []inventory.InventoryTransaction) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.InventoryTransactionModel, len(entries))
	for i, entry := range entries {
		rows[i] = models.InventoryTransactionModelFromDomain(entry)
	}
	return tx.Create(rows).Error
}

// Ensure GormInventoryRepository implements InventoryRepository
var _ inventory.InventoryRepository = (*GormInventoryRepository)(nil)
