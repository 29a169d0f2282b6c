package models

import (
	"time"

	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryRecordModel is the persistence model for the InventoryRecord aggregate root.
// AvailableQuantity and TotalValue are stored for reporting but recomputed on load.
type InventoryRecordModel struct {
	AggregateModel
	TenantID          uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_record_key,priority:1"`
	CreatedBy         *uuid.UUID       `gorm:"type:uuid"`
	ProductID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_record_key,priority:2"`
	WarehouseID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_record_key,priority:3;index"`
	Quantity          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	ReservedQuantity  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	AvailableQuantity decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TotalValue        decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderLevel      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	MaxStockLevel     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ExpiryDate        *time.Time       `gorm:"type:date;index"`
	Location          string           `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (InventoryRecordModel) TableName() string {
	return "inventory_records"
}

// ToDomain converts the persistence model to a domain InventoryRecord entity.
func (m *InventoryRecordModel) ToDomain() *inventory.InventoryRecord {
	rec := &inventory.InventoryRecord{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: m.root(),
			TenantID:          m.TenantID,
			CreatedBy:         m.CreatedBy,
		},
		ProductID:        m.ProductID,
		WarehouseID:      m.WarehouseID,
		Quantity:         m.Quantity,
		ReservedQuantity: m.ReservedQuantity,
		UnitCost:         m.UnitCost,
		ReorderLevel:     m.ReorderLevel,
		MaxStockLevel:    m.MaxStockLevel,
		ExpiryDate:       m.ExpiryDate,
		Location:         m.Location,
	}
	rec.Recompute()
	return rec
}

// FromDomain populates the persistence model from a domain InventoryRecord entity.
func (m *InventoryRecordModel) FromDomain(r *inventory.InventoryRecord) {
	m.setRoot(r.BaseAggregateRoot)
	m.TenantID = r.TenantID
	m.CreatedBy = r.CreatedBy
	m.ProductID = r.ProductID
	m.WarehouseID = r.WarehouseID
	m.Quantity = r.Quantity
	m.ReservedQuantity = r.ReservedQuantity
	m.AvailableQuantity = r.AvailableQuantity
	m.UnitCost = r.UnitCost
	m.TotalValue = r.TotalValue
	m.ReorderLevel = r.ReorderLevel
	m.MaxStockLevel = r.MaxStockLevel
	m.ExpiryDate = r.ExpiryDate
	m.Location = r.Location
}

// InventoryRecordModelFromDomain creates a new persistence model from a domain InventoryRecord entity.
func InventoryRecordModelFromDomain(r *inventory.InventoryRecord) *InventoryRecordModel {
	m := &InventoryRecordModel{}
	m.FromDomain(r)
	return m
}

// InventoryTransactionModel is the persistence model for an inventory ledger entry.
// Rows are insert-only.
type InventoryTransactionModel struct {
	ID                     uuid.UUID                 `gorm:"type:uuid;primary_key"`
	TenantID               uuid.UUID                 `gorm:"type:uuid;not null;index"`
	InventoryID            uuid.UUID                 `gorm:"type:uuid;not null;index:idx_inv_tx_record_time,priority:1"`
	ProductID              uuid.UUID                 `gorm:"type:uuid;not null;index"`
	WarehouseID            uuid.UUID                 `gorm:"type:uuid;not null"`
	TransactionType        inventory.TransactionType `gorm:"type:varchar(20);not null"`
	Quantity               decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	BalanceBefore          decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	BalanceAfter           decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	UnitCost               decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Reference              string                    `gorm:"type:varchar(100)"`
	SourceType             inventory.SourceType      `gorm:"type:varchar(30);not null"`
	SourceID               *uuid.UUID                `gorm:"type:uuid;index"`
	CounterpartWarehouseID *uuid.UUID                `gorm:"type:uuid"`
	PerformedBy            *uuid.UUID                `gorm:"type:uuid"`
	Notes                  string                    `gorm:"type:varchar(500)"`
	OccurredAt             time.Time                 `gorm:"not null;index:idx_inv_tx_record_time,priority:2"`
}

// TableName returns the table name for GORM
func (InventoryTransactionModel) TableName() string {
	return "inventory_transactions"
}

// ToDomain converts the persistence model to a domain InventoryTransaction.
func (m *InventoryTransactionModel) ToDomain() inventory.InventoryTransaction {
	return inventory.InventoryTransaction{
		ID:                     m.ID,
		TenantID:               m.TenantID,
		InventoryID:            m.InventoryID,
		ProductID:              m.ProductID,
		WarehouseID:            m.WarehouseID,
		Type:                   m.TransactionType,
		Quantity:               m.Quantity,
		BalanceBefore:          m.BalanceBefore,
		BalanceAfter:           m.BalanceAfter,
		UnitCost:               m.UnitCost,
		Reference:              m.Reference,
		SourceType:             m.SourceType,
		SourceID:               m.SourceID,
		CounterpartWarehouseID: m.CounterpartWarehouseID,
		PerformedBy:            m.PerformedBy,
		Notes:                  m.Notes,
		OccurredAt:             m.OccurredAt,
	}
}

// InventoryTransactionModelFromDomain creates a new persistence model from a ledger entry.
func InventoryTransactionModelFromDomain(t inventory.InventoryTransaction) *InventoryTransactionModel {
	return &InventoryTransactionModel{
		ID:                     t.ID,
		TenantID:               t.TenantID,
		InventoryID:            t.InventoryID,
		ProductID:              t.ProductID,
		WarehouseID:            t.WarehouseID,
		TransactionType:        t.Type,
		Quantity:               t.Quantity,
		BalanceBefore:          t.BalanceBefore,
		BalanceAfter:           t.BalanceAfter,
		UnitCost:               t.UnitCost,
		Reference:              t.Reference,
		SourceType:             t.SourceType,
		SourceID:               t.SourceID,
		CounterpartWarehouseID: t.CounterpartWarehouseID,
		PerformedBy:            t.PerformedBy,
		Notes:                  t.Notes,
		OccurredAt:             t.OccurredAt,
	}
}
