package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of a ledger entry. Values are wire values.
type TransactionType string

const (
	TransactionTypeReceipt    TransactionType = "Receipt"
	TransactionTypeIssue      TransactionType = "Issue"
	TransactionTypeTransfer   TransactionType = "Transfer"
	TransactionTypeAdjustment TransactionType = "Adjustment"
	TransactionTypeReturn     TransactionType = "Return"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeReceipt,
		TransactionTypeIssue,
		TransactionTypeTransfer,
		TransactionTypeAdjustment,
		TransactionTypeReturn:
		return true
	}
	return false
}

// SourceType names the kind of document that caused a movement
type SourceType string

const (
	SourceTypePurchaseOrder SourceType = "PURCHASE_ORDER"
	SourceTypeTransfer      SourceType = "TRANSFER"
	SourceTypeManual        SourceType = "MANUAL"
	SourceTypeStockCount    SourceType = "STOCK_COUNT"
)

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// Movement describes who caused a ledger entry and why
type Movement struct {
	Reference   string
	SourceType  SourceType
	SourceID    *uuid.UUID
	PerformedBy uuid.UUID
	Notes       string
	// CounterpartWarehouseID is the other side of a transfer
	CounterpartWarehouseID *uuid.UUID
}

// InventoryTransaction is an immutable ledger entry.
// Quantity is signed: positive entries add stock, negative entries remove it.
type InventoryTransaction struct {
	ID                     uuid.UUID
	TenantID               uuid.UUID
	InventoryID            uuid.UUID
	ProductID              uuid.UUID
	WarehouseID            uuid.UUID
	Type                   TransactionType
	Quantity               decimal.Decimal
	BalanceBefore          decimal.Decimal
	BalanceAfter           decimal.Decimal
	UnitCost               decimal.Decimal
	Reference              string
	SourceType             SourceType
	SourceID               *uuid.UUID
	CounterpartWarehouseID *uuid.UUID
	PerformedBy            *uuid.UUID
	Notes                  string
	OccurredAt             time.Time
}

// IsInbound returns true if the entry added stock
func (t *InventoryTransaction) IsInbound() bool {
	return t.Quantity.IsPositive()
}

// Value returns the signed cost impact of the entry
func (t *InventoryTransaction) Value() decimal.Decimal {
	return t.Quantity.Mul(t.UnitCost)
}
