package inventory

import (
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryRecord is the stock ledger for one product in one warehouse.
// It is the aggregate root for all stock mutations; the composite key is
// TenantID + ProductID + WarehouseID.
type InventoryRecord struct {
	shared.TenantAggregateRoot
	ProductID         uuid.UUID
	WarehouseID       uuid.UUID
	Quantity          decimal.Decimal // On hand
	ReservedQuantity  decimal.Decimal // Earmarked for pending commitments
	AvailableQuantity decimal.Decimal // Quantity - ReservedQuantity
	UnitCost          decimal.Decimal
	TotalValue        decimal.Decimal // Quantity * UnitCost
	ReorderLevel      decimal.Decimal
	MaxStockLevel     *decimal.Decimal
	ExpiryDate        *time.Time
	Location          string

	pending []InventoryTransaction
}

// NewInventoryRecord creates an empty record for a product-warehouse pair
func NewInventoryRecord(tenantID, productID, warehouseID uuid.UUID, unitCost decimal.Decimal) (*InventoryRecord, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if err := shared.CheckScale("Unit cost", unitCost); err != nil {
		return nil, err
	}

	rec := &InventoryRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		WarehouseID:         warehouseID,
		Quantity:            decimal.Zero,
		ReservedQuantity:    decimal.Zero,
		UnitCost:            unitCost,
		ReorderLevel:        decimal.Zero,
	}
	rec.recompute()
	return rec, nil
}

// AddTransaction applies a signed quantity change and appends the ledger entry.
// Receipts and returns must be positive, issues negative; transfers and
// adjustments may go either way.
func (r *InventoryRecord) AddTransaction(txType TransactionType, signedQuantity decimal.Decimal, m Movement) (*InventoryTransaction, error) {
	if !txType.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "Invalid transaction type %q", txType)
	}
	if signedQuantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be zero")
	}
	if err := shared.CheckScale("Quantity", signedQuantity); err != nil {
		return nil, err
	}
	switch txType {
	case TransactionTypeReceipt, TransactionTypeReturn:
		if signedQuantity.IsNegative() {
			return nil, shared.NewDomainErrorf("INVALID_QUANTITY", "%s quantity must be positive", txType)
		}
	case TransactionTypeIssue:
		if signedQuantity.IsPositive() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Issue quantity must be negative")
		}
	}

	newQuantity := r.Quantity.Add(signedQuantity)
	if signedQuantity.IsNegative() {
		switch txType {
		case TransactionTypeAdjustment:
			if newQuantity.IsNegative() {
				return nil, shared.NewDomainErrorf(shared.CodeInvalidAdjustment,
					"Adjustment of %s would leave quantity at %s", signedQuantity, newQuantity)
			}
			if newQuantity.LessThan(r.ReservedQuantity) {
				return nil, shared.NewDomainErrorf(shared.CodeInvalidAdjustment,
					"Adjustment of %s would leave quantity %s below reserved %s", signedQuantity, newQuantity, r.ReservedQuantity)
			}
		default:
			if signedQuantity.Abs().GreaterThan(r.AvailableQuantity) {
				return nil, shared.NewDomainErrorf(shared.CodeInsufficientStock,
					"Insufficient stock: requested %s, available %s", signedQuantity.Abs(), r.AvailableQuantity)
			}
		}
	}

	now := time.Now().UTC()
	entry := InventoryTransaction{
		ID:                     uuid.New(),
		TenantID:               r.TenantID,
		InventoryID:            r.ID,
		ProductID:              r.ProductID,
		WarehouseID:            r.WarehouseID,
		Type:                   txType,
		Quantity:               signedQuantity,
		BalanceBefore:          r.Quantity,
		BalanceAfter:           newQuantity,
		UnitCost:               r.UnitCost,
		Reference:              m.Reference,
		SourceType:             m.SourceType,
		SourceID:               m.SourceID,
		CounterpartWarehouseID: m.CounterpartWarehouseID,
		Notes:                  m.Notes,
		OccurredAt:             now,
	}
	if entry.SourceType == "" {
		entry.SourceType = SourceTypeManual
	}
	if m.PerformedBy != uuid.Nil {
		by := m.PerformedBy
		entry.PerformedBy = &by
	}

	wasLow := r.IsLowStock()
	r.Quantity = newQuantity
	r.recompute()
	r.pending = append(r.pending, entry)
	r.Touch(now)

	r.AddDomainEvent(NewStockMovedEvent(r, &entry))
	if !wasLow && r.IsLowStock() {
		r.AddDomainEvent(NewReorderLevelReachedEvent(r))
	}

	return &entry, nil
}

// Receive posts a goods receipt and sets the unit cost to the receipt price
func (r *InventoryRecord) Receive(quantity, unitCost decimal.Decimal, m Movement) (*InventoryTransaction, error) {
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Receipt quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if err := shared.CheckScale("Unit cost", unitCost); err != nil {
		return nil, err
	}
	r.UnitCost = unitCost
	return r.AddTransaction(TransactionTypeReceipt, quantity, m)
}

// Issue removes available stock
func (r *InventoryRecord) Issue(quantity decimal.Decimal, m Movement) (*InventoryTransaction, error) {
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Issue quantity must be positive")
	}
	return r.AddTransaction(TransactionTypeIssue, quantity.Neg(), m)
}

// Return puts previously issued stock back on hand
func (r *InventoryRecord) Return(quantity decimal.Decimal, m Movement) (*InventoryTransaction, error) {
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be positive")
	}
	return r.AddTransaction(TransactionTypeReturn, quantity, m)
}

// TransferOut removes stock leaving for another warehouse
func (r *InventoryRecord) TransferOut(quantity decimal.Decimal, m Movement) (*InventoryTransaction, error) {
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Transfer quantity must be positive")
	}
	return r.AddTransaction(TransactionTypeTransfer, quantity.Neg(), m)
}

// TransferIn adds stock arriving from another warehouse
func (r *InventoryRecord) TransferIn(quantity decimal.Decimal, m Movement) (*InventoryTransaction, error) {
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Transfer quantity must be positive")
	}
	return r.AddTransaction(TransactionTypeTransfer, quantity, m)
}

// Adjust corrects the on-hand quantity by a signed amount.
// A reason is required for audit purposes.
func (r *InventoryRecord) Adjust(signedQuantity decimal.Decimal, reason string, m Movement) (*InventoryTransaction, error) {
	if reason == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Adjustment reason is required")
	}
	if signedQuantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
	}
	if m.Notes == "" {
		m.Notes = reason
	} else {
		m.Notes = fmt.Sprintf("%s: %s", reason, m.Notes)
	}
	if m.Reference == "" {
		m.Reference = reason
	}
	return r.AddTransaction(TransactionTypeAdjustment, signedQuantity, m)
}

// Reserve earmarks available stock
func (r *InventoryRecord) Reserve(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Reserve quantity must be positive")
	}
	if err := shared.CheckScale("Reserve quantity", quantity); err != nil {
		return err
	}
	if quantity.GreaterThan(r.AvailableQuantity) {
		return shared.NewDomainErrorf(shared.CodeInsufficientStock,
			"Insufficient stock to reserve: requested %s, available %s", quantity, r.AvailableQuantity)
	}

	r.ReservedQuantity = r.ReservedQuantity.Add(quantity)
	r.recompute()
	r.Touch(time.Now().UTC())
	r.AddDomainEvent(NewReservationChangedEvent(r, EventTypeStockReserved, quantity))
	return nil
}

// Release returns reserved stock to available
func (r *InventoryRecord) Release(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Release quantity must be positive")
	}
	if err := shared.CheckScale("Release quantity", quantity); err != nil {
		return err
	}
	if quantity.GreaterThan(r.ReservedQuantity) {
		return shared.NewDomainErrorf(shared.CodeInvalidAdjustment,
			"Cannot release %s, only %s reserved", quantity, r.ReservedQuantity)
	}

	r.ReservedQuantity = r.ReservedQuantity.Sub(quantity)
	r.recompute()
	r.Touch(time.Now().UTC())
	r.AddDomainEvent(NewReservationChangedEvent(r, EventTypeStockReleased, quantity))
	return nil
}

// SetLevels updates the reorder threshold, overstock ceiling, expiry and bin location
func (r *InventoryRecord) SetLevels(reorderLevel decimal.Decimal, maxStockLevel *decimal.Decimal, expiryDate *time.Time, location string) error {
	if reorderLevel.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Reorder level cannot be negative")
	}
	if err := shared.CheckScale("Reorder level", reorderLevel); err != nil {
		return err
	}
	if maxStockLevel != nil {
		if err := shared.CheckScale("Maximum stock level", *maxStockLevel); err != nil {
			return err
		}
		if !maxStockLevel.IsPositive() {
			return shared.NewDomainError("INVALID_QUANTITY", "Maximum stock level must be positive")
		}
		if maxStockLevel.LessThan(reorderLevel) {
			return shared.NewDomainError("INVALID_QUANTITY", "Maximum stock level cannot be below reorder level")
		}
	}

	r.ReorderLevel = reorderLevel
	r.MaxStockLevel = maxStockLevel
	r.ExpiryDate = expiryDate
	r.Location = location
	r.Touch(time.Now().UTC())
	return nil
}

// Validate checks the ledger invariants
func (r *InventoryRecord) Validate() error {
	if r.Quantity.IsNegative() {
		return shared.NewDomainErrorf(shared.CodeInvalidAdjustment, "Quantity cannot be negative (got %s)", r.Quantity)
	}
	if r.ReservedQuantity.IsNegative() {
		return shared.NewDomainErrorf(shared.CodeInvalidAdjustment, "Reserved quantity cannot be negative (got %s)", r.ReservedQuantity)
	}
	if !r.AvailableQuantity.Equal(r.Quantity.Sub(r.ReservedQuantity)) {
		return shared.NewDomainError(shared.CodeValidation, "Available quantity is out of sync")
	}
	if !r.TotalValue.Equal(r.Quantity.Mul(r.UnitCost)) {
		return shared.NewDomainError(shared.CodeValidation, "Total value is out of sync")
	}
	return nil
}

// PendingTransactions returns ledger entries appended since the last save
func (r *InventoryRecord) PendingTransactions() []InventoryTransaction {
	return r.pending
}

// ClearPendingTransactions drops entries once they have been persisted
func (r *InventoryRecord) ClearPendingTransactions() {
	r.pending = nil
}

// recompute derives AvailableQuantity and TotalValue; they are never set directly
func (r *InventoryRecord) recompute() {
	r.AvailableQuantity = r.Quantity.Sub(r.ReservedQuantity)
	r.TotalValue = r.Quantity.Mul(r.UnitCost)
}

// Recompute refreshes derived fields after loading from storage
func (r *InventoryRecord) Recompute() {
	r.recompute()
}
