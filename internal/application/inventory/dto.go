package inventory

import (
	"time"

	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryResponse represents an inventory record in API responses
type InventoryResponse struct {
	ID                uuid.UUID        `json:"id"`
	TenantID          uuid.UUID        `json:"tenant_id"`
	ProductID         uuid.UUID        `json:"product_id"`
	WarehouseID       uuid.UUID        `json:"warehouse_id"`
	Quantity          decimal.Decimal  `json:"quantity"`
	ReservedQuantity  decimal.Decimal  `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal  `json:"available_quantity"`
	UnitCost          decimal.Decimal  `json:"unit_cost"`
	TotalValue        decimal.Decimal  `json:"total_value"`
	ReorderLevel      decimal.Decimal  `json:"reorder_level"`
	MaxStockLevel     *decimal.Decimal `json:"max_stock_level,omitempty"`
	ExpiryDate        *time.Time       `json:"expiry_date,omitempty"`
	DaysUntilExpiry   *int             `json:"days_until_expiry,omitempty"`
	Location          string           `json:"location,omitempty"`
	StockStatus       string           `json:"stock_status"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	Version           int              `json:"version"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID                     uuid.UUID       `json:"id"`
	InventoryID            uuid.UUID       `json:"inventory_id"`
	ProductID              uuid.UUID       `json:"product_id"`
	WarehouseID            uuid.UUID       `json:"warehouse_id"`
	Type                   string          `json:"type"`
	Quantity               decimal.Decimal `json:"quantity"`
	BalanceBefore          decimal.Decimal `json:"balance_before"`
	BalanceAfter           decimal.Decimal `json:"balance_after"`
	UnitCost               decimal.Decimal `json:"unit_cost"`
	Reference              string          `json:"reference,omitempty"`
	SourceType             string          `json:"source_type"`
	SourceID               *uuid.UUID      `json:"source_id,omitempty"`
	CounterpartWarehouseID *uuid.UUID      `json:"counterpart_warehouse_id,omitempty"`
	PerformedBy            *uuid.UUID      `json:"performed_by,omitempty"`
	Notes                  string          `json:"notes,omitempty"`
	OccurredAt             time.Time       `json:"occurred_at"`
}

// MovementResponse is returned by the ledger write operations
type MovementResponse struct {
	Inventory   InventoryResponse   `json:"inventory"`
	Transaction TransactionResponse `json:"transaction"`
}

// TransferResponse is returned by a warehouse transfer
type TransferResponse struct {
	TransferID  uuid.UUID           `json:"transfer_id"`
	Source      InventoryResponse   `json:"source"`
	Destination InventoryResponse   `json:"destination"`
	Outbound    TransactionResponse `json:"outbound"`
	Inbound     TransactionResponse `json:"inbound"`
}

// InventoryListFilter represents filter options for inventory lists
type InventoryListFilter struct {
	ProductID   *uuid.UUID `form:"product_id"`
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at quantity available_quantity total_value expiry_date"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TransactionListFilter represents filter options for ledger history
type TransactionListFilter struct {
	Type     string     `form:"type" binding:"omitempty,oneof=Receipt Issue Transfer Adjustment Return"`
	From     *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// MovementRequest books a receipt, issue or return
type MovementRequest struct {
	ProductID   uuid.UUID        `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID        `json:"warehouse_id" binding:"required"`
	Type        string           `json:"type" binding:"required,oneof=Receipt Issue Return"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"required"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
	Reference   string           `json:"reference" binding:"max=100"`
	Notes       string           `json:"notes" binding:"max=500"`
}

// TransferRequest moves stock between two warehouses
type TransferRequest struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Reference       string          `json:"reference" binding:"max=100"`
	Notes           string          `json:"notes" binding:"max=500"`
}

// AdjustRequest corrects the on-hand quantity by a signed amount
type AdjustRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Reason   string          `json:"reason" binding:"required,max=200"`
	Notes    string          `json:"notes" binding:"max=500"`
}

// QuantityRequest carries a positive quantity for reserve and release
type QuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// SetLevelsRequest updates the stock thresholds and metadata of a record
type SetLevelsRequest struct {
	ReorderLevel  decimal.Decimal  `json:"reorder_level"`
	MaxStockLevel *decimal.Decimal `json:"max_stock_level"`
	ExpiryDate    *time.Time       `json:"expiry_date"`
	Location      string           `json:"location" binding:"max=50"`
}

// ToInventoryResponse converts a domain record to a response
func ToInventoryResponse(r *inventory.InventoryRecord, now time.Time) InventoryResponse {
	resp := InventoryResponse{
		ID:                r.ID,
		TenantID:          r.TenantID,
		ProductID:         r.ProductID,
		WarehouseID:       r.WarehouseID,
		Quantity:          r.Quantity,
		ReservedQuantity:  r.ReservedQuantity,
		AvailableQuantity: r.AvailableQuantity,
		UnitCost:          r.UnitCost,
		TotalValue:        r.TotalValue,
		ReorderLevel:      r.ReorderLevel,
		MaxStockLevel:     r.MaxStockLevel,
		ExpiryDate:        r.ExpiryDate,
		Location:          r.Location,
		StockStatus:       r.StockStatus().String(),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Version:           r.Version,
	}
	if days, ok := r.DaysUntilExpiry(now); ok {
		resp.DaysUntilExpiry = &days
	}
	return resp
}

// ToInventoryResponses converts a slice of records
func ToInventoryResponses(records []inventory.InventoryRecord, now time.Time) []InventoryResponse {
	responses := make([]InventoryResponse, len(records))
	for i := range records {
		responses[i] = ToInventoryResponse(&records[i], now)
	}
	return responses
}

// ToTransactionResponse converts a ledger entry to a response
func ToTransactionResponse(tx *inventory.InventoryTransaction) TransactionResponse {
	return TransactionResponse{
		ID:                     tx.ID,
		InventoryID:            tx.InventoryID,
		ProductID:              tx.ProductID,
		WarehouseID:            tx.WarehouseID,
		Type:                   tx.Type.String(),
		Quantity:               tx.Quantity,
		BalanceBefore:          tx.BalanceBefore,
		BalanceAfter:           tx.BalanceAfter,
		UnitCost:               tx.UnitCost,
		Reference:              tx.Reference,
		SourceType:             tx.SourceType.String(),
		SourceID:               tx.SourceID,
		CounterpartWarehouseID: tx.CounterpartWarehouseID,
		PerformedBy:            tx.PerformedBy,
		Notes:                  tx.Notes,
		OccurredAt:             tx.OccurredAt,
	}
}

// ToTransactionResponses converts a slice of ledger entries
func ToTransactionResponses(txs []inventory.InventoryTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses
}
