package inventory

import (
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInventoryRecord = "InventoryRecord"

// Event type constants
const (
	EventTypeStockMoved          = "StockMoved"
	EventTypeReorderLevelReached = "ReorderLevelReached"
	EventTypeStockReserved       = "StockReserved"
	EventTypeStockReleased       = "StockReleased"
)

// StockMovedEvent is raised for every ledger entry
type StockMovedEvent struct {
	shared.BaseDomainEvent
	InventoryID     uuid.UUID       `json:"inventory_id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	WarehouseID     uuid.UUID       `json:"warehouse_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	Reference       string          `json:"reference,omitempty"`
}

// NewStockMovedEvent creates a new StockMovedEvent
func NewStockMovedEvent(r *InventoryRecord, tx *InventoryTransaction) *StockMovedEvent {
	return &StockMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMoved, AggregateTypeInventoryRecord, r.ID, r.TenantID),
		InventoryID:     r.ID,
		TransactionID:   tx.ID,
		ProductID:       r.ProductID,
		WarehouseID:     r.WarehouseID,
		TransactionType: tx.Type,
		Quantity:        tx.Quantity,
		BalanceAfter:    tx.BalanceAfter,
		Reference:       tx.Reference,
	}
}

// EventType returns the event type name
func (e *StockMovedEvent) EventType() string {
	return EventTypeStockMoved
}

// ReorderLevelReachedEvent is raised when a movement drops quantity into the low-stock band
type ReorderLevelReachedEvent struct {
	shared.BaseDomainEvent
	InventoryID  uuid.UUID       `json:"inventory_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
}

// NewReorderLevelReachedEvent creates a new ReorderLevelReachedEvent
func NewReorderLevelReachedEvent(r *InventoryRecord) *ReorderLevelReachedEvent {
	return &ReorderLevelReachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReorderLevelReached, AggregateTypeInventoryRecord, r.ID, r.TenantID),
		InventoryID:     r.ID,
		ProductID:       r.ProductID,
		WarehouseID:     r.WarehouseID,
		Quantity:        r.Quantity,
		ReorderLevel:    r.ReorderLevel,
	}
}

// EventType returns the event type name
func (e *ReorderLevelReachedEvent) EventType() string {
	return EventTypeReorderLevelReached
}

// ReservationChangedEvent is raised by Reserve and Release
type ReservationChangedEvent struct {
	shared.BaseDomainEvent
	InventoryID      uuid.UUID       `json:"inventory_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
}

// NewReservationChangedEvent creates a StockReserved or StockReleased event
func NewReservationChangedEvent(r *InventoryRecord, eventType string, quantity decimal.Decimal) *ReservationChangedEvent {
	return &ReservationChangedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(eventType, AggregateTypeInventoryRecord, r.ID, r.TenantID),
		InventoryID:      r.ID,
		Quantity:         quantity,
		ReservedQuantity: r.ReservedQuantity,
	}
}
