package procurement

import (
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderCreated   = "PurchaseOrderCreated"
	EventTypePurchaseOrderApproved  = "PurchaseOrderApproved"
	EventTypePurchaseOrderRejected  = "PurchaseOrderRejected"
	EventTypePurchaseOrderSent      = "PurchaseOrderSent"
	EventTypePurchaseOrderConfirmed = "PurchaseOrderConfirmed"
	EventTypeGoodsReceived          = "GoodsReceived"
	EventTypePurchaseOrderCancelled = "PurchaseOrderCancelled"
)

// PurchaseOrderEvent carries the order header shared by lifecycle events
type PurchaseOrderEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	SupplierID    uuid.UUID           `json:"supplier_id"`
	SupplierName  string              `json:"supplier_name"`
	RequisitionID *uuid.UUID          `json:"requisition_id,omitempty"`
	Status        PurchaseOrderStatus `json:"status"`
	GrandTotal    decimal.Decimal     `json:"grand_total"`
}

// NewPurchaseOrderEvent creates a lifecycle event of the given type
func NewPurchaseOrderEvent(eventType string, o *PurchaseOrder) *PurchaseOrderEvent {
	return &PurchaseOrderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypePurchaseOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		SupplierID:      o.SupplierID,
		SupplierName:    o.SupplierName,
		RequisitionID:   o.RequisitionID,
		Status:          o.Status,
		GrandTotal:      o.GrandTotal,
	}
}

// SentItemInfo is an order line as presented to the supplier
type SentItemInfo struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// PurchaseOrderSentEvent is raised when the order is dispatched to the supplier
type PurchaseOrderSentEvent struct {
	PurchaseOrderEvent
	SupplierEmail   string          `json:"supplier_email,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Items           []SentItemInfo  `json:"items"`
}

// NewPurchaseOrderSentEvent creates a new PurchaseOrderSentEvent
func NewPurchaseOrderSentEvent(o *PurchaseOrder) *PurchaseOrderSentEvent {
	items := make([]SentItemInfo, len(o.Items))
	for i, item := range o.Items {
		items[i] = SentItemInfo{
			Description: item.Description,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
	}
	return &PurchaseOrderSentEvent{
		PurchaseOrderEvent: *NewPurchaseOrderEvent(EventTypePurchaseOrderSent, o),
		SupplierEmail:      o.SupplierEmail,
		DeliveryAddress:    o.DeliveryAddress,
		TotalAmount:        o.TotalAmount,
		TaxAmount:          o.TaxAmount,
		ShippingCost:       o.ShippingCost,
		Items:              items,
	}
}

// GoodsReceivedEvent is raised for every receipt batch
type GoodsReceivedEvent struct {
	PurchaseOrderEvent
	DeliveryID  uuid.UUID      `json:"delivery_id"`
	WarehouseID uuid.UUID      `json:"warehouse_id"`
	Items       []ReceivedItem `json:"items"`
}

// NewGoodsReceivedEvent creates a new GoodsReceivedEvent
func NewGoodsReceivedEvent(o *PurchaseOrder, d *Delivery, items []ReceivedItem) *GoodsReceivedEvent {
	return &GoodsReceivedEvent{
		PurchaseOrderEvent: *NewPurchaseOrderEvent(EventTypeGoodsReceived, o),
		DeliveryID:         d.ID,
		WarehouseID:        d.WarehouseID,
		Items:              items,
	}
}

// PurchaseOrderCancelledEvent is raised when the order is cancelled
type PurchaseOrderCancelledEvent struct {
	PurchaseOrderEvent
	Reason string `json:"reason,omitempty"`
	// AfterPartialReceipt is true when received stock stays posted to inventory
	AfterPartialReceipt bool `json:"after_partial_receipt"`
}

// NewPurchaseOrderCancelledEvent creates a new PurchaseOrderCancelledEvent
func NewPurchaseOrderCancelledEvent(o *PurchaseOrder, afterPartialReceipt bool) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		PurchaseOrderEvent:  *NewPurchaseOrderEvent(EventTypePurchaseOrderCancelled, o),
		Reason:              o.CancellationReason,
		AfterPartialReceipt: afterPartialReceipt,
	}
}
