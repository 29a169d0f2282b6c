package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderMessage is the content sent to a supplier when an order is dispatched
type PurchaseOrderMessage struct {
	TenantID        uuid.UUID
	OrderID         uuid.UUID
	OrderNumber     string
	SupplierName    string
	SupplierEmail   string
	DeliveryAddress string
	Lines           []PurchaseOrderMessageLine
	TotalAmount     decimal.Decimal
	TaxAmount       decimal.Decimal
	ShippingCost    decimal.Decimal
	GrandTotal      decimal.Decimal
}

// PurchaseOrderMessageLine is one order line as presented to the supplier
type PurchaseOrderMessageLine struct {
	Description string
	Quantity    decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// SupplierNotifier delivers purchase orders to suppliers
type SupplierNotifier interface {
	NotifyPurchaseOrderSent(ctx context.Context, msg PurchaseOrderMessage) error
}

// SupplierDirectory is the supplier master data the engine reads and updates
type SupplierDirectory interface {
	// ContactEmail returns the supplier's order e-mail address, or "" if none is on file
	ContactEmail(ctx context.Context, tenantID, supplierID uuid.UUID) (string, error)

	// IncrementOrderCount bumps the supplier's lifetime confirmed order counter
	IncrementOrderCount(ctx context.Context, tenantID, supplierID uuid.UUID) error
}
