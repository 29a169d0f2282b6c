package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order. Values are wire values.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft              PurchaseOrderStatus = "Draft"
	PurchaseOrderStatusPendingApproval    PurchaseOrderStatus = "Pending Approval"
	PurchaseOrderStatusApproved           PurchaseOrderStatus = "Approved"
	PurchaseOrderStatusSent               PurchaseOrderStatus = "Sent"
	PurchaseOrderStatusConfirmed          PurchaseOrderStatus = "Confirmed"
	PurchaseOrderStatusInTransit          PurchaseOrderStatus = "In Transit"
	PurchaseOrderStatusPartiallyDelivered PurchaseOrderStatus = "Partially Delivered"
	PurchaseOrderStatusDelivered          PurchaseOrderStatus = "Delivered"
	PurchaseOrderStatusInvoiced           PurchaseOrderStatus = "Invoiced"
	PurchaseOrderStatusPaid               PurchaseOrderStatus = "Paid"
	PurchaseOrderStatusCompleted          PurchaseOrderStatus = "Completed"
	PurchaseOrderStatusCancelled          PurchaseOrderStatus = "Cancelled"
	PurchaseOrderStatusRejected           PurchaseOrderStatus = "Rejected"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusPendingApproval, PurchaseOrderStatusApproved,
		PurchaseOrderStatusSent, PurchaseOrderStatusConfirmed, PurchaseOrderStatusInTransit,
		PurchaseOrderStatusPartiallyDelivered, PurchaseOrderStatusDelivered, PurchaseOrderStatusInvoiced,
		PurchaseOrderStatusPaid, PurchaseOrderStatusCompleted, PurchaseOrderStatusCancelled,
		PurchaseOrderStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	if target == PurchaseOrderStatusCancelled {
		return s.CanCancel()
	}
	switch s {
	case PurchaseOrderStatusDraft:
		return target == PurchaseOrderStatusPendingApproval || target == PurchaseOrderStatusApproved || target == PurchaseOrderStatusSent
	case PurchaseOrderStatusPendingApproval:
		return target == PurchaseOrderStatusApproved || target == PurchaseOrderStatusRejected
	case PurchaseOrderStatusApproved:
		return target == PurchaseOrderStatusSent
	case PurchaseOrderStatusRejected:
		return target == PurchaseOrderStatusDraft
	case PurchaseOrderStatusSent:
		return target == PurchaseOrderStatusConfirmed || target == PurchaseOrderStatusPartiallyDelivered || target == PurchaseOrderStatusDelivered
	case PurchaseOrderStatusConfirmed:
		return target == PurchaseOrderStatusInTransit || target == PurchaseOrderStatusPartiallyDelivered || target == PurchaseOrderStatusDelivered
	case PurchaseOrderStatusInTransit, PurchaseOrderStatusPartiallyDelivered:
		return target == PurchaseOrderStatusPartiallyDelivered || target == PurchaseOrderStatusDelivered
	case PurchaseOrderStatusDelivered:
		return target == PurchaseOrderStatusInvoiced
	case PurchaseOrderStatusInvoiced:
		return target == PurchaseOrderStatusPaid
	case PurchaseOrderStatusPaid:
		return target == PurchaseOrderStatusCompleted
	}
	return false
}

// CanReceive returns true if receiving goods is allowed in this status
func (s PurchaseOrderStatus) CanReceive() bool {
	switch s {
	case PurchaseOrderStatusSent, PurchaseOrderStatusConfirmed, PurchaseOrderStatusInTransit, PurchaseOrderStatusPartiallyDelivered:
		return true
	}
	return false
}

// CanCancel returns true unless the order is Delivered, Completed or already Cancelled
func (s PurchaseOrderStatus) CanCancel() bool {
	switch s {
	case PurchaseOrderStatusDelivered, PurchaseOrderStatusCompleted, PurchaseOrderStatusCancelled:
		return false
	}
	return s.IsValid()
}

// PurchaseOrderItem represents a line item in a purchase order
type PurchaseOrderItem struct {
	ID                uuid.UUID
	ProductID         *uuid.UUID
	Description       string
	Quantity          decimal.Decimal
	Unit              string
	UnitPrice         decimal.Decimal
	TotalPrice        decimal.Decimal // Quantity * UnitPrice
	ReceivedQuantity  decimal.Decimal
	CancelledQuantity decimal.Decimal
}

// NewPurchaseOrderItem creates a new order line
func NewPurchaseOrderItem(productID *uuid.UUID, description, unit string, quantity, unitPrice decimal.Decimal) (PurchaseOrderItem, error) {
	if strings.TrimSpace(description) == "" {
		return PurchaseOrderItem{}, shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot be empty")
	}
	if !quantity.IsPositive() {
		return PurchaseOrderItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return PurchaseOrderItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if err := shared.CheckScale("Quantity", quantity); err != nil {
		return PurchaseOrderItem{}, err
	}
	if err := shared.CheckScale("Unit price", unitPrice); err != nil {
		return PurchaseOrderItem{}, err
	}
	if productID != nil && *productID == uuid.Nil {
		productID = nil
	}
	if unit == "" {
		unit = "pcs"
	}

	return PurchaseOrderItem{
		ID:                uuid.New(),
		ProductID:         productID,
		Description:       strings.TrimSpace(description),
		Quantity:          quantity,
		Unit:              unit,
		UnitPrice:         unitPrice,
		TotalPrice:        quantity.Mul(unitPrice),
		ReceivedQuantity:  decimal.Zero,
		CancelledQuantity: decimal.Zero,
	}, nil
}

// OutstandingQuantity returns the quantity neither received nor cancelled
func (i *PurchaseOrderItem) OutstandingQuantity() decimal.Decimal {
	out := i.Quantity.Sub(i.ReceivedQuantity).Sub(i.CancelledQuantity)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// IsFullyReceived returns true if all ordered quantity has been received
func (i *PurchaseOrderItem) IsFullyReceived() bool {
	return i.ReceivedQuantity.GreaterThanOrEqual(i.Quantity)
}

// IsPartiallyReceived returns true when 0 < received < ordered
func (i *PurchaseOrderItem) IsPartiallyReceived() bool {
	return i.ReceivedQuantity.IsPositive() && i.ReceivedQuantity.LessThan(i.Quantity)
}

// Supplier identifies the party an order is placed with
type Supplier struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// ReceiptLine is one line of a goods receipt request
type ReceiptLine struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
}

// Delivery is one goods receipt batch
type Delivery struct {
	ID          uuid.UUID     `json:"id"`
	DeliveredAt time.Time     `json:"delivered_at"`
	ReceivedBy  uuid.UUID     `json:"received_by"`
	WarehouseID uuid.UUID     `json:"warehouse_id"`
	Lines       []ReceiptLine `json:"lines"`
	Notes       string        `json:"notes,omitempty"`
}

// ReceivedItem describes a posted receipt line for inventory posting
type ReceivedItem struct {
	ItemID           uuid.UUID
	ProductID        *uuid.UUID
	Description      string
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	ReceivedQuantity decimal.Decimal // Running total after this receipt
}

// PurchaseOrder represents a purchase order aggregate root
// It manages the lifecycle of a supplier order from creation to completion
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	OrderNumber          string
	SupplierID           uuid.UUID
	SupplierName         string
	SupplierEmail        string
	RequisitionID        *uuid.UUID
	ExpectedDeliveryDate *time.Time
	DeliveryAddress      string
	Items                []PurchaseOrderItem
	TaxAmount            decimal.Decimal
	ShippingCost         decimal.Decimal
	TotalAmount          decimal.Decimal // Sum of item TotalPrice
	GrandTotal           decimal.Decimal // TotalAmount + TaxAmount + ShippingCost
	Status               PurchaseOrderStatus
	Notes                string
	approval.Progress
	Deliveries            []Delivery
	SentToSupplierAt      *time.Time
	ConfirmedBySupplierAt *time.Time
	InTransitAt           *time.Time
	DeliveredAt           *time.Time
	InvoicedAt            *time.Time
	PaidAt                *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
	CancellationReason    string
	RejectionReason       string
}

// NewPurchaseOrder creates a new purchase order in Draft
func NewPurchaseOrder(tenantID uuid.UUID, orderNumber string, supplier Supplier, items []PurchaseOrderItem) (*PurchaseOrder, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if supplier.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if strings.TrimSpace(supplier.Name) == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name cannot be empty")
	}

	order := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		SupplierID:          supplier.ID,
		SupplierName:        supplier.Name,
		SupplierEmail:       supplier.Email,
		Items:               append([]PurchaseOrderItem(nil), items...),
		TaxAmount:           decimal.Zero,
		ShippingCost:        decimal.Zero,
		Status:              PurchaseOrderStatusDraft,
	}
	order.recalculateTotals()

	order.AddDomainEvent(NewPurchaseOrderEvent(EventTypePurchaseOrderCreated, order))
	return order, nil
}

// SetDelivery sets the expected delivery date and address. Only allowed in Draft.
func (o *PurchaseOrder) SetDelivery(expected *time.Time, address string) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.InvalidTransition("change delivery", o.Status)
	}
	o.ExpectedDeliveryDate = expected
	o.DeliveryAddress = address
	o.Touch(time.Now().UTC())
	return nil
}

// SetCharges sets tax and shipping. Only allowed in Draft.
func (o *PurchaseOrder) SetCharges(tax, shipping decimal.Decimal) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.InvalidTransition("change charges", o.Status)
	}
	if tax.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Tax amount cannot be negative")
	}
	if shipping.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Shipping cost cannot be negative")
	}
	if err := shared.CheckScale("Tax amount", tax); err != nil {
		return err
	}
	if err := shared.CheckScale("Shipping cost", shipping); err != nil {
		return err
	}
	o.TaxAmount = tax
	o.ShippingCost = shipping
	o.recalculateTotals()
	o.Touch(time.Now().UTC())
	return nil
}

// UpdateItems replaces every line. Only allowed in Draft.
func (o *PurchaseOrder) UpdateItems(items []PurchaseOrderItem) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.InvalidTransition("update items", o.Status)
	}
	o.Items = append([]PurchaseOrderItem(nil), items...)
	o.recalculateTotals()
	o.Touch(time.Now().UTC())
	return nil
}

// ApprovalCriteria describes the order to the workflow resolver
func (o *PurchaseOrder) ApprovalCriteria(department, category string) approval.Criteria {
	return approval.Criteria{
		DocumentType: approval.DocumentTypePurchaseOrder,
		Amount:       o.GrandTotal,
		Department:   department,
		Category:     category,
	}
}

// SubmitForApproval starts internal approval along plan
func (o *PurchaseOrder) SubmitForApproval(plan approval.Plan, submitter, systemApprover uuid.UUID) error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusPendingApproval) {
		return shared.InvalidTransition("submit for approval", o.Status)
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError(shared.CodeNoItems, "Cannot submit order without items")
	}

	now := time.Now().UTC()
	approved := o.Start(plan, submitter, systemApprover, now)
	o.Status = PurchaseOrderStatusPendingApproval
	o.Touch(now)
	if approved {
		o.Status = PurchaseOrderStatusApproved
		o.AddDomainEvent(NewPurchaseOrderEvent(EventTypePurchaseOrderApproved, o))
	}
	return nil
}

// Approve records an internal approval
func (o *PurchaseOrder) Approve(approver uuid.UUID, comment string) error {
	if o.Status != PurchaseOrderStatusPendingApproval {
		return shared.InvalidTransition("approve", o.Status)
	}

	now := time.Now().UTC()
	done, err := o.Progress.Approve(approver, comment, now)
	if err != nil {
		return err
	}
	o.Touch(now)
	if done {
		o.Status = PurchaseOrderStatusApproved
		o.AddDomainEvent(NewPurchaseOrderEvent(EventTypePurchaseOrderApproved, o))
	}
	return nil
}

// Reject ends internal approval with a rejection
func (o *PurchaseOrder) Reject(approver uuid.UUID, comment string) error {
	if o.Status != PurchaseOrderStatusPendingApproval {
		return shared.InvalidTransition("reject", o.Status)
	}

	now := time.Now().UTC()
	if err := o.Progress.Reject(approver, comment, now); err != nil {
		return err
	}
	o.Status = PurchaseOrderStatusRejected
	o.RejectionReason = comment
	o.Touch(now)
	o.AddDomainEvent(NewPurchaseOrderEvent(EventTypePurchaseOrderRejected, o))
	return nil
}

// Reopen returns a rejected order to Draft for editing
func (o *PurchaseOrder) Reopen() error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusDraft) {
		return shared.InvalidTransition("reopen", o.Status)
	}
	o.Status = PurchaseOrderStatusDraft
	o.RejectionReason = ""
	o.LevelDueAt = nil
	o.Touch(time.Now().UTC())
	return nil
}

// Send dispatches the order to the supplier
func (o *PurchaseOrder) Send() error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusSent) {
		return shared.InvalidTransition("send", o.Status)
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError(shared.CodeNoItems, "Cannot send order without items")
	}

	now := time.Now().UTC()
	o.Status = PurchaseOrderStatusSent
	o.SentToSupplierAt = &now
	o.Touch(now)
	o.AddDomainEvent(NewPurchaseOrderSentEvent(o))
	return nil
}

// Confirm records the supplier's acknowledgement
func (o *PurchaseOrder) Confirm() error {
	if o.Status != PurchaseOrderStatusSent {
		return shared.InvalidTransition("confirm", o.Status)
	}

	now := time.Now().UTC()
	o.Status = PurchaseOrderStatusConfirmed
	o.ConfirmedBySupplierAt = &now
	o.Touch(now)
	o.AddDomainEvent(NewPurchaseOrderEvent(EventTypePurchaseOrderConfirmed, o))
	return nil
}

// MarkInTransit records that the goods have shipped
func (o *PurchaseOrder) MarkInTransit() error {
	if o.Status != PurchaseOrderStatusConfirmed {
		return shared.InvalidTransition("mark in transit", o.Status)
	}

	now := time.Now().UTC()
	o.Status = PurchaseOrderStatusInTransit
	o.InTransitAt = &now
	o.Touch(now)
	return nil
}

// ReceiveGoods applies a receipt batch. Every line is validated before any is applied,
// so a rejected batch leaves the order untouched. Duplicate item ids in one batch are summed.
func (o *PurchaseOrder) ReceiveGoods(lines []ReceiptLine, warehouseID, receivedBy uuid.UUID, notes string) (*Delivery, []ReceivedItem, error) {
	if !o.Status.CanReceive() {
		return nil, nil, shared.InvalidTransition("receive goods", o.Status)
	}
	if len(lines) == 0 {
		return nil, nil, shared.NewDomainError(shared.CodeNoItems, "Receipt lines cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}

	requested := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, nil, shared.NewDomainErrorf("INVALID_QUANTITY", "Receive quantity for item %s must be positive", line.ItemID)
		}
		if err := shared.CheckScale("Receive quantity", line.Quantity); err != nil {
			return nil, nil, err
		}
		item := o.GetItem(line.ItemID)
		if item == nil {
			return nil, nil, shared.NewDomainErrorf(shared.CodeItemNotFound, "Item %s not found in order %s", line.ItemID, o.OrderNumber)
		}
		total := requested[line.ItemID].Add(line.Quantity)
		if total.GreaterThan(item.OutstandingQuantity()) {
			return nil, nil, shared.NewDomainErrorf(shared.CodeQuantityExceeded,
				"Cannot receive %s of item %q, only %s outstanding", total, item.Description, item.OutstandingQuantity())
		}
		requested[line.ItemID] = total
	}

	now := time.Now().UTC()
	received := make([]ReceivedItem, 0, len(lines))
	for _, line := range lines {
		item := o.GetItem(line.ItemID)
		item.ReceivedQuantity = item.ReceivedQuantity.Add(line.Quantity)
		received = append(received, ReceivedItem{
			ItemID:           item.ID,
			ProductID:        item.ProductID,
			Description:      item.Description,
			Quantity:         line.Quantity,
			UnitPrice:        item.UnitPrice,
			ReceivedQuantity: item.ReceivedQuantity,
		})
	}

	delivery := Delivery{
		ID:          uuid.New(),
		DeliveredAt: now,
		ReceivedBy:  receivedBy,
		WarehouseID: warehouseID,
		Lines:       append([]ReceiptLine(nil), lines...),
		Notes:       notes,
	}
	o.Deliveries = append(o.Deliveries, delivery)

	switch {
	case o.isAllItemsReceived():
		o.Status = PurchaseOrderStatusDelivered
		o.DeliveredAt = &now
	case o.hasPartiallyReceivedItem():
		o.Status = PurchaseOrderStatusPartiallyDelivered
	case o.Status == PurchaseOrderStatusPartiallyDelivered:
		// every touched line is now complete while others are still untouched
		o.Status = PurchaseOrderStatusInTransit
		if o.InTransitAt == nil {
			o.InTransitAt = &now
		}
	}
	o.Touch(now)
	o.AddDomainEvent(NewGoodsReceivedEvent(o, &delivery, received))

	return &delivery, received, nil
}

// Cancel cancels whatever has not been received yet. Stock already received stays
// posted; each item's outstanding quantity moves to CancelledQuantity.
func (o *PurchaseOrder) Cancel(reason string) error {
	if !o.Status.CanCancel() {
		return shared.InvalidTransition("cancel", o.Status)
	}

	now := time.Now().UTC()
	for i := range o.Items {
		o.Items[i].CancelledQuantity = o.Items[i].CancelledQuantity.Add(o.Items[i].OutstandingQuantity())
	}
	wasPartial := o.hasReceivedAnyGoods()
	o.Status = PurchaseOrderStatusCancelled
	o.CancelledAt = &now
	o.CancellationReason = reason
	o.LevelDueAt = nil
	o.Touch(now)
	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o, wasPartial))
	return nil
}

// MarkInvoiced flags a delivered order as invoiced
func (o *PurchaseOrder) MarkInvoiced() error {
	return o.advanceSettlement(PurchaseOrderStatusInvoiced, "mark invoiced", func(now *time.Time) { o.InvoicedAt = now })
}

// MarkPaid flags an invoiced order as paid
func (o *PurchaseOrder) MarkPaid() error {
	return o.advanceSettlement(PurchaseOrderStatusPaid, "mark paid", func(now *time.Time) { o.PaidAt = now })
}

// Complete closes a paid order
func (o *PurchaseOrder) Complete() error {
	return o.advanceSettlement(PurchaseOrderStatusCompleted, "complete", func(now *time.Time) { o.CompletedAt = now })
}

func (o *PurchaseOrder) advanceSettlement(target PurchaseOrderStatus, action string, stamp func(*time.Time)) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.InvalidTransition(action, o.Status)
	}
	now := time.Now().UTC()
	o.Status = target
	stamp(&now)
	o.Touch(now)
	return nil
}

// Validate checks the receipt invariants
func (o *PurchaseOrder) Validate() error {
	for _, item := range o.Items {
		if item.ReceivedQuantity.IsNegative() || item.ReceivedQuantity.GreaterThan(item.Quantity) {
			return shared.NewDomainErrorf(shared.CodeValidation,
				"Item %q received %s of %s", item.Description, item.ReceivedQuantity, item.Quantity)
		}
	}
	if o.Status == PurchaseOrderStatusDelivered && !o.isAllItemsReceived() {
		return shared.NewDomainError(shared.CodeValidation, "Delivered order has outstanding items")
	}
	partial := o.hasPartiallyReceivedItem()
	if o.Status == PurchaseOrderStatusPartiallyDelivered && !partial {
		return shared.NewDomainError(shared.CodeValidation, "Partially delivered order has no partially received item")
	}
	if o.Status != PurchaseOrderStatusPartiallyDelivered && o.Status.CanReceive() && partial {
		return shared.NewDomainErrorf(shared.CodeValidation, "Order in %s has a partially received item", o.Status)
	}
	return nil
}

// GetItem returns the item with the given id, or nil
func (o *PurchaseOrder) GetItem(itemID uuid.UUID) *PurchaseOrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// ItemCount returns the number of lines
func (o *PurchaseOrder) ItemCount() int {
	return len(o.Items)
}

// TotalReceivedQuantity returns the received quantity summed over all items
func (o *PurchaseOrder) TotalReceivedQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.ReceivedQuantity)
	}
	return total
}

// String identifies the order in logs
func (o *PurchaseOrder) String() string {
	return fmt.Sprintf("%s (%s)", o.OrderNumber, o.Status)
}

func (o *PurchaseOrder) recalculateTotals() {
	total := decimal.Zero
	for i := range o.Items {
		o.Items[i].TotalPrice = o.Items[i].Quantity.Mul(o.Items[i].UnitPrice)
		total = total.Add(o.Items[i].TotalPrice)
	}
	o.TotalAmount = total
	o.GrandTotal = total.Add(o.TaxAmount).Add(o.ShippingCost)
}

func (o *PurchaseOrder) isAllItemsReceived() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if !item.IsFullyReceived() {
			return false
		}
	}
	return true
}

func (o *PurchaseOrder) hasPartiallyReceivedItem() bool {
	for _, item := range o.Items {
		if item.IsPartiallyReceived() {
			return true
		}
	}
	return false
}

func (o *PurchaseOrder) hasReceivedAnyGoods() bool {
	for _, item := range o.Items {
		if item.ReceivedQuantity.IsPositive() {
			return true
		}
	}
	return false
}
