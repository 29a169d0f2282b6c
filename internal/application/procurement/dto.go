package procurement

import (
	"time"

	inventoryapp "github.com/erp/procurement/internal/application/inventory"
	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequisitionItemInput is one requested line
type RequisitionItemInput struct {
	ProductID          *uuid.UUID      `json:"product_id"`
	Description        string          `json:"description" binding:"required,max=500"`
	Quantity           decimal.Decimal `json:"quantity" binding:"required"`
	Unit               string          `json:"unit" binding:"max=20"`
	EstimatedUnitPrice decimal.Decimal `json:"estimated_unit_price"`
}

// CreateRequisitionRequest creates a Draft requisition
type CreateRequisitionRequest struct {
	Title         string                 `json:"title" binding:"required,max=200"`
	Department    string                 `json:"department" binding:"max=100"`
	Category      string                 `json:"category" binding:"max=100"`
	Justification string                 `json:"justification" binding:"max=2000"`
	RequiredBy    *time.Time             `json:"required_by"`
	Items         []RequisitionItemInput `json:"items" binding:"dive"`
}

// UpdateRequisitionItemsRequest replaces all lines of a Draft requisition
type UpdateRequisitionItemsRequest struct {
	Items []RequisitionItemInput `json:"items" binding:"required,min=1,dive"`
}

// ApprovalDecisionRequest carries the approver's comment
type ApprovalDecisionRequest struct {
	Comment string `json:"comment" binding:"max=1000"`
}

// CancelRequest carries a cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ConvertRequisitionRequest names the supplier of the order to create
type ConvertRequisitionRequest struct {
	SupplierID           uuid.UUID  `json:"supplier_id" binding:"required"`
	SupplierName         string     `json:"supplier_name" binding:"required,max=200"`
	SupplierEmail        string     `json:"supplier_email" binding:"omitempty,email"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date"`
	DeliveryAddress      string     `json:"delivery_address" binding:"max=500"`
}

// RequisitionListFilter represents filter options for requisition lists
type RequisitionListFilter struct {
	Status      string     `form:"status" binding:"omitempty,oneof=Draft Pending Approved Rejected Cancelled Converted"`
	Department  string     `form:"department"`
	RequesterID *uuid.UUID `form:"requester_id"`
	Search      string     `form:"search"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at total_amount requisition_number"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PurchaseOrderItemInput is one order line
type PurchaseOrderItemInput struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Unit        string          `json:"unit" binding:"max=20"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreatePurchaseOrderRequest creates a Draft order directly, without a requisition
type CreatePurchaseOrderRequest struct {
	SupplierID           uuid.UUID                `json:"supplier_id" binding:"required"`
	SupplierName         string                   `json:"supplier_name" binding:"required,max=200"`
	SupplierEmail        string                   `json:"supplier_email" binding:"omitempty,email"`
	ExpectedDeliveryDate *time.Time               `json:"expected_delivery_date"`
	DeliveryAddress      string                   `json:"delivery_address" binding:"max=500"`
	TaxAmount            decimal.Decimal          `json:"tax_amount"`
	ShippingCost         decimal.Decimal          `json:"shipping_cost"`
	Notes                string                   `json:"notes" binding:"max=2000"`
	Items                []PurchaseOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// SubmitPurchaseOrderRequest supplies the routing attributes an order does not carry itself
type SubmitPurchaseOrderRequest struct {
	Department string `json:"department" binding:"max=100"`
	Category   string `json:"category" binding:"max=100"`
}

// ReceiptLineInput is one line of a goods receipt
type ReceiptLineInput struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// ReceiveGoodsRequest books a delivery batch into a warehouse
type ReceiveGoodsRequest struct {
	WarehouseID uuid.UUID          `json:"warehouse_id" binding:"required"`
	Lines       []ReceiptLineInput `json:"lines" binding:"required,min=1,dive"`
	Notes       string             `json:"notes" binding:"max=500"`
}

// PurchaseOrderListFilter represents filter options for order lists
type PurchaseOrderListFilter struct {
	Status        string     `form:"status"`
	SupplierID    *uuid.UUID `form:"supplier_id"`
	RequisitionID *uuid.UUID `form:"requisition_id"`
	Search        string     `form:"search"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at grand_total order_number"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ApprovalRecordResponse is one approval history entry
type ApprovalRecordResponse struct {
	ApproverID uuid.UUID `json:"approver_id"`
	Action     string    `json:"action"`
	Level      int       `json:"level"`
	Comment    string    `json:"comment,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ApprovalProgressResponse summarises where a document stands in its approval plan
type ApprovalProgressResponse struct {
	WorkflowID             *uuid.UUID               `json:"workflow_id,omitempty"`
	WorkflowName           string                   `json:"workflow_name,omitempty"`
	Mode                   string                   `json:"mode,omitempty"`
	CurrentApprovalLevel   int                      `json:"current_approval_level"`
	RequiredApprovalLevels int                      `json:"required_approval_levels"`
	LevelDueAt             *time.Time               `json:"level_due_at,omitempty"`
	History                []ApprovalRecordResponse `json:"history"`
}

// RequisitionItemResponse is a requisition line in API responses
type RequisitionItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          *uuid.UUID      `json:"product_id,omitempty"`
	Description        string          `json:"description"`
	Quantity           decimal.Decimal `json:"quantity"`
	Unit               string          `json:"unit"`
	EstimatedUnitPrice decimal.Decimal `json:"estimated_unit_price"`
	EstimatedTotal     decimal.Decimal `json:"estimated_total"`
}

// RequisitionResponse represents a requisition in API responses
type RequisitionResponse struct {
	ID                 uuid.UUID                 `json:"id"`
	TenantID           uuid.UUID                 `json:"tenant_id"`
	RequisitionNumber  string                    `json:"requisition_number"`
	RequesterID        uuid.UUID                 `json:"requester_id"`
	Title              string                    `json:"title"`
	Department         string                    `json:"department,omitempty"`
	Category           string                    `json:"category,omitempty"`
	Justification      string                    `json:"justification,omitempty"`
	RequiredBy         *time.Time                `json:"required_by,omitempty"`
	Items              []RequisitionItemResponse `json:"items"`
	TotalAmount        decimal.Decimal           `json:"total_amount"`
	Status             string                    `json:"status"`
	Approval           ApprovalProgressResponse  `json:"approval"`
	RejectionReason    string                    `json:"rejection_reason,omitempty"`
	CancellationReason string                    `json:"cancellation_reason,omitempty"`
	PurchaseOrderID    *uuid.UUID                `json:"purchase_order_id,omitempty"`
	SubmittedAt        *time.Time                `json:"submitted_at,omitempty"`
	ApprovedAt         *time.Time                `json:"approved_at,omitempty"`
	ConvertedAt        *time.Time                `json:"converted_at,omitempty"`
	CancelledAt        *time.Time                `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
	Version            int                       `json:"version"`
}

// PurchaseOrderItemResponse is an order line in API responses
type PurchaseOrderItemResponse struct {
	ID                  uuid.UUID       `json:"id"`
	ProductID           *uuid.UUID      `json:"product_id,omitempty"`
	Description         string          `json:"description"`
	Quantity            decimal.Decimal `json:"quantity"`
	Unit                string          `json:"unit"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	TotalPrice          decimal.Decimal `json:"total_price"`
	ReceivedQuantity    decimal.Decimal `json:"received_quantity"`
	CancelledQuantity   decimal.Decimal `json:"cancelled_quantity"`
	OutstandingQuantity decimal.Decimal `json:"outstanding_quantity"`
}

// DeliveryResponse is one goods receipt batch
type DeliveryResponse struct {
	ID          uuid.UUID          `json:"id"`
	DeliveredAt time.Time          `json:"delivered_at"`
	ReceivedBy  uuid.UUID          `json:"received_by"`
	WarehouseID uuid.UUID          `json:"warehouse_id"`
	Lines       []ReceiptLineInput `json:"lines"`
	Notes       string             `json:"notes,omitempty"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID                    uuid.UUID                   `json:"id"`
	TenantID              uuid.UUID                   `json:"tenant_id"`
	OrderNumber           string                      `json:"order_number"`
	SupplierID            uuid.UUID                   `json:"supplier_id"`
	SupplierName          string                      `json:"supplier_name"`
	SupplierEmail         string                      `json:"supplier_email,omitempty"`
	RequisitionID         *uuid.UUID                  `json:"requisition_id,omitempty"`
	ExpectedDeliveryDate  *time.Time                  `json:"expected_delivery_date,omitempty"`
	DeliveryAddress       string                      `json:"delivery_address,omitempty"`
	Items                 []PurchaseOrderItemResponse `json:"items"`
	TaxAmount             decimal.Decimal             `json:"tax_amount"`
	ShippingCost          decimal.Decimal             `json:"shipping_cost"`
	TotalAmount           decimal.Decimal             `json:"total_amount"`
	GrandTotal            decimal.Decimal             `json:"grand_total"`
	Status                string                      `json:"status"`
	Notes                 string                      `json:"notes,omitempty"`
	Approval              ApprovalProgressResponse    `json:"approval"`
	Deliveries            []DeliveryResponse          `json:"deliveries"`
	SentToSupplierAt      *time.Time                  `json:"sent_to_supplier_at,omitempty"`
	ConfirmedBySupplierAt *time.Time                  `json:"confirmed_by_supplier_at,omitempty"`
	InTransitAt           *time.Time                  `json:"in_transit_at,omitempty"`
	DeliveredAt           *time.Time                  `json:"delivered_at,omitempty"`
	InvoicedAt            *time.Time                  `json:"invoiced_at,omitempty"`
	PaidAt                *time.Time                  `json:"paid_at,omitempty"`
	CompletedAt           *time.Time                  `json:"completed_at,omitempty"`
	CancelledAt           *time.Time                  `json:"cancelled_at,omitempty"`
	CancellationReason    string                      `json:"cancellation_reason,omitempty"`
	RejectionReason       string                      `json:"rejection_reason,omitempty"`
	CreatedAt             time.Time                   `json:"created_at"`
	UpdatedAt             time.Time                   `json:"updated_at"`
	Version               int                         `json:"version"`
}

// ConversionResponse is returned when a requisition becomes a purchase order
type ConversionResponse struct {
	Requisition   RequisitionResponse   `json:"requisition"`
	PurchaseOrder PurchaseOrderResponse `json:"purchase_order"`
}

// PostedReceiptLine reports one receipt line and, for product lines, the stock it posted
type PostedReceiptLine struct {
	ItemID           uuid.UUID                         `json:"item_id"`
	ProductID        *uuid.UUID                        `json:"product_id,omitempty"`
	Description      string                            `json:"description"`
	Quantity         decimal.Decimal                   `json:"quantity"`
	ReceivedQuantity decimal.Decimal                   `json:"received_quantity"`
	Transaction      *inventoryapp.TransactionResponse `json:"transaction,omitempty"`
}

// ReceiptResponse is returned by goods receipt
type ReceiptResponse struct {
	DeliveryID    uuid.UUID             `json:"delivery_id"`
	WarehouseID   uuid.UUID             `json:"warehouse_id"`
	Lines         []PostedReceiptLine   `json:"lines"`
	PurchaseOrder PurchaseOrderResponse `json:"purchase_order"`
}

func toRequisitionItems(in []RequisitionItemInput) ([]procurement.RequisitionItem, error) {
	items := make([]procurement.RequisitionItem, 0, len(in))
	for _, line := range in {
		item, err := procurement.NewRequisitionItem(line.ProductID, line.Description, line.Unit, line.Quantity, line.EstimatedUnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func toPurchaseOrderItems(in []PurchaseOrderItemInput) ([]procurement.PurchaseOrderItem, error) {
	items := make([]procurement.PurchaseOrderItem, 0, len(in))
	for _, line := range in {
		item, err := procurement.NewPurchaseOrderItem(line.ProductID, line.Description, line.Unit, line.Quantity, line.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func toReceiptLines(in []ReceiptLineInput) []procurement.ReceiptLine {
	lines := make([]procurement.ReceiptLine, len(in))
	for i, l := range in {
		lines[i] = procurement.ReceiptLine{ItemID: l.ItemID, Quantity: l.Quantity}
	}
	return lines
}

func toApprovalProgressResponse(p approval.Progress) ApprovalProgressResponse {
	history := make([]ApprovalRecordResponse, len(p.ApprovalHistory))
	for i, rec := range p.ApprovalHistory {
		history[i] = ApprovalRecordResponse{
			ApproverID: rec.ApproverID,
			Action:     rec.Action.String(),
			Level:      rec.Level,
			Comment:    rec.Comment,
			Timestamp:  rec.Timestamp,
		}
	}
	return ApprovalProgressResponse{
		WorkflowID:             p.ApprovalPlan.WorkflowID,
		WorkflowName:           p.ApprovalPlan.WorkflowName,
		Mode:                   p.ApprovalPlan.Mode.String(),
		CurrentApprovalLevel:   p.CurrentApprovalLevel,
		RequiredApprovalLevels: p.RequiredApprovalLevels,
		LevelDueAt:             p.LevelDueAt,
		History:                history,
	}
}

// ToRequisitionResponse converts a domain requisition to a response
func ToRequisitionResponse(r *procurement.PurchaseRequisition) RequisitionResponse {
	items := make([]RequisitionItemResponse, len(r.Items))
	for i, item := range r.Items {
		items[i] = RequisitionItemResponse{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			Description:        item.Description,
			Quantity:           item.Quantity,
			Unit:               item.Unit,
			EstimatedUnitPrice: item.EstimatedUnitPrice,
			EstimatedTotal:     item.EstimatedTotal,
		}
	}
	return RequisitionResponse{
		ID:                 r.ID,
		TenantID:           r.TenantID,
		RequisitionNumber:  r.RequisitionNumber,
		RequesterID:        r.RequesterID,
		Title:              r.Title,
		Department:         r.Department,
		Category:           r.Category,
		Justification:      r.Justification,
		RequiredBy:         r.RequiredBy,
		Items:              items,
		TotalAmount:        r.TotalAmount,
		Status:             r.Status.String(),
		Approval:           toApprovalProgressResponse(r.Progress),
		RejectionReason:    r.RejectionReason,
		CancellationReason: r.CancellationReason,
		PurchaseOrderID:    r.PurchaseOrderID,
		SubmittedAt:        r.SubmittedAt,
		ApprovedAt:         r.ApprovedAt,
		ConvertedAt:        r.ConvertedAt,
		CancelledAt:        r.CancelledAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Version:            r.Version,
	}
}

// ToRequisitionResponses converts a slice of requisitions
func ToRequisitionResponses(reqs []procurement.PurchaseRequisition) []RequisitionResponse {
	out := make([]RequisitionResponse, len(reqs))
	for i := range reqs {
		out[i] = ToRequisitionResponse(&reqs[i])
	}
	return out
}

// ToPurchaseOrderResponse converts a domain order to a response
func ToPurchaseOrderResponse(o *procurement.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items[i] = PurchaseOrderItemResponse{
			ID:                  item.ID,
			ProductID:           item.ProductID,
			Description:         item.Description,
			Quantity:            item.Quantity,
			Unit:                item.Unit,
			UnitPrice:           item.UnitPrice,
			TotalPrice:          item.TotalPrice,
			ReceivedQuantity:    item.ReceivedQuantity,
			CancelledQuantity:   item.CancelledQuantity,
			OutstandingQuantity: item.OutstandingQuantity(),
		}
	}
	deliveries := make([]DeliveryResponse, len(o.Deliveries))
	for i, d := range o.Deliveries {
		lines := make([]ReceiptLineInput, len(d.Lines))
		for j, l := range d.Lines {
			lines[j] = ReceiptLineInput{ItemID: l.ItemID, Quantity: l.Quantity}
		}
		deliveries[i] = DeliveryResponse{
			ID:          d.ID,
			DeliveredAt: d.DeliveredAt,
			ReceivedBy:  d.ReceivedBy,
			WarehouseID: d.WarehouseID,
			Lines:       lines,
			Notes:       d.Notes,
		}
	}
	return PurchaseOrderResponse{
		ID:                    o.ID,
		TenantID:              o.TenantID,
		OrderNumber:           o.OrderNumber,
		SupplierID:            o.SupplierID,
		SupplierName:          o.SupplierName,
		SupplierEmail:         o.SupplierEmail,
		RequisitionID:         o.RequisitionID,
		ExpectedDeliveryDate:  o.ExpectedDeliveryDate,
		DeliveryAddress:       o.DeliveryAddress,
		Items:                 items,
		TaxAmount:             o.TaxAmount,
		ShippingCost:          o.ShippingCost,
		TotalAmount:           o.TotalAmount,
		GrandTotal:            o.GrandTotal,
		Status:                o.Status.String(),
		Notes:                 o.Notes,
		Approval:              toApprovalProgressResponse(o.Progress),
		Deliveries:            deliveries,
		SentToSupplierAt:      o.SentToSupplierAt,
		ConfirmedBySupplierAt: o.ConfirmedBySupplierAt,
		InTransitAt:           o.InTransitAt,
		DeliveredAt:           o.DeliveredAt,
		InvoicedAt:            o.InvoicedAt,
		PaidAt:                o.PaidAt,
		CompletedAt:           o.CompletedAt,
		CancelledAt:           o.CancelledAt,
		CancellationReason:    o.CancellationReason,
		RejectionReason:       o.RejectionReason,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		Version:               o.Version,
	}
}

// ToPurchaseOrderResponses converts a slice of orders
func ToPurchaseOrderResponses(orders []procurement.PurchaseOrder) []PurchaseOrderResponse {
	out := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		out[i] = ToPurchaseOrderResponse(&orders[i])
	}
	return out
}
