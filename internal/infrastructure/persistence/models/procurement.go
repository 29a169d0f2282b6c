package models

import (
	"time"

	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalProgressColumns maps approval.Progress onto the owning document's table.
// The plan snapshot and history are stored as JSON documents.
type ApprovalProgressColumns struct {
	ApprovalPlan           approval.Plan     `gorm:"type:jsonb;serializer:json;not null"`
	CurrentApprovalLevel   int               `gorm:"not null;default:0"`
	RequiredApprovalLevels int               `gorm:"not null;default:0"`
	LevelDueAt             *time.Time        `gorm:"index"`
	ApprovalHistory        []approval.Record `gorm:"type:jsonb;serializer:json"`
}

// ToDomain converts the columns to an approval.Progress
func (c ApprovalProgressColumns) ToDomain() approval.Progress {
	return approval.Progress{
		ApprovalPlan:           c.ApprovalPlan,
		CurrentApprovalLevel:   c.CurrentApprovalLevel,
		RequiredApprovalLevels: c.RequiredApprovalLevels,
		LevelDueAt:             c.LevelDueAt,
		ApprovalHistory:        c.ApprovalHistory,
	}
}

// FromDomain populates the columns from an approval.Progress
func (c *ApprovalProgressColumns) FromDomain(p approval.Progress) {
	c.ApprovalPlan = p.ApprovalPlan
	c.CurrentApprovalLevel = p.CurrentApprovalLevel
	c.RequiredApprovalLevels = p.RequiredApprovalLevels
	c.LevelDueAt = p.LevelDueAt
	c.ApprovalHistory = p.ApprovalHistory
}

// PurchaseRequisitionModel is the persistence model for the PurchaseRequisition aggregate root.
type PurchaseRequisitionModel struct {
	TenantAggregateModel
	RequisitionNumber string                         `gorm:"type:varchar(50);not null;index"`
	RequesterID       uuid.UUID                      `gorm:"type:uuid;not null;index"`
	Title             string                         `gorm:"type:varchar(200);not null"`
	Department        string                         `gorm:"type:varchar(100);index"`
	Category          string                         `gorm:"type:varchar(100)"`
	Justification     string                         `gorm:"type:text"`
	RequiredBy        *time.Time                     `gorm:"type:date"`
	Items             []PurchaseRequisitionItemModel `gorm:"foreignKey:RequisitionID;references:ID"`
	TotalAmount       decimal.Decimal                `gorm:"type:decimal(18,4);not null;default:0"`
	Status            procurement.RequisitionStatus  `gorm:"type:varchar(30);not null;default:'Draft';index"`
	ApprovalProgressColumns
	RejectionReason    string     `gorm:"type:varchar(500)"`
	CancellationReason string     `gorm:"type:varchar(500)"`
	PurchaseOrderID    *uuid.UUID `gorm:"type:uuid"`
	SubmittedAt        *time.Time
	ApprovedAt         *time.Time
	ConvertedAt        *time.Time
	CancelledAt        *time.Time
}

// TableName returns the table name for GORM
func (PurchaseRequisitionModel) TableName() string {
	return "purchase_requisitions"
}

// ToDomain converts the persistence model to a domain PurchaseRequisition entity.
func (m *PurchaseRequisitionModel) ToDomain() *procurement.PurchaseRequisition {
	req := &procurement.PurchaseRequisition{
		RequisitionNumber: m.RequisitionNumber,
		RequesterID:       m.RequesterID,
		RequisitionDetails: procurement.RequisitionDetails{
			Title:         m.Title,
			Department:    m.Department,
			Category:      m.Category,
			Justification: m.Justification,
			RequiredBy:    m.RequiredBy,
		},
		Items:              make([]procurement.RequisitionItem, len(m.Items)),
		TotalAmount:        m.TotalAmount,
		Status:             m.Status,
		Progress:           m.ApprovalProgressColumns.ToDomain(),
		RejectionReason:    m.RejectionReason,
		CancellationReason: m.CancellationReason,
		PurchaseOrderID:    m.PurchaseOrderID,
		SubmittedAt:        m.SubmittedAt,
		ApprovedAt:         m.ApprovedAt,
		ConvertedAt:        m.ConvertedAt,
		CancelledAt:        m.CancelledAt,
	}
	req.TenantAggregateRoot = m.tenantRoot()
	for i := range m.Items {
		req.Items[i] = m.Items[i].ToDomain()
	}
	return req
}

// FromDomain populates the persistence model from a domain PurchaseRequisition entity.
func (m *PurchaseRequisitionModel) FromDomain(r *procurement.PurchaseRequisition) {
	m.setTenantRoot(r.TenantAggregateRoot)
	m.RequisitionNumber = r.RequisitionNumber
	m.RequesterID = r.RequesterID
	m.Title = r.Title
	m.Department = r.Department
	m.Category = r.Category
	m.Justification = r.Justification
	m.RequiredBy = r.RequiredBy
	m.TotalAmount = r.TotalAmount
	m.Status = r.Status
	m.ApprovalProgressColumns.FromDomain(r.Progress)
	m.RejectionReason = r.RejectionReason
	m.CancellationReason = r.CancellationReason
	m.PurchaseOrderID = r.PurchaseOrderID
	m.SubmittedAt = r.SubmittedAt
	m.ApprovedAt = r.ApprovedAt
	m.ConvertedAt = r.ConvertedAt
	m.CancelledAt = r.CancelledAt
	m.Items = make([]PurchaseRequisitionItemModel, len(r.Items))
	for i := range r.Items {
		m.Items[i] = PurchaseRequisitionItemModelFromDomain(r.ID, r.Items[i])
		m.Items[i].LineNo = i + 1
	}
}

// PurchaseRequisitionModelFromDomain creates a new persistence model from a domain PurchaseRequisition entity.
func PurchaseRequisitionModelFromDomain(r *procurement.PurchaseRequisition) *PurchaseRequisitionModel {
	m := &PurchaseRequisitionModel{}
	m.FromDomain(r)
	return m
}

// PurchaseRequisitionItemModel is the persistence model for a requisition line.
type PurchaseRequisitionItemModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	RequisitionID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo             int             `gorm:"not null"`
	ProductID          *uuid.UUID      `gorm:"type:uuid"`
	Description        string          `gorm:"type:varchar(500);not null"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit               string          `gorm:"type:varchar(20);not null"`
	EstimatedUnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	EstimatedTotal     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PurchaseRequisitionItemModel) TableName() string {
	return "purchase_requisition_items"
}

// ToDomain converts the persistence model to a domain RequisitionItem.
func (m *PurchaseRequisitionItemModel) ToDomain() procurement.RequisitionItem {
	return procurement.RequisitionItem{
		ID:                 m.ID,
		ProductID:          m.ProductID,
		Description:        m.Description,
		Quantity:           m.Quantity,
		Unit:               m.Unit,
		EstimatedUnitPrice: m.EstimatedUnitPrice,
		EstimatedTotal:     m.EstimatedTotal,
	}
}

// PurchaseRequisitionItemModelFromDomain creates an item model owned by requisitionID.
func PurchaseRequisitionItemModelFromDomain(requisitionID uuid.UUID, i procurement.RequisitionItem) PurchaseRequisitionItemModel {
	return PurchaseRequisitionItemModel{
		ID:                 i.ID,
		RequisitionID:      requisitionID,
		ProductID:          i.ProductID,
		Description:        i.Description,
		Quantity:           i.Quantity,
		Unit:               i.Unit,
		EstimatedUnitPrice: i.EstimatedUnitPrice,
		EstimatedTotal:     i.EstimatedTotal,
	}
}

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	TenantAggregateModel
	OrderNumber          string                          `gorm:"type:varchar(50);not null;index"`
	SupplierID           uuid.UUID                       `gorm:"type:uuid;not null;index"`
	SupplierName         string                          `gorm:"type:varchar(200);not null"`
	SupplierEmail        string                          `gorm:"type:varchar(200)"`
	RequisitionID        *uuid.UUID                      `gorm:"type:uuid;index"`
	ExpectedDeliveryDate *time.Time                      `gorm:"type:date"`
	DeliveryAddress      string                          `gorm:"type:varchar(500)"`
	Items                []PurchaseOrderItemModel        `gorm:"foreignKey:OrderID;references:ID"`
	TaxAmount            decimal.Decimal                 `gorm:"type:decimal(18,4);not null;default:0"`
	ShippingCost         decimal.Decimal                 `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount          decimal.Decimal                 `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal           decimal.Decimal                 `gorm:"type:decimal(18,4);not null;default:0"`
	Status               procurement.PurchaseOrderStatus `gorm:"type:varchar(30);not null;default:'Draft';index"`
	Notes                string                          `gorm:"type:text"`
	ApprovalProgressColumns
	Deliveries            []procurement.Delivery `gorm:"type:jsonb;serializer:json"`
	SentToSupplierAt      *time.Time
	ConfirmedBySupplierAt *time.Time
	InTransitAt           *time.Time
	DeliveredAt           *time.Time
	InvoicedAt            *time.Time
	PaidAt                *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
	CancellationReason    string `gorm:"type:varchar(500)"`
	RejectionReason       string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder entity.
func (m *PurchaseOrderModel) ToDomain() *procurement.PurchaseOrder {
	order := &procurement.PurchaseOrder{
		OrderNumber:           m.OrderNumber,
		SupplierID:            m.SupplierID,
		SupplierName:          m.SupplierName,
		SupplierEmail:         m.SupplierEmail,
		RequisitionID:         m.RequisitionID,
		ExpectedDeliveryDate:  m.ExpectedDeliveryDate,
		DeliveryAddress:       m.DeliveryAddress,
		Items:                 make([]procurement.PurchaseOrderItem, len(m.Items)),
		TaxAmount:             m.TaxAmount,
		ShippingCost:          m.ShippingCost,
		TotalAmount:           m.TotalAmount,
		GrandTotal:            m.GrandTotal,
		Status:                m.Status,
		Notes:                 m.Notes,
		Progress:              m.ApprovalProgressColumns.ToDomain(),
		Deliveries:            m.Deliveries,
		SentToSupplierAt:      m.SentToSupplierAt,
		ConfirmedBySupplierAt: m.ConfirmedBySupplierAt,
		InTransitAt:           m.InTransitAt,
		DeliveredAt:           m.DeliveredAt,
		InvoicedAt:            m.InvoicedAt,
		PaidAt:                m.PaidAt,
		CompletedAt:           m.CompletedAt,
		CancelledAt:           m.CancelledAt,
		CancellationReason:    m.CancellationReason,
		RejectionReason:       m.RejectionReason,
	}
	order.TenantAggregateRoot = m.tenantRoot()
	for i := range m.Items {
		order.Items[i] = m.Items[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain PurchaseOrder entity.
func (m *PurchaseOrderModel) FromDomain(o *procurement.PurchaseOrder) {
	m.setTenantRoot(o.TenantAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.SupplierID = o.SupplierID
	m.SupplierName = o.SupplierName
	m.SupplierEmail = o.SupplierEmail
	m.RequisitionID = o.RequisitionID
	m.ExpectedDeliveryDate = o.ExpectedDeliveryDate
	m.DeliveryAddress = o.DeliveryAddress
	m.TaxAmount = o.TaxAmount
	m.ShippingCost = o.ShippingCost
	m.TotalAmount = o.TotalAmount
	m.GrandTotal = o.GrandTotal
	m.Status = o.Status
	m.Notes = o.Notes
	m.ApprovalProgressColumns.FromDomain(o.Progress)
	m.Deliveries = o.Deliveries
	m.SentToSupplierAt = o.SentToSupplierAt
	m.ConfirmedBySupplierAt = o.ConfirmedBySupplierAt
	m.InTransitAt = o.InTransitAt
	m.DeliveredAt = o.DeliveredAt
	m.InvoicedAt = o.InvoicedAt
	m.PaidAt = o.PaidAt
	m.CompletedAt = o.CompletedAt
	m.CancelledAt = o.CancelledAt
	m.CancellationReason = o.CancellationReason
	m.RejectionReason = o.RejectionReason
	m.Items = make([]PurchaseOrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = PurchaseOrderItemModelFromDomain(o.ID, o.Items[i])
		m.Items[i].LineNo = i + 1
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder entity.
func PurchaseOrderModelFromDomain(o *procurement.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// PurchaseOrderItemModel is the persistence model for the PurchaseOrderItem entity.
type PurchaseOrderItemModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo            int             `gorm:"not null"`
	ProductID         *uuid.UUID      `gorm:"type:uuid"`
	Description       string          `gorm:"type:varchar(500);not null"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit              string          `gorm:"type:varchar(20);not null"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CancelledQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain PurchaseOrderItem entity.
func (m *PurchaseOrderItemModel) ToDomain() procurement.PurchaseOrderItem {
	return procurement.PurchaseOrderItem{
		ID:                m.ID,
		ProductID:         m.ProductID,
		Description:       m.Description,
		Quantity:          m.Quantity,
		Unit:              m.Unit,
		UnitPrice:         m.UnitPrice,
		TotalPrice:        m.TotalPrice,
		ReceivedQuantity:  m.ReceivedQuantity,
		CancelledQuantity: m.CancelledQuantity,
	}
}

// PurchaseOrderItemModelFromDomain creates an item model owned by orderID.
func PurchaseOrderItemModelFromDomain(orderID uuid.UUID, i procurement.PurchaseOrderItem) PurchaseOrderItemModel {
	return PurchaseOrderItemModel{
		ID:                i.ID,
		OrderID:           orderID,
		ProductID:         i.ProductID,
		Description:       i.Description,
		Quantity:          i.Quantity,
		Unit:              i.Unit,
		UnitPrice:         i.UnitPrice,
		TotalPrice:        i.TotalPrice,
		ReceivedQuantity:  i.ReceivedQuantity,
		CancelledQuantity: i.CancelledQuantity,
	}
}

// DocumentSequenceModel is the per tenant, kind and year numbering counter.
type DocumentSequenceModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind      string    `gorm:"type:varchar(10);primaryKey"`
	Year      int       `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
