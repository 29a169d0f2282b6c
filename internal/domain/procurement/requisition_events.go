package procurement

import (
	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseRequisition = "PurchaseRequisition"

// Event type constants
const (
	EventTypeRequisitionCreated       = "RequisitionCreated"
	EventTypeRequisitionSubmitted     = "RequisitionSubmitted"
	EventTypeRequisitionLevelApproved = "RequisitionLevelApproved"
	EventTypeRequisitionApproved      = "RequisitionApproved"
	EventTypeRequisitionRejected      = "RequisitionRejected"
	EventTypeRequisitionCancelled     = "RequisitionCancelled"
	EventTypeRequisitionEscalated     = "RequisitionEscalated"
	EventTypeRequisitionConverted     = "RequisitionConverted"
)

// RequisitionEvent carries the requisition snapshot shared by most lifecycle events
type RequisitionEvent struct {
	shared.BaseDomainEvent
	RequisitionID     uuid.UUID         `json:"requisition_id"`
	RequisitionNumber string            `json:"requisition_number"`
	RequesterID       uuid.UUID         `json:"requester_id"`
	Status            RequisitionStatus `json:"status"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
}

// NewRequisitionEvent creates a lifecycle event of the given type
func NewRequisitionEvent(eventType string, r *PurchaseRequisition) *RequisitionEvent {
	return &RequisitionEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(eventType, AggregateTypePurchaseRequisition, r.ID, r.TenantID),
		RequisitionID:     r.ID,
		RequisitionNumber: r.RequisitionNumber,
		RequesterID:       r.RequesterID,
		Status:            r.Status,
		TotalAmount:       r.TotalAmount,
	}
}

// RequisitionLevelApprovedEvent is raised when a non-final level is approved
type RequisitionLevelApprovedEvent struct {
	RequisitionEvent
	ApproverID     uuid.UUID `json:"approver_id"`
	Level          int       `json:"level"`
	RequiredLevels int       `json:"required_levels"`
}

// NewRequisitionLevelApprovedEvent creates a new RequisitionLevelApprovedEvent
func NewRequisitionLevelApprovedEvent(r *PurchaseRequisition, approver uuid.UUID) *RequisitionLevelApprovedEvent {
	return &RequisitionLevelApprovedEvent{
		RequisitionEvent: *NewRequisitionEvent(EventTypeRequisitionLevelApproved, r),
		ApproverID:       approver,
		Level:            r.CurrentApprovalLevel,
		RequiredLevels:   r.RequiredApprovalLevels,
	}
}

// RequisitionEscalatedEvent is raised when an overdue level is auto-approved or escalated
type RequisitionEscalatedEvent struct {
	RequisitionEvent
	Outcome approval.EscalationOutcome `json:"outcome"`
	Level   int                        `json:"level"`
}

// NewRequisitionEscalatedEvent creates a new RequisitionEscalatedEvent
func NewRequisitionEscalatedEvent(r *PurchaseRequisition, outcome approval.EscalationOutcome, level int) *RequisitionEscalatedEvent {
	return &RequisitionEscalatedEvent{
		RequisitionEvent: *NewRequisitionEvent(EventTypeRequisitionEscalated, r),
		Outcome:          outcome,
		Level:            level,
	}
}

// RequisitionConvertedEvent is raised when a purchase order is created from the requisition
type RequisitionConvertedEvent struct {
	RequisitionEvent
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	OrderNumber     string    `json:"order_number"`
}

// NewRequisitionConvertedEvent creates a new RequisitionConvertedEvent
func NewRequisitionConvertedEvent(r *PurchaseRequisition, orderNumber string) *RequisitionConvertedEvent {
	return &RequisitionConvertedEvent{
		RequisitionEvent: *NewRequisitionEvent(EventTypeRequisitionConverted, r),
		PurchaseOrderID:  *r.PurchaseOrderID,
		OrderNumber:      orderNumber,
	}
}
