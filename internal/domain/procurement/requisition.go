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

// RequisitionStatus represents the status of a purchase requisition. Values are wire values.
type RequisitionStatus string

const (
	RequisitionStatusDraft     RequisitionStatus = "Draft"
	RequisitionStatusPending   RequisitionStatus = "Pending"
	RequisitionStatusApproved  RequisitionStatus = "Approved"
	RequisitionStatusRejected  RequisitionStatus = "Rejected"
	RequisitionStatusCancelled RequisitionStatus = "Cancelled"
	RequisitionStatusConverted RequisitionStatus = "Converted"
)

// IsValid checks if the status is a valid RequisitionStatus
func (s RequisitionStatus) IsValid() bool {
	switch s {
	case RequisitionStatusDraft, RequisitionStatusPending, RequisitionStatusApproved,
		RequisitionStatusRejected, RequisitionStatusCancelled, RequisitionStatusConverted:
		return true
	}
	return false
}

// String returns the string representation of RequisitionStatus
func (s RequisitionStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s RequisitionStatus) CanTransitionTo(target RequisitionStatus) bool {
	switch s {
	case RequisitionStatusDraft:
		return target == RequisitionStatusPending || target == RequisitionStatusApproved || target == RequisitionStatusCancelled
	case RequisitionStatusPending:
		return target == RequisitionStatusApproved || target == RequisitionStatusRejected || target == RequisitionStatusCancelled
	case RequisitionStatusApproved:
		return target == RequisitionStatusConverted || target == RequisitionStatusCancelled
	case RequisitionStatusRejected, RequisitionStatusCancelled, RequisitionStatusConverted:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s RequisitionStatus) IsTerminal() bool {
	return s == RequisitionStatusRejected || s == RequisitionStatusCancelled || s == RequisitionStatusConverted
}

// RequisitionItem is a requested line
type RequisitionItem struct {
	ID                 uuid.UUID
	ProductID          *uuid.UUID
	Description        string
	Quantity           decimal.Decimal
	Unit               string
	EstimatedUnitPrice decimal.Decimal
	EstimatedTotal     decimal.Decimal // Quantity * EstimatedUnitPrice
}

// NewRequisitionItem creates a requisition line. Quantity must be at least 1.
func NewRequisitionItem(productID *uuid.UUID, description, unit string, quantity, estimatedUnitPrice decimal.Decimal) (RequisitionItem, error) {
	if strings.TrimSpace(description) == "" {
		return RequisitionItem{}, shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot be empty")
	}
	if quantity.LessThan(decimal.NewFromInt(1)) {
		return RequisitionItem{}, shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be at least 1")
	}
	if estimatedUnitPrice.IsNegative() {
		return RequisitionItem{}, shared.NewDomainError("INVALID_PRICE", "Estimated unit price cannot be negative")
	}
	if err := shared.CheckScale("Quantity", quantity); err != nil {
		return RequisitionItem{}, err
	}
	if err := shared.CheckScale("Estimated unit price", estimatedUnitPrice); err != nil {
		return RequisitionItem{}, err
	}
	if productID != nil && *productID == uuid.Nil {
		productID = nil
	}
	if unit == "" {
		unit = "pcs"
	}

	return RequisitionItem{
		ID:                 uuid.New(),
		ProductID:          productID,
		Description:        strings.TrimSpace(description),
		Quantity:           quantity,
		Unit:               unit,
		EstimatedUnitPrice: estimatedUnitPrice,
		EstimatedTotal:     quantity.Mul(estimatedUnitPrice),
	}, nil
}

// RequisitionDetails holds the descriptive header fields of a requisition
type RequisitionDetails struct {
	Title         string
	Department    string
	Category      string
	Justification string
	RequiredBy    *time.Time
}

// PurchaseRequisition is an internal request to buy goods, subject to approval
type PurchaseRequisition struct {
	shared.TenantAggregateRoot
	RequisitionNumber string
	RequesterID       uuid.UUID
	RequisitionDetails
	Items       []RequisitionItem
	TotalAmount decimal.Decimal
	Status      RequisitionStatus
	approval.Progress
	RejectionReason    string
	CancellationReason string
	PurchaseOrderID    *uuid.UUID
	SubmittedAt        *time.Time
	ApprovedAt         *time.Time
	ConvertedAt        *time.Time
	CancelledAt        *time.Time
}

// NewPurchaseRequisition creates a requisition in Draft
func NewPurchaseRequisition(tenantID uuid.UUID, number string, requesterID uuid.UUID, details RequisitionDetails, items []RequisitionItem) (*PurchaseRequisition, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_REQUISITION_NUMBER", "Requisition number cannot be empty")
	}
	if requesterID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "Requester ID cannot be empty")
	}
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	req := &PurchaseRequisition{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RequisitionNumber:   number,
		RequesterID:         requesterID,
		RequisitionDetails:  details,
		Items:               append([]RequisitionItem(nil), items...),
		Status:              RequisitionStatusDraft,
	}
	req.SetCreatedBy(requesterID)
	req.recalculateTotals()

	req.AddDomainEvent(NewRequisitionEvent(EventTypeRequisitionCreated, req))
	return req, nil
}

func validateDetails(d RequisitionDetails) error {
	if strings.TrimSpace(d.Title) == "" {
		return shared.NewDomainError("INVALID_TITLE", "Requisition title cannot be empty")
	}
	if len(d.Title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Requisition title cannot exceed 200 characters")
	}
	return nil
}

// UpdateDetails replaces the header fields. Only allowed in Draft.
func (r *PurchaseRequisition) UpdateDetails(details RequisitionDetails) error {
	if r.Status != RequisitionStatusDraft {
		return shared.InvalidTransition("update requisition", r.Status)
	}
	if err := validateDetails(details); err != nil {
		return err
	}
	r.RequisitionDetails = details
	r.Touch(time.Now().UTC())
	return nil
}

// UpdateItems replaces every line. Only allowed in Draft.
func (r *PurchaseRequisition) UpdateItems(items []RequisitionItem) error {
	if r.Status != RequisitionStatusDraft {
		return shared.InvalidTransition("update items", r.Status)
	}
	r.Items = append([]RequisitionItem(nil), items...)
	r.recalculateTotals()
	r.Touch(time.Now().UTC())
	return nil
}

// ApprovalCriteria describes the requisition to the workflow resolver
func (r *PurchaseRequisition) ApprovalCriteria() approval.Criteria {
	return approval.Criteria{
		DocumentType: approval.DocumentTypePurchaseRequisition,
		Amount:       r.TotalAmount,
		Department:   r.Department,
		Category:     r.Category,
	}
}

// Submit moves a Draft requisition into approval along plan.
// An auto-approving plan moves it straight to Approved.
func (r *PurchaseRequisition) Submit(plan approval.Plan, submitter, systemApprover uuid.UUID) error {
	if r.Status != RequisitionStatusDraft {
		return shared.InvalidTransition("submit", r.Status)
	}
	if len(r.Items) == 0 {
		return shared.NewDomainError(shared.CodeNoItems, "Cannot submit requisition without items")
	}

	now := time.Now().UTC()
	r.recalculateTotals()
	approved := r.Start(plan, submitter, systemApprover, now)
	r.SubmittedAt = &now
	r.Status = RequisitionStatusPending
	r.Touch(now)
	r.AddDomainEvent(NewRequisitionEvent(EventTypeRequisitionSubmitted, r))

	if approved {
		r.finalizeApproval(now)
	}
	return nil
}

// Approve records an approval by approver for the current level
func (r *PurchaseRequisition) Approve(approver uuid.UUID, comment string) error {
	if r.Status != RequisitionStatusPending {
		return shared.InvalidTransition("approve", r.Status)
	}

	now := time.Now().UTC()
	done, err := r.Progress.Approve(approver, comment, now)
	if err != nil {
		return err
	}
	r.Touch(now)

	if done {
		r.finalizeApproval(now)
		return nil
	}
	r.AddDomainEvent(NewRequisitionLevelApprovedEvent(r, approver))
	return nil
}

// Reject ends approval with a rejection
func (r *PurchaseRequisition) Reject(approver uuid.UUID, comment string) error {
	if r.Status != RequisitionStatusPending {
		return shared.InvalidTransition("reject", r.Status)
	}

	now := time.Now().UTC()
	if err := r.Progress.Reject(approver, comment, now); err != nil {
		return err
	}
	r.Status = RequisitionStatusRejected
	r.RejectionReason = comment
	r.Touch(now)
	r.AddDomainEvent(NewRequisitionEvent(EventTypeRequisitionRejected, r))
	return nil
}

// Cancel withdraws the requisition. Allowed any time before conversion.
func (r *PurchaseRequisition) Cancel(reason string) error {
	if !r.Status.CanTransitionTo(RequisitionStatusCancelled) {
		return shared.InvalidTransition("cancel", r.Status)
	}

	now := time.Now().UTC()
	r.Status = RequisitionStatusCancelled
	r.CancellationReason = reason
	r.CancelledAt = &now
	r.LevelDueAt = nil
	r.Touch(now)
	r.AddDomainEvent(NewRequisitionEvent(EventTypeRequisitionCancelled, r))
	return nil
}

// Escalate handles an overdue approval level on behalf of systemApprover
func (r *PurchaseRequisition) Escalate(systemApprover uuid.UUID, now time.Time) (approval.EscalationOutcome, error) {
	if r.Status != RequisitionStatusPending {
		return "", shared.InvalidTransition("escalate", r.Status)
	}
	if !r.IsOverdue(now) {
		return "", shared.NewDomainErrorf(shared.CodeValidation, "Requisition %s has no overdue approval level", r.RequisitionNumber)
	}

	level := r.CurrentApprovalLevel + 1
	outcome, done := r.Progress.Escalate(systemApprover, now)
	r.Touch(now)
	r.AddDomainEvent(NewRequisitionEscalatedEvent(r, outcome, level))
	if done {
		r.finalizeApproval(now)
	}
	return outcome, nil
}

// CanConvert reports why the requisition cannot be converted, or nil
func (r *PurchaseRequisition) CanConvert() error {
	if r.Status == RequisitionStatusConverted || r.PurchaseOrderID != nil {
		return shared.NewDomainErrorf(shared.CodeAlreadyConverted,
			"Requisition %s has already been converted", r.RequisitionNumber)
	}
	if r.Status != RequisitionStatusApproved {
		return shared.InvalidTransition("convert", r.Status)
	}
	return nil
}

// MarkConverted records the purchase order created from this requisition
func (r *PurchaseRequisition) MarkConverted(purchaseOrderID uuid.UUID, orderNumber string) error {
	if err := r.CanConvert(); err != nil {
		return err
	}
	if purchaseOrderID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Purchase order ID cannot be empty")
	}

	now := time.Now().UTC()
	r.Status = RequisitionStatusConverted
	r.PurchaseOrderID = &purchaseOrderID
	r.ConvertedAt = &now
	r.Touch(now)
	r.AddDomainEvent(NewRequisitionConvertedEvent(r, orderNumber))
	return nil
}

// Validate checks the conversion invariant
func (r *PurchaseRequisition) Validate() error {
	converted := r.Status == RequisitionStatusConverted
	if converted != (r.PurchaseOrderID != nil) {
		return shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Requisition %s: status %s does not match purchase order reference", r.RequisitionNumber, r.Status))
	}
	return nil
}

func (r *PurchaseRequisition) finalizeApproval(now time.Time) {
	r.Status = RequisitionStatusApproved
	r.ApprovedAt = &now
	r.LevelDueAt = nil
	r.AddDomainEvent(NewRequisitionEvent(EventTypeRequisitionApproved, r))
}

// recalculateTotals derives line totals and TotalAmount; input totals are never trusted
func (r *PurchaseRequisition) recalculateTotals() {
	total := decimal.Zero
	for i := range r.Items {
		r.Items[i].EstimatedTotal = r.Items[i].Quantity.Mul(r.Items[i].EstimatedUnitPrice)
		total = total.Add(r.Items[i].EstimatedTotal)
	}
	r.TotalAmount = total
}

// ItemCount returns the number of lines
func (r *PurchaseRequisition) ItemCount() int {
	return len(r.Items)
}
