package approval

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType is the kind of document a workflow governs. Values are wire values.
type DocumentType string

const (
	DocumentTypePurchaseRequisition DocumentType = "Purchase Requisition"
	DocumentTypePurchaseOrder       DocumentType = "Purchase Order"
)

// IsValid returns true if the document type is valid
func (d DocumentType) IsValid() bool {
	return d == DocumentTypePurchaseRequisition || d == DocumentTypePurchaseOrder
}

// String returns the string representation of DocumentType
func (d DocumentType) String() string {
	return string(d)
}

// ApprovalLevel is one step of a workflow
type ApprovalLevel struct {
	Level      int        `json:"level"`
	Role       string     `json:"role"`
	ApproverID *uuid.UUID `json:"approver_id,omitempty"`
	Required   bool       `json:"required"`
	// TimeoutDays arms the escalation deadline when the level becomes current
	TimeoutDays int  `json:"timeout_days,omitempty"`
	AutoApprove bool `json:"auto_approve,omitempty"`
}

// Conditions restrict where a workflow applies. Empty fields match anything.
type Conditions struct {
	MinAmount   *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount   *decimal.Decimal `json:"max_amount,omitempty"`
	Departments []string         `json:"departments,omitempty"`
	Categories  []string         `json:"categories,omitempty"`
}

// MatchesAmount returns true if amount lies within [MinAmount, MaxAmount]
func (c Conditions) MatchesAmount(amount decimal.Decimal) bool {
	if c.MinAmount != nil && amount.LessThan(*c.MinAmount) {
		return false
	}
	if c.MaxAmount != nil && amount.GreaterThan(*c.MaxAmount) {
		return false
	}
	return true
}

// AllowsDepartment returns true if the department allow-list is empty or contains dept
func (c Conditions) AllowsDepartment(dept string) bool {
	return allows(c.Departments, dept)
}

// AllowsCategory returns true if the category allow-list is empty or contains category
func (c Conditions) AllowsCategory(category string) bool {
	return allows(c.Categories, category)
}

// amountRangeWidth returns the width of the amount range; unbounded ranges report ok=false
func (c Conditions) amountRangeWidth() (decimal.Decimal, bool) {
	if c.MinAmount == nil || c.MaxAmount == nil {
		return decimal.Zero, false
	}
	return c.MaxAmount.Sub(*c.MinAmount), true
}

func allows(list []string, value string) bool {
	if len(list) == 0 {
		return true
	}
	return slices.ContainsFunc(list, func(s string) bool {
		return strings.EqualFold(s, value)
	})
}

// ApprovalWorkflow is a tenant-configured approval policy
type ApprovalWorkflow struct {
	shared.TenantAggregateRoot
	Name             string
	Description      string
	DocumentType     DocumentType
	Levels           []ApprovalLevel
	Conditions       Conditions
	ParallelApproval bool
	IsDefault        bool
	IsActive         bool
	Priority         int
}

// NewApprovalWorkflow creates an active, non-default workflow
func NewApprovalWorkflow(tenantID uuid.UUID, name string, docType DocumentType, levels []ApprovalLevel, conditions Conditions) (*ApprovalWorkflow, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}

	wf := &ApprovalWorkflow{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DocumentType:        docType,
		IsActive:            true,
	}
	if err := wf.Update(name, "", levels, conditions, 0, false); err != nil {
		return nil, err
	}
	return wf, nil
}

// Update replaces the editable definition of the workflow
func (w *ApprovalWorkflow) Update(name, description string, levels []ApprovalLevel, conditions Conditions, priority int, parallel bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Workflow name cannot be empty")
	}
	if !w.DocumentType.IsValid() {
		return shared.NewDomainErrorf("INVALID_DOCUMENT_TYPE", "Invalid document type %q", w.DocumentType)
	}
	normalized, err := normalizeLevels(levels)
	if err != nil {
		return err
	}
	if conditions.MinAmount != nil && conditions.MinAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Minimum amount cannot be negative")
	}
	for _, bound := range []*decimal.Decimal{conditions.MinAmount, conditions.MaxAmount} {
		if bound == nil {
			continue
		}
		if err := shared.CheckScale("Amount condition", *bound); err != nil {
			return err
		}
	}
	if conditions.MinAmount != nil && conditions.MaxAmount != nil && conditions.MaxAmount.LessThan(*conditions.MinAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Maximum amount cannot be below minimum amount")
	}

	w.Name = name
	w.Description = description
	w.Levels = normalized
	w.Conditions = conditions
	w.Priority = priority
	w.ParallelApproval = parallel
	w.Touch(time.Now().UTC())
	return nil
}

// normalizeLevels sorts levels by number and rejects gaps, duplicates and bad timeouts
func normalizeLevels(levels []ApprovalLevel) ([]ApprovalLevel, error) {
	if len(levels) == 0 {
		return nil, shared.NewDomainError("INVALID_LEVELS", "Workflow must declare at least one approval level")
	}
	out := make([]ApprovalLevel, len(levels))
	copy(out, levels)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level < out[j].Level })

	for i, lvl := range out {
		if lvl.Level != i+1 {
			return nil, shared.NewDomainErrorf("INVALID_LEVELS", "Approval levels must be numbered 1..%d without gaps", len(out))
		}
		if strings.TrimSpace(lvl.Role) == "" && lvl.ApproverID == nil {
			return nil, shared.NewDomainErrorf("INVALID_LEVELS", "Level %d needs a role or a named approver", lvl.Level)
		}
		if lvl.TimeoutDays < 0 {
			return nil, shared.NewDomainErrorf("INVALID_LEVELS", "Level %d timeout cannot be negative", lvl.Level)
		}
		if lvl.AutoApprove && lvl.TimeoutDays == 0 {
			return nil, shared.NewDomainErrorf("INVALID_LEVELS", "Level %d auto-approval requires a timeout", lvl.Level)
		}
	}
	return out, nil
}

// MarkDefault flags the workflow as the tenant's fallback for its document type.
// Clearing the previous default is the caller's responsibility.
func (w *ApprovalWorkflow) MarkDefault() error {
	if !w.IsActive {
		return shared.InvalidTransition("mark default", workflowState{w})
	}
	w.IsDefault = true
	w.Touch(time.Now().UTC())
	return nil
}

// ClearDefault removes the default flag
func (w *ApprovalWorkflow) ClearDefault() {
	w.IsDefault = false
	w.Touch(time.Now().UTC())
}

// Deactivate retires the workflow; workflows are never deleted
func (w *ApprovalWorkflow) Deactivate() error {
	if !w.IsActive {
		return shared.InvalidTransition("deactivate", workflowState{w})
	}
	w.IsActive = false
	w.IsDefault = false
	w.Touch(time.Now().UTC())
	return nil
}

// Activate re-enables a deactivated workflow
func (w *ApprovalWorkflow) Activate() error {
	if w.IsActive {
		return shared.InvalidTransition("activate", workflowState{w})
	}
	w.IsActive = true
	w.Touch(time.Now().UTC())
	return nil
}

// IsConditional returns true for non-default workflows
func (w *ApprovalWorkflow) IsConditional() bool {
	return !w.IsDefault
}

type workflowState struct{ *ApprovalWorkflow }

func (s workflowState) String() string {
	if s.IsActive {
		return "active"
	}
	return "inactive"
}
