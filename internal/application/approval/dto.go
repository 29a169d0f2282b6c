package approval

import (
	"time"

	"github.com/erp/procurement/internal/domain/approval"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalLevelInput describes one level of a workflow.
// Level may be omitted, in which case levels are numbered by position.
type ApprovalLevelInput struct {
	Level       int        `json:"level" binding:"min=0"`
	Role        string     `json:"role" binding:"max=100"`
	ApproverID  *uuid.UUID `json:"approver_id"`
	Required    bool       `json:"required"`
	TimeoutDays int        `json:"timeout_days" binding:"min=0,max=365"`
	AutoApprove bool       `json:"auto_approve"`
}

// ConditionsInput describes where a workflow applies
type ConditionsInput struct {
	MinAmount   *decimal.Decimal `json:"min_amount"`
	MaxAmount   *decimal.Decimal `json:"max_amount"`
	Departments []string         `json:"departments" binding:"omitempty,dive,min=1,max=100"`
	Categories  []string         `json:"categories" binding:"omitempty,dive,min=1,max=100"`
}

// CreateWorkflowRequest represents a request to create a workflow
type CreateWorkflowRequest struct {
	Name             string               `json:"name" binding:"required,min=1,max=200"`
	Description      string               `json:"description" binding:"max=1000"`
	DocumentType     string               `json:"document_type" binding:"required,oneof='Purchase Requisition' 'Purchase Order'"`
	Levels           []ApprovalLevelInput `json:"levels" binding:"required,min=1,dive"`
	Conditions       ConditionsInput      `json:"conditions"`
	ParallelApproval bool                 `json:"parallel_approval"`
	Priority         int                  `json:"priority"`
	IsDefault        bool                 `json:"is_default"`
}

// UpdateWorkflowRequest replaces a workflow's definition
type UpdateWorkflowRequest struct {
	Name             string               `json:"name" binding:"required,min=1,max=200"`
	Description      string               `json:"description" binding:"max=1000"`
	Levels           []ApprovalLevelInput `json:"levels" binding:"required,min=1,dive"`
	Conditions       ConditionsInput      `json:"conditions"`
	ParallelApproval bool                 `json:"parallel_approval"`
	Priority         int                  `json:"priority"`
	IsDefault        *bool                `json:"is_default"`
}

// WorkflowListFilter represents filter options for workflow lists
type WorkflowListFilter struct {
	DocumentType string `form:"document_type" binding:"omitempty,oneof='Purchase Requisition' 'Purchase Order'"`
	IsActive     *bool  `form:"is_active"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ResolveRequest asks which workflow applies to a document
type ResolveRequest struct {
	DocumentType string          `json:"document_type" binding:"required,oneof='Purchase Requisition' 'Purchase Order'"`
	Amount       decimal.Decimal `json:"amount"`
	Department   string          `json:"department"`
	Category     string          `json:"category"`
}

// ApprovalLevelResponse represents a workflow level in API responses
type ApprovalLevelResponse struct {
	Level       int        `json:"level"`
	Role        string     `json:"role"`
	ApproverID  *uuid.UUID `json:"approver_id,omitempty"`
	Required    bool       `json:"required"`
	TimeoutDays int        `json:"timeout_days,omitempty"`
	AutoApprove bool       `json:"auto_approve,omitempty"`
}

// ConditionsResponse represents workflow conditions in API responses
type ConditionsResponse struct {
	MinAmount   *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount   *decimal.Decimal `json:"max_amount,omitempty"`
	Departments []string         `json:"departments"`
	Categories  []string         `json:"categories"`
}

// WorkflowResponse represents a workflow in API responses
type WorkflowResponse struct {
	ID               uuid.UUID               `json:"id"`
	TenantID         uuid.UUID               `json:"tenant_id"`
	Name             string                  `json:"name"`
	Description      string                  `json:"description,omitempty"`
	DocumentType     string                  `json:"document_type"`
	Levels           []ApprovalLevelResponse `json:"levels"`
	Conditions       ConditionsResponse      `json:"conditions"`
	ParallelApproval bool                    `json:"parallel_approval"`
	IsDefault        bool                    `json:"is_default"`
	IsActive         bool                    `json:"is_active"`
	Priority         int                     `json:"priority"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Version          int                     `json:"version"`
}

func toLevels(in []ApprovalLevelInput) []approval.ApprovalLevel {
	levels := make([]approval.ApprovalLevel, len(in))
	for i, l := range in {
		number := l.Level
		if number == 0 {
			number = i + 1
		}
		levels[i] = approval.ApprovalLevel{
			Level:       number,
			Role:        l.Role,
			ApproverID:  l.ApproverID,
			Required:    l.Required,
			TimeoutDays: l.TimeoutDays,
			AutoApprove: l.AutoApprove,
		}
	}
	return levels
}

func toConditions(in ConditionsInput) approval.Conditions {
	return approval.Conditions{
		MinAmount:   in.MinAmount,
		MaxAmount:   in.MaxAmount,
		Departments: in.Departments,
		Categories:  in.Categories,
	}
}

// ToWorkflowResponse converts a domain workflow to a response
func ToWorkflowResponse(w *approval.ApprovalWorkflow) WorkflowResponse {
	levels := make([]ApprovalLevelResponse, len(w.Levels))
	for i, l := range w.Levels {
		levels[i] = ApprovalLevelResponse(l)
	}
	departments := w.Conditions.Departments
	if departments == nil {
		departments = []string{}
	}
	categories := w.Conditions.Categories
	if categories == nil {
		categories = []string{}
	}
	return WorkflowResponse{
		ID:           w.ID,
		TenantID:     w.TenantID,
		Name:         w.Name,
		Description:  w.Description,
		DocumentType: w.DocumentType.String(),
		Levels:       levels,
		Conditions: ConditionsResponse{
			MinAmount:   w.Conditions.MinAmount,
			MaxAmount:   w.Conditions.MaxAmount,
			Departments: departments,
			Categories:  categories,
		},
		ParallelApproval: w.ParallelApproval,
		IsDefault:        w.IsDefault,
		IsActive:         w.IsActive,
		Priority:         w.Priority,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
		Version:          w.Version,
	}
}

// ToWorkflowResponses converts a slice of workflows
func ToWorkflowResponses(workflows []approval.ApprovalWorkflow) []WorkflowResponse {
	responses := make([]WorkflowResponse, len(workflows))
	for i := range workflows {
		responses[i] = ToWorkflowResponse(&workflows[i])
	}
	return responses
}
