package models

import (
	"github.com/erp/procurement/internal/domain/approval"
)

// ApprovalWorkflowModel is the persistence model for the ApprovalWorkflow aggregate root.
type ApprovalWorkflowModel struct {
	TenantAggregateModel
	Name             string                   `gorm:"type:varchar(200);not null"`
	Description      string                   `gorm:"type:text"`
	DocumentType     approval.DocumentType    `gorm:"type:varchar(50);not null;index"`
	Levels           []approval.ApprovalLevel `gorm:"type:jsonb;serializer:json;not null"`
	Conditions       approval.Conditions      `gorm:"type:jsonb;serializer:json;not null"`
	ParallelApproval bool                     `gorm:"not null;default:false"`
	IsDefault        bool                     `gorm:"not null;default:false"`
	IsActive         bool                     `gorm:"not null;default:true"`
	Priority         int                      `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ApprovalWorkflowModel) TableName() string {
	return "approval_workflows"
}

// ToDomain converts the persistence model to a domain ApprovalWorkflow entity.
func (m *ApprovalWorkflowModel) ToDomain() *approval.ApprovalWorkflow {
	wf := &approval.ApprovalWorkflow{
		Name:             m.Name,
		Description:      m.Description,
		DocumentType:     m.DocumentType,
		Levels:           m.Levels,
		Conditions:       m.Conditions,
		ParallelApproval: m.ParallelApproval,
		IsDefault:        m.IsDefault,
		IsActive:         m.IsActive,
		Priority:         m.Priority,
	}
	wf.TenantAggregateRoot = m.tenantRoot()
	return wf
}

// FromDomain populates the persistence model from a domain ApprovalWorkflow entity.
func (m *ApprovalWorkflowModel) FromDomain(wf *approval.ApprovalWorkflow) {
	m.setTenantRoot(wf.TenantAggregateRoot)
	m.Name = wf.Name
	m.Description = wf.Description
	m.DocumentType = wf.DocumentType
	m.Levels = wf.Levels
	m.Conditions = wf.Conditions
	m.ParallelApproval = wf.ParallelApproval
	m.IsDefault = wf.IsDefault
	m.IsActive = wf.IsActive
	m.Priority = wf.Priority
}

// ApprovalWorkflowModelFromDomain creates a new persistence model from a domain ApprovalWorkflow entity.
func ApprovalWorkflowModelFromDomain(wf *approval.ApprovalWorkflow) *ApprovalWorkflowModel {
	m := &ApprovalWorkflowModel{}
	m.FromDomain(wf)
	return m
}
