package persistence

import (
	"context"

	appapproval "github.com/erp/procurement/internal/application/approval"
	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/domain/procurement"
	"gorm.io/gorm"
)

// GormApprovalTransactionScope implements the approval TransactionScope using GORM
type GormApprovalTransactionScope struct {
	db *gorm.DB
}

// NewGormApprovalTransactionScope creates a new GormApprovalTransactionScope
func NewGormApprovalTransactionScope(db *gorm.DB) *GormApprovalTransactionScope {
	return &GormApprovalTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormApprovalTransactionScope) Execute(ctx context.Context, fn func(repos appapproval.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormApprovalRepositories{tx: tx})
	})
}

type gormApprovalRepositories struct {
	tx *gorm.DB
}

func (r *gormApprovalRepositories) WorkflowRepo() approval.ApprovalWorkflowRepository {
	return NewGormApprovalWorkflowRepository(r.tx)
}

func (r *gormApprovalRepositories) RequisitionRepo() procurement.RequisitionRepository {
	return NewGormRequisitionRepository(r.tx)
}

var (
	_ appapproval.TransactionScope          = (*GormApprovalTransactionScope)(nil)
	_ appapproval.TransactionalRepositories = (*gormApprovalRepositories)(nil)
)
