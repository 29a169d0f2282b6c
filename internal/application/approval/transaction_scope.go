package approval

import (
	"context"

	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/domain/procurement"
)

// TransactionScope provides transactional access to approval repositories
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to the current transaction.
//   - WorkflowRepo: workflow definitions; default flags are switched inside one transaction.
//   - RequisitionRepo: documents whose approval levels are escalated on timeout.
type TransactionalRepositories interface {
	WorkflowRepo() approval.ApprovalWorkflowRepository
	RequisitionRepo() procurement.RequisitionRepository
}

// NoOpTransactionScope runs the function against plain repositories without a transaction.
// This is useful for testing.
type NoOpTransactionScope struct {
	workflowRepo    approval.ApprovalWorkflowRepository
	requisitionRepo procurement.RequisitionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(workflowRepo approval.ApprovalWorkflowRepository, requisitionRepo procurement.RequisitionRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{workflowRepo: workflowRepo, requisitionRepo: requisitionRepo}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// WorkflowRepo returns the workflow repository
func (s *NoOpTransactionScope) WorkflowRepo() approval.ApprovalWorkflowRepository {
	return s.workflowRepo
}

// RequisitionRepo returns the requisition repository
func (s *NoOpTransactionScope) RequisitionRepo() procurement.RequisitionRepository {
	return s.requisitionRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
