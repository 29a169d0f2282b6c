package approval

import (
	"context"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// ApprovalWorkflowRepository defines the interface for workflow persistence
type ApprovalWorkflowRepository interface {
	// FindByIDForTenant finds a workflow by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ApprovalWorkflow, error)

	// FindAllForTenant lists workflows. Filters: document_type, is_active.
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ApprovalWorkflow, int64, error)

	// FindActiveByDocumentType returns every active workflow of a document type
	FindActiveByDocumentType(ctx context.Context, tenantID uuid.UUID, docType DocumentType) ([]ApprovalWorkflow, error)

	// FindDefault returns the default workflow of a document type
	FindDefault(ctx context.Context, tenantID uuid.UUID, docType DocumentType) (*ApprovalWorkflow, error)

	// Save creates or updates a workflow
	Save(ctx context.Context, wf *ApprovalWorkflow) error
}
