package approval

import (
	"context"
	"errors"

	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkflowService administers approval workflows and answers resolution queries
type WorkflowService struct {
	workflowRepo approval.ApprovalWorkflowRepository
	txScope      TransactionScope
	resolver     *approval.Resolver
	logger       *zap.Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(workflowRepo approval.ApprovalWorkflowRepository, txScope TransactionScope, logger *zap.Logger) *WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{
		workflowRepo: workflowRepo,
		txScope:      txScope,
		resolver:     approval.NewResolver(workflowRepo),
		logger:       logger,
	}
}

// Create creates a new workflow. When flagged default it replaces the previous default.
func (s *WorkflowService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateWorkflowRequest) (*WorkflowResponse, error) {
	wf, err := approval.NewApprovalWorkflow(tenantID, req.Name, approval.DocumentType(req.DocumentType), toLevels(req.Levels), toConditions(req.Conditions))
	if err != nil {
		return nil, err
	}
	if err := wf.Update(req.Name, req.Description, wf.Levels, wf.Conditions, req.Priority, req.ParallelApproval); err != nil {
		return nil, err
	}
	wf.SetCreatedBy(actorID)

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.WorkflowRepo()
		if req.IsDefault {
			if err := s.takeOverDefault(ctx, repo, wf); err != nil {
				return err
			}
		}
		return repo.Save(ctx, wf)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Approval workflow created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("workflow_id", wf.ID.String()),
		zap.String("document_type", wf.DocumentType.String()),
		zap.Bool("is_default", wf.IsDefault),
		zap.Int("levels", len(wf.Levels)),
	)
	resp := ToWorkflowResponse(wf)
	return &resp, nil
}

// GetByID retrieves a workflow by ID
func (s *WorkflowService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*WorkflowResponse, error) {
	wf, err := s.workflowRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToWorkflowResponse(wf)
	return &resp, nil
}

// List retrieves a paginated list of workflows
func (s *WorkflowService) List(ctx context.Context, tenantID uuid.UUID, filter WorkflowListFilter) ([]WorkflowResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "priority",
		OrderDir: "asc",
		Filters:  make(map[string]any),
	}
	if domainFilter.Page <= 0 {
		domainFilter.Page = 1
	}
	if domainFilter.PageSize <= 0 {
		domainFilter.PageSize = 20
	}
	if filter.DocumentType != "" {
		domainFilter.Filters["document_type"] = filter.DocumentType
	}
	if filter.IsActive != nil {
		domainFilter.Filters["is_active"] = *filter.IsActive
	}

	workflows, total, err := s.workflowRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToWorkflowResponses(workflows), total, nil
}

// Update replaces a workflow's definition. Documents already submitted keep
// the snapshot they were submitted with.
func (s *WorkflowService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateWorkflowRequest) (*WorkflowResponse, error) {
	var wf *approval.ApprovalWorkflow
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.WorkflowRepo()
		var err error
		wf, err = repo.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := wf.Update(req.Name, req.Description, toLevels(req.Levels), toConditions(req.Conditions), req.Priority, req.ParallelApproval); err != nil {
			return err
		}
		if req.IsDefault != nil {
			if *req.IsDefault && !wf.IsDefault {
				if err := s.takeOverDefault(ctx, repo, wf); err != nil {
					return err
				}
			} else if !*req.IsDefault {
				wf.ClearDefault()
			}
		}
		return repo.Save(ctx, wf)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Approval workflow updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("workflow_id", wf.ID.String()),
		zap.Int("version", wf.Version),
	)
	resp := ToWorkflowResponse(wf)
	return &resp, nil
}

// Deactivate retires a workflow. A deactivated default stops being the fallback.
func (s *WorkflowService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*WorkflowResponse, error) {
	return s.toggle(ctx, tenantID, id, (*approval.ApprovalWorkflow).Deactivate)
}

// Activate re-enables a deactivated workflow
func (s *WorkflowService) Activate(ctx context.Context, tenantID, id uuid.UUID) (*WorkflowResponse, error) {
	return s.toggle(ctx, tenantID, id, (*approval.ApprovalWorkflow).Activate)
}

func (s *WorkflowService) toggle(ctx context.Context, tenantID, id uuid.UUID, fn func(*approval.ApprovalWorkflow) error) (*WorkflowResponse, error) {
	wf, err := s.workflowRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(wf); err != nil {
		return nil, err
	}
	if err := s.workflowRepo.Save(ctx, wf); err != nil {
		return nil, err
	}
	s.logger.Info("Approval workflow state changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("workflow_id", wf.ID.String()),
		zap.Bool("is_active", wf.IsActive),
	)
	resp := ToWorkflowResponse(wf)
	return &resp, nil
}

// Resolve returns the workflow that governs a document with the given attributes
func (s *WorkflowService) Resolve(ctx context.Context, tenantID uuid.UUID, req ResolveRequest) (*WorkflowResponse, error) {
	wf, err := s.resolver.Resolve(ctx, tenantID, approval.Criteria{
		DocumentType: approval.DocumentType(req.DocumentType),
		Amount:       req.Amount,
		Department:   req.Department,
		Category:     req.Category,
	})
	if err != nil {
		return nil, err
	}
	resp := ToWorkflowResponse(wf)
	return &resp, nil
}

// takeOverDefault clears the current default of wf's document type and flags wf
func (s *WorkflowService) takeOverDefault(ctx context.Context, repo approval.ApprovalWorkflowRepository, wf *approval.ApprovalWorkflow) error {
	current, err := repo.FindDefault(ctx, wf.TenantID, wf.DocumentType)
	switch {
	case err == nil && current.ID != wf.ID:
		current.ClearDefault()
		if err := repo.Save(ctx, current); err != nil {
			return err
		}
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		return err
	}
	return wf.MarkDefault()
}
