package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormApprovalWorkflowRepository implements ApprovalWorkflowRepository using GORM
type GormApprovalWorkflowRepository struct {
	db *gorm.DB
}

// NewGormApprovalWorkflowRepository creates a new GormApprovalWorkflowRepository
func NewGormApprovalWorkflowRepository(db *gorm.DB) *GormApprovalWorkflowRepository {
	return &GormApprovalWorkflowRepository{db: db}
}

// FindByIDForTenant finds a workflow by ID within a tenant
func (r *GormApprovalWorkflowRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*approval.ApprovalWorkflow, error) {
	var model models.ApprovalWorkflowModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists workflows with filtering and pagination
func (r *GormApprovalWorkflowRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]approval.ApprovalWorkflow, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ApprovalWorkflowModel{}).Where("tenant_id = ?", tenantID)
	for key, value := range filter.Filters {
		switch key {
		case "document_type":
			query = query.Where("document_type = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		}
	}
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var wfModels []models.ApprovalWorkflowModel
	if err := workflowSort.paginate(query, filter, "created_at").Find(&wfModels).Error; err != nil {
		return nil, 0, err
	}
	return toWorkflows(wfModels), total, nil
}

// FindActiveByDocumentType returns every active workflow of a document type.
// Resolution order is decided by the resolver, not by the query.
func (r *GormApprovalWorkflowRepository) FindActiveByDocumentType(ctx context.Context, tenantID uuid.UUID, docType approval.DocumentType) ([]approval.ApprovalWorkflow, error) {
	var wfModels []models.ApprovalWorkflowModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_type = ? AND is_active = ?", tenantID, docType, true).
		Order("created_at ASC").
		Find(&wfModels).Error; err != nil {
		return nil, err
	}
	return toWorkflows(wfModels), nil
}

// FindDefault returns the default workflow of a document type
func (r *GormApprovalWorkflowRepository) FindDefault(ctx context.Context, tenantID uuid.UUID, docType approval.DocumentType) (*approval.ApprovalWorkflow, error) {
	var model models.ApprovalWorkflowModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_type = ? AND is_default = ?", tenantID, docType, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts a new workflow or updates an existing one under optimistic locking
func (r *GormApprovalWorkflowRepository) Save(ctx context.Context, wf *approval.ApprovalWorkflow) error {
	db := r.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&models.ApprovalWorkflowModel{}).Where("id = ?", wf.ID).Count(&exists).Error; err != nil {
		return err
	}
	model := models.ApprovalWorkflowModelFromDomain(wf)
	if exists == 0 {
		return db.Create(model).Error
	}

	nextVersion := wf.Version + 1
	model.Version = nextVersion
	model.UpdatedAt = time.Now().UTC()
	result := db.Model(model).
		Where("tenant_id = ? AND version = ?", wf.TenantID, wf.Version).
		Select("*").
		Omit("id", "tenant_id", "created_at", "created_by", "document_type").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	wf.Version = nextVersion
	wf.UpdatedAt = model.UpdatedAt
	return nil
}

func toWorkflows(wfModels []models.ApprovalWorkflowModel) []approval.ApprovalWorkflow {
	workflows := make([]approval.ApprovalWorkflow, len(wfModels))
	for i := range wfModels {
		workflows[i] = *wfModels[i].ToDomain()
	}
	return workflows
}

// Ensure GormApprovalWorkflowRepository implements ApprovalWorkflowRepository
var _ approval.ApprovalWorkflowRepository = (*GormApprovalWorkflowRepository)(nil)
