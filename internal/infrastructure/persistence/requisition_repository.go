package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRequisitionRepository implements RequisitionRepository using GORM
type GormRequisitionRepository struct {
	db *gorm.DB
}

// NewGormRequisitionRepository creates a new GormRequisitionRepository
func NewGormRequisitionRepository(db *gorm.DB) *GormRequisitionRepository {
	return &GormRequisitionRepository{db: db}
}

func preloadRequisitionItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("line_no ASC")
	})
}

// FindByIDForTenant finds a requisition by ID within a tenant
func (r *GormRequisitionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.PurchaseRequisition, error) {
	return r.findOne(preloadRequisitionItems(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByIDForUpdate finds a requisition and locks its row until the transaction ends
func (r *GormRequisitionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*procurement.PurchaseRequisition, error) {
	return r.findOne(preloadRequisitionItems(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByNumber finds a requisition by its number
func (r *GormRequisitionRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*procurement.PurchaseRequisition, error) {
	return r.findOne(preloadRequisitionItems(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND requisition_number = ?", tenantID, number))
}

func (r *GormRequisitionRepository) findOne(query *gorm.DB) (*procurement.PurchaseRequisition, error) {
	var model models.PurchaseRequisitionModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists requisitions with filtering and pagination
func (r *GormRequisitionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.PurchaseRequisition, int64, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.PurchaseRequisitionModel{}).Where("tenant_id = ?", tenantID),
		filter,
	).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reqModels []models.PurchaseRequisitionModel
	if err := requisitionSort.paginate(preloadRequisitionItems(query), filter, "created_at").
		Find(&reqModels).Error; err != nil {
		return nil, 0, err
	}
	reqs := make([]procurement.PurchaseRequisition, len(reqModels))
	for i := range reqModels {
		reqs[i] = *reqModels[i].ToDomain()
	}
	return reqs, total, nil
}

// FindOverdueApprovals returns Pending requisitions of every tenant whose level deadline has passed
func (r *GormRequisitionRepository) FindOverdueApprovals(ctx context.Context, now time.Time, limit int) ([]procurement.PurchaseRequisition, error) {
	if limit <= 0 {
		limit = 100
	}
	var reqModels []models.PurchaseRequisitionModel
	if err := preloadRequisitionItems(r.db.WithContext(ctx)).
		Where("status = ? AND level_due_at IS NOT NULL AND level_due_at <= ?", procurement.RequisitionStatusPending, now).
		Order("level_due_at ASC").
		Limit(limit).
		Find(&reqModels).Error; err != nil {
		return nil, err
	}
	reqs := make([]procurement.PurchaseRequisition, len(reqModels))
	for i := range reqModels {
		reqs[i] = *reqModels[i].ToDomain()
	}
	return reqs, nil
}

// Create inserts a new requisition together with its lines
func (r *GormRequisitionRepository) Create(ctx context.Context, req *procurement.PurchaseRequisition) error {
	model := models.PurchaseRequisitionModelFromDomain(req)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
}

// SaveWithLock updates the requisition if its stored version still matches,
// then replaces its lines. A stale version yields CONCURRENCY_CONFLICT.
func (r *GormRequisitionRepository) SaveWithLock(ctx context.Context, req *procurement.PurchaseRequisition) error {
	model := models.PurchaseRequisitionModelFromDomain(req)
	nextVersion := req.Version + 1
	model.Version = nextVersion
	model.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(model).
			Where("tenant_id = ? AND version = ?", req.TenantID, req.Version).
			Select("*").
			Omit("Items", "id", "tenant_id", "created_at", "created_by", "requisition_number").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		itemIDs := make([]uuid.UUID, len(model.Items))
		for i := range model.Items {
			itemIDs[i] = model.Items[i].ID
		}
		stale := tx.Where("requisition_id = ?", req.ID)
		if len(itemIDs) > 0 {
			stale = stale.Where("id NOT IN ?", itemIDs)
		}
		if err := stale.Delete(&models.PurchaseRequisitionItemModel{}).Error; err != nil {
			return err
		}
		for i := range model.Items {
			if err := tx.Save(&model.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	req.Version = nextVersion
	req.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormRequisitionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "department":
			query = query.Where("LOWER(department) = LOWER(?)", value)
		case "requester_id":
			query = query.Where("requester_id = ?", value)
		}
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(requisition_number) LIKE ? OR LOWER(title) LIKE ?", pattern, pattern)
	}
	return query
}

// Ensure GormRequisitionRepository implements RequisitionRepository
var _ procurement.RequisitionRepository = (*GormRequisitionRepository)(nil)
