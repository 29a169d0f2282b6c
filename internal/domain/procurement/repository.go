package procurement

import (
	"context"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// RequisitionRepository defines the interface for requisition persistence
type RequisitionRepository interface {
	// FindByIDForTenant finds a requisition by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseRequisition, error)

	// FindByIDForUpdate finds a requisition and takes a row lock where supported
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseRequisition, error)

	// FindByNumber finds a requisition by its number
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*PurchaseRequisition, error)

	// FindAllForTenant lists requisitions. Filters: status, department, requester_id.
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PurchaseRequisition, int64, error)

	// FindOverdueApprovals returns Pending requisitions of any tenant whose level deadline
	// is at or before now, oldest deadline first
	FindOverdueApprovals(ctx context.Context, now time.Time, limit int) ([]PurchaseRequisition, error)

	// Create inserts a new requisition
	Create(ctx context.Context, req *PurchaseRequisition) error

	// SaveWithLock updates with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, req *PurchaseRequisition) error
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByIDForTenant finds an order by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForUpdate finds an order and takes a row lock where supported
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)

	// FindByRequisition finds the order converted from a requisition
	FindByRequisition(ctx context.Context, tenantID, requisitionID uuid.UUID) (*PurchaseOrder, error)

	// FindAllForTenant lists orders. Filters: status, supplier_id, requisition_id.
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, int64, error)

	// CountByRequisition counts orders created from a requisition
	CountByRequisition(ctx context.Context, tenantID, requisitionID uuid.UUID) (int64, error)

	// Create inserts a new order
	Create(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLock updates with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error
}
