package persistence

import (
	"context"

	appproc "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/procurement"
	"gorm.io/gorm"
)

// GormProcurementTransactionScope implements the procurement TransactionScope using GORM.
// Requisition conversion and goods receipt commit every aggregate they touch,
// plus the number sequence, in one transaction.
type GormProcurementTransactionScope struct {
	db *gorm.DB
}

// NewGormProcurementTransactionScope creates a new GormProcurementTransactionScope
func NewGormProcurementTransactionScope(db *gorm.DB) *GormProcurementTransactionScope {
	return &GormProcurementTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormProcurementTransactionScope) Execute(ctx context.Context, fn func(repos appproc.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormProcurementRepositories{tx: tx})
	})
}

type gormProcurementRepositories struct {
	tx *gorm.DB
}

func (r *gormProcurementRepositories) RequisitionRepo() procurement.RequisitionRepository {
	return NewGormRequisitionRepository(r.tx)
}

func (r *gormProcurementRepositories) PurchaseOrderRepo() procurement.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormProcurementRepositories) InventoryRepo() inventory.InventoryRepository {
	return NewGormInventoryRepository(r.tx)
}

func (r *gormProcurementRepositories) Sequences() procurement.SequenceGenerator {
	return NewGormSequenceGenerator(r.tx)
}

var (
	_ appproc.TransactionScope          = (*GormProcurementTransactionScope)(nil)
	_ appproc.TransactionalRepositories = (*gormProcurementRepositories)(nil)
)
