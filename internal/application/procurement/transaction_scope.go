package procurement

import (
	"context"

	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/procurement"
)

// TransactionScope provides transactional access to the procurement repositories.
// Conversion and goods receipt write several aggregates and rely on Execute
// committing or rolling back all of them together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories bound to the current transaction
type TransactionalRepositories interface {
	RequisitionRepo() procurement.RequisitionRepository
	PurchaseOrderRepo() procurement.PurchaseOrderRepository
	// InventoryRepo is used by goods receipt to post stock in the same transaction
	InventoryRepo() inventory.InventoryRepository
	// Sequences hands out document numbers; increments roll back with the transaction
	Sequences() procurement.SequenceGenerator
}

// NoOpTransactionScope runs the function against plain repositories without a transaction.
// This is useful for testing.
type NoOpTransactionScope struct {
	requisitionRepo procurement.RequisitionRepository
	orderRepo       procurement.PurchaseOrderRepository
	inventoryRepo   inventory.InventoryRepository
	sequences       procurement.SequenceGenerator
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(
	requisitionRepo procurement.RequisitionRepository,
	orderRepo procurement.PurchaseOrderRepository,
	inventoryRepo inventory.InventoryRepository,
	sequences procurement.SequenceGenerator,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		requisitionRepo: requisitionRepo,
		orderRepo:       orderRepo,
		inventoryRepo:   inventoryRepo,
		sequences:       sequences,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) RequisitionRepo() procurement.RequisitionRepository {
	return s.requisitionRepo
}

func (s *NoOpTransactionScope) PurchaseOrderRepo() procurement.PurchaseOrderRepository {
	return s.orderRepo
}

func (s *NoOpTransactionScope) InventoryRepo() inventory.InventoryRepository {
	return s.inventoryRepo
}

func (s *NoOpTransactionScope) Sequences() procurement.SequenceGenerator {
	return s.sequences
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
