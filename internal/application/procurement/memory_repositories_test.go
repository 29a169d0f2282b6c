package procurement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []shared.DomainEvent
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// memoryRequisitionRepository is a map-backed RequisitionRepository with the version check
type memoryRequisitionRepository struct {
	mu   sync.Mutex
	reqs map[uuid.UUID]procurement.PurchaseRequisition
}

func newMemoryRequisitionRepository() *memoryRequisitionRepository {
	return &memoryRequisitionRepository{reqs: make(map[uuid.UUID]procurement.PurchaseRequisition)}
}

func cloneRequisition(r procurement.PurchaseRequisition) *procurement.PurchaseRequisition {
	c := r
	c.Items = append([]procurement.RequisitionItem(nil), r.Items...)
	c.ApprovalHistory = append([]approval.Record(nil), r.ApprovalHistory...)
	c.ClearDomainEvents()
	return &c
}

func (m *memoryRequisitionRepository) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*procurement.PurchaseRequisition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reqs[id]
	if !ok || r.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return cloneRequisition(r), nil
}

func (m *memoryRequisitionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*procurement.PurchaseRequisition, error) {
	return m.FindByIDForTenant(ctx, tenantID, id)
}

func (m *memoryRequisitionRepository) FindByNumber(_ context.Context, tenantID uuid.UUID, number string) (*procurement.PurchaseRequisition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reqs {
		if r.TenantID == tenantID && r.RequisitionNumber == number {
			return cloneRequisition(r), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRequisitionRepository) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.PurchaseRequisition, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []procurement.PurchaseRequisition
	for _, r := range m.reqs {
		if r.TenantID != tenantID {
			continue
		}
		if status, ok := filter.Filters["status"]; ok && r.Status != status {
			continue
		}
		out = append(out, *cloneRequisition(r))
	}
	return out, int64(len(out)), nil
}

func (m *memoryRequisitionRepository) FindOverdueApprovals(_ context.Context, now time.Time, limit int) ([]procurement.PurchaseRequisition, error) {
	return nil, nil
}

func (m *memoryRequisitionRepository) Create(_ context.Context, req *procurement.PurchaseRequisition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs[req.ID] = *cloneRequisition(*req)
	return nil
}

func (m *memoryRequisitionRepository) SaveWithLock(_ context.Context, req *procurement.PurchaseRequisition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reqs[req.ID]
	if !ok || stored.Version != req.Version {
		return shared.ErrConcurrencyConflict
	}
	req.Version++
	m.reqs[req.ID] = *cloneRequisition(*req)
	return nil
}

var _ procurement.RequisitionRepository = (*memoryRequisitionRepository)(nil)

// memoryPurchaseOrderRepository is a map-backed PurchaseOrderRepository with the version check
type memoryPurchaseOrderRepository struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]procurement.PurchaseOrder
	saveErr error
}

func newMemoryPurchaseOrderRepository() *memoryPurchaseOrderRepository {
	return &memoryPurchaseOrderRepository{orders: make(map[uuid.UUID]procurement.PurchaseOrder)}
}

func cloneOrder(o procurement.PurchaseOrder) *procurement.PurchaseOrder {
	c := o
	c.Items = append([]procurement.PurchaseOrderItem(nil), o.Items...)
	c.Deliveries = append([]procurement.Delivery(nil), o.Deliveries...)
	c.ApprovalHistory = append([]approval.Record(nil), o.ApprovalHistory...)
	c.ClearDomainEvents()
	return &c
}

func (m *memoryPurchaseOrderRepository) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *memoryPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	return m.FindByIDForTenant(ctx, tenantID, id)
}

func (m *memoryPurchaseOrderRepository) FindByRequisition(_ context.Context, tenantID, requisitionID uuid.UUID) (*procurement.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.TenantID == tenantID && o.RequisitionID != nil && *o.RequisitionID == requisitionID {
			return cloneOrder(o), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryPurchaseOrderRepository) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.PurchaseOrder, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []procurement.PurchaseOrder
	for _, o := range m.orders {
		if o.TenantID != tenantID {
			continue
		}
		if status, ok := filter.Filters["status"]; ok && o.Status != status {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	return out, int64(len(out)), nil
}

func (m *memoryPurchaseOrderRepository) CountByRequisition(_ context.Context, tenantID, requisitionID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.orders {
		if o.TenantID == tenantID && o.RequisitionID != nil && *o.RequisitionID == requisitionID {
			n++
		}
	}
	return n, nil
}

func (m *memoryPurchaseOrderRepository) Create(_ context.Context, order *procurement.PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = *cloneOrder(*order)
	return nil
}

func (m *memoryPurchaseOrderRepository) SaveWithLock(_ context.Context, order *procurement.PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	stored, ok := m.orders[order.ID]
	if !ok || stored.Version != order.Version {
		return shared.ErrConcurrencyConflict
	}
	order.Version++
	m.orders[order.ID] = *cloneOrder(*order)
	return nil
}

func (m *memoryPurchaseOrderRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

var _ procurement.PurchaseOrderRepository = (*memoryPurchaseOrderRepository)(nil)

// memoryInventoryRepository keeps records and their ledger entries in memory
type memoryInventoryRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]inventory.InventoryRecord
	ledger  []inventory.InventoryTransaction
}

func newMemoryInventoryRepository() *memoryInventoryRepository {
	return &memoryInventoryRepository{records: make(map[uuid.UUID]inventory.InventoryRecord)}
}

func detachRecord(r inventory.InventoryRecord) *inventory.InventoryRecord {
	c := r
	c.ClearPendingTransactions()
	c.ClearDomainEvents()
	return &c
}

func (m *memoryInventoryRepository) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*inventory.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return detachRecord(r), nil
}

func (m *memoryInventoryRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryRecord, error) {
	return m.FindByIDForTenant(ctx, tenantID, id)
}

func (m *memoryInventoryRepository) FindByProductAndWarehouse(_ context.Context, tenantID, productID, warehouseID uuid.UUID) (*inventory.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.TenantID == tenantID && r.ProductID == productID && r.WarehouseID == warehouseID {
			return detachRecord(r), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryInventoryRepository) FindByProductAndWarehouseForUpdate(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*inventory.InventoryRecord, error) {
	return m.FindByProductAndWarehouse(ctx, tenantID, productID, warehouseID)
}

func (m *memoryInventoryRepository) FindAllForTenant(context.Context, uuid.UUID, shared.Filter) ([]inventory.InventoryRecord, int64, error) {
	return nil, 0, nil
}

func (m *memoryInventoryRepository) FindByStockStatus(context.Context, uuid.UUID, inventory.StockStatus, shared.Filter) ([]inventory.InventoryRecord, int64, error) {
	return nil, 0, nil
}

func (m *memoryInventoryRepository) FindExpiringBefore(context.Context, uuid.UUID, time.Time, shared.Filter) ([]inventory.InventoryRecord, int64, error) {
	return nil, 0, nil
}

func (m *memoryInventoryRepository) ListTransactions(_ context.Context, tenantID, inventoryID uuid.UUID, _ inventory.TransactionFilter) ([]inventory.InventoryTransaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []inventory.InventoryTransaction
	for _, tx := range m.ledger {
		if tx.TenantID == tenantID && tx.InventoryID == inventoryID {
			out = append(out, tx)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryInventoryRepository) Create(_ context.Context, record *inventory.InventoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = append(m.ledger, record.PendingTransactions()...)
	record.ClearPendingTransactions()
	m.records[record.ID] = *detachRecord(*record)
	return nil
}

func (m *memoryInventoryRepository) SaveWithLock(_ context.Context, record *inventory.InventoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.records[record.ID]
	if !ok || stored.Version != record.Version {
		return shared.ErrConcurrencyConflict
	}
	m.ledger = append(m.ledger, record.PendingTransactions()...)
	record.ClearPendingTransactions()
	record.Version++
	m.records[record.ID] = *detachRecord(*record)
	return nil
}

func (m *memoryInventoryRepository) GetOrCreate(ctx context.Context, tenantID, productID, warehouseID uuid.UUID, unitCost decimal.Decimal) (*inventory.InventoryRecord, error) {
	if r, err := m.FindByProductAndWarehouse(ctx, tenantID, productID, warehouseID); err == nil {
		return r, nil
	}
	r, err := inventory.NewInventoryRecord(tenantID, productID, warehouseID, unitCost)
	if err != nil {
		return nil, err
	}
	if err := m.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

var _ inventory.InventoryRepository = (*memoryInventoryRepository)(nil)

// memorySequences hands out per (tenant, kind, year) counters
type memorySequences struct {
	mu   sync.Mutex
	last map[string]int64
}

func newMemorySequences() *memorySequences {
	return &memorySequences{last: make(map[string]int64)}
}

func (m *memorySequences) Next(_ context.Context, tenantID uuid.UUID, kind procurement.DocumentKind, year int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s/%s/%d", tenantID, kind, year)
	m.last[key]++
	return m.last[key], nil
}

// memoryWorkflowRepository serves a fixed set of workflows to the resolver
type memoryWorkflowRepository struct {
	workflows []approval.ApprovalWorkflow
}

func (m *memoryWorkflowRepository) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*approval.ApprovalWorkflow, error) {
	for i := range m.workflows {
		if m.workflows[i].TenantID == tenantID && m.workflows[i].ID == id {
			return &m.workflows[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryWorkflowRepository) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]approval.ApprovalWorkflow, int64, error) {
	return m.workflows, int64(len(m.workflows)), nil
}

func (m *memoryWorkflowRepository) FindActiveByDocumentType(_ context.Context, tenantID uuid.UUID, docType approval.DocumentType) ([]approval.ApprovalWorkflow, error) {
	var out []approval.ApprovalWorkflow
	for _, wf := range m.workflows {
		if wf.TenantID == tenantID && wf.DocumentType == docType && wf.IsActive {
			out = append(out, wf)
		}
	}
	return out, nil
}

func (m *memoryWorkflowRepository) FindDefault(_ context.Context, tenantID uuid.UUID, docType approval.DocumentType) (*approval.ApprovalWorkflow, error) {
	for i := range m.workflows {
		wf := &m.workflows[i]
		if wf.TenantID == tenantID && wf.DocumentType == docType && wf.IsDefault {
			return wf, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryWorkflowRepository) Save(_ context.Context, wf *approval.ApprovalWorkflow) error {
	m.workflows = append(m.workflows, *wf)
	return nil
}

// memoryIdempotencyStore claims keys without expiry
type memoryIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{keys: make(map[string]bool)}
}

func (m *memoryIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

func (m *memoryIdempotencyStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *memoryIdempotencyStore) Close() error { return nil }

func (m *memoryIdempotencyStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

var _ shared.IdempotencyStore = (*memoryIdempotencyStore)(nil)
