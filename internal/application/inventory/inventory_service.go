package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService handles ledger operations on inventory records
type InventoryService struct {
	inventoryRepo  inventory.InventoryRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	metrics        *telemetry.ProcurementMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	inventoryRepo inventory.InventoryRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		inventoryRepo: inventoryRepo,
		txScope:       txScope,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *InventoryService) SetMetrics(m *telemetry.ProcurementMetrics) {
	s.metrics = m
}

// publishDomainEvents publishes pending events after commit.
// Publishing failures are logged; the write has already succeeded.
func (s *InventoryService) publishDomainEvents(ctx context.Context, records ...*inventory.InventoryRecord) {
	aggs := make([]shared.AggregateRoot, 0, len(records))
	for _, r := range records {
		if r != nil {
			aggs = append(aggs, r)
		}
	}
	if err := shared.PublishAndClear(ctx, s.eventPublisher, aggs...); err != nil {
		s.logger.Warn("Failed to publish inventory events", zap.Error(err))
	}
}

// GetByID retrieves an inventory record by ID
func (s *InventoryService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*InventoryResponse, error) {
	rec, err := s.inventoryRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInventoryResponse(rec, s.now())
	return &resp, nil
}

// GetByProductAndWarehouse retrieves the record for a product-warehouse pair
func (s *InventoryService) GetByProductAndWarehouse(ctx context.Context, tenantID, productID, warehouseID uuid.UUID) (*InventoryResponse, error) {
	rec, err := s.inventoryRepo.FindByProductAndWarehouse(ctx, tenantID, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	resp := ToInventoryResponse(rec, s.now())
	return &resp, nil
}

// List retrieves a paginated list of inventory records
func (s *InventoryService) List(ctx context.Context, tenantID uuid.UUID, filter InventoryListFilter) ([]InventoryResponse, int64, error) {
	records, total, err := s.inventoryRepo.FindAllForTenant(ctx, tenantID, toSharedFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToInventoryResponses(records, s.now()), total, nil
}

// ListByStockStatus lists records in a derived stock status (low, out, over)
func (s *InventoryService) ListByStockStatus(ctx context.Context, tenantID uuid.UUID, status inventory.StockStatus, filter InventoryListFilter) ([]InventoryResponse, int64, error) {
	if !status.IsValid() {
		return nil, 0, shared.NewDomainErrorf(shared.CodeValidation, "Invalid stock status %q", status)
	}
	records, total, err := s.inventoryRepo.FindByStockStatus(ctx, tenantID, status, toSharedFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToInventoryResponses(records, s.now()), total, nil
}

// ListExpiring lists records whose expiry date falls within the next days calendar days
func (s *InventoryService) ListExpiring(ctx context.Context, tenantID uuid.UUID, days int, filter InventoryListFilter) ([]InventoryResponse, int64, error) {
	if days < 0 {
		return nil, 0, shared.NewDomainError(shared.CodeValidation, "Days must not be negative")
	}
	now := s.now()
	y, m, d := now.Date()
	cutoff := time.Date(y, m, d, 23, 59, 59, 0, time.UTC).AddDate(0, 0, days)

	f := toSharedFilter(filter)
	if filter.OrderBy == "" {
		f.OrderBy = "expiry_date"
		f.OrderDir = "asc"
	}
	records, total, err := s.inventoryRepo.FindExpiringBefore(ctx, tenantID, cutoff, f)
	if err != nil {
		return nil, 0, err
	}
	return ToInventoryResponses(records, now), total, nil
}

// ListTransactions returns the ledger history of a record, newest first
func (s *InventoryService) ListTransactions(ctx context.Context, tenantID, inventoryID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	if _, err := s.inventoryRepo.FindByIDForTenant(ctx, tenantID, inventoryID); err != nil {
		return nil, 0, err
	}

	txFilter := inventory.TransactionFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "occurred_at",
			OrderDir: "desc",
		},
		From: filter.From,
		To:   filter.To,
	}
	if filter.Type != "" {
		t := inventory.TransactionType(filter.Type)
		if !t.IsValid() {
			return nil, 0, shared.NewDomainErrorf(shared.CodeValidation, "Invalid transaction type %q", filter.Type)
		}
		txFilter.Type = &t
	}

	txs, total, err := s.inventoryRepo.ListTransactions(ctx, tenantID, inventoryID, txFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTransactionResponses(txs), total, nil
}

// RecordMovement books a receipt, issue or return against the product-warehouse record.
// Receipts create the record on first use; issues and returns require it to exist.
func (s *InventoryService) RecordMovement(ctx context.Context, tenantID, actorID uuid.UUID, req MovementRequest) (*MovementResponse, error) {
	txType := inventory.TransactionType(req.Type)
	movement := inventory.Movement{
		Reference:   req.Reference,
		SourceType:  inventory.SourceTypeManual,
		PerformedBy: actorID,
		Notes:       req.Notes,
	}

	var (
		rec   *inventory.InventoryRecord
		entry *inventory.InventoryTransaction
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.InventoryRepo()
		var err error
		switch txType {
		case inventory.TransactionTypeReceipt:
			unitCost := decimal.Zero
			if req.UnitCost != nil {
				unitCost = *req.UnitCost
			} else if existing, findErr := repo.FindByProductAndWarehouse(ctx, tenantID, req.ProductID, req.WarehouseID); findErr == nil {
				unitCost = existing.UnitCost
			}
			rec, entry, err = PostReceipt(ctx, repo, tenantID, req.ProductID, req.WarehouseID, req.Quantity, unitCost, movement)
			return err
		case inventory.TransactionTypeIssue, inventory.TransactionTypeReturn:
			rec, err = repo.FindByProductAndWarehouseForUpdate(ctx, tenantID, req.ProductID, req.WarehouseID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) && txType == inventory.TransactionTypeIssue {
					return shared.NewDomainError(shared.CodeInsufficientStock, "No stock on hand for this product in the warehouse")
				}
				return err
			}
			if txType == inventory.TransactionTypeIssue {
				entry, err = rec.Issue(req.Quantity, movement)
			} else {
				entry, err = rec.Return(req.Quantity, movement)
			}
			if err != nil {
				return err
			}
			return repo.SaveWithLock(ctx, rec)
		default:
			return shared.NewDomainErrorf(shared.CodeValidation, "Unsupported movement type %q", req.Type)
		}
	})
	if err != nil {
		s.recordConflict(ctx, err)
		return nil, err
	}

	s.metrics.RecordInventoryMovement(ctx, tenantID, txType.String(), entry.Quantity)
	s.logger.Info("Inventory movement recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("inventory_id", rec.ID.String()),
		zap.String("type", txType.String()),
		zap.String("quantity", entry.Quantity.String()),
		zap.String("balance_after", entry.BalanceAfter.String()),
	)
	s.publishDomainEvents(ctx, rec)

	return &MovementResponse{
		Inventory:   ToInventoryResponse(rec, s.now()),
		Transaction: ToTransactionResponse(entry),
	}, nil
}

// Transfer moves stock of one product between two warehouses.
// Both records commit in one transaction; a missing destination is created
// with the source's unit cost.
func (s *InventoryService) Transfer(ctx context.Context, tenantID, actorID uuid.UUID, req TransferRequest) (*TransferResponse, error) {
	if !req.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Transfer quantity must be positive")
	}
	if req.FromWarehouseID == req.ToWarehouseID {
		return nil, shared.NewDomainError(shared.CodeValidation, "Source and destination warehouses must differ")
	}

	transferID := uuid.New()
	var (
		source, dest    *inventory.InventoryRecord
		outbound, inbnd *inventory.InventoryTransaction
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.InventoryRepo()

		// Lock rows in warehouse-id order so opposing transfers cannot deadlock.
		var err error
		if req.ToWarehouseID.String() < req.FromWarehouseID.String() {
			dest, err = repo.FindByProductAndWarehouseForUpdate(ctx, tenantID, req.ProductID, req.ToWarehouseID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
		}

		source, err = repo.FindByProductAndWarehouseForUpdate(ctx, tenantID, req.ProductID, req.FromWarehouseID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainErrorf(shared.CodeInsufficientStock,
					"Insufficient stock: requested %s, available 0", req.Quantity)
			}
			return err
		}

		outbound, err = source.TransferOut(req.Quantity, inventory.Movement{
			Reference:              req.Reference,
			SourceType:             inventory.SourceTypeTransfer,
			SourceID:               &transferID,
			PerformedBy:            actorID,
			Notes:                  req.Notes,
			CounterpartWarehouseID: &req.ToWarehouseID,
		})
		if err != nil {
			return err
		}

		if dest == nil {
			dest, err = repo.GetOrCreate(ctx, tenantID, req.ProductID, req.ToWarehouseID, source.UnitCost)
			if err != nil {
				return err
			}
		}
		inbnd, err = dest.TransferIn(req.Quantity, inventory.Movement{
			Reference:              req.Reference,
			SourceType:             inventory.SourceTypeTransfer,
			SourceID:               &transferID,
			PerformedBy:            actorID,
			Notes:                  req.Notes,
			CounterpartWarehouseID: &req.FromWarehouseID,
		})
		if err != nil {
			return err
		}

		if err := repo.SaveWithLock(ctx, source); err != nil {
			return err
		}
		return repo.SaveWithLock(ctx, dest)
	})
	if err != nil {
		s.recordConflict(ctx, err)
		return nil, err
	}

	s.metrics.RecordInventoryMovement(ctx, tenantID, inventory.TransactionTypeTransfer.String(), req.Quantity)
	s.logger.Info("Inventory transferred",
		zap.String("tenant_id", tenantID.String()),
		zap.String("transfer_id", transferID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.String("from_warehouse_id", req.FromWarehouseID.String()),
		zap.String("to_warehouse_id", req.ToWarehouseID.String()),
		zap.String("quantity", req.Quantity.String()),
	)
	s.publishDomainEvents(ctx, source, dest)

	now := s.now()
	return &TransferResponse{
		TransferID:  transferID,
		Source:      ToInventoryResponse(source, now),
		Destination: ToInventoryResponse(dest, now),
		Outbound:    ToTransactionResponse(outbound),
		Inbound:     ToTransactionResponse(inbnd),
	}, nil
}

// Adjust corrects a record's on-hand quantity by a signed amount
func (s *InventoryService) Adjust(ctx context.Context, tenantID, actorID, inventoryID uuid.UUID, req AdjustRequest) (*MovementResponse, error) {
	var (
		rec   *inventory.InventoryRecord
		entry *inventory.InventoryTransaction
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.InventoryRepo()
		var err error
		rec, err = repo.FindByIDForUpdate(ctx, tenantID, inventoryID)
		if err != nil {
			return err
		}
		entry, err = rec.Adjust(req.Quantity, req.Reason, inventory.Movement{
			SourceType:  inventory.SourceTypeStockCount,
			PerformedBy: actorID,
			Notes:       req.Notes,
		})
		if err != nil {
			return err
		}
		return repo.SaveWithLock(ctx, rec)
	})
	if err != nil {
		s.recordConflict(ctx, err)
		return nil, err
	}

	s.metrics.RecordInventoryMovement(ctx, tenantID, inventory.TransactionTypeAdjustment.String(), entry.Quantity)
	s.logger.Info("Inventory adjusted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("inventory_id", rec.ID.String()),
		zap.String("quantity", entry.Quantity.String()),
		zap.String("reason", req.Reason),
	)
	s.publishDomainEvents(ctx, rec)

	return &MovementResponse{
		Inventory:   ToInventoryResponse(rec, s.now()),
		Transaction: ToTransactionResponse(entry),
	}, nil
}

// Reserve earmarks available stock on a record
func (s *InventoryService) Reserve(ctx context.Context, tenantID, inventoryID uuid.UUID, req QuantityRequest) (*InventoryResponse, error) {
	return s.mutate(ctx, tenantID, inventoryID, func(rec *inventory.InventoryRecord) error {
		return rec.Reserve(req.Quantity)
	})
}

// Release returns reserved stock to available
func (s *InventoryService) Release(ctx context.Context, tenantID, inventoryID uuid.UUID, req QuantityRequest) (*InventoryResponse, error) {
	return s.mutate(ctx, tenantID, inventoryID, func(rec *inventory.InventoryRecord) error {
		return rec.Release(req.Quantity)
	})
}

// SetLevels updates the reorder level, overstock ceiling, expiry date and bin location
func (s *InventoryService) SetLevels(ctx context.Context, tenantID, inventoryID uuid.UUID, req SetLevelsRequest) (*InventoryResponse, error) {
	return s.mutate(ctx, tenantID, inventoryID, func(rec *inventory.InventoryRecord) error {
		return rec.SetLevels(req.ReorderLevel, req.MaxStockLevel, req.ExpiryDate, req.Location)
	})
}

// mutate runs a single-record read-modify-write under a row lock
func (s *InventoryService) mutate(ctx context.Context, tenantID, inventoryID uuid.UUID, fn func(rec *inventory.InventoryRecord) error) (*InventoryResponse, error) {
	var rec *inventory.InventoryRecord
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.InventoryRepo()
		var err error
		rec, err = repo.FindByIDForUpdate(ctx, tenantID, inventoryID)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		return repo.SaveWithLock(ctx, rec)
	})
	if err != nil {
		s.recordConflict(ctx, err)
		return nil, err
	}

	s.publishDomainEvents(ctx, rec)
	resp := ToInventoryResponse(rec, s.now())
	return &resp, nil
}

func (s *InventoryService) recordConflict(ctx context.Context, err error) {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		s.metrics.RecordConcurrencyConflict(ctx, inventory.AggregateTypeInventoryRecord)
	}
}

// PostReceipt upserts the record for a product-warehouse pair and books a Receipt
// entry at unitCost. It must run inside the caller's transaction.
func PostReceipt(
	ctx context.Context,
	repo inventory.InventoryRepository,
	tenantID, productID, warehouseID uuid.UUID,
	quantity, unitCost decimal.Decimal,
	m inventory.Movement,
) (*inventory.InventoryRecord, *inventory.InventoryTransaction, error) {
	rec, err := repo.GetOrCreate(ctx, tenantID, productID, warehouseID, unitCost)
	if err != nil {
		return nil, nil, err
	}
	entry, err := rec.Receive(quantity, unitCost, m)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.SaveWithLock(ctx, rec); err != nil {
		return nil, nil, err
	}
	return rec, entry, nil
}

func toSharedFilter(filter InventoryListFilter) shared.Filter {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]any),
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = 20
	}
	if filter.ProductID != nil {
		f.Filters["product_id"] = *filter.ProductID
	}
	if filter.WarehouseID != nil {
		f.Filters["warehouse_id"] = *filter.WarehouseID
	}
	return f
}
