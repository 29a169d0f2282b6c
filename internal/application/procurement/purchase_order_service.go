package procurement

import (
	"context"
	"errors"
	"time"

	inventoryapp "github.com/erp/procurement/internal/application/inventory"
	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseOrderService handles purchase order lifecycle operations, including
// goods receipt into inventory
type PurchaseOrderService struct {
	orderRepo        procurement.PurchaseOrderRepository
	txScope          TransactionScope
	planner          *approval.Planner
	systemApproverID uuid.UUID
	idempotency      idempotencyGuard
	eventPublisher   shared.EventPublisher
	metrics          *telemetry.ProcurementMetrics
	logger           *zap.Logger
	now              func() time.Time
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	orderRepo procurement.PurchaseOrderRepository,
	txScope TransactionScope,
	planner *approval.Planner,
	systemApproverID uuid.UUID,
	logger *zap.Logger,
) *PurchaseOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderService{
		orderRepo:        orderRepo,
		txScope:          txScope,
		planner:          planner,
		systemApproverID: systemApproverID,
		idempotency:      idempotencyGuard{ttl: DefaultIdempotencyTTL, logger: logger},
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *PurchaseOrderService) SetMetrics(m *telemetry.ProcurementMetrics) {
	s.metrics = m
}

// SetIdempotencyStore enables Idempotency-Key handling on Receive
func (s *PurchaseOrderService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	s.idempotency.store = store
	s.idempotency.ttl = ttl
}

func (s *PurchaseOrderService) publishDomainEvents(ctx context.Context, aggs ...shared.AggregateRoot) {
	if err := shared.PublishAndClear(ctx, s.eventPublisher, aggs...); err != nil {
		s.logger.Warn("Failed to publish purchase order events", zap.Error(err))
	}
}

// Create creates a Draft order that does not originate from a requisition
func (s *PurchaseOrderService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "create",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrSupplierID, req.SupplierID.String(),
	)
	defer span.End()

	items, err := toPurchaseOrderItems(req.Items)
	if err != nil {
		return nil, err
	}

	var order *procurement.PurchaseOrder
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := procurement.NextDocumentNumber(ctx, repos.Sequences(), tenantID, procurement.DocumentKindPurchaseOrder, s.now().Year())
		if err != nil {
			return err
		}
		order, err = procurement.NewPurchaseOrder(tenantID, number, procurement.Supplier{
			ID:    req.SupplierID,
			Name:  req.SupplierName,
			Email: req.SupplierEmail,
		}, items)
		if err != nil {
			return err
		}
		if err := order.SetDelivery(req.ExpectedDeliveryDate, req.DeliveryAddress); err != nil {
			return err
		}
		if err := order.SetCharges(req.TaxAmount, req.ShippingCost); err != nil {
			return err
		}
		order.Notes = req.Notes
		order.SetCreatedBy(actorID)
		return repos.PurchaseOrderRepo().Create(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrOrderNumber, order.OrderNumber)
	s.metrics.RecordOrderTransition(ctx, tenantID, order.Status.String())
	s.logger.Info("Purchase order created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("supplier_id", order.SupplierID.String()),
		zap.String("grand_total", order.GrandTotal.String()),
	)
	s.publishDomainEvents(ctx, order)

	resp := ToPurchaseOrderResponse(order)
	return &resp, nil
}

// GetByID retrieves an order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(order)
	return &resp, nil
}

// List lists orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, tenantID uuid.UUID, filter PurchaseOrderListFilter) ([]PurchaseOrderResponse, int64, error) {
	f := newListFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.Status != "" {
		status := procurement.PurchaseOrderStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainErrorf(shared.CodeValidation, "Unknown purchase order status %q", filter.Status)
		}
		f.Filters["status"] = status
	}
	if filter.SupplierID != nil {
		f.Filters["supplier_id"] = *filter.SupplierID
	}
	if filter.RequisitionID != nil {
		f.Filters["requisition_id"] = *filter.RequisitionID
	}

	orders, total, err := s.orderRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}
	return ToPurchaseOrderResponses(orders), total, nil
}

// SubmitForApproval routes a Draft order through the internal approval workflow
func (s *PurchaseOrderService) SubmitForApproval(ctx context.Context, tenantID, actorID, id uuid.UUID, req SubmitPurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, "submit", tenantID, id, func(ctx context.Context, o *procurement.PurchaseOrder) error {
		plan, err := s.planner.Plan(ctx, tenantID, o.ApprovalCriteria(req.Department, req.Category))
		if err != nil {
			return err
		}
		return o.SubmitForApproval(plan, actorID, s.systemApproverID)
	})
}

// Approve records an internal approval
func (s *PurchaseOrderService) Approve(ctx context.Context, tenantID, actorID, id uuid.UUID, req ApprovalDecisionRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, "approve", tenantID, id, func(_ context.Context, o *procurement.PurchaseOrder) error {
		return o.Approve(actorID, req.Comment)
	})
}

// Reject rejects the order internally
func (s *PurchaseOrderService) Reject(ctx context.Context, tenantID, actorID, id uuid.UUID, req ApprovalDecisionRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, "reject", tenantID, id, func(_ context.Context, o *procurement.PurchaseOrder) error {
		return o.Reject(actorID, req.Comment)
	})
}

// Reopen moves a Rejected order back to Draft
func (s *PurchaseOrderService) Reopen(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, "reopen", tenantID, id, func(_ context.Context, o *procurement.PurchaseOrder) error {
		return o.Reopen()
	})
}

// Send dispatches the order to the supplier
func (s *PurchaseOrderService) Send(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, "send", tenantID, id, func(_ context.Context, o *procurement.PurchaseOrder) error {
		return o.Send()
	})
}

// Confirm records the supplier's confirmation
func (s *PurchaseOrderService) Confirm(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, "confirm", tenantID, id, func(_ context.Context, o *procurement.PurchaseOrder) error {
		return o.Confirm()
	})
}

// MarkInTransit records that the goods have shipped
func (s *PurchaseOrderService) MarkInTransit(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, "in_transit", tenantID, id, func(_ context.Context, o *procurement.PurchaseOrder) error {
		return o.MarkInTransit()
	})
}

// Cancel cancels the outstanding quantity of the order; stock already received stays posted
func (s *PurchaseOrderService) Cancel(ctx context.Context, tenantID, id uuid.UUID, req CancelRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, "cancel", tenantID, id, func(_ context.Context, o *procurement.PurchaseOrder) error {
		return o.Cancel(req.Reason)
	})
}

// MarkInvoiced records the supplier invoice for a Delivered order
func (s *PurchaseOrderService) MarkInvoiced(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, "invoice", tenantID, id, func(_ context.Context, o *procurement.PurchaseOrder) error {
		return o.MarkInvoiced()
	})
}

// MarkPaid records payment of an Invoiced order
func (s *PurchaseOrderService) MarkPaid(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, "pay", tenantID, id, func(_ context.Context, o *procurement.PurchaseOrder) error {
		return o.MarkPaid()
	})
}

// Complete closes a Paid order
func (s *PurchaseOrderService) Complete(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, "complete", tenantID, id, func(_ context.Context, o *procurement.PurchaseOrder) error {
		return o.Complete()
	})
}

// Receive books a delivery batch. The order update and one inventory Receipt per
// product line commit in one transaction, at the order's unit price.
// A non-empty idempotencyKey rejects replays of the same batch with DUPLICATE_REQUEST.
func (s *PurchaseOrderService) Receive(
	ctx context.Context,
	tenantID, actorID, id uuid.UUID,
	idempotencyKey string,
	req ReceiveGoodsRequest,
) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "receive",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrOrderID, id.String(),
		telemetry.SpanAttrWarehouseID, req.WarehouseID.String(),
	)
	defer span.End()

	release, err := s.idempotency.claim(ctx, "purchase_order.receive", tenantID, idempotencyKey)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		order    *procurement.PurchaseOrder
		delivery *procurement.Delivery
		posted   []PostedReceiptLine
		records  []*inventory.InventoryRecord
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		orderRepo := repos.PurchaseOrderRepo()
		var (
			received []procurement.ReceivedItem
			err      error
		)
		order, err = orderRepo.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		delivery, received, err = order.ReceiveGoods(toReceiptLines(req.Lines), req.WarehouseID, actorID, req.Notes)
		if err != nil {
			return err
		}

		orderID := order.ID
		posted = make([]PostedReceiptLine, 0, len(received))
		records = records[:0]
		for _, item := range received {
			line := PostedReceiptLine{
				ItemID:           item.ItemID,
				ProductID:        item.ProductID,
				Description:      item.Description,
				Quantity:         item.Quantity,
				ReceivedQuantity: item.ReceivedQuantity,
			}
			if item.ProductID != nil {
				rec, entry, err := inventoryapp.PostReceipt(ctx, repos.InventoryRepo(), tenantID, *item.ProductID, req.WarehouseID,
					item.Quantity, item.UnitPrice, inventory.Movement{
						Reference:   order.OrderNumber,
						SourceType:  inventory.SourceTypePurchaseOrder,
						SourceID:    &orderID,
						PerformedBy: actorID,
						Notes:       req.Notes,
					})
				if err != nil {
					return err
				}
				tx := inventoryapp.ToTransactionResponse(entry)
				line.Transaction = &tx
				records = append(records, rec)
			}
			posted = append(posted, line)
		}
		return orderRepo.SaveWithLock(ctx, order)
	})
	if err != nil {
		release()
		s.recordConflict(ctx, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderNumber, order.OrderNumber,
		telemetry.SpanAttrStatus, order.Status.String(),
	)
	s.metrics.RecordOrderTransition(ctx, tenantID, order.Status.String())
	for _, line := range posted {
		if line.Transaction != nil {
			s.metrics.RecordInventoryMovement(ctx, tenantID, inventory.TransactionTypeReceipt.String(), line.Quantity)
		}
	}
	s.logger.Info("Goods received",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("delivery_id", delivery.ID.String()),
		zap.String("warehouse_id", req.WarehouseID.String()),
		zap.Int("lines", len(posted)),
		zap.Int("inventory_postings", len(records)),
		zap.String("status", order.Status.String()),
	)

	aggs := make([]shared.AggregateRoot, 0, len(records)+1)
	aggs = append(aggs, order)
	for _, rec := range records {
		aggs = append(aggs, rec)
	}
	s.publishDomainEvents(ctx, aggs...)

	return &ReceiptResponse{
		DeliveryID:    delivery.ID,
		WarehouseID:   req.WarehouseID,
		Lines:         posted,
		PurchaseOrder: ToPurchaseOrderResponse(order),
	}, nil
}

// mutate runs a single-order read-modify-write under a row lock
func (s *PurchaseOrderService) mutate(
	ctx context.Context,
	action string,
	tenantID, id uuid.UUID,
	fn func(ctx context.Context, o *procurement.PurchaseOrder) error,
) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", action,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrOrderID, id.String(),
	)
	defer span.End()

	var order *procurement.PurchaseOrder
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.PurchaseOrderRepo()
		var err error
		order, err = repo.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, order); err != nil {
			return err
		}
		return repo.SaveWithLock(ctx, order)
	})
	if err != nil {
		s.recordConflict(ctx, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrStatus, order.Status.String())
	s.metrics.RecordOrderTransition(ctx, tenantID, order.Status.String())
	s.logger.Info("Purchase order updated",
		zap.String("action", action),
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("status", order.Status.String()),
	)
	s.publishDomainEvents(ctx, order)

	resp := ToPurchaseOrderResponse(order)
	return &resp, nil
}

func (s *PurchaseOrderService) recordConflict(ctx context.Context, err error) {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		s.metrics.RecordConcurrencyConflict(ctx, procurement.AggregateTypePurchaseOrder)
	}
}
