package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequisitionService drives purchase requisitions from Draft to conversion
type RequisitionService struct {
	requisitionRepo  procurement.RequisitionRepository
	txScope          TransactionScope
	planner          *approval.Planner
	systemApproverID uuid.UUID
	idempotency      idempotencyGuard
	eventPublisher   shared.EventPublisher
	metrics          *telemetry.ProcurementMetrics
	logger           *zap.Logger
	now              func() time.Time
}

// NewRequisitionService creates a new RequisitionService.
// systemApproverID is recorded as the actor of automatic approvals.
func NewRequisitionService(
	requisitionRepo procurement.RequisitionRepository,
	txScope TransactionScope,
	planner *approval.Planner,
	systemApproverID uuid.UUID,
	logger *zap.Logger,
) *RequisitionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequisitionService{
		requisitionRepo:  requisitionRepo,
		txScope:          txScope,
		planner:          planner,
		systemApproverID: systemApproverID,
		idempotency:      idempotencyGuard{ttl: DefaultIdempotencyTTL, logger: logger},
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *RequisitionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *RequisitionService) SetMetrics(m *telemetry.ProcurementMetrics) {
	s.metrics = m
}

// SetIdempotencyStore enables Idempotency-Key handling on Convert
func (s *RequisitionService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	s.idempotency.store = store
	s.idempotency.ttl = ttl
}

func (s *RequisitionService) publishDomainEvents(ctx context.Context, aggs ...shared.AggregateRoot) {
	if err := shared.PublishAndClear(ctx, s.eventPublisher, aggs...); err != nil {
		s.logger.Warn("Failed to publish requisition events", zap.Error(err))
	}
}

// Create creates a Draft requisition numbered from the tenant's PR sequence
func (s *RequisitionService) Create(ctx context.Context, tenantID, requesterID uuid.UUID, req CreateRequisitionRequest) (*RequisitionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "requisition", "create", telemetry.SpanAttrTenantID, tenantID.String())
	defer span.End()

	items, err := toRequisitionItems(req.Items)
	if err != nil {
		return nil, err
	}
	details := procurement.RequisitionDetails{
		Title:         req.Title,
		Department:    req.Department,
		Category:      req.Category,
		Justification: req.Justification,
		RequiredBy:    req.RequiredBy,
	}

	var requisition *procurement.PurchaseRequisition
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := procurement.NextDocumentNumber(ctx, repos.Sequences(), tenantID, procurement.DocumentKindRequisition, s.now().Year())
		if err != nil {
			return err
		}
		requisition, err = procurement.NewPurchaseRequisition(tenantID, number, requesterID, details, items)
		if err != nil {
			return err
		}
		return repos.RequisitionRepo().Create(ctx, requisition)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrRequisitionNumber, requisition.RequisitionNumber)
	s.metrics.RecordRequisitionTransition(ctx, tenantID, requisition.Status.String())
	s.logger.Info("Requisition created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("requisition_id", requisition.ID.String()),
		zap.String("requisition_number", requisition.RequisitionNumber),
		zap.String("total_amount", requisition.TotalAmount.String()),
	)
	s.publishDomainEvents(ctx, requisition)

	resp := ToRequisitionResponse(requisition)
	return &resp, nil
}

// GetByID retrieves a requisition by ID
func (s *RequisitionService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*RequisitionResponse, error) {
	requisition, err := s.requisitionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToRequisitionResponse(requisition)
	return &resp, nil
}

// GetByNumber retrieves a requisition by its PR number
func (s *RequisitionService) GetByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*RequisitionResponse, error) {
	requisition, err := s.requisitionRepo.FindByNumber(ctx, tenantID, number)
	if err != nil {
		return nil, err
	}
	resp := ToRequisitionResponse(requisition)
	return &resp, nil
}

// List lists requisitions with filtering and pagination
func (s *RequisitionService) List(ctx context.Context, tenantID uuid.UUID, filter RequisitionListFilter) ([]RequisitionResponse, int64, error) {
	f := newListFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.Status != "" {
		status := procurement.RequisitionStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainErrorf(shared.CodeValidation, "Unknown requisition status %q", filter.Status)
		}
		f.Filters["status"] = status
	}
	if filter.Department != "" {
		f.Filters["department"] = filter.Department
	}
	if filter.RequesterID != nil {
		f.Filters["requester_id"] = *filter.RequesterID
	}

	reqs, total, err := s.requisitionRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}
	return ToRequisitionResponses(reqs), total, nil
}

// UpdateItems replaces the lines of a Draft requisition
func (s *RequisitionService) UpdateItems(ctx context.Context, tenantID, id uuid.UUID, req UpdateRequisitionItemsRequest) (*RequisitionResponse, error) {
	items, err := toRequisitionItems(req.Items)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "update_items", tenantID, id, func(_ context.Context, r *procurement.PurchaseRequisition) error {
		return r.UpdateItems(items)
	})
}

// Submit resolves the approval route and moves the requisition to Pending.
// Depending on the no-workflow policy it may be approved straight away.
func (s *RequisitionService) Submit(ctx context.Context, tenantID, actorID, id uuid.UUID) (*RequisitionResponse, error) {
	return s.mutate(ctx, "submit", tenantID, id, func(ctx context.Context, r *procurement.PurchaseRequisition) error {
		plan, err := s.planner.Plan(ctx, tenantID, r.ApprovalCriteria())
		if err != nil {
			return err
		}
		return r.Submit(plan, actorID, s.systemApproverID)
	})
}

// Approve records an approval for the current level
func (s *RequisitionService) Approve(ctx context.Context, tenantID, actorID, id uuid.UUID, req ApprovalDecisionRequest) (*RequisitionResponse, error) {
	return s.mutate(ctx, "approve", tenantID, id, func(_ context.Context, r *procurement.PurchaseRequisition) error {
		return r.Approve(actorID, req.Comment)
	})
}

// Reject rejects the requisition at its current level
func (s *RequisitionService) Reject(ctx context.Context, tenantID, actorID, id uuid.UUID, req ApprovalDecisionRequest) (*RequisitionResponse, error) {
	return s.mutate(ctx, "reject", tenantID, id, func(_ context.Context, r *procurement.PurchaseRequisition) error {
		return r.Reject(actorID, req.Comment)
	})
}

// Cancel cancels a requisition that has not been converted
func (s *RequisitionService) Cancel(ctx context.Context, tenantID, id uuid.UUID, req CancelRequest) (*RequisitionResponse, error) {
	return s.mutate(ctx, "cancel", tenantID, id, func(_ context.Context, r *procurement.PurchaseRequisition) error {
		return r.Cancel(req.Reason)
	})
}

// Convert turns an Approved requisition into a Draft purchase order. The new order,
// its PO number and the requisition's Converted state commit in one transaction.
// A non-empty idempotencyKey rejects replays of the same request with DUPLICATE_REQUEST.
func (s *RequisitionService) Convert(
	ctx context.Context,
	tenantID, id uuid.UUID,
	idempotencyKey string,
	req ConvertRequisitionRequest,
) (*ConversionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "requisition", "convert",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrRequisitionID, id.String(),
		telemetry.SpanAttrSupplierID, req.SupplierID.String(),
	)
	defer span.End()

	release, err := s.idempotency.claim(ctx, "requisition.convert", tenantID, idempotencyKey)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		requisition *procurement.PurchaseRequisition
		order       *procurement.PurchaseOrder
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		reqRepo := repos.RequisitionRepo()
		orderRepo := repos.PurchaseOrderRepo()

		var err error
		requisition, err = reqRepo.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := requisition.CanConvert(); err != nil {
			return err
		}
		existing, err := orderRepo.CountByRequisition(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if existing > 0 {
			return shared.ErrAlreadyConverted
		}

		number, err := procurement.NextDocumentNumber(ctx, repos.Sequences(), tenantID, procurement.DocumentKindPurchaseOrder, s.now().Year())
		if err != nil {
			return err
		}
		order, err = procurement.ConvertRequisition(requisition, number, procurement.ConversionRequest{
			Supplier: procurement.Supplier{
				ID:    req.SupplierID,
				Name:  req.SupplierName,
				Email: req.SupplierEmail,
			},
			ExpectedDeliveryDate: req.ExpectedDeliveryDate,
			DeliveryAddress:      req.DeliveryAddress,
		})
		if err != nil {
			return err
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return err
		}
		return reqRepo.SaveWithLock(ctx, requisition)
	})
	if err != nil {
		release()
		s.recordConflict(ctx, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrOrderNumber, order.OrderNumber)
	s.metrics.RecordRequisitionTransition(ctx, tenantID, requisition.Status.String())
	s.metrics.RecordOrderTransition(ctx, tenantID, order.Status.String())
	s.metrics.RecordConversion(ctx, tenantID, order.GrandTotal)
	s.logger.Info("Requisition converted to purchase order",
		zap.String("tenant_id", tenantID.String()),
		zap.String("requisition_id", requisition.ID.String()),
		zap.String("requisition_number", requisition.RequisitionNumber),
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
	)
	s.publishDomainEvents(ctx, requisition, order)

	return &ConversionResponse{
		Requisition:   ToRequisitionResponse(requisition),
		PurchaseOrder: ToPurchaseOrderResponse(order),
	}, nil
}

// mutate runs a single-requisition read-modify-write under a row lock
func (s *RequisitionService) mutate(
	ctx context.Context,
	action string,
	tenantID, id uuid.UUID,
	fn func(ctx context.Context, r *procurement.PurchaseRequisition) error,
) (*RequisitionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "requisition", action,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrRequisitionID, id.String(),
	)
	defer span.End()

	var requisition *procurement.PurchaseRequisition
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.RequisitionRepo()
		var err error
		requisition, err = repo.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, requisition); err != nil {
			return err
		}
		return repo.SaveWithLock(ctx, requisition)
	})
	if err != nil {
		s.recordConflict(ctx, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrStatus, requisition.Status.String())
	s.metrics.RecordRequisitionTransition(ctx, tenantID, requisition.Status.String())
	s.logger.Info("Requisition updated",
		zap.String("action", action),
		zap.String("tenant_id", tenantID.String()),
		zap.String("requisition_id", requisition.ID.String()),
		zap.String("requisition_number", requisition.RequisitionNumber),
		zap.String("status", requisition.Status.String()),
		zap.Int("current_level", requisition.CurrentApprovalLevel),
	)
	s.publishDomainEvents(ctx, requisition)

	resp := ToRequisitionResponse(requisition)
	return &resp, nil
}

func (s *RequisitionService) recordConflict(ctx context.Context, err error) {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		s.metrics.RecordConcurrencyConflict(ctx, procurement.AggregateTypePurchaseRequisition)
	}
}

// newListFilter applies the default paging of list endpoints
func newListFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	f.Search = search
	return f
}
