package approval

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

// DefaultEscalationBatchSize bounds how many overdue requisitions one run handles
const DefaultEscalationBatchSize = 100

// EscalationStats summarises one escalation run
type EscalationStats struct {
	Processed    int `json:"processed"`
	AutoApproved int `json:"auto_approved"`
	Escalated    int `json:"escalated"`
	Failed       int `json:"failed"`
}

// EscalationService acts on approval levels whose timeout has elapsed
type EscalationService struct {
	requisitionRepo  procurement.RequisitionRepository
	txScope          TransactionScope
	systemApproverID uuid.UUID
	batchSize        int
	eventPublisher   shared.EventPublisher
	metrics          *telemetry.ProcurementMetrics
	logger           *zap.Logger
	now              func() time.Time
}

// NewEscalationService creates a new EscalationService.
// systemApproverID is recorded as the actor of auto-approvals and escalations.
func NewEscalationService(
	requisitionRepo procurement.RequisitionRepository,
	txScope TransactionScope,
	systemApproverID uuid.UUID,
	logger *zap.Logger,
) *EscalationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationService{
		requisitionRepo:  requisitionRepo,
		txScope:          txScope,
		systemApproverID: systemApproverID,
		batchSize:        DefaultEscalationBatchSize,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *EscalationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *EscalationService) SetMetrics(m *telemetry.ProcurementMetrics) {
	s.metrics = m
}

// SetBatchSize overrides the number of requisitions handled per run
func (s *EscalationService) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// ProcessOverdue loads overdue Pending requisitions and escalates each one in
// its own transaction. A failure on one requisition does not stop the run.
func (s *EscalationService) ProcessOverdue(ctx context.Context) (EscalationStats, error) {
	var stats EscalationStats
	now := s.now()

	overdue, err := s.requisitionRepo.FindOverdueApprovals(ctx, now, s.batchSize)
	if err != nil {
		return stats, err
	}

	for i := range overdue {
		if ctx.Err() != nil {
			break
		}
		candidate := &overdue[i]
		stats.Processed++

		outcome, err := s.escalateOne(ctx, candidate.TenantID, candidate.ID, now)
		if err != nil {
			stats.Failed++
			s.logger.Warn("Failed to escalate requisition",
				zap.String("tenant_id", candidate.TenantID.String()),
				zap.String("requisition_id", candidate.ID.String()),
				zap.String("requisition_number", candidate.RequisitionNumber),
				zap.Error(err),
			)
			continue
		}
		switch outcome {
		case approval.EscalationAutoApproved:
			stats.AutoApproved++
		case approval.EscalationEscalated:
			stats.Escalated++
		}
		if outcome != "" {
			s.metrics.RecordEscalation(ctx, candidate.TenantID, string(outcome))
		}
	}

	if stats.Processed > 0 {
		s.logger.Info("Approval escalation run finished",
			zap.Int("processed", stats.Processed),
			zap.Int("auto_approved", stats.AutoApproved),
			zap.Int("escalated", stats.Escalated),
			zap.Int("failed", stats.Failed),
		)
	}
	return stats, nil
}

// escalateOne re-reads the requisition under lock; one that was approved,
// rejected or cancelled since the scan is skipped with an empty outcome.
func (s *EscalationService) escalateOne(ctx context.Context, tenantID, id uuid.UUID, now time.Time) (approval.EscalationOutcome, error) {
	var (
		req     *procurement.PurchaseRequisition
		outcome approval.EscalationOutcome
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		repo := repos.RequisitionRepo()
		var err error
		req, err = repo.FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if req.Status != procurement.RequisitionStatusPending || !req.IsOverdue(now) {
			return nil
		}
		outcome, err = req.Escalate(s.systemApproverID, now)
		if err != nil {
			return err
		}
		return repo.SaveWithLock(ctx, req)
	})
	if err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.metrics.RecordConcurrencyConflict(ctx, procurement.AggregateTypePurchaseRequisition)
		}
		return "", err
	}

	if outcome != "" {
		s.logger.Info("Requisition approval level escalated",
			zap.String("tenant_id", tenantID.String()),
			zap.String("requisition_id", id.String()),
			zap.String("requisition_number", req.RequisitionNumber),
			zap.String("outcome", string(outcome)),
			zap.String("status", req.Status.String()),
		)
		if err := shared.PublishAndClear(ctx, s.eventPublisher, req); err != nil {
			s.logger.Warn("Failed to publish escalation events", zap.Error(err))
		}
	}
	return outcome, nil
}
