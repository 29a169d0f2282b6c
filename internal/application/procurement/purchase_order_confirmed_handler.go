package procurement

import (
	"context"
	"fmt"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"go.uber.org/zap"
)

// PurchaseOrderConfirmedHandler counts confirmed orders against the supplier
type PurchaseOrderConfirmedHandler struct {
	directory SupplierDirectory
	logger    *zap.Logger
}

// NewPurchaseOrderConfirmedHandler creates a new handler for purchase order confirmed events
func NewPurchaseOrderConfirmedHandler(directory SupplierDirectory, logger *zap.Logger) *PurchaseOrderConfirmedHandler {
	return &PurchaseOrderConfirmedHandler{
		directory: directory,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PurchaseOrderConfirmedHandler) EventTypes() []string {
	return []string{procurement.EventTypePurchaseOrderConfirmed}
}

// Handle processes a PurchaseOrderConfirmed event. Counter failures are logged only.
func (h *PurchaseOrderConfirmedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	confirmed, ok := event.(*procurement.PurchaseOrderEvent)
	if !ok || confirmed.EventType() != procurement.EventTypePurchaseOrderConfirmed {
		h.logger.Error("unexpected event type",
			zap.String("expected", procurement.EventTypePurchaseOrderConfirmed),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			procurement.EventTypePurchaseOrderConfirmed, event.EventType())
	}

	if err := h.directory.IncrementOrderCount(ctx, confirmed.TenantID(), confirmed.SupplierID); err != nil {
		h.logger.Error("failed to update supplier order count",
			zap.String("order_number", confirmed.OrderNumber),
			zap.String("supplier_id", confirmed.SupplierID.String()),
			zap.Error(err),
		)
		return nil
	}

	h.logger.Debug("supplier order count updated",
		zap.String("order_number", confirmed.OrderNumber),
		zap.String("supplier_id", confirmed.SupplierID.String()),
	)
	return nil
}

var _ shared.EventHandler = (*PurchaseOrderConfirmedHandler)(nil)
