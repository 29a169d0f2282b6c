package procurement

import (
	"context"
	"fmt"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"go.uber.org/zap"
)

// PurchaseOrderSentHandler e-mails the order to the supplier when it is sent.
// Delivery is best effort: failures are logged and never fail the event.
type PurchaseOrderSentHandler struct {
	notifier  SupplierNotifier
	directory SupplierDirectory
	logger    *zap.Logger
}

// NewPurchaseOrderSentHandler creates a new handler for purchase order sent events.
// directory may be nil; it is only consulted when the order carries no supplier e-mail.
func NewPurchaseOrderSentHandler(notifier SupplierNotifier, directory SupplierDirectory, logger *zap.Logger) *PurchaseOrderSentHandler {
	return &PurchaseOrderSentHandler{
		notifier:  notifier,
		directory: directory,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PurchaseOrderSentHandler) EventTypes() []string {
	return []string{procurement.EventTypePurchaseOrderSent}
}

// Handle processes a PurchaseOrderSentEvent
func (h *PurchaseOrderSentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	sent, ok := event.(*procurement.PurchaseOrderSentEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", procurement.EventTypePurchaseOrderSent),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			procurement.EventTypePurchaseOrderSent, event.EventType())
	}

	email := sent.SupplierEmail
	if email == "" && h.directory != nil {
		var err error
		email, err = h.directory.ContactEmail(ctx, sent.TenantID(), sent.SupplierID)
		if err != nil {
			h.logger.Warn("failed to look up supplier e-mail",
				zap.String("order_number", sent.OrderNumber),
				zap.String("supplier_id", sent.SupplierID.String()),
				zap.Error(err),
			)
		}
	}
	if email == "" {
		h.logger.Warn("supplier has no e-mail address, purchase order not e-mailed",
			zap.String("order_number", sent.OrderNumber),
			zap.String("supplier_id", sent.SupplierID.String()),
		)
		return nil
	}

	lines := make([]PurchaseOrderMessageLine, len(sent.Items))
	for i, item := range sent.Items {
		lines[i] = PurchaseOrderMessageLine{
			Description: item.Description,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
	}
	msg := PurchaseOrderMessage{
		TenantID:        sent.TenantID(),
		OrderID:         sent.OrderID,
		OrderNumber:     sent.OrderNumber,
		SupplierName:    sent.SupplierName,
		SupplierEmail:   email,
		DeliveryAddress: sent.DeliveryAddress,
		Lines:           lines,
		TotalAmount:     sent.TotalAmount,
		TaxAmount:       sent.TaxAmount,
		ShippingCost:    sent.ShippingCost,
		GrandTotal:      sent.GrandTotal,
	}

	if err := h.notifier.NotifyPurchaseOrderSent(ctx, msg); err != nil {
		h.logger.Error("failed to e-mail purchase order to supplier",
			zap.String("order_number", sent.OrderNumber),
			zap.String("supplier_email", email),
			zap.Error(err),
		)
		return nil
	}

	h.logger.Info("purchase order e-mailed to supplier",
		zap.String("order_number", sent.OrderNumber),
		zap.String("supplier_email", email),
	)
	return nil
}

var _ shared.EventHandler = (*PurchaseOrderSentHandler)(nil)
