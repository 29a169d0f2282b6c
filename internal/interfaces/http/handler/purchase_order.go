package handler

import (
	"context"

	procurementapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PurchaseOrderHandler handles purchase order endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService *procurementapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService *procurementapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

type orderTransition func(ctx context.Context, tenantID, id uuid.UUID) (*procurementapp.PurchaseOrderResponse, error)

// transition runs a body-less lifecycle step on the order named in the path
func (h *PurchaseOrderHandler) transition(c *gin.Context, fn orderTransition) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "purchase order")
	if !ok {
		return
	}

	order, err := fn(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Create handles POST /purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req procurementapp.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// List handles GET /purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter procurementapp.PurchaseOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /purchase-orders/:id
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	h.transition(c, h.orderService.GetByID)
}

// SubmitForApproval handles POST /purchase-orders/:id/submit
func (h *PurchaseOrderHandler) SubmitForApproval(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "purchase order")
	if !ok {
		return
	}
	req, ok := bindOptionalJSON[procurementapp.SubmitPurchaseOrderRequest](c, &h.BaseHandler)
	if !ok {
		return
	}

	order, err := h.orderService.SubmitForApproval(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Approve handles POST /purchase-orders/:id/approve
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	h.decide(c, h.orderService.Approve)
}

// Reject handles POST /purchase-orders/:id/reject
func (h *PurchaseOrderHandler) Reject(c *gin.Context) {
	h.decide(c, h.orderService.Reject)
}

func (h *PurchaseOrderHandler) decide(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, actorID, id uuid.UUID, req procurementapp.ApprovalDecisionRequest) (*procurementapp.PurchaseOrderResponse, error),
) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "purchase order")
	if !ok {
		return
	}
	req, ok := bindOptionalJSON[procurementapp.ApprovalDecisionRequest](c, &h.BaseHandler)
	if !ok {
		return
	}

	order, err := fn(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Reopen handles POST /purchase-orders/:id/reopen
func (h *PurchaseOrderHandler) Reopen(c *gin.Context) {
	h.transition(c, h.orderService.Reopen)
}

// Send handles POST /purchase-orders/:id/send
func (h *PurchaseOrderHandler) Send(c *gin.Context) {
	h.transition(c, h.orderService.Send)
}

// Confirm handles POST /purchase-orders/:id/confirm
func (h *PurchaseOrderHandler) Confirm(c *gin.Context) {
	h.transition(c, h.orderService.Confirm)
}

// MarkInTransit handles POST /purchase-orders/:id/in-transit
func (h *PurchaseOrderHandler) MarkInTransit(c *gin.Context) {
	h.transition(c, h.orderService.MarkInTransit)
}

// Receive handles POST /purchase-orders/:id/receive.
// An Idempotency-Key header makes a replayed delivery fail with DUPLICATE_REQUEST.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "purchase order")
	if !ok {
		return
	}

	var req procurementapp.ReceiveGoodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	receipt, err := h.orderService.Receive(
		c.Request.Context(), tenantID, userID, id, c.GetHeader(middleware.IdempotencyKeyHeader), req,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// Cancel handles POST /purchase-orders/:id/cancel
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "purchase order")
	if !ok {
		return
	}
	req, ok := bindOptionalJSON[procurementapp.CancelRequest](c, &h.BaseHandler)
	if !ok {
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// MarkInvoiced handles POST /purchase-orders/:id/invoice
func (h *PurchaseOrderHandler) MarkInvoiced(c *gin.Context) {
	h.transition(c, h.orderService.MarkInvoiced)
}

// MarkPaid handles POST /purchase-orders/:id/pay
func (h *PurchaseOrderHandler) MarkPaid(c *gin.Context) {
	h.transition(c, h.orderService.MarkPaid)
}

// Complete handles POST /purchase-orders/:id/complete
func (h *PurchaseOrderHandler) Complete(c *gin.Context) {
	h.transition(c, h.orderService.Complete)
}
