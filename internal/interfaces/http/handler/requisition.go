package handler

import (
	procurementapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// RequisitionHandler handles purchase requisition endpoints
type RequisitionHandler struct {
	BaseHandler
	requisitionService *procurementapp.RequisitionService
}

// NewRequisitionHandler creates a new RequisitionHandler
func NewRequisitionHandler(requisitionService *procurementapp.RequisitionService) *RequisitionHandler {
	return &RequisitionHandler{requisitionService: requisitionService}
}

// Create handles POST /requisitions. The caller becomes the requester.
func (h *RequisitionHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req procurementapp.CreateRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	requisition, err := h.requisitionService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, requisition)
}

// List handles GET /requisitions
func (h *RequisitionHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter procurementapp.RequisitionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	requisitions, total, err := h.requisitionService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, requisitions, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /requisitions/:id
func (h *RequisitionHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "requisition")
	if !ok {
		return
	}

	requisition, err := h.requisitionService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, requisition)
}

// GetByNumber handles GET /requisitions/number/:number
func (h *RequisitionHandler) GetByNumber(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	requisition, err := h.requisitionService.GetByNumber(c.Request.Context(), tenantID, c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, requisition)
}

// UpdateItems handles PUT /requisitions/:id/items
func (h *RequisitionHandler) UpdateItems(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "requisition")
	if !ok {
		return
	}

	var req procurementapp.UpdateRequisitionItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	requisition, err := h.requisitionService.UpdateItems(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, requisition)
}

// Submit handles POST /requisitions/:id/submit
func (h *RequisitionHandler) Submit(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "requisition")
	if !ok {
		return
	}

	requisition, err := h.requisitionService.Submit(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, requisition)
}

// Approve handles POST /requisitions/:id/approve
func (h *RequisitionHandler) Approve(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "requisition")
	if !ok {
		return
	}
	req, ok := bindOptionalJSON[procurementapp.ApprovalDecisionRequest](c, &h.BaseHandler)
	if !ok {
		return
	}

	requisition, err := h.requisitionService.Approve(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, requisition)
}

// Reject handles POST /requisitions/:id/reject
func (h *RequisitionHandler) Reject(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "requisition")
	if !ok {
		return
	}
	req, ok := bindOptionalJSON[procurementapp.ApprovalDecisionRequest](c, &h.BaseHandler)
	if !ok {
		return
	}

	requisition, err := h.requisitionService.Reject(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, requisition)
}

// Cancel handles POST /requisitions/:id/cancel
func (h *RequisitionHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "requisition")
	if !ok {
		return
	}
	req, ok := bindOptionalJSON[procurementapp.CancelRequest](c, &h.BaseHandler)
	if !ok {
		return
	}

	requisition, err := h.requisitionService.Cancel(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, requisition)
}

// Convert handles POST /requisitions/:id/convert.
// An Idempotency-Key header makes a retried conversion fail with DUPLICATE_REQUEST.
func (h *RequisitionHandler) Convert(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "requisition")
	if !ok {
		return
	}

	var req procurementapp.ConvertRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.requisitionService.Convert(
		c.Request.Context(), tenantID, id, c.GetHeader(middleware.IdempotencyKeyHeader), req,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// bindOptionalJSON binds a body that callers may omit entirely
func bindOptionalJSON[T any](c *gin.Context, h *BaseHandler) (T, bool) {
	var req T
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return req, false
	}
	return req, true
}
